package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lidtrainer/examcore/internal/model"
)

// AttemptRepository handles attempt and snapshot data access.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

// Create stores an attempt and all of its snapshot items in one transaction.
func (r *AttemptRepository) Create(ctx context.Context, a *model.Attempt) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	err = tx.QueryRow(ctx,
		`INSERT INTO attempts (exam_id, student_id, seed, status)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		a.ExamID, a.StudentID, a.Seed, string(a.Status),
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return err
	}

	rows := make([][]any, len(a.Items))
	for i, it := range a.Items {
		rows[i] = []any{
			a.ID, it.Position, it.SectionIndex, it.QuestionID, it.Points, string(it.QType), it.Prompt,
			nonNilOptions(it.Options), nonNilPairs(it.MatchPairs), it.ImageURL,
		}
	}
	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"attempt_items"},
		[]string{"attempt_id", "position", "section_index", "question_id", "points", "q_type", "prompt",
			"options", "match_pairs", "image_url"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("copy attempt items: %w", err)
	}

	return tx.Commit(ctx)
}

// GetByID retrieves an attempt with its snapshot items ordered by position.
func (r *AttemptRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Attempt, error) {
	a := &model.Attempt{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, exam_id, student_id, seed, status, created_at FROM attempts WHERE id = $1`, id,
	).Scan(&a.ID, &a.ExamID, &a.StudentID, &a.Seed, &a.Status, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT position, section_index, question_id, points, q_type, prompt,
		        options, match_pairs, image_url, source_deleted_at
		 FROM attempt_items WHERE attempt_id = $1
		 ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	a.Items = []model.AttemptItem{}
	for rows.Next() {
		var it model.AttemptItem
		if err := rows.Scan(&it.Position, &it.SectionIndex, &it.QuestionID, &it.Points, &it.QType, &it.Prompt,
			&it.Options, &it.MatchPairs, &it.ImageURL, &it.SourceDeletedAt); err != nil {
			return nil, err
		}
		a.Items = append(a.Items, it)
	}
	return a, rows.Err()
}

// CountOrphanedItems counts snapshot items that still point at a deleted question.
func (r *AttemptRepository) CountOrphanedItems(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM attempt_items ai
		 WHERE ai.question_id IS NOT NULL
		   AND NOT EXISTS (SELECT 1 FROM questions q WHERE q.id = ai.question_id)`,
	).Scan(&n)
	return n, err
}

// RepairDeletedQuestionRefs detaches snapshot items from deleted questions and
// stamps when the loss was detected. The captured content is left untouched.
func (r *AttemptRepository) RepairDeletedQuestionRefs(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE attempt_items ai
		 SET question_id = NULL, source_deleted_at = NOW()
		 WHERE ai.question_id IS NOT NULL
		   AND NOT EXISTS (SELECT 1 FROM questions q WHERE q.id = ai.question_id)`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
