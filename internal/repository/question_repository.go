package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lidtrainer/examcore/internal/composition"
	"github.com/lidtrainer/examcore/internal/model"
)

const questionColumns = `id, status, provider, level, state, tags, q_type, prompt,
	options, match_pairs, explanation, image_url, created_at, updated_at`

// QuestionRepository handles question data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

func scanQuestion(row pgx.Row) (*model.Question, error) {
	q := &model.Question{}
	err := row.Scan(&q.ID, &q.Status, &q.Provider, &q.Level, &q.State, &q.Tags, &q.QType, &q.Prompt,
		&q.Options, &q.MatchPairs, &q.Explanation, &q.ImageURL, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return q, nil
}

func collectQuestions(rows pgx.Rows) ([]model.Question, error) {
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, *q)
	}
	return questions, rows.Err()
}

// whereClause renders a selection filter into SQL conditions, appending to args.
func whereClause(f composition.Filter, args []any) (string, []any) {
	var conds []string
	add := func(expr string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(expr, len(args)))
	}

	add("status = $%d", string(f.Status))
	if f.Level != "" {
		add("level = $%d", f.Level)
	}
	if f.State != "" {
		add("state = $%d", f.State)
	}
	if len(f.Providers) > 0 {
		add("provider = ANY($%d)", f.Providers)
	}
	if len(f.Tags) > 0 {
		add("tags && $%d", f.Tags)
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// FindPublishedByFilter returns every question matching the selection filter.
func (r *QuestionRepository) FindPublishedByFilter(ctx context.Context, f composition.Filter) ([]model.Question, error) {
	where, args := whereClause(f, nil)
	rows, err := r.pool.Query(ctx, `SELECT `+questionColumns+` FROM questions`+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, err
	}
	return collectQuestions(rows)
}

// CountPublishedByFilter counts questions matching the selection filter.
func (r *QuestionRepository) CountPublishedByFilter(ctx context.Context, f composition.Filter) (int, error) {
	where, args := whereClause(f, nil)
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM questions`+where, args...).Scan(&n)
	return n, err
}

// FindByID retrieves a question by its UUID.
func (r *QuestionRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	q, err := scanQuestion(r.pool.QueryRow(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, composition.ErrQuestionNotFound
	}
	return q, err
}

// List retrieves questions with pagination and optional filters.
func (r *QuestionRepository) List(ctx context.Context, f model.QuestionListFilter, limit, offset int) ([]model.Question, int, error) {
	var conds []string
	var args []any
	add := func(expr string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(expr, len(args)))
	}

	if f.Status != "" {
		add("status = $%d", string(f.Status))
	}
	if len(f.Providers) > 0 {
		add("provider = ANY($%d)", f.Providers)
	}
	if f.Level != "" {
		add("level = $%d", f.Level)
	}
	if f.Tag != "" {
		add("$%d = ANY(tags)", f.Tag)
	}
	if f.Search != "" {
		add("prompt ILIKE $%d", "%"+f.Search+"%")
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM questions`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM questions%s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		questionColumns, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	questions, err := collectQuestions(rows)
	return questions, total, err
}

const insertQuestionSQL = `INSERT INTO questions
	(status, provider, level, state, tags, q_type, prompt, options, match_pairs, explanation, image_url)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	RETURNING id, created_at, updated_at`

func insertArgs(q *model.Question) []any {
	return []any{
		string(q.Status), q.Provider, q.Level, q.State, nonNilStrings(q.Tags), string(q.QType), q.Prompt,
		nonNilOptions(q.Options), nonNilPairs(q.MatchPairs), q.Explanation, q.ImageURL,
	}
}

// Create inserts a new question.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	return r.pool.QueryRow(ctx, insertQuestionSQL, insertArgs(q)...).
		Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
}

// CreateMany inserts all questions in one transaction; either all or none are stored.
func (r *QuestionRepository) CreateMany(ctx context.Context, questions []model.Question) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	batch := &pgx.Batch{}
	for i := range questions {
		q := &questions[i]
		batch.Queue(insertQuestionSQL, insertArgs(q)...).QueryRow(func(row pgx.Row) error {
			return row.Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
		})
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert questions: %w", err)
	}
	return tx.Commit(ctx)
}

// Update overwrites a question's content.
func (r *QuestionRepository) Update(ctx context.Context, q *model.Question) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE questions
		 SET status = $1, provider = $2, level = $3, state = $4, tags = $5, q_type = $6, prompt = $7,
		     options = $8, match_pairs = $9, explanation = $10, image_url = $11, updated_at = NOW()
		 WHERE id = $12
		 RETURNING created_at, updated_at`,
		append(insertArgs(q), q.ID)...,
	).Scan(&q.CreatedAt, &q.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return composition.ErrQuestionNotFound
	}
	return err
}

// UpdateStatus changes a question's lifecycle status.
func (r *QuestionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.QuestionStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE questions SET status = $1, updated_at = NOW() WHERE id = $2`, string(status), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return composition.ErrQuestionNotFound
	}
	return nil
}

// Delete hard-deletes a question. Attempt snapshots keep their copy.
func (r *QuestionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return composition.ErrQuestionNotFound
	}
	return nil
}

func nonNilStrings(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func nonNilOptions(v []model.Option) []model.Option {
	if v == nil {
		return []model.Option{}
	}
	return v
}

func nonNilPairs(v []model.MatchPair) []model.MatchPair {
	if v == nil {
		return []model.MatchPair{}
	}
	return v
}
