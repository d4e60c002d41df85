package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lidtrainer/examcore/internal/model"
)

var (
	// ErrNotFound is returned when a requested exam or attempt does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrInUse is returned when a row cannot be deleted because others reference it.
	ErrInUse = errors.New("record is referenced")
)

const pgForeignKeyViolation = "23503"

const examColumns = `id, title, provider, level, status, created_at, updated_at`

// ExamRepository handles exam data access.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

func scanExam(row pgx.Row) (*model.Exam, error) {
	e := &model.Exam{}
	err := row.Scan(&e.ID, &e.Title, &e.Provider, &e.Level, &e.Status, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// GetByID retrieves an exam with its ordered sections.
func (r *ExamRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	e, err := scanExam(r.pool.QueryRow(ctx, `SELECT `+examColumns+` FROM exams WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	sections, err := r.sectionsFor(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	e.Sections = nonNilSections(sections[id])
	return e, nil
}

// ListPaginated retrieves exams without their sections, newest first.
func (r *ExamRepository) ListPaginated(ctx context.Context, status model.ExamStatus, limit, offset int) ([]model.Exam, int, error) {
	where := ""
	var args []any
	if status != "" {
		where = ` WHERE status = $1`
		args = append(args, string(status))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM exams`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + examColumns + ` FROM exams` + where + ` ORDER BY created_at DESC, id`
	if status != "" {
		query += ` LIMIT $2 OFFSET $3`
	} else {
		query += ` LIMIT $1 OFFSET $2`
	}
	args = append(args, limit, offset)

	exams, err := r.queryExams(ctx, query, args...)
	return exams, total, err
}

// ListAllWithSections returns every exam with its sections.
// Used by the readiness worker and the maintenance check.
func (r *ExamRepository) ListAllWithSections(ctx context.Context) ([]model.Exam, error) {
	exams, err := r.queryExams(ctx, `SELECT `+examColumns+` FROM exams ORDER BY created_at, id`)
	if err != nil || len(exams) == 0 {
		return exams, err
	}

	ids := make([]uuid.UUID, len(exams))
	for i := range exams {
		ids[i] = exams[i].ID
	}
	sections, err := r.sectionsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range exams {
		exams[i].Sections = nonNilSections(sections[exams[i].ID])
	}
	return exams, nil
}

func (r *ExamRepository) queryExams(ctx context.Context, query string, args ...any) ([]model.Exam, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exams []model.Exam
	for rows.Next() {
		e, err := scanExam(rows)
		if err != nil {
			return nil, err
		}
		exams = append(exams, *e)
	}
	return exams, rows.Err()
}

func (r *ExamRepository) sectionsFor(ctx context.Context, examIDs []uuid.UUID) (map[uuid.UUID][]model.Section, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT exam_id, id, position, title, quota, tags, level, provider, state, items
		 FROM exam_sections WHERE exam_id = ANY($1)
		 ORDER BY exam_id, position`, examIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]model.Section, len(examIDs))
	for rows.Next() {
		var examID uuid.UUID
		var s model.Section
		if err := rows.Scan(&examID, &s.ID, &s.Position, &s.Title, &s.Quota, &s.Tags,
			&s.Level, &s.Provider, &s.State, &s.Items); err != nil {
			return nil, err
		}
		out[examID] = append(out[examID], s)
	}
	return out, rows.Err()
}

// Create inserts an exam and its sections in one transaction.
func (r *ExamRepository) Create(ctx context.Context, e *model.Exam) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	err = tx.QueryRow(ctx,
		`INSERT INTO exams (title, provider, level, status)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		e.Title, e.Provider, e.Level, string(e.Status),
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return err
	}

	if err := insertSections(ctx, tx, e.ID, e.Sections); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Update changes an exam's header fields.
func (r *ExamRepository) Update(ctx context.Context, e *model.Exam) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE exams SET title = $1, provider = $2, level = $3, updated_at = NOW()
		 WHERE id = $4
		 RETURNING updated_at`,
		e.Title, e.Provider, e.Level, e.ID,
	).Scan(&e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// ReplaceSections atomically replaces every section of an exam.
func (r *ExamRepository) ReplaceSections(ctx context.Context, examID uuid.UUID, sections []model.Section) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	tag, err := tx.Exec(ctx, `UPDATE exams SET updated_at = NOW() WHERE id = $1`, examID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM exam_sections WHERE exam_id = $1`, examID); err != nil {
		return err
	}
	if err := insertSections(ctx, tx, examID, sections); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func insertSections(ctx context.Context, tx pgx.Tx, examID uuid.UUID, sections []model.Section) error {
	if len(sections) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i := range sections {
		s := &sections[i]
		s.Position = i
		items := s.Items
		if items == nil {
			items = []model.SectionItem{}
		}
		batch.Queue(
			`INSERT INTO exam_sections (exam_id, position, title, quota, tags, level, provider, state, items)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 RETURNING id`,
			examID, s.Position, s.Title, s.Quota, nonNilStrings(s.Tags), s.Level, s.Provider, s.State, items,
		).QueryRow(func(row pgx.Row) error {
			return row.Scan(&s.ID)
		})
	}
	return tx.SendBatch(ctx, batch).Close()
}

// UpdateStatus updates an exam's status.
func (r *ExamRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.ExamStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE exams SET status = $1, updated_at = NOW() WHERE id = $2`,
		string(status), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an exam and, by cascade, its sections.
func (r *ExamRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM exams WHERE id = $1`, id)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
		return ErrInUse
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func nonNilSections(v []model.Section) []model.Section {
	if v == nil {
		return []model.Section{}
	}
	return v
}
