package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/dev-lms/lms-api/internal/models"
)

// ProgressRepository handles persistence of studying progress rows.
type ProgressRepository struct {
	db *sqlx.DB
}

// NewProgressRepository constructs the repository.
func NewProgressRepository(db *sqlx.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// FindByRequestID returns the progress row for a request.
func (r *ProgressRepository) FindByRequestID(ctx context.Context, requestID string) (*models.StudyingProgress, error) {
	const query = `SELECT id, request_id, education_start_date, graduation_date, final_grade, final_exam_result, percent, status_id
        FROM studying_progress WHERE request_id = $1`
	var progress models.StudyingProgress
	if err := r.db.GetContext(ctx, &progress, query, requestID); err != nil {
		return nil, err
	}
	return &progress, nil
}

// GetOrCreate returns the progress row for a request, inserting a fresh one
// when none exists yet. The conflict clause makes concurrent first calls
// converge on a single row, after which the select returns whichever insert
// won.
func (r *ProgressRepository) GetOrCreate(ctx context.Context, fresh *models.StudyingProgress) (*models.StudyingProgress, error) {
	if fresh.ID == "" {
		fresh.ID = uuid.NewString()
	}
	if fresh.EducationStartDate.IsZero() {
		fresh.EducationStartDate = time.Now().UTC()
	}
	const insertQuery = `INSERT INTO studying_progress (id, request_id, education_start_date, graduation_date, final_grade, final_exam_result, percent, status_id)
        VALUES (:id, :request_id, :education_start_date, :graduation_date, :final_grade, :final_exam_result, :percent, :status_id)
        ON CONFLICT (request_id) DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, insertQuery, fresh); err != nil {
		return nil, fmt.Errorf("insert progress: %w", err)
	}
	return r.FindByRequestID(ctx, fresh.RequestID)
}

// UpdatePercent writes the new percent and optionally stamps the graduation
// date. COALESCE keeps an already set graduation date over the new value.
func (r *ProgressRepository) UpdatePercent(ctx context.Context, id string, percent int, graduationDate *time.Time) error {
	const query = `UPDATE studying_progress SET percent = $2, graduation_date = COALESCE(graduation_date, $3) WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, percent, graduationDate); err != nil {
		return fmt.Errorf("update progress percent: %w", err)
	}
	return nil
}

// UpdateStatus moves the progress row to a new status.
func (r *ProgressRepository) UpdateStatus(ctx context.Context, id, statusID string) error {
	const query = `UPDATE studying_progress SET status_id = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, statusID); err != nil {
		return fmt.Errorf("update progress status: %w", err)
	}
	return nil
}

// UpdateFinals writes the final grade and exam result.
func (r *ProgressRepository) UpdateFinals(ctx context.Context, id string, finalGrade, finalExamResult *int) error {
	const query = `UPDATE studying_progress SET final_grade = $2, final_exam_result = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, finalGrade, finalExamResult); err != nil {
		return fmt.Errorf("update progress finals: %w", err)
	}
	return nil
}

// ListByGroup returns per-student progress for everyone placed in the group.
func (r *ProgressRepository) ListByGroup(ctx context.Context, groupID string) ([]models.StudentProgressView, error) {
	const query = `SELECT s.id AS student_id, s.last_name AS student_last_name, s.first_name AS student_first_name,
        s.middle_name AS student_middle_name, s.email,
        p.percent, ss.name AS status_name, p.education_start_date, p.graduation_date
        FROM studying_progress p
        JOIN requests rq ON rq.id = p.request_id
        JOIN students s ON s.id = rq.student_id
        JOIN studying_statuses ss ON ss.id = p.status_id
        WHERE rq.group_id = $1
        ORDER BY s.last_name, s.first_name`
	var rows []models.StudentProgressView
	if err := r.db.SelectContext(ctx, &rows, query, groupID); err != nil {
		return nil, fmt.Errorf("list group progress: %w", err)
	}
	return rows, nil
}
