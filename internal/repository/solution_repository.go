package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/dev-lms/lms-api/internal/models"
)

// GradeParams carries the fields a grading action writes onto a solution.
type GradeParams struct {
	SolutionID string
	Score      *int
	Feedback   *string
	WorkerID   string
	StatusID   *string
	GradedTime time.Time
}

// SolutionRepository handles persistence of submitted solutions.
type SolutionRepository struct {
	db *sqlx.DB
}

// NewSolutionRepository constructs the repository.
func NewSolutionRepository(db *sqlx.DB) *SolutionRepository {
	return &SolutionRepository{db: db}
}

// Create persists a new solution record.
func (r *SolutionRepository) Create(ctx context.Context, solution *models.Solution) error {
	if solution.ID == "" {
		solution.ID = uuid.NewString()
	}
	if solution.SubmitTime.IsZero() {
		solution.SubmitTime = time.Now().UTC()
	}
	const query = `INSERT INTO solutions (id, content, submit_time, score, graded_time, feedback, assignment_id, student_id, worker_id, status_id)
        VALUES (:id, :content, :submit_time, :score, :graded_time, :feedback, :assignment_id, :student_id, :worker_id, :status_id)`
	if _, err := r.db.NamedExecContext(ctx, query, solution); err != nil {
		return err
	}
	return nil
}

// FindByID returns a solution by its ID.
func (r *SolutionRepository) FindByID(ctx context.Context, id string) (*models.Solution, error) {
	const query = `SELECT id, content, submit_time, score, graded_time, feedback, assignment_id, student_id, worker_id, status_id
        FROM solutions WHERE id = $1`
	var solution models.Solution
	if err := r.db.GetContext(ctx, &solution, query, id); err != nil {
		return nil, err
	}
	return &solution, nil
}

// FindDetailByID returns a solution with grading context.
func (r *SolutionRepository) FindDetailByID(ctx context.Context, id string) (*models.SolutionDetail, error) {
	const query = `SELECT sol.id, sol.content, sol.submit_time, sol.score, sol.graded_time, sol.feedback, sol.assignment_id, sol.student_id, sol.worker_id, sol.status_id,
        st.code AS status_code, st.name AS status_name,
        a.title AS assignment_title, a.max_score,
        s.last_name AS student_last_name, s.first_name AS student_first_name, s.middle_name AS student_middle_name
        FROM solutions sol
        JOIN solution_statuses st ON st.id = sol.status_id
        JOIN assignments a ON a.id = sol.assignment_id
        JOIN students s ON s.id = sol.student_id
        WHERE sol.id = $1`
	var detail models.SolutionDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Grade applies a grading action. A nil StatusID leaves the current status in
// place, which is how a score-only update keeps an ungraded submission
// ungraded.
func (r *SolutionRepository) Grade(ctx context.Context, params GradeParams) error {
	const query = `UPDATE solutions SET score = $2, feedback = $3, worker_id = $4,
        status_id = COALESCE($5, status_id), graded_time = $6 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, params.SolutionID, params.Score, params.Feedback, params.WorkerID, params.StatusID, params.GradedTime)
	if err != nil {
		return fmt.Errorf("grade solution: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("grade rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListByAssignment returns all solutions for an assignment with context.
func (r *SolutionRepository) ListByAssignment(ctx context.Context, assignmentID string) ([]models.SolutionDetail, error) {
	const query = `SELECT sol.id, sol.content, sol.submit_time, sol.score, sol.graded_time, sol.feedback, sol.assignment_id, sol.student_id, sol.worker_id, sol.status_id,
        st.code AS status_code, st.name AS status_name,
        a.title AS assignment_title, a.max_score,
        s.last_name AS student_last_name, s.first_name AS student_first_name, s.middle_name AS student_middle_name
        FROM solutions sol
        JOIN solution_statuses st ON st.id = sol.status_id
        JOIN assignments a ON a.id = sol.assignment_id
        JOIN students s ON s.id = sol.student_id
        WHERE sol.assignment_id = $1
        ORDER BY sol.submit_time`
	var solutions []models.SolutionDetail
	if err := r.db.SelectContext(ctx, &solutions, query, assignmentID); err != nil {
		return nil, fmt.Errorf("list assignment solutions: %w", err)
	}
	return solutions, nil
}

// ListByStudent returns all solutions submitted by a student.
func (r *SolutionRepository) ListByStudent(ctx context.Context, studentID string) ([]models.SolutionDetail, error) {
	const query = `SELECT sol.id, sol.content, sol.submit_time, sol.score, sol.graded_time, sol.feedback, sol.assignment_id, sol.student_id, sol.worker_id, sol.status_id,
        st.code AS status_code, st.name AS status_name,
        a.title AS assignment_title, a.max_score,
        s.last_name AS student_last_name, s.first_name AS student_first_name, s.middle_name AS student_middle_name
        FROM solutions sol
        JOIN solution_statuses st ON st.id = sol.status_id
        JOIN assignments a ON a.id = sol.assignment_id
        JOIN students s ON s.id = sol.student_id
        WHERE sol.student_id = $1
        ORDER BY sol.submit_time DESC`
	var solutions []models.SolutionDetail
	if err := r.db.SelectContext(ctx, &solutions, query, studentID); err != nil {
		return nil, fmt.Errorf("list student solutions: %w", err)
	}
	return solutions, nil
}
