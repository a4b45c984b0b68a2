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

// AssignmentRepository handles persistence of assignments.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// Create persists a new assignment record.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO assignments (id, title, description, deadline, max_score, group_id, created_by, created_at)
        VALUES (:id, :title, :description, :deadline, :max_score, :group_id, :created_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// Update rewrites the mutable fields of an assignment.
func (r *AssignmentRepository) Update(ctx context.Context, assignment *models.Assignment) error {
	const query = `UPDATE assignments SET title = :title, description = :description, deadline = :deadline, max_score = :max_score
        WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, assignment)
	if err != nil {
		return fmt.Errorf("update assignment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update assignment rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// FindByID returns an assignment by its ID.
func (r *AssignmentRepository) FindByID(ctx context.Context, id string) (*models.Assignment, error) {
	const query = `SELECT id, title, description, deadline, max_score, group_id, created_by, created_at
        FROM assignments WHERE id = $1`
	var assignment models.Assignment
	if err := r.db.GetContext(ctx, &assignment, query, id); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// ListByGroup returns assignments of a group with author info.
func (r *AssignmentRepository) ListByGroup(ctx context.Context, groupID string) ([]models.AssignmentDetail, error) {
	const query = `SELECT a.id, a.title, a.description, a.deadline, a.max_score, a.group_id, a.created_by, a.created_at,
        g.name AS group_name,
        w.last_name AS author_last_name, w.first_name AS author_first_name, w.middle_name AS author_middle_name
        FROM assignments a
        JOIN groups g ON g.id = a.group_id
        JOIN workers w ON w.id = a.created_by
        WHERE a.group_id = $1
        ORDER BY a.created_at DESC`
	var assignments []models.AssignmentDetail
	if err := r.db.SelectContext(ctx, &assignments, query, groupID); err != nil {
		return nil, fmt.Errorf("list group assignments: %w", err)
	}
	return assignments, nil
}

// ListByCourse returns assignments of every group belonging to a course.
func (r *AssignmentRepository) ListByCourse(ctx context.Context, courseID string) ([]models.AssignmentDetail, error) {
	const query = `SELECT a.id, a.title, a.description, a.deadline, a.max_score, a.group_id, a.created_by, a.created_at,
        g.name AS group_name,
        w.last_name AS author_last_name, w.first_name AS author_first_name, w.middle_name AS author_middle_name
        FROM assignments a
        JOIN groups g ON g.id = a.group_id
        JOIN workers w ON w.id = a.created_by
        WHERE g.course_id = $1
        ORDER BY a.created_at DESC`
	var assignments []models.AssignmentDetail
	if err := r.db.SelectContext(ctx, &assignments, query, courseID); err != nil {
		return nil, fmt.Errorf("list course assignments: %w", err)
	}
	return assignments, nil
}

// Delete removes an assignment.
func (r *AssignmentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM assignments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete assignment rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
