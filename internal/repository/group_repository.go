package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/dev-lms/lms-api/internal/models"
)

// GroupRepository handles persistence of study groups.
type GroupRepository struct {
	db *sqlx.DB
}

// NewGroupRepository constructs the repository.
func NewGroupRepository(db *sqlx.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// Create persists a new group record.
func (r *GroupRepository) Create(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.NewString()
	}
	const query = `INSERT INTO groups (id, name, student_count, max_student_count, course_id)
        VALUES (:id, :name, :student_count, :max_student_count, :course_id)`
	if _, err := r.db.NamedExecContext(ctx, query, group); err != nil {
		return fmt.Errorf("create group: %w", err)
	}
	return nil
}

// Update rewrites the mutable fields of a group.
func (r *GroupRepository) Update(ctx context.Context, group *models.Group) error {
	const query = `UPDATE groups SET name = :name, max_student_count = :max_student_count WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, group)
	if err != nil {
		return fmt.Errorf("update group: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update group rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// FindByID returns a group by its ID.
func (r *GroupRepository) FindByID(ctx context.Context, id string) (*models.Group, error) {
	const query = `SELECT id, name, student_count, max_student_count, course_id FROM groups WHERE id = $1`
	var group models.Group
	if err := r.db.GetContext(ctx, &group, query, id); err != nil {
		return nil, err
	}
	return &group, nil
}

// ListByCourse returns groups attached to a course.
func (r *GroupRepository) ListByCourse(ctx context.Context, courseID string) ([]models.GroupDetail, error) {
	const query = `SELECT g.id, g.name, g.student_count, g.max_student_count, g.course_id, c.name AS course_name
        FROM groups g
        JOIN courses c ON c.id = g.course_id
        WHERE g.course_id = $1
        ORDER BY g.name`
	var groups []models.GroupDetail
	if err := r.db.SelectContext(ctx, &groups, query, courseID); err != nil {
		return nil, fmt.Errorf("list course groups: %w", err)
	}
	return groups, nil
}

// List returns all groups with their course names.
func (r *GroupRepository) List(ctx context.Context) ([]models.GroupDetail, error) {
	const query = `SELECT g.id, g.name, g.student_count, g.max_student_count, g.course_id, c.name AS course_name
        FROM groups g
        JOIN courses c ON c.id = g.course_id
        ORDER BY c.name, g.name`
	var groups []models.GroupDetail
	if err := r.db.SelectContext(ctx, &groups, query); err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}

// AdjustStudentCount shifts the cached member count by delta, clamped at
// zero.
func (r *GroupRepository) AdjustStudentCount(ctx context.Context, id string, delta int) error {
	const query = `UPDATE groups SET student_count = GREATEST(student_count + $2, 0) WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, delta); err != nil {
		return fmt.Errorf("adjust group count: %w", err)
	}
	return nil
}

// Delete removes a group.
func (r *GroupRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM groups WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete group rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
