package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/dev-lms/lms-api/internal/models"
)

// CourseFilter narrows course listings.
type CourseFilter struct {
	CategoryID string
	StatusCode models.CourseStatusCode
	Search     string
	Page       int
	PageSize   int
}

// CourseRepository handles persistence of courses and their lookups.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// Create persists a new course record.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	const query = `INSERT INTO courses (id, name, description, study_direction, start_date, end_date, hours_count, result_competence, category_id, status_id)
        VALUES (:id, :name, :description, :study_direction, :start_date, :end_date, :hours_count, :result_competence, :category_id, :status_id)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// Update rewrites the mutable fields of a course.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	const query = `UPDATE courses SET name = :name, description = :description, study_direction = :study_direction,
        start_date = :start_date, end_date = :end_date, hours_count = :hours_count,
        result_competence = :result_competence, category_id = :category_id, status_id = :status_id
        WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, course)
	if err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update course rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// FindByID returns a course by its ID.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	const query = `SELECT id, name, description, study_direction, start_date, end_date, hours_count, result_competence, category_id, status_id
        FROM courses WHERE id = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// FindDetailByID returns a course with resolved category and status.
func (r *CourseRepository) FindDetailByID(ctx context.Context, id string) (*models.CourseDetail, error) {
	const query = `SELECT c.id, c.name, c.description, c.study_direction, c.start_date, c.end_date, c.hours_count, c.result_competence, c.category_id, c.status_id,
        cat.name AS category_name, st.code AS status_code, st.name AS status_name
        FROM courses c
        JOIN course_categories cat ON cat.id = c.category_id
        JOIN course_statuses st ON st.id = c.status_id
        WHERE c.id = $1`
	var detail models.CourseDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// List returns courses filtered by the provided criteria.
func (r *CourseRepository) List(ctx context.Context, filter CourseFilter) ([]models.CourseDetail, int, error) {
	base := `FROM courses c
JOIN course_categories cat ON cat.id = c.category_id
JOIN course_statuses st ON st.id = c.status_id`
	var conditions []string
	var args []interface{}

	if filter.CategoryID != "" {
		conditions = append(conditions, fmt.Sprintf("c.category_id = $%d", len(args)+1))
		args = append(args, filter.CategoryID)
	}
	if filter.StatusCode != "" {
		conditions = append(conditions, fmt.Sprintf("st.code = $%d", len(args)+1))
		args = append(args, filter.StatusCode)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("c.name ILIKE $%d", len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT c.id, c.name, c.description, c.study_direction, c.start_date, c.end_date, c.hours_count, c.result_competence, c.category_id, c.status_id,
        cat.name AS category_name, st.code AS status_code, st.name AS status_name
        %s ORDER BY c.start_date DESC LIMIT %d OFFSET %d`, base+clause, size, offset)

	var courses []models.CourseDetail
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}
	return courses, total, nil
}

// Delete removes a course.
func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete course rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListCategories returns all course categories.
func (r *CourseRepository) ListCategories(ctx context.Context) ([]models.CourseCategory, error) {
	const query = `SELECT id, name FROM course_categories ORDER BY name`
	var categories []models.CourseCategory
	if err := r.db.SelectContext(ctx, &categories, query); err != nil {
		return nil, fmt.Errorf("list course categories: %w", err)
	}
	return categories, nil
}

// CourseStatusByCode returns the course status row for a code.
func (r *CourseRepository) CourseStatusByCode(ctx context.Context, code models.CourseStatusCode) (*models.CourseStatus, error) {
	const query = `SELECT id, code, name FROM course_statuses WHERE code = $1`
	var status models.CourseStatus
	if err := r.db.GetContext(ctx, &status, query, code); err != nil {
		return nil, err
	}
	return &status, nil
}
