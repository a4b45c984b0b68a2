package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/dev-lms/lms-api/internal/models"
)

// RequestFilter narrows request listings.
type RequestFilter struct {
	StudentID  string
	CourseID   string
	StatusCode models.RequestStatusCode
	Page       int
	PageSize   int
}

// DecideParams carries the fields a staff decision writes onto a request.
type DecideParams struct {
	RequestID      string
	WorkerID       string
	GroupID        *string
	StatusID       string
	ProcessingTime time.Time
}

// RequestRepository handles persistence of enrollment requests. Decision and
// deletion paths run inside explicit transactions because they touch the
// progress table as well.
type RequestRepository struct {
	db *sqlx.DB
}

// NewRequestRepository constructs the repository.
func NewRequestRepository(db *sqlx.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// Create persists a new request record. The unique constraint on
// (student_id, course_id) rejects duplicate applications at the database
// level regardless of concurrent callers.
func (r *RequestRepository) Create(ctx context.Context, request *models.Request) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	if request.CreateTime.IsZero() {
		request.CreateTime = time.Now().UTC()
	}
	const query = `INSERT INTO requests (id, create_time, processing_time, request_text, student_id, course_id, worker_id, group_id, status_id)
        VALUES (:id, :create_time, :processing_time, :request_text, :student_id, :course_id, :worker_id, :group_id, :status_id)`
	if _, err := r.db.NamedExecContext(ctx, query, request); err != nil {
		return err
	}
	return nil
}

// FindByID returns a request by its ID.
func (r *RequestRepository) FindByID(ctx context.Context, id string) (*models.Request, error) {
	const query = `SELECT id, create_time, processing_time, request_text, student_id, course_id, worker_id, group_id, status_id
        FROM requests WHERE id = $1`
	var request models.Request
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		return nil, err
	}
	return &request, nil
}

// FindByStudentAndCourse returns the request a student filed for a course.
func (r *RequestRepository) FindByStudentAndCourse(ctx context.Context, studentID, courseID string) (*models.Request, error) {
	const query = `SELECT id, create_time, processing_time, request_text, student_id, course_id, worker_id, group_id, status_id
        FROM requests WHERE student_id = $1 AND course_id = $2`
	var request models.Request
	if err := r.db.GetContext(ctx, &request, query, studentID, courseID); err != nil {
		return nil, err
	}
	return &request, nil
}

// FindDetailByID returns a request with contextual info.
func (r *RequestRepository) FindDetailByID(ctx context.Context, id string) (*models.RequestDetail, error) {
	const query = `SELECT rq.id, rq.create_time, rq.processing_time, rq.request_text, rq.student_id, rq.course_id, rq.worker_id, rq.group_id, rq.status_id,
        st.code AS status_code, st.name AS status_name, c.name AS course_name,
        s.last_name AS student_last_name, s.first_name AS student_first_name, s.middle_name AS student_middle_name,
        g.name AS group_name
        FROM requests rq
        JOIN request_statuses st ON st.id = rq.status_id
        JOIN courses c ON c.id = rq.course_id
        JOIN students s ON s.id = rq.student_id
        LEFT JOIN groups g ON g.id = rq.group_id
        WHERE rq.id = $1`
	var detail models.RequestDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// List returns requests filtered by the provided criteria.
func (r *RequestRepository) List(ctx context.Context, filter RequestFilter) ([]models.RequestDetail, int, error) {
	base := `FROM requests rq
JOIN request_statuses st ON st.id = rq.status_id
JOIN courses c ON c.id = rq.course_id
JOIN students s ON s.id = rq.student_id
LEFT JOIN groups g ON g.id = rq.group_id`
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("rq.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("rq.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.StatusCode != "" {
		conditions = append(conditions, fmt.Sprintf("st.code = $%d", len(args)+1))
		args = append(args, filter.StatusCode)
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

	query := fmt.Sprintf(`SELECT rq.id, rq.create_time, rq.processing_time, rq.request_text, rq.student_id, rq.course_id, rq.worker_id, rq.group_id, rq.status_id,
        st.code AS status_code, st.name AS status_name, c.name AS course_name,
        s.last_name AS student_last_name, s.first_name AS student_first_name, s.middle_name AS student_middle_name,
        g.name AS group_name
        %s ORDER BY rq.create_time DESC LIMIT %d OFFSET %d`, base+clause, size, offset)

	var requests []models.RequestDetail
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list requests: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count requests: %w", err)
	}
	return requests, total, nil
}

// ListByStudent returns all requests of a student, newest first.
func (r *RequestRepository) ListByStudent(ctx context.Context, studentID string) ([]models.RequestDetail, error) {
	const query = `SELECT rq.id, rq.create_time, rq.processing_time, rq.request_text, rq.student_id, rq.course_id, rq.worker_id, rq.group_id, rq.status_id,
        st.code AS status_code, st.name AS status_name, c.name AS course_name,
        s.last_name AS student_last_name, s.first_name AS student_first_name, s.middle_name AS student_middle_name,
        g.name AS group_name
        FROM requests rq
        JOIN request_statuses st ON st.id = rq.status_id
        JOIN courses c ON c.id = rq.course_id
        JOIN students s ON s.id = rq.student_id
        LEFT JOIN groups g ON g.id = rq.group_id
        WHERE rq.student_id = $1
        ORDER BY rq.create_time DESC`
	var requests []models.RequestDetail
	if err := r.db.SelectContext(ctx, &requests, query, studentID); err != nil {
		return nil, fmt.Errorf("list student requests: %w", err)
	}
	return requests, nil
}

// Decide applies a staff decision in one transaction: the request gets the
// worker, group, status and processing time, and when createProgress is set a
// progress row is inserted for the request. ON CONFLICT DO NOTHING keeps a
// repeated approval from duplicating the progress row.
func (r *RequestRepository) Decide(ctx context.Context, params DecideParams, createProgress bool, progress *models.StudyingProgress) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin decide tx: %w", err)
	}
	defer tx.Rollback()

	const updateQuery = `UPDATE requests SET worker_id = $2, group_id = $3, status_id = $4, processing_time = $5 WHERE id = $1`
	res, err := tx.ExecContext(ctx, updateQuery, params.RequestID, params.WorkerID, params.GroupID, params.StatusID, params.ProcessingTime)
	if err != nil {
		return fmt.Errorf("update request decision: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("decision rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	if createProgress {
		if progress.ID == "" {
			progress.ID = uuid.NewString()
		}
		const insertQuery = `INSERT INTO studying_progress (id, request_id, education_start_date, graduation_date, final_grade, final_exam_result, percent, status_id)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
            ON CONFLICT (request_id) DO NOTHING`
		if _, err := tx.ExecContext(ctx, insertQuery,
			progress.ID, progress.RequestID, progress.EducationStartDate,
			progress.GraduationDate, progress.FinalGrade, progress.FinalExamResult,
			progress.Percent, progress.StatusID); err != nil {
			return fmt.Errorf("create progress for request: %w", err)
		}
	}

	return tx.Commit()
}

// ClearGroup nulls the group reference without touching the status.
func (r *RequestRepository) ClearGroup(ctx context.Context, id string) error {
	const query = `UPDATE requests SET group_id = NULL WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("clear request group: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("clear group rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateText replaces the request comment.
func (r *RequestRepository) UpdateText(ctx context.Context, id string, text *string) error {
	const query = `UPDATE requests SET request_text = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, text)
	if err != nil {
		return fmt.Errorf("update request text: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update text rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a request and its progress row in one transaction.
func (r *RequestRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM studying_progress WHERE request_id = $1`, id); err != nil {
		return fmt.Errorf("delete request progress: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM requests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return tx.Commit()
}

// ApprovedCoursesByStudent returns courses the student is approved into,
// matched by status code.
func (r *RequestRepository) ApprovedCoursesByStudent(ctx context.Context, studentID string) ([]models.CourseShort, error) {
	const query = `SELECT c.id, c.name, c.study_direction, c.start_date, c.hours_count
        FROM requests rq
        JOIN request_statuses st ON st.id = rq.status_id
        JOIN courses c ON c.id = rq.course_id
        WHERE rq.student_id = $1 AND st.code = $2
        ORDER BY c.start_date`
	var courses []models.CourseShort
	if err := r.db.SelectContext(ctx, &courses, query, studentID, models.RequestStatusApproved); err != nil {
		return nil, fmt.Errorf("list approved courses: %w", err)
	}
	return courses, nil
}

// StudentsByGroup returns students whose approved request placed them in the
// group.
func (r *RequestRepository) StudentsByGroup(ctx context.Context, groupID string) ([]models.Student, error) {
	const query = `SELECT s.id, s.last_name, s.first_name, s.middle_name, s.email, s.password_hash, s.created_at
        FROM requests rq
        JOIN request_statuses st ON st.id = rq.status_id
        JOIN students s ON s.id = rq.student_id
        WHERE rq.group_id = $1 AND st.code = $2
        ORDER BY s.last_name, s.first_name`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, groupID, models.RequestStatusApproved); err != nil {
		return nil, fmt.Errorf("list group students: %w", err)
	}
	return students, nil
}
