package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/dev-lms/lms-api/internal/models"
	"github.com/dev-lms/lms-api/internal/repository"
	appErrors "github.com/dev-lms/lms-api/pkg/errors"
)

// CreateRequestInput is the payload for a new enrollment request.
type CreateRequestInput struct {
	CourseID    string  `json:"course_id" validate:"required"`
	GroupID     *string `json:"group_id"`
	RequestText *string `json:"request_text"`
}

// DecideRequestInput is the payload for a staff decision on a request.
type DecideRequestInput struct {
	StatusID string  `json:"status_id" validate:"required"`
	GroupID  *string `json:"group_id"`
}

// UpdateCommentInput replaces the free-form request text.
type UpdateCommentInput struct {
	RequestText *string `json:"request_text"`
}

type requestRepository interface {
	Create(ctx context.Context, request *models.Request) error
	FindByID(ctx context.Context, id string) (*models.Request, error)
	FindDetailByID(ctx context.Context, id string) (*models.RequestDetail, error)
	List(ctx context.Context, filter repository.RequestFilter) ([]models.RequestDetail, int, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.RequestDetail, error)
	Decide(ctx context.Context, params repository.DecideParams, createProgress bool, progress *models.StudyingProgress) error
	ClearGroup(ctx context.Context, id string) error
	UpdateText(ctx context.Context, id string, text *string) error
	Delete(ctx context.Context, id string) error
	ApprovedCoursesByStudent(ctx context.Context, studentID string) ([]models.CourseShort, error)
	StudentsByGroup(ctx context.Context, groupID string) ([]models.Student, error)
}

type requestStatusRepository interface {
	RequestStatusByCode(ctx context.Context, code models.RequestStatusCode) (*models.RequestStatus, error)
	RequestStatusByID(ctx context.Context, id string) (*models.RequestStatus, error)
	ListRequestStatuses(ctx context.Context) ([]models.RequestStatus, error)
	StudyingStatusByCode(ctx context.Context, code models.StudyingStatusCode) (*models.StudyingStatus, error)
}

type requestStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type requestCourseRepository interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type requestGroupRepository interface {
	FindByID(ctx context.Context, id string) (*models.Group, error)
	AdjustStudentCount(ctx context.Context, id string, delta int) error
}

type requestWorkerRepository interface {
	FindByID(ctx context.Context, id string) (*models.WorkerDetail, error)
}

// RequestService drives the enrollment request lifecycle.
type RequestService struct {
	requests  requestRepository
	statuses  requestStatusRepository
	students  requestStudentRepository
	courses   requestCourseRepository
	groups    requestGroupRepository
	workers   requestWorkerRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRequestService constructs a RequestService instance.
func NewRequestService(requests requestRepository, statuses requestStatusRepository, students requestStudentRepository, courses requestCourseRepository, groups requestGroupRepository, workers requestWorkerRepository, validate *validator.Validate, logger *zap.Logger) *RequestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &RequestService{
		requests:  requests,
		statuses:  statuses,
		students:  students,
		courses:   courses,
		groups:    groups,
		workers:   workers,
		validator: validate,
		logger:    logger,
	}
}

// Create files a new enrollment request for the student. One request per
// (student, course) pair; the database unique constraint is authoritative
// under concurrency.
func (s *RequestService) Create(ctx context.Context, studentID string, input CreateRequestInput) (*models.RequestDetail, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request payload")
	}

	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if _, err := s.courses.FindByID(ctx, input.CourseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if input.GroupID != nil {
		if _, err := s.groups.FindByID(ctx, *input.GroupID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group")
		}
	}

	pending, err := s.statuses.RequestStatusByCode(ctx, models.RequestStatusPending)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve pending status")
	}

	request := &models.Request{
		StudentID:   studentID,
		CourseID:    input.CourseID,
		GroupID:     input.GroupID,
		RequestText: input.RequestText,
		StatusID:    pending.ID,
	}
	if err := s.requests.Create(ctx, request); err != nil {
		if isUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a request for this course already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create request")
	}

	s.logger.Info("enrollment request created",
		zap.String("request_id", request.ID),
		zap.String("student_id", studentID),
		zap.String("course_id", input.CourseID))

	return s.requests.FindDetailByID(ctx, request.ID)
}

// Decide applies a staff decision. Moving a request to the approved status
// creates its progress row in the same transaction, so a request is never
// approved without progress.
func (s *RequestService) Decide(ctx context.Context, requestID, workerID string, input DecideRequestInput) (*models.RequestDetail, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid decision payload")
	}

	if _, err := s.requests.FindByID(ctx, requestID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request")
	}
	if _, err := s.workers.FindByID(ctx, workerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "worker not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load worker")
	}
	status, err := s.statuses.RequestStatusByID(ctx, input.StatusID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "request status not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load status")
	}
	if input.GroupID != nil {
		if _, err := s.groups.FindByID(ctx, *input.GroupID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group")
		}
	}

	approve := status.Code == models.RequestStatusApproved
	var progress *models.StudyingProgress
	if approve {
		inProgress, err := s.statuses.StudyingStatusByCode(ctx, models.StudyingStatusInProgress)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve studying status")
		}
		progress = &models.StudyingProgress{
			RequestID:          requestID,
			EducationStartDate: time.Now().UTC(),
			Percent:            0,
			StatusID:           inProgress.ID,
		}
	}

	params := repository.DecideParams{
		RequestID:      requestID,
		WorkerID:       workerID,
		GroupID:        input.GroupID,
		StatusID:       status.ID,
		ProcessingTime: time.Now().UTC(),
	}
	if err := s.requests.Decide(ctx, params, approve, progress); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply decision")
	}

	if approve && input.GroupID != nil {
		if err := s.groups.AdjustStudentCount(ctx, *input.GroupID, 1); err != nil {
			s.logger.Warn("failed to adjust group student count",
				zap.String("group_id", *input.GroupID), zap.Error(err))
		}
	}

	s.logger.Info("enrollment request decided",
		zap.String("request_id", requestID),
		zap.String("worker_id", workerID),
		zap.String("status_code", string(status.Code)))

	return s.requests.FindDetailByID(ctx, requestID)
}

// ClearGroup detaches the request from its group without changing status.
func (s *RequestService) ClearGroup(ctx context.Context, requestID string) error {
	request, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request")
	}

	if err := s.requests.ClearGroup(ctx, requestID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear group")
	}

	if request.GroupID != nil {
		if err := s.groups.AdjustStudentCount(ctx, *request.GroupID, -1); err != nil {
			s.logger.Warn("failed to adjust group student count",
				zap.String("group_id", *request.GroupID), zap.Error(err))
		}
	}
	return nil
}

// UpdateComment replaces the request text and nothing else.
func (s *RequestService) UpdateComment(ctx context.Context, requestID string, input UpdateCommentInput) error {
	if err := s.requests.UpdateText(ctx, requestID, input.RequestText); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update comment")
	}
	return nil
}

// Delete removes a request together with its progress row.
func (s *RequestService) Delete(ctx context.Context, requestID string) error {
	if err := s.requests.Delete(ctx, requestID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete request")
	}
	s.logger.Info("enrollment request deleted", zap.String("request_id", requestID))
	return nil
}

// ListStatuses returns the request status lookup table.
func (s *RequestService) ListStatuses(ctx context.Context) ([]models.RequestStatus, error) {
	statuses, err := s.statuses.ListRequestStatuses(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list request statuses")
	}
	return statuses, nil
}

// List returns requests for staff review.
func (s *RequestService) List(ctx context.Context, filter repository.RequestFilter) ([]models.RequestDetail, int, error) {
	requests, total, err := s.requests.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list requests")
	}
	return requests, total, nil
}

// ListByStudent returns the student's own requests.
func (s *RequestService) ListByStudent(ctx context.Context, studentID string) ([]models.RequestDetail, error) {
	requests, err := s.requests.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list requests")
	}
	return requests, nil
}

// ApprovedCoursesByStudent returns courses the student was approved into.
func (s *RequestService) ApprovedCoursesByStudent(ctx context.Context, studentID string) ([]models.CourseShort, error) {
	courses, err := s.requests.ApprovedCoursesByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, nil
}

// StudentsByGroup returns students placed in a group via approved requests.
func (s *RequestService) StudentsByGroup(ctx context.Context, groupID string) ([]models.Student, error) {
	if _, err := s.groups.FindByID(ctx, groupID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group")
	}
	students, err := s.requests.StudentsByGroup(ctx, groupID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, nil
}
