package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/dev-lms/lms-api/internal/models"
	appErrors "github.com/dev-lms/lms-api/pkg/errors"
)

// UpdatePercentInput carries a progress percent update.
type UpdatePercentInput struct {
	StudentID string `json:"student_id" validate:"required"`
	CourseID  string `json:"course_id" validate:"required"`
	Percent   int    `json:"percent" validate:"min=0,max=100"`
}

// UpdateFinalsInput carries the final grade and exam result.
type UpdateFinalsInput struct {
	FinalGrade      *int `json:"final_grade" validate:"omitempty,min=0,max=100"`
	FinalExamResult *int `json:"final_exam_result" validate:"omitempty,min=0,max=100"`
}

type progressRepository interface {
	FindByRequestID(ctx context.Context, requestID string) (*models.StudyingProgress, error)
	GetOrCreate(ctx context.Context, fresh *models.StudyingProgress) (*models.StudyingProgress, error)
	UpdatePercent(ctx context.Context, id string, percent int, graduationDate *time.Time) error
	UpdateStatus(ctx context.Context, id, statusID string) error
	UpdateFinals(ctx context.Context, id string, finalGrade, finalExamResult *int) error
	ListByGroup(ctx context.Context, groupID string) ([]models.StudentProgressView, error)
}

type progressStatusRepository interface {
	StudyingStatusByCode(ctx context.Context, code models.StudyingStatusCode) (*models.StudyingStatus, error)
	StudyingStatusByID(ctx context.Context, id string) (*models.StudyingStatus, error)
}

type progressRequestLookup interface {
	FindByStudentAndCourse(ctx context.Context, studentID, courseID string) (*models.Request, error)
}

// ProgressService tracks studying progress for approved requests.
type ProgressService struct {
	progress  progressRepository
	requests  progressRequestLookup
	statuses  progressStatusRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProgressService constructs a ProgressService instance.
func NewProgressService(progress progressRepository, requests progressRequestLookup, statuses progressStatusRepository, validate *validator.Validate, logger *zap.Logger) *ProgressService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ProgressService{progress: progress, requests: requests, statuses: statuses, validator: validate, logger: logger}
}

// GetProgress returns the progress view for a student and course, creating a
// fresh zero-percent row when the approved request has none yet.
func (s *ProgressService) GetProgress(ctx context.Context, studentID, courseID string) (*models.ProgressView, error) {
	request, err := s.resolveRequest(ctx, studentID, courseID)
	if err != nil {
		return nil, err
	}

	progress, err := s.getOrCreate(ctx, request.ID)
	if err != nil {
		return nil, err
	}

	status, err := s.statuses.StudyingStatusByID(ctx, progress.StatusID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve studying status")
	}

	return &models.ProgressView{
		CourseID:           courseID,
		Percent:            progress.Percent,
		StatusCode:         status.Code,
		StatusName:         status.Name,
		EducationStartDate: progress.EducationStartDate,
		GraduationDate:     progress.GraduationDate,
	}, nil
}

// UpdatePercent sets the completion percent. Reaching 100 stamps the
// graduation date once; an already recorded date is never overwritten.
func (s *ProgressService) UpdatePercent(ctx context.Context, input UpdatePercentInput) (*models.StudyingProgress, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "percent must be between 0 and 100")
	}

	request, err := s.resolveRequest(ctx, input.StudentID, input.CourseID)
	if err != nil {
		return nil, err
	}

	progress, err := s.getOrCreate(ctx, request.ID)
	if err != nil {
		return nil, err
	}

	var graduation *time.Time
	if input.Percent == 100 {
		now := time.Now().UTC()
		graduation = &now
	}
	if err := s.progress.UpdatePercent(ctx, progress.ID, input.Percent, graduation); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update percent")
	}

	updated, err := s.progress.FindByRequestID(ctx, request.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload progress")
	}
	return updated, nil
}

// SetStatusByRequest moves the progress of a request to a new studying
// status. Admin override path.
func (s *ProgressService) SetStatusByRequest(ctx context.Context, requestID, statusID string) error {
	status, err := s.statuses.StudyingStatusByID(ctx, statusID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "studying status not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load studying status")
	}

	progress, err := s.progress.FindByRequestID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "progress not found for request")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load progress")
	}

	if err := s.progress.UpdateStatus(ctx, progress.ID, status.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update progress status")
	}

	s.logger.Info("progress status overridden",
		zap.String("request_id", requestID),
		zap.String("status_code", string(status.Code)))
	return nil
}

// SetFinalsByRequest records the final grade and exam result of a request's
// progress. Both fields are written as given, including nil.
func (s *ProgressService) SetFinalsByRequest(ctx context.Context, requestID string, input UpdateFinalsInput) (*models.StudyingProgress, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "finals must be between 0 and 100")
	}

	progress, err := s.progress.FindByRequestID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "progress not found for request")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load progress")
	}

	if err := s.progress.UpdateFinals(ctx, progress.ID, input.FinalGrade, input.FinalExamResult); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update finals")
	}

	updated, err := s.progress.FindByRequestID(ctx, requestID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload progress")
	}
	return updated, nil
}

// ListByGroup returns per-student progress for the group.
func (s *ProgressService) ListByGroup(ctx context.Context, groupID string) ([]models.StudentProgressView, error) {
	views, err := s.progress.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list group progress")
	}
	return views, nil
}

func (s *ProgressService) resolveRequest(ctx context.Context, studentID, courseID string) (*models.Request, error) {
	request, err := s.requests.FindByStudentAndCourse(ctx, studentID, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no request for this student and course")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve request")
	}
	return request, nil
}

func (s *ProgressService) getOrCreate(ctx context.Context, requestID string) (*models.StudyingProgress, error) {
	inProgress, err := s.statuses.StudyingStatusByCode(ctx, models.StudyingStatusInProgress)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve studying status")
	}
	progress, err := s.progress.GetOrCreate(ctx, &models.StudyingProgress{
		RequestID:          requestID,
		EducationStartDate: time.Now().UTC(),
		Percent:            0,
		StatusID:           inProgress.ID,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load progress")
	}
	return progress, nil
}
