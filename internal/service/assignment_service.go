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

// CreateAssignmentInput is the payload for a new assignment.
type CreateAssignmentInput struct {
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description"`
	Deadline    *time.Time `json:"deadline"`
	MaxScore    int        `json:"max_score" validate:"min=1"`
	GroupID     string     `json:"group_id" validate:"required"`
}

// UpdateAssignmentInput carries mutable assignment fields. The group binding
// and author never change after publication.
type UpdateAssignmentInput struct {
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description"`
	Deadline    *time.Time `json:"deadline"`
	MaxScore    int        `json:"max_score" validate:"min=1"`
}

type assignmentRepository interface {
	Create(ctx context.Context, assignment *models.Assignment) error
	Update(ctx context.Context, assignment *models.Assignment) error
	FindByID(ctx context.Context, id string) (*models.Assignment, error)
	ListByGroup(ctx context.Context, groupID string) ([]models.AssignmentDetail, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.AssignmentDetail, error)
	Delete(ctx context.Context, id string) error
}

type assignmentGroupRepository interface {
	FindByID(ctx context.Context, id string) (*models.Group, error)
}

// AssignmentService manages graded tasks for study groups.
type AssignmentService struct {
	assignments assignmentRepository
	groups      assignmentGroupRepository
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAssignmentService constructs an AssignmentService instance.
func NewAssignmentService(assignments assignmentRepository, groups assignmentGroupRepository, validate *validator.Validate, logger *zap.Logger) *AssignmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AssignmentService{assignments: assignments, groups: groups, validator: validate, logger: logger}
}

// Create publishes an assignment to a group.
func (s *AssignmentService) Create(ctx context.Context, workerID string, input CreateAssignmentInput) (*models.Assignment, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	if _, err := s.groups.FindByID(ctx, input.GroupID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group")
	}

	assignment := &models.Assignment{
		Title:       input.Title,
		Description: input.Description,
		Deadline:    input.Deadline,
		MaxScore:    input.MaxScore,
		GroupID:     input.GroupID,
		CreatedBy:   workerID,
	}
	if err := s.assignments.Create(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}

	s.logger.Info("assignment created",
		zap.String("assignment_id", assignment.ID),
		zap.String("group_id", input.GroupID),
		zap.String("worker_id", workerID))
	return assignment, nil
}

// Update replaces the editable fields of an assignment.
func (s *AssignmentService) Update(ctx context.Context, id string, input UpdateAssignmentInput) (*models.Assignment, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	assignment, err := s.assignments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}

	assignment.Title = input.Title
	assignment.Description = input.Description
	assignment.Deadline = input.Deadline
	assignment.MaxScore = input.MaxScore
	if err := s.assignments.Update(ctx, assignment); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update assignment")
	}
	return assignment, nil
}

// ListByGroup returns the assignments published to a group.
func (s *AssignmentService) ListByGroup(ctx context.Context, groupID string) ([]models.AssignmentDetail, error) {
	if _, err := s.groups.FindByID(ctx, groupID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group")
	}
	assignments, err := s.assignments.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return assignments, nil
}

// ListByCourse returns the assignments of every group under a course.
func (s *AssignmentService) ListByCourse(ctx context.Context, courseID string) ([]models.AssignmentDetail, error) {
	assignments, err := s.assignments.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return assignments, nil
}

// Delete removes an assignment.
func (s *AssignmentService) Delete(ctx context.Context, id string) error {
	if err := s.assignments.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete assignment")
	}
	s.logger.Info("assignment deleted", zap.String("assignment_id", id))
	return nil
}
