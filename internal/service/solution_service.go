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

// SubmitSolutionInput is the payload for a new solution.
type SubmitSolutionInput struct {
	AssignmentID string `json:"assignment_id" validate:"required"`
	Content      string `json:"content" validate:"required"`
}

// GradeSolutionInput carries a grading action. Score and status are
// independent optional mutations.
type GradeSolutionInput struct {
	Score    *int    `json:"score" validate:"omitempty,min=0"`
	StatusID *string `json:"status_id"`
	Feedback *string `json:"feedback"`
}

type solutionRepository interface {
	Create(ctx context.Context, solution *models.Solution) error
	FindByID(ctx context.Context, id string) (*models.Solution, error)
	FindDetailByID(ctx context.Context, id string) (*models.SolutionDetail, error)
	Grade(ctx context.Context, params repository.GradeParams) error
	ListByAssignment(ctx context.Context, assignmentID string) ([]models.SolutionDetail, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.SolutionDetail, error)
}

type solutionStatusRepository interface {
	SolutionStatusByCode(ctx context.Context, code models.SolutionStatusCode) (*models.SolutionStatus, error)
}

type solutionAssignmentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Assignment, error)
}

type solutionStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type solutionWorkerRepository interface {
	FindByID(ctx context.Context, id string) (*models.WorkerDetail, error)
}

// SolutionService drives submission and grading of assignment solutions.
type SolutionService struct {
	solutions   solutionRepository
	statuses    solutionStatusRepository
	assignments solutionAssignmentRepository
	students    solutionStudentRepository
	workers     solutionWorkerRepository
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewSolutionService constructs a SolutionService instance.
func NewSolutionService(solutions solutionRepository, statuses solutionStatusRepository, assignments solutionAssignmentRepository, students solutionStudentRepository, workers solutionWorkerRepository, validate *validator.Validate, logger *zap.Logger) *SolutionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &SolutionService{
		solutions:   solutions,
		statuses:    statuses,
		assignments: assignments,
		students:    students,
		workers:     workers,
		validator:   validate,
		logger:      logger,
	}
}

// Submit records a student's solution. New submissions always start in the
// ungraded status with no score or grader.
func (s *SolutionService) Submit(ctx context.Context, studentID string, input SubmitSolutionInput) (*models.SolutionDetail, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid solution payload")
	}

	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if _, err := s.assignments.FindByID(ctx, input.AssignmentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}

	ungraded, err := s.statuses.SolutionStatusByCode(ctx, models.SolutionStatusUngraded)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve solution status")
	}

	solution := &models.Solution{
		Content:      input.Content,
		AssignmentID: input.AssignmentID,
		StudentID:    studentID,
		StatusID:     ungraded.ID,
	}
	if err := s.solutions.Create(ctx, solution); err != nil {
		if isUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a solution for this assignment already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create solution")
	}

	s.logger.Info("solution submitted",
		zap.String("solution_id", solution.ID),
		zap.String("student_id", studentID),
		zap.String("assignment_id", input.AssignmentID))

	return s.solutions.FindDetailByID(ctx, solution.ID)
}

// Grade applies score and status mutations independently. A score update
// without an explicit status leaves the current status in place.
func (s *SolutionService) Grade(ctx context.Context, solutionID, workerID string, input GradeSolutionInput) (*models.SolutionDetail, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grading payload")
	}
	if input.Score == nil && input.StatusID == nil && input.Feedback == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "grading payload must carry a score, status or feedback")
	}

	solution, err := s.solutions.FindByID(ctx, solutionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "solution not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load solution")
	}
	if _, err := s.workers.FindByID(ctx, workerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "worker not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load worker")
	}

	if input.Score != nil {
		assignment, err := s.assignments.FindByID(ctx, solution.AssignmentID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
		}
		if *input.Score > assignment.MaxScore {
			return nil, appErrors.Clone(appErrors.ErrValidation, "score exceeds the assignment maximum")
		}
	}

	score := solution.Score
	if input.Score != nil {
		score = input.Score
	}
	feedback := solution.Feedback
	if input.Feedback != nil {
		feedback = input.Feedback
	}

	params := repository.GradeParams{
		SolutionID: solutionID,
		Score:      score,
		Feedback:   feedback,
		WorkerID:   workerID,
		StatusID:   input.StatusID,
		GradedTime: time.Now().UTC(),
	}
	if err := s.solutions.Grade(ctx, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "solution not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to grade solution")
	}

	s.logger.Info("solution graded",
		zap.String("solution_id", solutionID),
		zap.String("worker_id", workerID))

	return s.solutions.FindDetailByID(ctx, solutionID)
}

// ListByAssignment returns all solutions submitted for an assignment.
func (s *SolutionService) ListByAssignment(ctx context.Context, assignmentID string) ([]models.SolutionDetail, error) {
	if _, err := s.assignments.FindByID(ctx, assignmentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	solutions, err := s.solutions.ListByAssignment(ctx, assignmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list solutions")
	}
	return solutions, nil
}

// ListByStudent returns all solutions the student submitted.
func (s *SolutionService) ListByStudent(ctx context.Context, studentID string) ([]models.SolutionDetail, error) {
	solutions, err := s.solutions.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list solutions")
	}
	return solutions, nil
}
