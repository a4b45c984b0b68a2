package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/dev-lms/lms-api/internal/models"
	appErrors "github.com/dev-lms/lms-api/pkg/errors"
)

// CreateMaterialInput is the payload for a new study material.
type CreateMaterialInput struct {
	Title    string `json:"title" validate:"required"`
	Content  string `json:"content" validate:"required"`
	CourseID string `json:"course_id" validate:"required"`
}

// UpdateMaterialInput carries mutable material fields.
type UpdateMaterialInput struct {
	Title   string `json:"title" validate:"required"`
	Content string `json:"content" validate:"required"`
}

type materialRepository interface {
	Create(ctx context.Context, material *models.Material) error
	Update(ctx context.Context, material *models.Material) error
	FindByID(ctx context.Context, id string) (*models.Material, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.Material, error)
	Delete(ctx context.Context, id string) error
}

type materialCourseRepository interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

// MaterialService manages study materials published under courses.
type MaterialService struct {
	materials materialRepository
	courses   materialCourseRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMaterialService constructs a MaterialService instance.
func NewMaterialService(materials materialRepository, courses materialCourseRepository, validate *validator.Validate, logger *zap.Logger) *MaterialService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &MaterialService{materials: materials, courses: courses, validator: validate, logger: logger}
}

// Create publishes a material under a course.
func (s *MaterialService) Create(ctx context.Context, workerID string, input CreateMaterialInput) (*models.Material, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid material payload")
	}

	if _, err := s.courses.FindByID(ctx, input.CourseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	material := &models.Material{
		Title:     input.Title,
		Content:   input.Content,
		CourseID:  input.CourseID,
		CreatedBy: workerID,
	}
	if err := s.materials.Create(ctx, material); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create material")
	}

	s.logger.Info("material created",
		zap.String("material_id", material.ID),
		zap.String("course_id", input.CourseID))
	return material, nil
}

// Update replaces the title and content of a material. The repository stamps
// updated_at.
func (s *MaterialService) Update(ctx context.Context, id string, input UpdateMaterialInput) (*models.Material, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid material payload")
	}

	material, err := s.materials.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "material not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load material")
	}

	material.Title = input.Title
	material.Content = input.Content
	if err := s.materials.Update(ctx, material); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "material not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update material")
	}
	return material, nil
}

// ListByCourse returns materials of a course, newest first.
func (s *MaterialService) ListByCourse(ctx context.Context, courseID string) ([]models.Material, error) {
	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	materials, err := s.materials.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list materials")
	}
	return materials, nil
}

// Delete removes a material.
func (s *MaterialService) Delete(ctx context.Context, id string) error {
	if err := s.materials.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "material not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete material")
	}
	s.logger.Info("material deleted", zap.String("material_id", id))
	return nil
}
