package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/dev-lms/lms-api/internal/models"
	"github.com/dev-lms/lms-api/internal/repository"
	appErrors "github.com/dev-lms/lms-api/pkg/errors"
)

const courseCachePattern = "courses:*"

// CreateCourseInput is the payload for a new course.
type CreateCourseInput struct {
	Name             string     `json:"name" validate:"required"`
	Description      string     `json:"description"`
	StudyDirection   string     `json:"study_direction" validate:"required"`
	StartDate        time.Time  `json:"start_date" validate:"required"`
	EndDate          *time.Time `json:"end_date"`
	HoursCount       int        `json:"hours_count" validate:"min=1"`
	ResultCompetence string     `json:"result_competence"`
	CategoryID       string     `json:"category_id" validate:"required"`
	StatusID         string     `json:"status_id"`
}

type courseRepository interface {
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	FindByID(ctx context.Context, id string) (*models.Course, error)
	FindDetailByID(ctx context.Context, id string) (*models.CourseDetail, error)
	List(ctx context.Context, filter repository.CourseFilter) ([]models.CourseDetail, int, error)
	Delete(ctx context.Context, id string) error
	ListCategories(ctx context.Context) ([]models.CourseCategory, error)
	CourseStatusByCode(ctx context.Context, code models.CourseStatusCode) (*models.CourseStatus, error)
}

// CourseService manages the course catalogue. Listings are cached in redis
// when enabled; every mutation invalidates the whole listing keyspace.
type CourseService struct {
	courses   courseRepository
	cache     *CacheService
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs a CourseService instance.
func NewCourseService(courses courseRepository, cache *CacheService, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CourseService{courses: courses, cache: cache, cacheTTL: cacheTTL, validator: validate, logger: logger}
}

type cachedCourseList struct {
	Courses []models.CourseDetail `json:"courses"`
	Total   int                   `json:"total"`
}

// List returns the course catalogue, served from cache when possible.
func (s *CourseService) List(ctx context.Context, filter repository.CourseFilter) ([]models.CourseDetail, int, error) {
	key := fmt.Sprintf("courses:list:%s:%s:%s:%d:%d", filter.CategoryID, filter.StatusCode, filter.Search, filter.Page, filter.PageSize)

	var cached cachedCourseList
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached.Courses, cached.Total, nil
	}

	courses, total, err := s.courses.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}

	if err := s.cache.Set(ctx, key, cachedCourseList{Courses: courses, Total: total}, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache course listing", zap.Error(err))
	}
	return courses, total, nil
}

// Get returns a course with resolved category and status.
func (s *CourseService) Get(ctx context.Context, id string) (*models.CourseDetail, error) {
	detail, err := s.courses.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return detail, nil
}

// Create adds a course to the catalogue. A course created without an explicit
// status starts as a draft.
func (s *CourseService) Create(ctx context.Context, input CreateCourseInput) (*models.CourseDetail, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	if input.StatusID == "" {
		draft, err := s.courses.CourseStatusByCode(ctx, models.CourseStatusDraft)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve draft status")
		}
		input.StatusID = draft.ID
	}

	course := &models.Course{
		Name:             input.Name,
		Description:      input.Description,
		StudyDirection:   input.StudyDirection,
		StartDate:        input.StartDate,
		EndDate:          input.EndDate,
		HoursCount:       input.HoursCount,
		ResultCompetence: input.ResultCompetence,
		CategoryID:       input.CategoryID,
		StatusID:         input.StatusID,
	}
	if err := s.courses.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}

	if err := s.cache.Invalidate(ctx, courseCachePattern); err != nil {
		s.logger.Warn("failed to invalidate course cache", zap.Error(err))
	}
	s.logger.Info("course created", zap.String("course_id", course.ID), zap.String("name", course.Name))

	return s.courses.FindDetailByID(ctx, course.ID)
}

// Update replaces the editable fields of a course. An empty status keeps the
// current one.
func (s *CourseService) Update(ctx context.Context, id string, input CreateCourseInput) (*models.CourseDetail, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	course.Name = input.Name
	course.Description = input.Description
	course.StudyDirection = input.StudyDirection
	course.StartDate = input.StartDate
	course.EndDate = input.EndDate
	course.HoursCount = input.HoursCount
	course.ResultCompetence = input.ResultCompetence
	course.CategoryID = input.CategoryID
	if input.StatusID != "" {
		course.StatusID = input.StatusID
	}
	if err := s.courses.Update(ctx, course); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}

	if err := s.cache.Invalidate(ctx, courseCachePattern); err != nil {
		s.logger.Warn("failed to invalidate course cache", zap.Error(err))
	}
	s.logger.Info("course updated", zap.String("course_id", id))

	return s.courses.FindDetailByID(ctx, id)
}

// Delete removes a course from the catalogue.
func (s *CourseService) Delete(ctx context.Context, id string) error {
	if err := s.courses.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}

	if err := s.cache.Invalidate(ctx, courseCachePattern); err != nil {
		s.logger.Warn("failed to invalidate course cache", zap.Error(err))
	}
	s.logger.Info("course deleted", zap.String("course_id", id))
	return nil
}

// ListCategories returns all course categories.
func (s *CourseService) ListCategories(ctx context.Context) ([]models.CourseCategory, error) {
	categories, err := s.courses.ListCategories(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list categories")
	}
	return categories, nil
}
