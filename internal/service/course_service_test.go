package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dev-lms/lms-api/internal/models"
	"github.com/dev-lms/lms-api/internal/repository"
	appErrors "github.com/dev-lms/lms-api/pkg/errors"
)

type mockCourseRepo struct {
	courses map[string]*models.Course
}

func (m *mockCourseRepo) Create(ctx context.Context, course *models.Course) error {
	if m.courses == nil {
		m.courses = make(map[string]*models.Course)
	}
	if course.ID == "" {
		course.ID = "crs-new"
	}
	copied := *course
	m.courses[course.ID] = &copied
	return nil
}

func (m *mockCourseRepo) Update(ctx context.Context, course *models.Course) error {
	if _, ok := m.courses[course.ID]; !ok {
		return sql.ErrNoRows
	}
	copied := *course
	m.courses[course.ID] = &copied
	return nil
}

func (m *mockCourseRepo) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseRepo) FindDetailByID(ctx context.Context, id string) (*models.CourseDetail, error) {
	if c, ok := m.courses[id]; ok {
		return &models.CourseDetail{Course: *c}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseRepo) List(ctx context.Context, filter repository.CourseFilter) ([]models.CourseDetail, int, error) {
	var list []models.CourseDetail
	for _, c := range m.courses {
		list = append(list, models.CourseDetail{Course: *c})
	}
	return list, len(list), nil
}

func (m *mockCourseRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.courses[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.courses, id)
	return nil
}

func (m *mockCourseRepo) ListCategories(ctx context.Context) ([]models.CourseCategory, error) {
	return []models.CourseCategory{{ID: "cat-1", Name: "Programming"}}, nil
}

func (m *mockCourseRepo) CourseStatusByCode(ctx context.Context, code models.CourseStatusCode) (*models.CourseStatus, error) {
	return &models.CourseStatus{ID: "cs-" + string(code), Code: code, Name: string(code)}, nil
}

func newCourseService(repo *mockCourseRepo) *CourseService {
	return NewCourseService(repo, nil, time.Minute, nil, nil)
}

func validCourseInput() CreateCourseInput {
	return CreateCourseInput{
		Name:           "Go backend",
		StudyDirection: "Software engineering",
		StartDate:      time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		HoursCount:     144,
		CategoryID:     "cat-1",
	}
}

func TestCourseServiceCreateDefaultsToDraft(t *testing.T) {
	repo := &mockCourseRepo{}
	svc := newCourseService(repo)

	detail, err := svc.Create(context.Background(), validCourseInput())
	require.NoError(t, err)
	assert.Equal(t, "cs-DRAFT", detail.Course.StatusID)
}

func TestCourseServiceCreateKeepsExplicitStatus(t *testing.T) {
	repo := &mockCourseRepo{}
	svc := newCourseService(repo)

	input := validCourseInput()
	input.StatusID = "cs-OPEN"
	detail, err := svc.Create(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, "cs-OPEN", detail.Course.StatusID)
}

func TestCourseServiceUpdatePreservesStatusWhenEmpty(t *testing.T) {
	repo := &mockCourseRepo{courses: map[string]*models.Course{
		"crs-1": {ID: "crs-1", Name: "Go backend", StudyDirection: "SE", HoursCount: 144, CategoryID: "cat-1", StatusID: "cs-OPEN"},
	}}
	svc := newCourseService(repo)

	input := validCourseInput()
	input.Name = "Go backend, 2nd edition"
	detail, err := svc.Update(context.Background(), "crs-1", input)
	require.NoError(t, err)
	assert.Equal(t, "Go backend, 2nd edition", detail.Course.Name)
	assert.Equal(t, "cs-OPEN", detail.Course.StatusID)
}

func TestCourseServiceUpdateMissing(t *testing.T) {
	svc := newCourseService(&mockCourseRepo{})

	_, err := svc.Update(context.Background(), "missing", validCourseInput())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCourseServiceGetMissing(t *testing.T) {
	svc := newCourseService(&mockCourseRepo{})

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
