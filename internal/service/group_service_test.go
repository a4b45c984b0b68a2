package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dev-lms/lms-api/internal/models"
	appErrors "github.com/dev-lms/lms-api/pkg/errors"
)

type mockGroupRepo struct {
	groups map[string]*models.Group
}

func (m *mockGroupRepo) Create(ctx context.Context, group *models.Group) error {
	if m.groups == nil {
		m.groups = make(map[string]*models.Group)
	}
	if group.ID == "" {
		group.ID = "grp-new"
	}
	copied := *group
	m.groups[group.ID] = &copied
	return nil
}

func (m *mockGroupRepo) Update(ctx context.Context, group *models.Group) error {
	if _, ok := m.groups[group.ID]; !ok {
		return sql.ErrNoRows
	}
	copied := *group
	m.groups[group.ID] = &copied
	return nil
}

func (m *mockGroupRepo) FindByID(ctx context.Context, id string) (*models.Group, error) {
	if g, ok := m.groups[id]; ok {
		copied := *g
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockGroupRepo) List(ctx context.Context) ([]models.GroupDetail, error) {
	return nil, nil
}

func (m *mockGroupRepo) ListByCourse(ctx context.Context, courseID string) ([]models.GroupDetail, error) {
	return nil, nil
}

func (m *mockGroupRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.groups[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.groups, id)
	return nil
}

func TestGroupServiceCreateMissingCourse(t *testing.T) {
	svc := NewGroupService(&mockGroupRepo{}, &mockCourseFinder{missing: true}, nil, nil)

	_, err := svc.Create(context.Background(), CreateGroupInput{Name: "GO-1", MaxStudentCount: 20, CourseID: "missing"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestGroupServiceUpdateKeepsCourseAndCount(t *testing.T) {
	repo := &mockGroupRepo{groups: map[string]*models.Group{
		"grp-1": {ID: "grp-1", Name: "GO-1", StudentCount: 7, MaxStudentCount: 20, CourseID: "crs-1"},
	}}
	svc := NewGroupService(repo, &mockCourseFinder{}, nil, nil)

	updated, err := svc.Update(context.Background(), "grp-1", UpdateGroupInput{Name: "GO-1-evening", MaxStudentCount: 25})
	require.NoError(t, err)
	assert.Equal(t, "GO-1-evening", updated.Name)
	assert.Equal(t, 25, updated.MaxStudentCount)
	assert.Equal(t, "crs-1", updated.CourseID)
	assert.Equal(t, 7, updated.StudentCount)
}

func TestGroupServiceUpdateMissing(t *testing.T) {
	svc := NewGroupService(&mockGroupRepo{}, &mockCourseFinder{}, nil, nil)

	_, err := svc.Update(context.Background(), "missing", UpdateGroupInput{Name: "GO-1", MaxStudentCount: 20})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestGroupServiceUpdateRejectsZeroCapacity(t *testing.T) {
	repo := &mockGroupRepo{groups: map[string]*models.Group{
		"grp-1": {ID: "grp-1", Name: "GO-1", MaxStudentCount: 20, CourseID: "crs-1"},
	}}
	svc := NewGroupService(repo, &mockCourseFinder{}, nil, nil)

	_, err := svc.Update(context.Background(), "grp-1", UpdateGroupInput{Name: "GO-1", MaxStudentCount: 0})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
