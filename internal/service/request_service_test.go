package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dev-lms/lms-api/internal/models"
	"github.com/dev-lms/lms-api/internal/repository"
	appErrors "github.com/dev-lms/lms-api/pkg/errors"
)

type mockRequestRepo struct {
	requests      map[string]models.Request
	createErr     error
	created       *models.Request
	decided       *repository.DecideParams
	decidedCreate bool
	progress      *models.StudyingProgress
	cleared       []string
	comments      map[string]*string
	deleted       []string
}

func (m *mockRequestRepo) Create(ctx context.Context, request *models.Request) error {
	if m.createErr != nil {
		return m.createErr
	}
	if m.requests == nil {
		m.requests = make(map[string]models.Request)
	}
	if request.ID == "" {
		request.ID = "req-new"
	}
	m.requests[request.ID] = *request
	m.created = request
	return nil
}

func (m *mockRequestRepo) FindByID(ctx context.Context, id string) (*models.Request, error) {
	if r, ok := m.requests[id]; ok {
		return &r, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockRequestRepo) FindByStudentAndCourse(ctx context.Context, studentID, courseID string) (*models.Request, error) {
	for _, r := range m.requests {
		if r.StudentID == studentID && r.CourseID == courseID {
			return &r, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockRequestRepo) FindDetailByID(ctx context.Context, id string) (*models.RequestDetail, error) {
	if r, ok := m.requests[id]; ok {
		return &models.RequestDetail{Request: r}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockRequestRepo) List(ctx context.Context, filter repository.RequestFilter) ([]models.RequestDetail, int, error) {
	return nil, 0, nil
}

func (m *mockRequestRepo) ListByStudent(ctx context.Context, studentID string) ([]models.RequestDetail, error) {
	var list []models.RequestDetail
	for _, r := range m.requests {
		if r.StudentID == studentID {
			list = append(list, models.RequestDetail{Request: r})
		}
	}
	return list, nil
}

func (m *mockRequestRepo) Decide(ctx context.Context, params repository.DecideParams, createProgress bool, progress *models.StudyingProgress) error {
	r, ok := m.requests[params.RequestID]
	if !ok {
		return sql.ErrNoRows
	}
	r.WorkerID = &params.WorkerID
	r.GroupID = params.GroupID
	r.StatusID = params.StatusID
	r.ProcessingTime = &params.ProcessingTime
	m.requests[params.RequestID] = r
	m.decided = &params
	m.decidedCreate = createProgress
	m.progress = progress
	return nil
}

func (m *mockRequestRepo) ClearGroup(ctx context.Context, id string) error {
	if _, ok := m.requests[id]; !ok {
		return sql.ErrNoRows
	}
	m.cleared = append(m.cleared, id)
	return nil
}

func (m *mockRequestRepo) UpdateText(ctx context.Context, id string, text *string) error {
	if _, ok := m.requests[id]; !ok {
		return sql.ErrNoRows
	}
	if m.comments == nil {
		m.comments = make(map[string]*string)
	}
	m.comments[id] = text
	return nil
}

func (m *mockRequestRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.requests[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.requests, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockRequestRepo) ApprovedCoursesByStudent(ctx context.Context, studentID string) ([]models.CourseShort, error) {
	return nil, nil
}

func (m *mockRequestRepo) StudentsByGroup(ctx context.Context, groupID string) ([]models.Student, error) {
	return nil, nil
}

type mockLookupRepo struct{}

func (m *mockLookupRepo) RequestStatusByCode(ctx context.Context, code models.RequestStatusCode) (*models.RequestStatus, error) {
	return &models.RequestStatus{ID: "st-" + string(code), Code: code, Name: string(code)}, nil
}

func (m *mockLookupRepo) RequestStatusByID(ctx context.Context, id string) (*models.RequestStatus, error) {
	switch id {
	case "st-approved":
		return &models.RequestStatus{ID: id, Code: models.RequestStatusApproved, Name: "Approved"}, nil
	case "st-rejected":
		return &models.RequestStatus{ID: id, Code: models.RequestStatusRejected, Name: "Rejected"}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockLookupRepo) ListRequestStatuses(ctx context.Context) ([]models.RequestStatus, error) {
	return []models.RequestStatus{
		{ID: "st-approved", Code: models.RequestStatusApproved, Name: "Approved"},
		{ID: "st-PENDING", Code: models.RequestStatusPending, Name: "Pending"},
		{ID: "st-rejected", Code: models.RequestStatusRejected, Name: "Rejected"},
	}, nil
}

func (m *mockLookupRepo) StudyingStatusByCode(ctx context.Context, code models.StudyingStatusCode) (*models.StudyingStatus, error) {
	return &models.StudyingStatus{ID: "ss-" + string(code), Code: code, Name: string(code)}, nil
}

type mockStudentFinder struct{ missing bool }

func (m *mockStudentFinder) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if m.missing {
		return nil, sql.ErrNoRows
	}
	return &models.Student{ID: id}, nil
}

type mockCourseFinder struct{ missing bool }

func (m *mockCourseFinder) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if m.missing {
		return nil, sql.ErrNoRows
	}
	return &models.Course{ID: id}, nil
}

type mockGroupFinder struct {
	missing     bool
	adjustments map[string]int
}

func (m *mockGroupFinder) FindByID(ctx context.Context, id string) (*models.Group, error) {
	if m.missing {
		return nil, sql.ErrNoRows
	}
	return &models.Group{ID: id}, nil
}

func (m *mockGroupFinder) AdjustStudentCount(ctx context.Context, id string, delta int) error {
	if m.adjustments == nil {
		m.adjustments = make(map[string]int)
	}
	m.adjustments[id] += delta
	return nil
}

type mockWorkerFinder struct{ missing bool }

func (m *mockWorkerFinder) FindByID(ctx context.Context, id string) (*models.WorkerDetail, error) {
	if m.missing {
		return nil, sql.ErrNoRows
	}
	return &models.WorkerDetail{Worker: models.Worker{ID: id}}, nil
}

func newRequestService(repo *mockRequestRepo) *RequestService {
	return NewRequestService(repo, &mockLookupRepo{}, &mockStudentFinder{}, &mockCourseFinder{}, &mockGroupFinder{}, &mockWorkerFinder{}, nil, nil)
}

func TestRequestServiceCreateStartsPending(t *testing.T) {
	repo := &mockRequestRepo{}
	svc := newRequestService(repo)

	detail, err := svc.Create(context.Background(), "stu-1", CreateRequestInput{CourseID: "crs-1"})
	require.NoError(t, err)
	require.NotNil(t, repo.created)
	assert.Equal(t, "st-PENDING", repo.created.StatusID)
	assert.Equal(t, "stu-1", detail.StudentID)
	assert.Nil(t, detail.WorkerID)
	assert.Nil(t, detail.ProcessingTime)
}

func TestRequestServiceCreateDuplicateConflict(t *testing.T) {
	repo := &mockRequestRepo{createErr: &pq.Error{Code: "23505"}}
	svc := newRequestService(repo)

	_, err := svc.Create(context.Background(), "stu-1", CreateRequestInput{CourseID: "crs-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestRequestServiceCreateMissingCourse(t *testing.T) {
	repo := &mockRequestRepo{}
	svc := NewRequestService(repo, &mockLookupRepo{}, &mockStudentFinder{}, &mockCourseFinder{missing: true}, &mockGroupFinder{}, &mockWorkerFinder{}, nil, nil)

	_, err := svc.Create(context.Background(), "stu-1", CreateRequestInput{CourseID: "missing"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRequestServiceDecideApprovalCreatesProgress(t *testing.T) {
	repo := &mockRequestRepo{requests: map[string]models.Request{
		"req-1": {ID: "req-1", StudentID: "stu-1", CourseID: "crs-1", StatusID: "st-PENDING"},
	}}
	groups := &mockGroupFinder{}
	svc := NewRequestService(repo, &mockLookupRepo{}, &mockStudentFinder{}, &mockCourseFinder{}, groups, &mockWorkerFinder{}, nil, nil)

	groupID := "grp-1"
	detail, err := svc.Decide(context.Background(), "req-1", "wrk-1", DecideRequestInput{StatusID: "st-approved", GroupID: &groupID})
	require.NoError(t, err)
	require.NotNil(t, repo.decided)
	assert.True(t, repo.decidedCreate)
	require.NotNil(t, repo.progress)
	assert.Equal(t, "req-1", repo.progress.RequestID)
	assert.Equal(t, 0, repo.progress.Percent)
	assert.Equal(t, "ss-IN_PROGRESS", repo.progress.StatusID)
	assert.Equal(t, "st-approved", detail.StatusID)
	require.NotNil(t, detail.ProcessingTime)
	assert.Equal(t, 1, groups.adjustments["grp-1"])
}

func TestRequestServiceDecideRejectionSkipsProgress(t *testing.T) {
	repo := &mockRequestRepo{requests: map[string]models.Request{
		"req-1": {ID: "req-1", StudentID: "stu-1", CourseID: "crs-1", StatusID: "st-PENDING"},
	}}
	svc := newRequestService(repo)

	_, err := svc.Decide(context.Background(), "req-1", "wrk-1", DecideRequestInput{StatusID: "st-rejected"})
	require.NoError(t, err)
	assert.False(t, repo.decidedCreate)
	assert.Nil(t, repo.progress)
}

func TestRequestServiceDecideUnknownStatus(t *testing.T) {
	repo := &mockRequestRepo{requests: map[string]models.Request{
		"req-1": {ID: "req-1"},
	}}
	svc := newRequestService(repo)

	_, err := svc.Decide(context.Background(), "req-1", "wrk-1", DecideRequestInput{StatusID: "st-bogus"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRequestServiceClearGroupOnly(t *testing.T) {
	groupID := "grp-1"
	repo := &mockRequestRepo{requests: map[string]models.Request{
		"req-1": {ID: "req-1", StatusID: "st-approved", GroupID: &groupID},
	}}
	groups := &mockGroupFinder{}
	svc := NewRequestService(repo, &mockLookupRepo{}, &mockStudentFinder{}, &mockCourseFinder{}, groups, &mockWorkerFinder{}, nil, nil)

	require.NoError(t, svc.ClearGroup(context.Background(), "req-1"))
	assert.Equal(t, []string{"req-1"}, repo.cleared)
	assert.Equal(t, "st-approved", repo.requests["req-1"].StatusID)
	assert.Equal(t, -1, groups.adjustments["grp-1"])
}

func TestRequestServiceClearGroupWithoutGroup(t *testing.T) {
	repo := &mockRequestRepo{requests: map[string]models.Request{
		"req-1": {ID: "req-1", StatusID: "st-approved"},
	}}
	groups := &mockGroupFinder{}
	svc := NewRequestService(repo, &mockLookupRepo{}, &mockStudentFinder{}, &mockCourseFinder{}, groups, &mockWorkerFinder{}, nil, nil)

	require.NoError(t, svc.ClearGroup(context.Background(), "req-1"))
	assert.Empty(t, groups.adjustments)
}

func TestRequestServiceUpdateComment(t *testing.T) {
	repo := &mockRequestRepo{requests: map[string]models.Request{
		"req-1": {ID: "req-1"},
	}}
	svc := newRequestService(repo)

	text := "please place me in the evening group"
	require.NoError(t, svc.UpdateComment(context.Background(), "req-1", UpdateCommentInput{RequestText: &text}))
	require.Contains(t, repo.comments, "req-1")
	assert.Equal(t, &text, repo.comments["req-1"])
}

func TestRequestServiceDeleteMissing(t *testing.T) {
	repo := &mockRequestRepo{}
	svc := newRequestService(repo)

	err := svc.Delete(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
