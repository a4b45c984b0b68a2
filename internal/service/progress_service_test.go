package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dev-lms/lms-api/internal/models"
	appErrors "github.com/dev-lms/lms-api/pkg/errors"
)

type mockProgressRepo struct {
	byRequest map[string]*models.StudyingProgress
	inserts   int
	statusSet map[string]string
}

func (m *mockProgressRepo) FindByRequestID(ctx context.Context, requestID string) (*models.StudyingProgress, error) {
	if p, ok := m.byRequest[requestID]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockProgressRepo) GetOrCreate(ctx context.Context, fresh *models.StudyingProgress) (*models.StudyingProgress, error) {
	if m.byRequest == nil {
		m.byRequest = make(map[string]*models.StudyingProgress)
	}
	if existing, ok := m.byRequest[fresh.RequestID]; ok {
		copied := *existing
		return &copied, nil
	}
	m.inserts++
	if fresh.ID == "" {
		fresh.ID = "prg-new"
	}
	m.byRequest[fresh.RequestID] = fresh
	copied := *fresh
	return &copied, nil
}

func (m *mockProgressRepo) UpdatePercent(ctx context.Context, id string, percent int, graduationDate *time.Time) error {
	for _, p := range m.byRequest {
		if p.ID == id {
			p.Percent = percent
			if p.GraduationDate == nil && graduationDate != nil {
				p.GraduationDate = graduationDate
			}
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *mockProgressRepo) UpdateStatus(ctx context.Context, id, statusID string) error {
	if m.statusSet == nil {
		m.statusSet = make(map[string]string)
	}
	m.statusSet[id] = statusID
	for _, p := range m.byRequest {
		if p.ID == id {
			p.StatusID = statusID
		}
	}
	return nil
}

func (m *mockProgressRepo) UpdateFinals(ctx context.Context, id string, finalGrade, finalExamResult *int) error {
	for _, p := range m.byRequest {
		if p.ID == id {
			p.FinalGrade = finalGrade
			p.FinalExamResult = finalExamResult
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *mockProgressRepo) ListByGroup(ctx context.Context, groupID string) ([]models.StudentProgressView, error) {
	return nil, nil
}

type mockRequestLookup struct {
	requests map[string]*models.Request
}

func (m *mockRequestLookup) FindByStudentAndCourse(ctx context.Context, studentID, courseID string) (*models.Request, error) {
	if r, ok := m.requests[studentID+"/"+courseID]; ok {
		return r, nil
	}
	return nil, sql.ErrNoRows
}

type mockStudyingStatuses struct{}

func (m *mockStudyingStatuses) StudyingStatusByCode(ctx context.Context, code models.StudyingStatusCode) (*models.StudyingStatus, error) {
	return &models.StudyingStatus{ID: "ss-" + string(code), Code: code, Name: string(code)}, nil
}

func (m *mockStudyingStatuses) StudyingStatusByID(ctx context.Context, id string) (*models.StudyingStatus, error) {
	switch id {
	case "ss-IN_PROGRESS":
		return &models.StudyingStatus{ID: id, Code: models.StudyingStatusInProgress, Name: "In progress"}, nil
	case "ss-EXPELLED":
		return &models.StudyingStatus{ID: id, Code: models.StudyingStatusExpelled, Name: "Expelled"}, nil
	}
	return nil, sql.ErrNoRows
}

func newProgressService(progress *mockProgressRepo, requests *mockRequestLookup) *ProgressService {
	return NewProgressService(progress, requests, &mockStudyingStatuses{}, nil, nil)
}

func TestProgressServiceGetCreatesZeroRow(t *testing.T) {
	progress := &mockProgressRepo{}
	requests := &mockRequestLookup{requests: map[string]*models.Request{
		"stu-1/crs-1": {ID: "req-1", StudentID: "stu-1", CourseID: "crs-1"},
	}}
	svc := newProgressService(progress, requests)

	view, err := svc.GetProgress(context.Background(), "stu-1", "crs-1")
	require.NoError(t, err)
	assert.Equal(t, 0, view.Percent)
	assert.Equal(t, models.StudyingStatusInProgress, view.StatusCode)
	assert.Nil(t, view.GraduationDate)
	assert.Equal(t, 1, progress.inserts)
}

func TestProgressServiceGetIsIdempotent(t *testing.T) {
	progress := &mockProgressRepo{}
	requests := &mockRequestLookup{requests: map[string]*models.Request{
		"stu-1/crs-1": {ID: "req-1", StudentID: "stu-1", CourseID: "crs-1"},
	}}
	svc := newProgressService(progress, requests)

	_, err := svc.GetProgress(context.Background(), "stu-1", "crs-1")
	require.NoError(t, err)
	_, err = svc.GetProgress(context.Background(), "stu-1", "crs-1")
	require.NoError(t, err)
	assert.Equal(t, 1, progress.inserts)
}

func TestProgressServiceGetWithoutRequest(t *testing.T) {
	svc := newProgressService(&mockProgressRepo{}, &mockRequestLookup{})

	_, err := svc.GetProgress(context.Background(), "stu-1", "crs-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestProgressServiceUpdatePercentBounds(t *testing.T) {
	svc := newProgressService(&mockProgressRepo{}, &mockRequestLookup{})

	_, err := svc.UpdatePercent(context.Background(), UpdatePercentInput{StudentID: "stu-1", CourseID: "crs-1", Percent: 101})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestProgressServiceHundredPercentStampsGraduationOnce(t *testing.T) {
	firstGraduation := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	progress := &mockProgressRepo{byRequest: map[string]*models.StudyingProgress{
		"req-1": {ID: "prg-1", RequestID: "req-1", Percent: 100, GraduationDate: &firstGraduation, StatusID: "ss-IN_PROGRESS"},
	}}
	requests := &mockRequestLookup{requests: map[string]*models.Request{
		"stu-1/crs-1": {ID: "req-1", StudentID: "stu-1", CourseID: "crs-1"},
	}}
	svc := newProgressService(progress, requests)

	updated, err := svc.UpdatePercent(context.Background(), UpdatePercentInput{StudentID: "stu-1", CourseID: "crs-1", Percent: 100})
	require.NoError(t, err)
	require.NotNil(t, updated.GraduationDate)
	assert.True(t, updated.GraduationDate.Equal(firstGraduation))
}

func TestProgressServiceHundredPercentStampsFreshGraduation(t *testing.T) {
	progress := &mockProgressRepo{byRequest: map[string]*models.StudyingProgress{
		"req-1": {ID: "prg-1", RequestID: "req-1", Percent: 60, StatusID: "ss-IN_PROGRESS"},
	}}
	requests := &mockRequestLookup{requests: map[string]*models.Request{
		"stu-1/crs-1": {ID: "req-1", StudentID: "stu-1", CourseID: "crs-1"},
	}}
	svc := newProgressService(progress, requests)

	updated, err := svc.UpdatePercent(context.Background(), UpdatePercentInput{StudentID: "stu-1", CourseID: "crs-1", Percent: 100})
	require.NoError(t, err)
	assert.Equal(t, 100, updated.Percent)
	require.NotNil(t, updated.GraduationDate)
}

func TestProgressServicePartialPercentLeavesGraduationEmpty(t *testing.T) {
	progress := &mockProgressRepo{byRequest: map[string]*models.StudyingProgress{
		"req-1": {ID: "prg-1", RequestID: "req-1", Percent: 10, StatusID: "ss-IN_PROGRESS"},
	}}
	requests := &mockRequestLookup{requests: map[string]*models.Request{
		"stu-1/crs-1": {ID: "req-1", StudentID: "stu-1", CourseID: "crs-1"},
	}}
	svc := newProgressService(progress, requests)

	updated, err := svc.UpdatePercent(context.Background(), UpdatePercentInput{StudentID: "stu-1", CourseID: "crs-1", Percent: 75})
	require.NoError(t, err)
	assert.Equal(t, 75, updated.Percent)
	assert.Nil(t, updated.GraduationDate)
}

func TestProgressServiceSetStatusByRequest(t *testing.T) {
	progress := &mockProgressRepo{byRequest: map[string]*models.StudyingProgress{
		"req-1": {ID: "prg-1", RequestID: "req-1", StatusID: "ss-IN_PROGRESS"},
	}}
	svc := newProgressService(progress, &mockRequestLookup{})

	require.NoError(t, svc.SetStatusByRequest(context.Background(), "req-1", "ss-EXPELLED"))
	assert.Equal(t, "ss-EXPELLED", progress.statusSet["prg-1"])
}

func TestProgressServiceSetFinalsByRequest(t *testing.T) {
	progress := &mockProgressRepo{byRequest: map[string]*models.StudyingProgress{
		"req-1": {ID: "prg-1", RequestID: "req-1", Percent: 100, StatusID: "ss-IN_PROGRESS"},
	}}
	svc := newProgressService(progress, &mockRequestLookup{})

	grade := 92
	exam := 88
	updated, err := svc.SetFinalsByRequest(context.Background(), "req-1", UpdateFinalsInput{FinalGrade: &grade, FinalExamResult: &exam})
	require.NoError(t, err)
	require.NotNil(t, updated.FinalGrade)
	assert.Equal(t, 92, *updated.FinalGrade)
	require.NotNil(t, updated.FinalExamResult)
	assert.Equal(t, 88, *updated.FinalExamResult)
}

func TestProgressServiceSetFinalsOutOfRange(t *testing.T) {
	svc := newProgressService(&mockProgressRepo{}, &mockRequestLookup{})

	grade := 150
	_, err := svc.SetFinalsByRequest(context.Background(), "req-1", UpdateFinalsInput{FinalGrade: &grade})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestProgressServiceSetFinalsWithoutProgress(t *testing.T) {
	svc := newProgressService(&mockProgressRepo{}, &mockRequestLookup{})

	_, err := svc.SetFinalsByRequest(context.Background(), "req-missing", UpdateFinalsInput{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestProgressServiceSetStatusUnknownStatus(t *testing.T) {
	svc := newProgressService(&mockProgressRepo{}, &mockRequestLookup{})

	err := svc.SetStatusByRequest(context.Background(), "req-1", "ss-bogus")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
