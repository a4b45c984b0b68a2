package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/dev-lms/lms-api/internal/models"
	appErrors "github.com/dev-lms/lms-api/pkg/errors"
)

type mockStudentStore struct {
	students map[string]*models.Student
}

func (m *mockStudentStore) Create(ctx context.Context, student *models.Student) error {
	if m.students == nil {
		m.students = make(map[string]*models.Student)
	}
	if student.ID == "" {
		student.ID = "stu-new"
	}
	m.students[student.Email] = student
	return nil
}

func (m *mockStudentStore) FindByID(ctx context.Context, id string) (*models.Student, error) {
	for _, s := range m.students {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentStore) FindByEmail(ctx context.Context, email string) (*models.Student, error) {
	if s, ok := m.students[email]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

type mockWorkerStore struct {
	workers map[string]*models.WorkerDetail
}

func (m *mockWorkerStore) Create(ctx context.Context, worker *models.Worker) error {
	if m.workers == nil {
		m.workers = make(map[string]*models.WorkerDetail)
	}
	if worker.ID == "" {
		worker.ID = "wrk-new"
	}
	m.workers[worker.Email] = &models.WorkerDetail{Worker: *worker, RoleCode: models.WorkerRoleTeacher}
	return nil
}

func (m *mockWorkerStore) FindByID(ctx context.Context, id string) (*models.WorkerDetail, error) {
	for _, w := range m.workers {
		if w.ID == id {
			return w, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockWorkerStore) FindByEmail(ctx context.Context, email string) (*models.WorkerDetail, error) {
	if w, ok := m.workers[email]; ok {
		return w, nil
	}
	return nil, sql.ErrNoRows
}

type mockRoleStore struct {
	roles map[string]*models.WorkerRole
}

func (m *mockRoleStore) WorkerRoleByID(ctx context.Context, id string) (*models.WorkerRole, error) {
	if r, ok := m.roles[id]; ok {
		return r, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockRoleStore) ListWorkerRoles(ctx context.Context) ([]models.WorkerRole, error) {
	var roles []models.WorkerRole
	for _, r := range m.roles {
		roles = append(roles, *r)
	}
	return roles, nil
}

func newAuthService(students *mockStudentStore, workers *mockWorkerStore, roles *mockRoleStore, config AuthConfig) *AuthService {
	if config.Secret == "" {
		config.Secret = "test-secret"
	}
	if config.Expiration == 0 {
		config.Expiration = time.Hour
	}
	if config.Issuer == "" {
		config.Issuer = "lms-api"
	}
	return NewAuthService(students, workers, roles, validator.New(), zap.NewNop(), config)
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestLoginStudentTokenRoundTrip(t *testing.T) {
	students := &mockStudentStore{students: map[string]*models.Student{
		"anna@example.com": {
			ID:           "stu-1",
			LastName:     "Smirnova",
			FirstName:    "Anna",
			Email:        "anna@example.com",
			PasswordHash: hashPassword(t, "secret123"),
		},
	}}
	svc := newAuthService(students, &mockWorkerStore{}, &mockRoleStore{}, AuthConfig{})

	resp, err := svc.LoginStudent(context.Background(), models.LoginRequest{Email: "anna@example.com", Password: "secret123"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, models.KindStudent, resp.Principal.Kind)
	assert.Equal(t, models.RoleStudent, resp.Principal.Role)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "stu-1", claims.UserID)
	assert.Equal(t, models.KindStudent, claims.Kind)
	assert.Equal(t, models.RoleStudent, claims.Role)
	assert.Equal(t, "anna@example.com", claims.Email)
}

func TestLoginStudentWrongPassword(t *testing.T) {
	students := &mockStudentStore{students: map[string]*models.Student{
		"anna@example.com": {
			ID:           "stu-1",
			Email:        "anna@example.com",
			PasswordHash: hashPassword(t, "secret123"),
		},
	}}
	svc := newAuthService(students, &mockWorkerStore{}, &mockRoleStore{}, AuthConfig{})

	_, err := svc.LoginStudent(context.Background(), models.LoginRequest{Email: "anna@example.com", Password: "wrong"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestLoginWorkerRoleMapping(t *testing.T) {
	workers := &mockWorkerStore{workers: map[string]*models.WorkerDetail{
		"admin@example.com": {
			Worker: models.Worker{
				ID:           "wrk-1",
				Email:        "admin@example.com",
				PasswordHash: hashPassword(t, "secret123"),
			},
			RoleCode: models.WorkerRoleAdmin,
		},
	}}
	svc := newAuthService(&mockStudentStore{}, workers, &mockRoleStore{}, AuthConfig{})

	resp, err := svc.LoginWorker(context.Background(), models.LoginRequest{Email: "admin@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, models.KindWorker, resp.Principal.Kind)
	assert.Equal(t, models.RoleAdmin, resp.Principal.Role)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, models.KindWorker, claims.Kind)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestValidateTokenRejectsTamperedSignature(t *testing.T) {
	students := &mockStudentStore{students: map[string]*models.Student{
		"anna@example.com": {
			ID:           "stu-1",
			Email:        "anna@example.com",
			PasswordHash: hashPassword(t, "secret123"),
		},
	}}
	svc := newAuthService(students, &mockWorkerStore{}, &mockRoleStore{}, AuthConfig{})

	resp, err := svc.LoginStudent(context.Background(), models.LoginRequest{Email: "anna@example.com", Password: "secret123"})
	require.NoError(t, err)

	parts := strings.Split(resp.AccessToken, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	_, err = svc.ValidateToken(tampered)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	students := &mockStudentStore{students: map[string]*models.Student{
		"anna@example.com": {
			ID:           "stu-1",
			Email:        "anna@example.com",
			PasswordHash: hashPassword(t, "secret123"),
		},
	}}
	svc := newAuthService(students, &mockWorkerStore{}, &mockRoleStore{}, AuthConfig{Expiration: -time.Minute})

	resp, err := svc.LoginStudent(context.Background(), models.LoginRequest{Email: "anna@example.com", Password: "secret123"})
	require.NoError(t, err)

	_, err = svc.ValidateToken(resp.AccessToken)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := newAuthService(&mockStudentStore{}, &mockWorkerStore{}, &mockRoleStore{}, AuthConfig{})
	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestRegisterWorkerUnknownRole(t *testing.T) {
	svc := newAuthService(&mockStudentStore{}, &mockWorkerStore{}, &mockRoleStore{roles: map[string]*models.WorkerRole{}}, AuthConfig{})
	_, err := svc.RegisterWorker(context.Background(), models.RegisterWorkerRequest{
		LastName:  "Ivanov",
		FirstName: "Ivan",
		Email:     "ivan@example.com",
		Password:  "secret123",
		RoleID:    "missing",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRegisterStudentIssuesToken(t *testing.T) {
	students := &mockStudentStore{}
	svc := newAuthService(students, &mockWorkerStore{}, &mockRoleStore{}, AuthConfig{})

	resp, err := svc.RegisterStudent(context.Background(), models.RegisterStudentRequest{
		LastName:  "Smirnova",
		FirstName: "Anna",
		Email:     "Anna@Example.com",
		Password:  "secret123",
	})
	require.NoError(t, err)
	assert.Equal(t, "anna@example.com", resp.Principal.Email)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, models.KindStudent, claims.Kind)
}
