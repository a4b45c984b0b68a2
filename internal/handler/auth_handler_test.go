package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dev-lms/lms-api/internal/models"
	"github.com/dev-lms/lms-api/internal/service"
)

type studentStoreFake struct {
	byEmail map[string]*models.Student
}

func (f *studentStoreFake) Create(ctx context.Context, student *models.Student) error {
	if f.byEmail == nil {
		f.byEmail = map[string]*models.Student{}
	}
	f.byEmail[student.Email] = student
	return nil
}

func (f *studentStoreFake) FindByID(ctx context.Context, id string) (*models.Student, error) {
	for _, s := range f.byEmail {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *studentStoreFake) FindByEmail(ctx context.Context, email string) (*models.Student, error) {
	if s, ok := f.byEmail[email]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

func newLoginTestHandler(t *testing.T, students *studentStoreFake) *AuthHandler {
	t.Helper()
	auth := service.NewAuthService(students, nil, nil, nil, nil, service.AuthConfig{
		Secret:     "handler-test-secret",
		Expiration: time.Hour,
		Issuer:     "lms-api",
	})
	return NewAuthHandler(auth)
}

func TestAuthHandlerLoginStudentSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	students := &studentStoreFake{byEmail: map[string]*models.Student{
		"ivan@example.com": {ID: "stu-1", Email: "ivan@example.com", PasswordHash: string(hash)},
	}}
	handler := newLoginTestHandler(t, students)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(models.LoginRequest{Email: "ivan@example.com", Password: "secret123"})
	req, _ := http.NewRequest(http.MethodPost, "/auth/student/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.LoginStudent(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data models.AuthResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.NotEmpty(t, envelope.Data.AccessToken)
	assert.Equal(t, "stu-1", envelope.Data.Principal.ID)
}

func TestAuthHandlerLoginStudentWrongPassword(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	students := &studentStoreFake{byEmail: map[string]*models.Student{
		"ivan@example.com": {ID: "stu-1", Email: "ivan@example.com", PasswordHash: string(hash)},
	}}
	handler := newLoginTestHandler(t, students)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(models.LoginRequest{Email: "ivan@example.com", Password: "nope"})
	req, _ := http.NewRequest(http.MethodPost, "/auth/student/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.LoginStudent(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandlerLoginStudentMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newLoginTestHandler(t, &studentStoreFake{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/auth/student/login", bytes.NewReader([]byte(`not-json`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.LoginStudent(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
