package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/dev-lms/lms-api/internal/middleware"
	"github.com/dev-lms/lms-api/internal/models"
)

func TestProgressHandlerSetStatusMissingStatusID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewProgressHandler(nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPut, "/progress/requests/req-1/status", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "requestId", Value: "req-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "wrk-1", Kind: models.KindWorker, Role: models.RoleAdmin})

	handler.SetStatus(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProgressHandlerGetMineUnauthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewProgressHandler(nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/progress/crs-1", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "courseId", Value: "crs-1"}}

	handler.GetMine(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
