package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dev-lms/lms-api/internal/service"
	appErrors "github.com/dev-lms/lms-api/pkg/errors"
	"github.com/dev-lms/lms-api/pkg/response"
)

// ProgressHandler exposes studying progress endpoints.
type ProgressHandler struct {
	progress *service.ProgressService
}

// NewProgressHandler constructs ProgressHandler.
func NewProgressHandler(progress *service.ProgressService) *ProgressHandler {
	return &ProgressHandler{progress: progress}
}

// GetMine godoc
// @Summary Get the caller's progress in a course
// @Tags Progress
// @Produce json
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /progress/{courseId} [get]
func (h *ProgressHandler) GetMine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	view, err := h.progress.GetProgress(c.Request.Context(), claims.UserID, c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// UpdatePercent godoc
// @Summary Set a student's completion percent
// @Tags Progress
// @Accept json
// @Produce json
// @Param payload body service.UpdatePercentInput true "Percent payload"
// @Success 200 {object} response.Envelope
// @Router /progress [post]
func (h *ProgressHandler) UpdatePercent(c *gin.Context) {
	var req service.UpdatePercentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	progress, err := h.progress.UpdatePercent(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, progress, nil)
}

// SetFinals godoc
// @Summary Record the final grade and exam result of a request
// @Tags Progress
// @Accept json
// @Produce json
// @Param requestId path string true "Request ID"
// @Param payload body service.UpdateFinalsInput true "Finals payload"
// @Success 200 {object} response.Envelope
// @Router /progress/requests/{requestId}/finals [put]
func (h *ProgressHandler) SetFinals(c *gin.Context) {
	var req service.UpdateFinalsInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	progress, err := h.progress.SetFinalsByRequest(c.Request.Context(), c.Param("requestId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, progress, nil)
}

type setProgressStatusRequest struct {
	StatusID string `json:"status_id" binding:"required"`
}

// SetStatus godoc
// @Summary Override the studying status of a request
// @Tags Progress
// @Accept json
// @Produce json
// @Param requestId path string true "Request ID"
// @Param payload body setProgressStatusRequest true "Status payload"
// @Success 204
// @Router /progress/requests/{requestId}/status [put]
func (h *ProgressHandler) SetStatus(c *gin.Context) {
	var req setProgressStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.progress.SetStatusByRequest(c.Request.Context(), c.Param("requestId"), req.StatusID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
