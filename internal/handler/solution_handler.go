package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dev-lms/lms-api/internal/service"
	appErrors "github.com/dev-lms/lms-api/pkg/errors"
	"github.com/dev-lms/lms-api/pkg/response"
)

// SolutionHandler exposes solution submission and grading endpoints.
type SolutionHandler struct {
	solutions *service.SolutionService
}

// NewSolutionHandler constructs SolutionHandler.
func NewSolutionHandler(solutions *service.SolutionService) *SolutionHandler {
	return &SolutionHandler{solutions: solutions}
}

// Submit godoc
// @Summary Submit a solution for an assignment
// @Tags Solutions
// @Accept json
// @Produce json
// @Param payload body service.SubmitSolutionInput true "Solution payload"
// @Success 201 {object} response.Envelope
// @Router /solutions [post]
func (h *SolutionHandler) Submit(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.SubmitSolutionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	detail, err := h.solutions.Submit(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, detail)
}

// Grade godoc
// @Summary Grade a solution
// @Tags Solutions
// @Accept json
// @Produce json
// @Param id path string true "Solution ID"
// @Param payload body service.GradeSolutionInput true "Grading payload"
// @Success 200 {object} response.Envelope
// @Router /solutions/{id}/grade [put]
func (h *SolutionHandler) Grade(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.GradeSolutionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	detail, err := h.solutions.Grade(c.Request.Context(), c.Param("id"), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// ListMine godoc
// @Summary List the caller's solutions
// @Tags Solutions
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /solutions/my [get]
func (h *SolutionHandler) ListMine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	solutions, err := h.solutions.ListByStudent(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, solutions, nil)
}

// ListByAssignment godoc
// @Summary List solutions submitted for an assignment
// @Tags Solutions
// @Produce json
// @Param assignmentId path string true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Router /solutions/assignment/{assignmentId} [get]
func (h *SolutionHandler) ListByAssignment(c *gin.Context) {
	solutions, err := h.solutions.ListByAssignment(c.Request.Context(), c.Param("assignmentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, solutions, nil)
}
