package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lsa-api/internal/dto"
	"github.com/noah-isme/lsa-api/internal/service"
	appErrors "github.com/noah-isme/lsa-api/pkg/errors"
	"github.com/noah-isme/lsa-api/pkg/response"
)

// AssignmentHandler exposes the teaching assignment ledger.
type AssignmentHandler struct {
	assignments *service.AssignmentService
}

// NewAssignmentHandler constructs handler.
func NewAssignmentHandler(assignments *service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignments: assignments}
}

// ListByClass godoc
// @Summary List assignment windows of a class
// @Tags Assignments
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/assignments [get]
func (h *AssignmentHandler) ListByClass(c *gin.Context) {
	assignments, err := h.assignments.ListByClass(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}

// Resolve godoc
// @Summary Resolve who teaches a class on a date
// @Tags Assignments
// @Produce json
// @Param id path string true "Class ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/assignments/resolve [get]
func (h *AssignmentHandler) Resolve(c *gin.Context) {
	var query dto.ResolveTeacherQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date is required"))
		return
	}
	date, err := time.Parse("2006-01-02", query.Date)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD"))
		return
	}
	classID := c.Param("id")
	teacherID, err := h.assignments.ResolveTeacher(c.Request.Context(), classID, date)
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := dto.ResolveTeacherResponse{ClassID: classID, Date: query.Date}
	if teacherID != "" {
		resp.TeacherID = &teacherID
		rate, err := h.assignments.Rate(c.Request.Context(), classID, teacherID, date)
		if err != nil {
			response.Error(c, err)
			return
		}
		resp.Rate = rate
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// Create godoc
// @Summary Create an assignment window
// @Tags Assignments
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param payload body dto.AssignmentRequest true "Assignment"
// @Success 201 {object} response.Envelope
// @Router /classes/{id}/assignments [post]
func (h *AssignmentHandler) Create(c *gin.Context) {
	var req dto.AssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	assignment, err := h.assignments.Create(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignment)
}

// Update godoc
// @Summary Rewrite an assignment window
// @Tags Assignments
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param assignmentId path string true "Assignment ID"
// @Param payload body dto.AssignmentRequest true "Assignment"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/assignments/{assignmentId} [put]
func (h *AssignmentHandler) Update(c *gin.Context) {
	var req dto.AssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	assignment, err := h.assignments.Update(c.Request.Context(), c.Param("id"), c.Param("assignmentId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignment, nil)
}

// Delete godoc
// @Summary Delete an assignment window
// @Tags Assignments
// @Param id path string true "Class ID"
// @Param assignmentId path string true "Assignment ID"
// @Success 204
// @Router /classes/{id}/assignments/{assignmentId} [delete]
func (h *AssignmentHandler) Delete(c *gin.Context) {
	if err := h.assignments.Delete(c.Request.Context(), c.Param("assignmentId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
