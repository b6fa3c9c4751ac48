package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lsa-api/internal/dto"
	"github.com/noah-isme/lsa-api/internal/models"
	"github.com/noah-isme/lsa-api/internal/service"
	appErrors "github.com/noah-isme/lsa-api/pkg/errors"
	"github.com/noah-isme/lsa-api/pkg/response"
)

// SessionHandler exposes session generation and session mutation endpoints.
type SessionHandler struct {
	generator *service.GeneratorService
	sessions  *service.SessionService
}

// NewSessionHandler constructs handler.
func NewSessionHandler(generator *service.GeneratorService, sessions *service.SessionService) *SessionHandler {
	return &SessionHandler{generator: generator, sessions: sessions}
}

// Generate godoc
// @Summary Trigger session generation for a class
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param payload body dto.GenerateSessionsRequest true "Generation options"
// @Success 202 {object} response.Envelope
// @Router /classes/{id}/sessions/generate [post]
func (h *SessionHandler) Generate(c *gin.Context) {
	var req dto.GenerateSessionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	job, err := h.generator.Trigger(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, job, nil)
}

// JobStatus godoc
// @Summary Generation job status
// @Tags Sessions
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /generation-jobs/{id} [get]
func (h *SessionHandler) JobStatus(c *gin.Context) {
	job, err := h.generator.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}

// List godoc
// @Summary List sessions
// @Tags Sessions
// @Produce json
// @Param classId query string false "Class ID"
// @Param branchId query string false "Branch ID"
// @Param roomId query string false "Room ID"
// @Param dateFrom query string false "Start date (YYYY-MM-DD)"
// @Param dateTo query string false "End date (YYYY-MM-DD)"
// @Param status query string false "Session status"
// @Success 200 {object} response.Envelope
// @Router /sessions [get]
func (h *SessionHandler) List(c *gin.Context) {
	filter := models.SessionFilter{
		ClassID:  c.Query("classId"),
		BranchID: c.Query("branchId"),
		RoomID:   c.Query("roomId"),
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "pageSize", 50),
	}
	if raw := c.Query("dateFrom"); raw != "" {
		from, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "dateFrom must be YYYY-MM-DD"))
			return
		}
		filter.DateFrom = &from
	}
	if raw := c.Query("dateTo"); raw != "" {
		to, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "dateTo must be YYYY-MM-DD"))
			return
		}
		filter.DateTo = &to
	}
	if raw := c.Query("status"); raw != "" {
		filter.Status = []models.SessionStatus{models.SessionStatus(raw)}
	}

	sessions, total, err := h.sessions.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions, &models.Pagination{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalCount: total,
	})
}

// ListByClass godoc
// @Summary Full ordered session sequence of a class
// @Tags Sessions
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/sessions [get]
func (h *SessionHandler) ListByClass(c *gin.Context) {
	sessions, err := h.sessions.ListByClass(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions, nil)
}

// Update godoc
// @Summary Edit one session
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.UpdateSessionRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id} [put]
func (h *SessionHandler) Update(c *gin.Context) {
	var req dto.UpdateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	session, err := h.sessions.UpdateSession(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// AssignRoom godoc
// @Summary Assign a room to a session
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.AssignRoomRequest true "Room assignment"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /sessions/{id}/room [put]
func (h *SessionHandler) AssignRoom(c *gin.Context) {
	var req dto.AssignRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	session, err := h.sessions.AssignRoom(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// BulkAssignRoom godoc
// @Summary Assign a room to many sessions at once
// @Tags Sessions
// @Accept json
// @Produce json
// @Param payload body dto.BulkAssignRoomRequest true "Bulk room assignment"
// @Success 200 {object} response.Envelope
// @Router /sessions/bulk-room [post]
func (h *SessionHandler) BulkAssignRoom(c *gin.Context) {
	var req dto.BulkAssignRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	result, err := h.sessions.BulkAssignRoom(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return fallback
	}
	return value
}
