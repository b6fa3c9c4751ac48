package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lsa-api/internal/dto"
	"github.com/noah-isme/lsa-api/internal/models"
	"github.com/noah-isme/lsa-api/internal/service"
	appErrors "github.com/noah-isme/lsa-api/pkg/errors"
	"github.com/noah-isme/lsa-api/pkg/response"
)

// ClassroomHandler exposes class reads and weekly schedule management.
type ClassroomHandler struct {
	classrooms *service.ClassroomService
}

// NewClassroomHandler constructs handler.
func NewClassroomHandler(classrooms *service.ClassroomService) *ClassroomHandler {
	return &ClassroomHandler{classrooms: classrooms}
}

// List godoc
// @Summary List classes
// @Tags Classes
// @Produce json
// @Param branchId query string false "Branch ID"
// @Param status query string false "Class status"
// @Param search query string false "Code or name search"
// @Success 200 {object} response.Envelope
// @Router /classes [get]
func (h *ClassroomHandler) List(c *gin.Context) {
	filter := models.ClassroomFilter{
		BranchID: c.Query("branchId"),
		Search:   c.Query("search"),
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "pageSize", 50),
	}
	if raw := c.Query("status"); raw != "" {
		filter.Status = []models.ClassroomStatus{models.ClassroomStatus(raw)}
	}
	classes, total, err := h.classrooms.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, &models.Pagination{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalCount: total,
	})
}

// Get godoc
// @Summary Class detail
// @Tags Classes
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{id} [get]
func (h *ClassroomHandler) Get(c *gin.Context) {
	class, err := h.classrooms.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil)
}

// WeeklySchedules godoc
// @Summary Recurring slot template of a class
// @Tags Classes
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/weekly-schedules [get]
func (h *ClassroomHandler) WeeklySchedules(c *gin.Context) {
	slots, err := h.classrooms.WeeklySchedules(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

// AddWeeklySchedule godoc
// @Summary Add a recurring slot to a class
// @Tags Classes
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param payload body dto.CreateWeeklyScheduleRequest true "Slot"
// @Success 201 {object} response.Envelope
// @Router /classes/{id}/weekly-schedules [post]
func (h *ClassroomHandler) AddWeeklySchedule(c *gin.Context) {
	var req dto.CreateWeeklyScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	slot, err := h.classrooms.AddWeeklySchedule(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, slot)
}

// RemoveWeeklySchedule godoc
// @Summary Remove a recurring slot
// @Tags Classes
// @Param id path string true "Class ID"
// @Param scheduleId path string true "Weekly schedule ID"
// @Success 204
// @Router /classes/{id}/weekly-schedules/{scheduleId} [delete]
func (h *ClassroomHandler) RemoveWeeklySchedule(c *gin.Context) {
	if err := h.classrooms.RemoveWeeklySchedule(c.Request.Context(), c.Param("scheduleId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
