package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lsa-api/internal/models"
	"github.com/noah-isme/lsa-api/internal/service"
	appErrors "github.com/noah-isme/lsa-api/pkg/errors"
	"github.com/noah-isme/lsa-api/pkg/response"
)

// TimesheetHandler exposes payroll-facing timesheet reads.
type TimesheetHandler struct {
	timesheets *service.TimesheetService
}

// NewTimesheetHandler constructs handler.
func NewTimesheetHandler(timesheets *service.TimesheetService) *TimesheetHandler {
	return &TimesheetHandler{timesheets: timesheets}
}

// List godoc
// @Summary List pay records
// @Tags Timesheets
// @Produce json
// @Param teacherId query string false "Teacher ID"
// @Param status query string false "Status (draft|approved|locked)"
// @Param dateFrom query string false "Session date from (YYYY-MM-DD)"
// @Param dateTo query string false "Session date to (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /timesheets [get]
func (h *TimesheetHandler) List(c *gin.Context) {
	filter := models.TimesheetFilter{
		TeacherID: c.Query("teacherId"),
		Page:      queryInt(c, "page", 1),
		PageSize:  queryInt(c, "pageSize", 50),
	}
	if raw := c.Query("status"); raw != "" {
		filter.Status = []models.TimesheetStatus{models.TimesheetStatus(raw)}
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

	rows, total, err := h.timesheets.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, &models.Pagination{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalCount: total,
	})
}

// FindBySession godoc
// @Summary Pay record of one session
// @Tags Timesheets
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{id}/timesheet [get]
func (h *TimesheetHandler) FindBySession(c *gin.Context) {
	sheet, err := h.timesheets.FindBySession(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sheet, nil)
}
