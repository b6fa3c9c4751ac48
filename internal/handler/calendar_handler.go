package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lsa-api/internal/service"
	appErrors "github.com/noah-isme/lsa-api/pkg/errors"
	"github.com/noah-isme/lsa-api/pkg/response"
)

// CalendarHandler exposes the cached month view.
type CalendarHandler struct {
	calendar *service.CalendarService
}

// NewCalendarHandler constructs handler.
func NewCalendarHandler(calendar *service.CalendarService) *CalendarHandler {
	return &CalendarHandler{calendar: calendar}
}

// Month godoc
// @Summary Month view of generated sessions
// @Tags Calendar
// @Produce json
// @Param month query string true "Month (YYYY-MM)"
// @Param branchId query string false "Branch ID"
// @Success 200 {object} response.Envelope
// @Router /calendar [get]
func (h *CalendarHandler) Month(c *gin.Context) {
	month := c.Query("month")
	if month == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "month required"))
		return
	}
	view, err := h.calendar.Month(c.Request.Context(), c.Query("branchId"), month)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}
