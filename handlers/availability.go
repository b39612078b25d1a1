package handlers

import (
	"net/http"

	"caredesk/models"
	"caredesk/services/calendar"

	"github.com/gin-gonic/gin"
)

// AvailabilityHandler reads and replaces weekly availability templates.
type AvailabilityHandler struct {
	Service calendar.CalendarService
}

func NewAvailabilityHandler(svc calendar.CalendarService) *AvailabilityHandler {
	return &AvailabilityHandler{Service: svc}
}

func (h *AvailabilityHandler) GetAvailabilityHandler(c *gin.Context) {
	ref, err := pathRef(c)
	if err != nil {
		writeError(c, "Invalid professional", err)
		return
	}
	tpl, err := h.Service.GetAvailability(c.Request.Context(), ref)
	if err != nil {
		writeError(c, "Failed to load availability", err)
		return
	}
	c.JSON(http.StatusOK, tpl)
}

// UpdateAvailabilityHandler replaces the whole template. The calendar catches up asynchronously.
func (h *AvailabilityHandler) UpdateAvailabilityHandler(c *gin.Context) {
	ref, err := pathRef(c)
	if err != nil {
		writeError(c, "Invalid professional", err)
		return
	}
	var body struct {
		Days []models.WeekdayAvailability `json:"days"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "Invalid request payload", err)
		return
	}

	tpl := &models.AvailabilityTemplate{Professional: ref, Days: body.Days}
	if err := h.Service.UpdateAvailability(c.Request.Context(), tpl); err != nil {
		writeError(c, "Failed to update availability", err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "Availability updated", "availability": tpl})
}

// UpdateAvailabilityDayHandler replaces one weekday; an empty range list clears it.
func (h *AvailabilityHandler) UpdateAvailabilityDayHandler(c *gin.Context) {
	ref, err := pathRef(c)
	if err != nil {
		writeError(c, "Invalid professional", err)
		return
	}
	weekday, err := parseWeekday(c.Param("weekday"))
	if err != nil {
		writeError(c, "Invalid weekday", err)
		return
	}
	var body struct {
		Ranges []models.AvailabilityRange `json:"ranges"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "Invalid request payload", err)
		return
	}

	tpl, err := h.Service.UpdateAvailabilityDay(c.Request.Context(), ref, weekday, body.Ranges)
	if err != nil {
		writeError(c, "Failed to update availability", err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "Availability updated", "availability": tpl})
}
