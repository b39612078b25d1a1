package handlers

import (
	"net/http"
	"strconv"

	"caredesk/models"
	"caredesk/services/calendar"
	"caredesk/services/slots"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CalendarHandler serves calendar reads, bookings and operator breaks.
type CalendarHandler struct {
	Service calendar.CalendarService
}

func NewCalendarHandler(svc calendar.CalendarService) *CalendarHandler {
	return &CalendarHandler{Service: svc}
}

// QueryMonthHandler returns the days of /months/:year/:month, optionally for one professional.
func (h *CalendarHandler) QueryMonthHandler(c *gin.Context) {
	key, err := pathMonth(c)
	if err != nil {
		writeError(c, "Invalid month", err)
		return
	}
	filter, err := optionalRef(c)
	if err != nil {
		writeError(c, "Invalid professional", err)
		return
	}

	days, err := h.Service.QueryMonth(c.Request.Context(), key, filter)
	if err != nil {
		writeError(c, "Failed to load calendar month", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"month": key.String(), "days": days})
}

// SlotsHandler lists bookable slots. Only malformed queries fail; anything else yields an
// empty list.
func (h *CalendarHandler) SlotsHandler(c *gin.Context) {
	ref, err := requiredRef(c)
	if err != nil {
		writeError(c, "Invalid professional", err)
		return
	}
	date, err := queryDate(c, "date")
	if err != nil {
		writeError(c, "Invalid date", err)
		return
	}
	duration, err := strconv.Atoi(c.DefaultQuery("duration", "30"))
	if err != nil {
		writeError(c, "Invalid duration", &models.ValidationError{Field: "duration", Reason: "must be a number of minutes"})
		return
	}

	list, err := h.Service.AvailableSlots(c.Request.Context(), calendar.SlotQuery{
		Professional: ref,
		Date:         date,
		Duration:     duration,
		VisitType:    models.VisitType(c.Query("visitType")),
	})
	if err != nil {
		writeError(c, "Invalid slot query", err)
		return
	}
	if list == nil {
		list = []slots.Slot{}
	}
	c.JSON(http.StatusOK, gin.H{"date": date, "slots": list})
}

// BookSlotHandler reserves a slot on behalf of a ledger booking.
func (h *CalendarHandler) BookSlotHandler(c *gin.Context) {
	var req calendar.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload", err)
		return
	}

	booked, err := h.Service.BookSlot(c.Request.Context(), req)
	if err != nil {
		getLogger(c).Info("Booking rejected",
			zap.String("professional", req.Professional.String()),
			zap.String("date", req.Date.String()),
			zap.Error(err))
		writeError(c, "Failed to book slot", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Slot booked", "booking": booked})
}

// HistoryHandler serves the read-only past-period view built from the ledger.
func (h *CalendarHandler) HistoryHandler(c *gin.Context) {
	from, err := queryDate(c, "from")
	if err != nil {
		writeError(c, "Invalid range", err)
		return
	}
	to, err := queryDate(c, "to")
	if err != nil {
		writeError(c, "Invalid range", err)
		return
	}
	filter, err := optionalRef(c)
	if err != nil {
		writeError(c, "Invalid professional", err)
		return
	}

	days, err := h.Service.PastView(c.Request.Context(), from, to, filter)
	if err != nil {
		writeError(c, "Failed to load history", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": days})
}

func (h *CalendarHandler) AddBreakHandler(c *gin.Context) {
	var req calendar.BreakRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload", err)
		return
	}

	br, err := h.Service.AddBreak(c.Request.Context(), req)
	if err != nil {
		writeError(c, "Failed to add break", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"break": br})
}

// RemoveBreakHandler deletes /breaks/:breakId; the owning entry is named by query parameters.
func (h *CalendarHandler) RemoveBreakHandler(c *gin.Context) {
	ref, err := requiredRef(c)
	if err != nil {
		writeError(c, "Invalid professional", err)
		return
	}
	date, err := queryDate(c, "date")
	if err != nil {
		writeError(c, "Invalid date", err)
		return
	}

	if err := h.Service.RemoveBreak(c.Request.Context(), ref, date, c.Param("breakId")); err != nil {
		writeError(c, "Failed to remove break", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Break removed"})
}
