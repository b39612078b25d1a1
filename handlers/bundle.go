package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	// Calendar endpoints
	QueryMonthHandler  gin.HandlerFunc
	SlotsHandler       gin.HandlerFunc
	BookSlotHandler    gin.HandlerFunc
	HistoryHandler     gin.HandlerFunc
	AddBreakHandler    gin.HandlerFunc
	RemoveBreakHandler gin.HandlerFunc

	// Availability endpoints
	GetAvailabilityHandler       gin.HandlerFunc
	UpdateAvailabilityHandler    gin.HandlerFunc
	UpdateAvailabilityDayHandler gin.HandlerFunc

	// Admin endpoints
	ReconcileHandler gin.HandlerFunc
	PruneHandler     gin.HandlerFunc
	InitMonthHandler gin.HandlerFunc

	// Middleware applied to the admin group
	AdminAuth gin.HandlerFunc
}

// NewHandlerBundle wires handler methods into the bundle.
func NewHandlerBundle(ch *CalendarHandler, avh *AvailabilityHandler, ah *AdminHandler, adminAuth gin.HandlerFunc) *HandlerBundle {
	return &HandlerBundle{
		QueryMonthHandler:  ch.QueryMonthHandler,
		SlotsHandler:       ch.SlotsHandler,
		BookSlotHandler:    ch.BookSlotHandler,
		HistoryHandler:     ch.HistoryHandler,
		AddBreakHandler:    ch.AddBreakHandler,
		RemoveBreakHandler: ch.RemoveBreakHandler,

		GetAvailabilityHandler:       avh.GetAvailabilityHandler,
		UpdateAvailabilityHandler:    avh.UpdateAvailabilityHandler,
		UpdateAvailabilityDayHandler: avh.UpdateAvailabilityDayHandler,

		ReconcileHandler: ah.ReconcileHandler,
		PruneHandler:     ah.PruneHandler,
		InitMonthHandler: ah.InitMonthHandler,

		AdminAuth: adminAuth,
	}
}
