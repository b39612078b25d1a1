package routes

import (
	"net/http"
	"time"

	"caredesk/handlers"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterCalendarRoutes registers calendar reads, bookings and breaks.
func RegisterCalendarRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/calendar")
	{
		api.GET("/months/:year/:month", hb.QueryMonthHandler)
		api.GET("/slots", hb.SlotsHandler)
		api.POST("/bookings", hb.BookSlotHandler)
		api.GET("/history", hb.HistoryHandler)
		api.POST("/breaks", hb.AddBreakHandler)
		api.DELETE("/breaks/:breakId", hb.RemoveBreakHandler)
	}
}

// RegisterAvailabilityRoutes registers weekly template endpoints.
func RegisterAvailabilityRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/availability/:professionalType/:professionalId")
	{
		api.GET("", hb.GetAvailabilityHandler)
		api.PUT("", hb.UpdateAvailabilityHandler)
		api.PUT("/days/:weekday", hb.UpdateAvailabilityDayHandler)
	}
}

// RegisterAdminRoutes sets up endpoints for calendar maintenance.
func RegisterAdminRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	adminGroup := r.Group("/api/admin/calendar")
	{
		if hb.AdminAuth != nil {
			adminGroup.Use(hb.AdminAuth)
		}
		adminGroup.POST("/reconcile", hb.ReconcileHandler)
		adminGroup.POST("/prune", hb.PruneHandler)
		adminGroup.POST("/months/:year/:month/init", hb.InitMonthHandler)
	}
}

// RegisterHealthRoute exposes health and metrics endpoints.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", handlers.HealthHandler)
	r.GET("/metrics", handlers.MetricsHandler())
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoute(r)
	RegisterCalendarRoutes(r, hb)
	RegisterAvailabilityRoutes(r, hb)
	RegisterAdminRoutes(r, hb)
}
