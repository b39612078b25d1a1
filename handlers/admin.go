package handlers

import (
	"context"
	"net/http"

	"caredesk/models"
	"caredesk/services/reconcile"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminReconciler is the part of the reconciler exposed to operators.
type AdminReconciler interface {
	RunFull(ctx context.Context) (*reconcile.Report, error)
	PruneRetention(ctx context.Context) (*reconcile.PhaseResult, error)
	InitMonth(ctx context.Context, key models.MonthKey) (*models.CalendarMonth, error)
}

// FullReconcileRequester queues a pass on the async worker.
type FullReconcileRequester interface {
	RequestFullReconcile(ctx context.Context) error
}

// AdminHandler encapsulates elevated calendar maintenance operations.
type AdminHandler struct {
	Reconciler AdminReconciler
	// Queue is optional; without it ?async=true falls back to running inline.
	Queue  FullReconcileRequester
	Logger *zap.Logger
}

func NewAdminHandler(r AdminReconciler, queue FullReconcileRequester, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{Reconciler: r, Queue: queue, Logger: logger.Named("AdminHandler")}
}

// ReconcileHandler runs a full pass. A pass already in progress yields 409.
func (ah *AdminHandler) ReconcileHandler(c *gin.Context) {
	if c.Query("async") == "true" && ah.Queue != nil {
		if err := ah.Queue.RequestFullReconcile(c.Request.Context()); err != nil {
			ah.Logger.Error("Failed to queue reconciliation", zap.Error(err))
			writeError(c, "Failed to queue reconciliation", models.StoreError("enqueue reconcile", err))
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"message": "Reconciliation queued"})
		return
	}

	report, err := ah.Reconciler.RunFull(c.Request.Context())
	if report == nil {
		writeError(c, "Reconciliation not started", err)
		return
	}
	status := http.StatusOK
	if err != nil {
		// Phases fail independently; the report says which ones did.
		ah.Logger.Warn("Reconciliation finished with errors", zap.Error(err))
		status = http.StatusMultiStatus
	}
	c.JSON(status, report)
}

func (ah *AdminHandler) PruneHandler(c *gin.Context) {
	res, err := ah.Reconciler.PruneRetention(c.Request.Context())
	if res == nil {
		writeError(c, "Prune not started", err)
		return
	}
	if err != nil {
		ah.Logger.Error("Prune failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, res)
		return
	}
	c.JSON(http.StatusOK, res)
}

// InitMonthHandler creates (or returns) the stored document for /months/:year/:month.
func (ah *AdminHandler) InitMonthHandler(c *gin.Context) {
	key, err := pathMonth(c)
	if err != nil {
		writeError(c, "Invalid month", err)
		return
	}
	m, err := ah.Reconciler.InitMonth(c.Request.Context(), key)
	if err != nil {
		writeError(c, "Failed to initialise month", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"month": m.ID, "version": m.Version, "days": len(m.Days)})
}
