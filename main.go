package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"caredesk/config"
	"caredesk/cron"
	"caredesk/database"
	availabilityRepo "caredesk/database/repository/availability"
	calendarRepo "caredesk/database/repository/calendar"
	ledgerRepo "caredesk/database/repository/ledger"
	professionalRepo "caredesk/database/repository/professional"
	"caredesk/handlers"
	"caredesk/middleware"
	"caredesk/routes"
	"caredesk/services/calendar"
	"caredesk/services/reconcile"
	"caredesk/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	defer func() { _ = logger.Sync() }()

	database.InitDB()
	db := database.DB()

	idxCtx, idxCancel := context.WithTimeout(context.Background(), 30*time.Second)
	for name, ensure := range map[string]func(context.Context) error{
		"calendars":    func(ctx context.Context) error { return calendarRepo.EnsureIndexes(ctx, db) },
		"appointments": func(ctx context.Context) error { return ledgerRepo.EnsureIndexes(ctx, db) },
		"availability": func(ctx context.Context) error { return availabilityRepo.EnsureIndexes(ctx, db) },
	} {
		if err := ensure(idxCtx); err != nil {
			logger.Sugar().Fatalf("main: failed to ensure %s indexes: %v", name, err)
		}
	}
	idxCancel()

	// Redis only backs caching, locking and async syncs; the calendar works without it.
	if err := utils.InitCache(); err != nil {
		logger.Warn("main: redis unavailable, running without slot cache and booking locks", zap.Error(err))
	}
	metrics := utils.GetMetrics()

	// repositories.
	calendars := calendarRepo.NewMongoCalendarRepo(db)
	ledger := ledgerRepo.NewMongoLedgerRepo(db)
	templates, err := availabilityRepo.NewCachedAvailabilityRepo(
		availabilityRepo.NewMongoAvailabilityRepo(db),
		config.AppConfig.TemplateCacheSize,
		logger,
	)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to create template cache: %v", err)
	}
	directory := professionalRepo.NewMongoDirectory(db, templates)

	holidays, err := calendar.ParseHolidays(config.AppConfig.CalendarHolidays)
	if err != nil {
		logger.Sugar().Fatalf("main: invalid CALENDAR_HOLIDAYS: %v", err)
	}

	// services.
	deriver := &calendar.Deriver{
		Directory: directory,
		Ledger:    ledger,
		Holidays:  holidays,
		Location:  config.Location(),
		Now:       time.Now,
		Logger:    logger.Named("Deriver"),
	}
	store := &calendar.MonthStore{
		Repo:    calendars,
		Deriver: deriver,
		Metrics: metrics,
		Logger:  logger.Named("MonthStore"),
	}
	calendarService, err := calendar.NewDefaultCalendarService(store, ledger, directory, templates, logger)
	if err != nil {
		logger.Sugar().Fatalf("main: %v", err)
	}
	calendarService.RetentionMonths = config.AppConfig.CalendarRetentionMonths
	calendarService.Metrics = metrics

	var slotCache calendar.SlotCache
	if client := utils.GetCacheClient(); client != nil {
		redisCache := calendar.NewRedisSlotCache(client, config.AppConfig.SlotCacheTTL, logger)
		slotCache = redisCache
		calendarService.Cache = redisCache
		calendarService.Locker = calendar.NewRedisLocker(client, config.AppConfig.BookingLockTTL)
	}

	enqueuer := cron.NewEnqueuer(logger)
	defer enqueuer.Close()
	calendarService.Sync = enqueuer

	reconciler := reconcile.NewReconciler(store, ledger, reconcile.Config{
		FutureMonths:    config.AppConfig.CalendarFutureMonths,
		RetentionMonths: config.AppConfig.CalendarRetentionMonths,
	}, logger)
	reconciler.Cache = slotCache
	reconciler.Templates = templates
	reconciler.Metrics = metrics

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Background work: one scheduler goroutine, the async worker and the health monitor.
	scheduler := cron.NewScheduler(logger, config.AppConfig.ReconcileJitter,
		cron.Task{
			Name:     "full-reconcile",
			Interval: config.AppConfig.ReconcileFullInterval,
			Run: func(ctx context.Context) error {
				_, err := reconciler.RunFull(ctx)
				return err
			},
		},
		cron.Task{
			Name:     "booking-sync",
			Interval: config.AppConfig.ReconcileBookingInterval,
			Run: func(ctx context.Context) error {
				_, err := reconciler.SyncBookings(ctx)
				return err
			},
		},
		cron.Task{
			Name:     "availability-sync",
			Interval: config.AppConfig.ReconcileAvailabilityInterval,
			Run: func(ctx context.Context) error {
				_, err := reconciler.SyncAvailability(ctx, nil)
				return err
			},
		},
	)
	// Bring the window up to date before serving.
	if err := scheduler.RunOnce(ctx, "full-reconcile"); err != nil {
		logger.Warn("main: startup reconciliation finished with errors", zap.Error(err))
	}
	schedulerDone := scheduler.Start(ctx)
	worker := cron.StartWorker(reconciler, logger)

	var redisClients []*redis.Client
	if client := utils.GetCacheClient(); client != nil {
		redisClients = append(redisClients, client)
	}
	utils.StartHealthMonitor(ctx, redisClients, database.MongoClient)

	// Create the Gin router.
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(handlers.RequestLogger(logger.Named("HTTP")))
	router.Use(middleware.RateLimitMiddleware())

	handlerBundle := handlers.NewHandlerBundle(
		handlers.NewCalendarHandler(calendarService),
		handlers.NewAvailabilityHandler(calendarService),
		handlers.NewAdminHandler(reconciler, enqueuer, logger),
		middleware.JWTAuthAdminMiddleware(),
	)
	routes.RegisterRoutes(router, handlerBundle)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar().Errorf("main: server forced to shutdown: %v", err)
	}

	stop()
	worker.Shutdown()
	select {
	case <-schedulerDone:
	case <-shutdownCtx.Done():
		logger.Warn("main: scheduler did not stop in time")
	}
	if err := database.Disconnect(shutdownCtx); err != nil {
		logger.Sugar().Errorf("main: mongo disconnect failed: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
