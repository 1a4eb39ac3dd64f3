package main

import (
	"github.com/robfig/cron/v3"

	"github.com/skillhive/backend/internal/config"
	"github.com/skillhive/backend/internal/handlers"
	"github.com/skillhive/backend/internal/models"
	"github.com/skillhive/backend/internal/services"
	"github.com/skillhive/backend/internal/utils"
	"github.com/skillhive/backend/pkg/logger"
)

// appServices holds all initialized services and handlers needed by the
// application.
type appServices struct {
	scheduler *cron.Cron
	taskQueue services.TaskQueue
	worker    *services.Worker

	authHandler         *handlers.AuthHandler
	userHandler         *handlers.UserHandler
	projectHandler      *handlers.ProjectHandler
	applicationHandler  *handlers.ApplicationHandler
	skillSwapHandler    *handlers.SkillSwapHandler
	notificationHandler *handlers.NotificationHandler
	sseHandler          *handlers.SSEHandler
	systemLogHandler    *handlers.SystemLogHandler
	healthHandler       *handlers.HealthHandler
}

// bootstrap initializes all application dependencies: database, queue,
// schedulers, handlers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}
	db := models.GetDB()

	services.InitSystemLogger(db)

	// Notification dispatch: inline by default, async via Redis when
	// enabled.
	notificationService := services.NewNotificationService(db)
	taskQueue := services.InitTaskQueue(&cfg.Redis, notificationService.ProcessTask)

	var worker *services.Worker
	if taskQueue.IsAsync() {
		worker = services.NewWorker(&cfg.Redis, notificationService.ProcessTask)
		if err := worker.Start(); err != nil {
			logger.Fatalf("Failed to start notification worker: %v", err)
		}
	}

	// Background schedulers: side-effect replay and log retention.
	scheduler := cron.New()
	retryService := services.NewSideEffectRetryService(db, notificationService)
	if err := services.StartSideEffectRetryScheduler(scheduler, retryService); err != nil {
		logger.Fatalf("Failed to schedule side effect retries: %v", err)
	}
	if err := services.StartLogCleanupScheduler(scheduler, db); err != nil {
		logger.Warn().Err(err).Msg("Failed to schedule log cleanup")
	}
	scheduler.Start()

	return &appServices{
		scheduler: scheduler,
		taskQueue: taskQueue,
		worker:    worker,

		authHandler:         handlers.NewAuthHandler(db),
		userHandler:         handlers.NewUserHandler(db),
		projectHandler:      handlers.NewProjectHandler(db),
		applicationHandler:  handlers.NewApplicationHandler(db),
		skillSwapHandler:    handlers.NewSkillSwapHandler(db),
		notificationHandler: handlers.NewNotificationHandler(db),
		sseHandler:          handlers.NewSSEHandler(),
		systemLogHandler:    handlers.NewSystemLogHandler(db),
		healthHandler:       handlers.NewHealthHandler(db),
	}
}

// shutdown gracefully stops all background services.
func (s *appServices) shutdown() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		s.taskQueue.Close()
	}
	logger.Info().Msg("All background services stopped")
}
