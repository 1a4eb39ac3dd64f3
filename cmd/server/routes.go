package main

import (
	"github.com/gin-gonic/gin"

	"github.com/skillhive/backend/internal/middleware"
	"github.com/skillhive/backend/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	// Rate limiter for the public auth routes
	authLimiter := middleware.NewRateLimiter(5, 10)

	// Health check
	r.GET("/health", svc.healthHandler.Check)

	api := r.Group("/api")
	{
		api.GET("/health", svc.healthHandler.Check)

		// Auth routes (public, rate limited)
		auth := api.Group("/auth", authLimiter.Middleware())
		{
			auth.POST("/register", svc.authHandler.Register)
			auth.POST("/login", svc.authHandler.Login)
		}

		// Protected routes; write operations land in the audit log
		protected := api.Group("")
		protected.Use(middleware.AuthRequired(), middleware.AuditLog())
		{
			// Current user
			protected.GET("/auth/me", svc.authHandler.Me)
			protected.PATCH("/users/me", svc.authHandler.UpdateProfile)

			// Member directory
			protected.GET("/users", svc.userHandler.List)
			protected.GET("/users/:id", svc.userHandler.Get)
			protected.PATCH("/users/:id/availability", svc.userHandler.SetAvailability)

			// Projects
			protected.GET("/projects", svc.projectHandler.List)
			protected.GET("/projects/:id", svc.projectHandler.Get)
			protected.POST("/projects", svc.projectHandler.Create)
			protected.PUT("/projects/:id", svc.projectHandler.Update)
			protected.GET("/projects/:id/members", svc.projectHandler.Members)

			// Project applications
			protected.POST("/projects/:id/applications", svc.applicationHandler.Submit)
			protected.GET("/projects/:id/applications", svc.applicationHandler.ListForProject)
			protected.GET("/applications/mine", svc.applicationHandler.ListMine)
			protected.PATCH("/applications/:id", svc.applicationHandler.Decide)

			// Skill swaps
			protected.POST("/skill-swaps", svc.skillSwapHandler.Propose)
			protected.GET("/skill-swaps", svc.skillSwapHandler.List)
			protected.GET("/skill-swaps/:id", svc.skillSwapHandler.Get)
			protected.PATCH("/skill-swaps/:id/status", svc.skillSwapHandler.Decide)
			protected.POST("/skill-swaps/:id/messages", svc.skillSwapHandler.PostMessage)
			protected.GET("/skill-swaps/:id/messages", svc.skillSwapHandler.ListMessages)
			protected.GET("/skill-swaps/:id/history", svc.skillSwapHandler.ListHistory)

			// Notifications
			protected.GET("/notifications", svc.notificationHandler.List)
			protected.GET("/notifications/unread-count", svc.notificationHandler.UnreadCount)
			protected.POST("/notifications/mark-all-read", svc.notificationHandler.MarkAllRead)
			protected.PATCH("/notifications/:id/read", svc.notificationHandler.MarkRead)

			// SSE push for the notification feed
			protected.GET("/events/notifications", svc.sseHandler.Stream)
		}

		// Admin only routes
		admin := api.Group("")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			admin.GET("/system-logs", svc.systemLogHandler.List)
			admin.GET("/system-logs/modules", svc.systemLogHandler.Modules)
		}
	}
}
