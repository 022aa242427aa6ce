package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/brandwave/ambassador-api/internal/auth"
	"github.com/brandwave/ambassador-api/internal/config"
	"github.com/brandwave/ambassador-api/internal/domain/common"
	"github.com/brandwave/ambassador-api/internal/domain/progress"
	"github.com/brandwave/ambassador-api/internal/domain/report"
	"github.com/brandwave/ambassador-api/internal/domain/review"
	"github.com/brandwave/ambassador-api/internal/domain/submission"
	"github.com/brandwave/ambassador-api/internal/handlers"
	"github.com/brandwave/ambassador-api/internal/logger"
	"github.com/brandwave/ambassador-api/internal/middleware/authn"
	"github.com/brandwave/ambassador-api/internal/middleware/logging"
	"github.com/brandwave/ambassador-api/internal/storage/postgres"
)

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	config     *config.Config
	container  *postgres.Container
	artifacts  submission.ArtifactStore
}

// New creates a new server instance
func New(cfg *config.Config, container *postgres.Container, artifacts submission.ArtifactStore) *Server {
	return &Server{
		config:    cfg,
		container: container,
		artifacts: artifacts,
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	router := s.setupRouter()

	s.httpServer = &http.Server{
		Addr:    ":" + s.config.Server.Port,
		Handler: router,

		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Get().Info("Starting HTTP server", "port", s.config.Server.Port)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	logger.Get().Info("Shutting down HTTP server...")

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}

	return nil
}

// setupRouter configures the HTTP router with middleware and routes
func (s *Server) setupRouter() *gin.Engine {
	gin.SetMode(s.config.Server.GinMode)

	router := gin.New()

	router.Use(logging.RequestLogger())
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = strings.Split(s.config.CORS.AllowOrigins, ",")
	corsConfig.AllowMethods = strings.Split(s.config.CORS.AllowMethods, ",")
	corsConfig.AllowHeaders = strings.Split(s.config.CORS.AllowHeaders, ",")
	if s.config.CORS.AllowOrigins == "*" {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowOrigins = nil
	}
	router.Use(cors.New(corsConfig))

	// Domain services over the shared repository container
	reconciler := progress.NewReconciler(
		s.container.Participations(),
		s.container.SubmissionRepo(),
		s.container.Events(),
	)
	intake := submission.NewIntakeService(
		s.container.SubmissionRepo(),
		s.container.Events(),
		s.container.Users(),
		s.container.RateLimits(),
		s.artifacts,
		s.container.Participations(),
		submission.IntakeConfig{
			RateLimitCeiling: s.config.Intake.RateLimitCeiling,
			RateLimitWindow:  s.config.Intake.RateLimitWindow,
		},
	)
	transitions := review.NewTransitionService(s.container, reconciler)
	participations := progress.NewParticipationService(s.container.Participations())
	projector := report.NewProjector(s.container.Reports())

	tokens := auth.NewTokenManager(s.config.Auth.JWTSecret, s.config.Auth.TokenTTL)
	authService := auth.NewService(s.container.Users(), tokens)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	eventHandler := handlers.NewEventHandler(s.container.Events())
	submissionHandler := handlers.NewSubmissionHandler(intake, s.container.SubmissionRepo(), s.config.Intake.MaxFileSize)
	reviewHandler := handlers.NewReviewHandler(transitions, projector)
	participationHandler := handlers.NewParticipationHandler(participations, reconciler, s.container.Participations())
	reportHandler := handlers.NewReportHandler(projector)

	// Health check
	router.GET("/ping", func(c *gin.Context) {
		if err := postgres.HealthCheck(s.container.DB()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "degraded",
				"error":  "database unreachable",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message": "Ambassador API is running",
			"status":  "healthy",
		})
	})

	s.setupAPIRoutes(router, tokens,
		authHandler, eventHandler, submissionHandler,
		reviewHandler, participationHandler, reportHandler)

	return router
}

// setupAPIRoutes configures all API routes
func (s *Server) setupAPIRoutes(
	router *gin.Engine,
	tokens *auth.TokenManager,
	authHandler *handlers.AuthHandler,
	eventHandler *handlers.EventHandler,
	submissionHandler *handlers.SubmissionHandler,
	reviewHandler *handlers.ReviewHandler,
	participationHandler *handlers.ParticipationHandler,
	reportHandler *handlers.ReportHandler,
) {
	api := router.Group("/api")

	// Public routes
	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
	}

	// Everything else requires a valid token
	authed := api.Group("")
	authed.Use(authn.RequireAuth(tokens))

	privileged := authn.RequireRole(common.RoleReviewer, common.RoleAdmin)

	events := authed.Group("/events")
	{
		events.GET("", eventHandler.GetEvents)
		events.GET("/:event_id", eventHandler.GetEvent)
		events.GET("/:event_id/posts", eventHandler.GetEventPosts)
		events.POST("", privileged, eventHandler.CreateEvent)
		events.POST("/:event_id/posts", privileged, eventHandler.CreatePost)

		events.POST("/:event_id/submissions", submissionHandler.Submit)
		events.GET("/:event_id/export", privileged, reportHandler.Export)

		participants := events.Group("/:event_id/participants/:user_id")
		{
			participants.GET("", privileged, participationHandler.GetParticipation)
			participants.POST("/withdraw", privileged, participationHandler.Withdraw)
			participants.POST("/reactivate", privileged, participationHandler.Reactivate)
			participants.PUT("/override", privileged, participationHandler.SetOverride)
			participants.POST("/reconcile", privileged, participationHandler.Reconcile)
		}
	}

	submissions := authed.Group("/submissions")
	{
		submissions.GET("/:submission_id", submissionHandler.GetSubmission)
		submissions.GET("/:submission_id/history", privileged, reviewHandler.History)
		submissions.POST("/:submission_id/approve", privileged, reviewHandler.Approve)
		submissions.POST("/:submission_id/reject", privileged, reviewHandler.Reject)
		submissions.POST("/:submission_id/revert", privileged, reviewHandler.Revert)
		submissions.DELETE("/:submission_id", authn.RequireRole(common.RoleAdmin), reviewHandler.Delete)
	}

	reviewRoutes := authed.Group("/review")
	reviewRoutes.Use(privileged)
	{
		reviewRoutes.GET("/queue", reviewHandler.Queue)
		reviewRoutes.POST("/bulk", reviewHandler.BulkTransition)
	}
}
