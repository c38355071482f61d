// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"log"
	"time"

	"mix/internal/bootstrap"
	"mix/internal/config"
	"mix/internal/featureflags"
	"mix/internal/middleware"
	"mix/internal/models"
	"mix/internal/notifications"
	"mix/internal/repository"
	"mix/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	userRepo         repository.UserRepository
	profileRepo      repository.ProfileRepository
	swipeRepo        repository.SwipeRepository
	matchRepo        repository.MatchRepository
	messageRepo      repository.MessageRepository
	blockRepo        repository.BlockRepository
	discoveryRepo    repository.DiscoveryRepository
	reportRepo       repository.ReportRepository
	subscriptionRepo repository.SubscriptionRepository
	imageRepo        repository.ImageRepository
	notificationRepo repository.NotificationRepository

	notifier *notifications.Notifier
	hub      *notifications.MatchHub
	flags    *featureflags.Manager

	userService         *service.UserService
	quotaService        *service.QuotaService
	swipeService        *service.SwipeService
	matchService        *service.MatchService
	messageService      *service.MessageService
	photoService        *service.PhotoService
	discoveryService    *service.DiscoveryService
	reportService       *service.ReportService
	subscriptionService *service.SubscriptionService
	notificationService *service.NotificationService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, redisClient, err := bootstrap.InitRuntime(cfg)
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis and
// optionally performs explicit seeding.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	middleware.InitMiddleware(cfg)

	server := &Server{
		config:           cfg,
		db:               db,
		redis:            redisClient,
		promMiddleware:   middleware.InitMetrics("mix-api"),
		userRepo:         repository.NewUserRepository(db),
		profileRepo:      repository.NewProfileRepository(db),
		swipeRepo:        repository.NewSwipeRepository(db),
		matchRepo:        repository.NewMatchRepository(db),
		messageRepo:      repository.NewMessageRepository(db),
		blockRepo:        repository.NewBlockRepository(db),
		discoveryRepo:    repository.NewDiscoveryRepository(db),
		reportRepo:       repository.NewReportRepository(db),
		subscriptionRepo: repository.NewSubscriptionRepository(db),
		imageRepo:        repository.NewImageRepository(db),
		notificationRepo: repository.NewNotificationRepository(db),
	}

	// Notifier and hub work without Redis (single-instance delivery only),
	// so they are constructed unconditionally.
	server.notifier = notifications.NewNotifier(redisClient)
	server.hub = notifications.NewMatchHub(redisClient)
	server.flags = featureflags.NewManager(cfg.FeatureFlags)

	server.userService = service.NewUserService(server.userRepo, server.profileRepo)
	server.quotaService = service.NewQuotaService(server.userRepo, cfg.FreeDailyLikes)
	server.photoService = service.NewPhotoService(server.imageRepo, cfg)
	server.swipeService = service.NewSwipeService(
		server.swipeRepo, server.matchRepo, server.userRepo, server.blockRepo,
		server.notificationRepo, server.quotaService, server.notifier)
	server.matchService = service.NewMatchService(
		server.matchRepo, server.blockRepo, server.userRepo, server.notifier)
	server.messageService = service.NewMessageService(
		server.messageRepo, server.matchRepo, server.photoService, server.notifier)
	server.discoveryService = service.NewDiscoveryService(
		server.discoveryRepo, server.userRepo, server.quotaService)
	server.reportService = service.NewReportService(server.reportRepo, server.userRepo)
	server.subscriptionService = service.NewSubscriptionService(server.subscriptionRepo, server.userRepo)
	server.notificationService = service.NewNotificationService(server.notificationRepo)

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS middleware should run before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they should be handled by CORS.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)
	api.Get("/", s.HealthCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Mix Backend Metrics Dashboard",
	}))

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)

	// Processed images are content-addressed; the hash is the access token.
	api.Get("/media/:hash", s.GetMedia)

	// The payment provider webhook authenticates with a shared-secret
	// signature instead of a user JWT.
	api.Post("/subscriptions/webhook", s.SubscriptionWebhook)

	// Protected routes
	protected := api.Group("", middleware.AuthRequired)

	// Own account and profile
	me := protected.Group("/me")
	me.Get("/", s.GetMe)
	me.Post("/profile", s.CreateMyProfile)
	me.Put("/profile", s.UpdateMyProfile)
	me.Post("/photos", middleware.RateLimit(
		s.redis, 10, time.Minute, "photo_upload"), s.UploadMyPhoto)
	me.Delete("/photos/:id", s.DeleteMyPhoto)

	// Other users (read-only)
	users := protected.Group("/users")
	users.Get("/:id", s.GetUserProfile)

	// Discovery feed
	protected.Get("/discovery", s.GetDiscoveryFeed)

	// Swipes
	swipes := protected.Group("/swipes")
	swipes.Post("/", middleware.RateLimit(
		s.redis, 60, time.Minute, "swipe"), s.CreateSwipe)
	swipes.Post("/rewind", s.RewindSwipe)

	// Matches and conversations
	matches := protected.Group("/matches")
	matches.Get("/", s.GetMatches)
	// Define specific /:id/:resource routes BEFORE generic /:id route
	matches.Get("/:id/messages", s.GetMessages)
	matches.Post("/:id/messages", middleware.RateLimit(
		s.redis, 15, time.Minute, "send_message"), s.SendMessage)
	matches.Post("/:id/read", s.MarkMatchRead)
	matches.Delete("/:id", s.Unmatch)
	// Generic /:id route must be last
	matches.Get("/:id", s.GetMatch)

	// Message-level operations
	messages := protected.Group("/messages")
	messages.Get("/unread-count", s.GetUnreadCount)
	messages.Post("/:id/read", s.MarkMessageRead)

	// Blocks
	blocks := protected.Group("/blocks")
	blocks.Get("/", s.GetBlockedUsers)
	blocks.Post("/:userId", s.BlockUser)
	blocks.Delete("/:userId", s.UnblockUser)

	// Reports
	reports := protected.Group("/reports")
	reports.Post("/", middleware.RateLimit(
		s.redis, 5, 10*time.Minute, "report"), s.CreateReport)

	// Subscription status
	subscriptions := protected.Group("/subscriptions")
	subscriptions.Get("/me", s.GetSubscription)

	// In-app notifications
	notifs := protected.Group("/notifications")
	notifs.Get("/", s.GetNotifications)
	notifs.Get("/unread-count", s.GetNotificationUnreadCount)
	notifs.Post("/read-all", s.MarkAllNotificationsRead)
	notifs.Post("/:id/read", s.MarkNotificationRead)

	// Websocket endpoint. Browser clients cannot set headers on the upgrade
	// request, so auth also accepts the token query parameter.
	ws := api.Group("/ws", middleware.WebSocketAuthRequired)
	ws.Get("/chat", s.WebSocketChatHandler())

	// Admin routes
	admin := protected.Group("/admin", middleware.AdminRequired)
	admin.Get("/reports", s.GetReports)
	admin.Get("/reports/:id", s.GetReport)
	admin.Post("/reports/:id/resolve", s.ResolveReport)
	admin.Get("/users", s.GetUsers)
	admin.Post("/users/:id/status", s.SetUserStatus)
}

// HealthCheck is a legacy/simple alias for ReadinessCheck
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	return s.ReadinessCheck(c)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		// Without Redis the quota falls back to the database and websocket
		// fan-out stays single-instance, so readiness degrades.
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"message": "Mix",
		"version": "1.0.0",
		"status":  overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := fiber.New(fiber.Config{
		AppName:   "Mix API",
		BodyLimit: (s.config.MediaMaxUploadMB + 2) * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	// Wire the hub to the Redis subscriber if available
	if s.redis != nil {
		go func() {
			if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				log.Printf("failed to start %s wiring: %v", s.hub.Name(), err)
			}
		}()
	}

	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Cancel the server-scoped context to stop all wiring goroutines
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	// Shutdown the HTTP/WS server
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	// Close WebSocket connections gracefully
	if s.hub != nil {
		if err := s.hub.Shutdown(ctx); err != nil {
			log.Printf("error shutting down %s: %v", s.hub.Name(), err)
		}
	}

	// Close database connection
	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	// Close Redis connection
	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
