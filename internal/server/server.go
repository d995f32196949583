// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	_ "chatapp/docs" // swagger docs
	"chatapp/internal/cache"
	"chatapp/internal/config"
	"chatapp/internal/database"
	"chatapp/internal/middleware"
	"chatapp/internal/models"
	"chatapp/internal/notifications"
	"chatapp/internal/repository"
	"chatapp/internal/service"
	"chatapp/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const apiVersion = "1.0.0"

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	storage  storage.Storage
	hub      *notifications.Hub
	notifier *notifications.Notifier

	authService         *service.AuthService
	userService         *service.UserService
	friendService       *service.FriendService
	groupService        *service.GroupService
	messageService      *service.MessageService
	groupMessageService *service.GroupMessageService
}

// NewServer connects to the database (which also seeds the fixed roles) and
// Redis, and builds a Server on top of them.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)

	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil: caching, revocation, rate limiting and event
// fan-out then fall back to in-process implementations.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	store, err := storage.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("storage setup failed: %w", err)
	}

	userRepo := repository.NewUserRepository(db)
	friendRepo := repository.NewFriendRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	groupMessageRepo := repository.NewGroupMessageRepository(db)

	hub := notifications.NewHub()
	notifier := notifications.NewNotifier(redisClient, hub)

	uploads := service.NewUploadService(store, cfg)
	resolve := uploads.Resolver()

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("chatapp-api"),
		storage:        store,
		hub:            hub,
		notifier:       notifier,

		authService:         service.NewAuthService(userRepo, cache.NewRevocationStore(redisClient), cfg),
		userService:         service.NewUserService(userRepo, cache.New(redisClient), uploads),
		friendService:       service.NewFriendService(friendRepo, userRepo, notifier, resolve),
		groupService:        service.NewGroupService(groupRepo, uploads),
		messageService:      service.NewMessageService(messageRepo, friendRepo, notifier, resolve),
		groupMessageService: service.NewGroupMessageService(groupMessageRepo, groupRepo, notifier, resolve),
	}
	return s, nil
}

// NewApp builds the Fiber app with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	bodyLimitMB := max(4, s.config.UploadMaxSizeMB+1)
	app := fiber.New(fiber.Config{
		AppName:      s.config.AppName,
		BodyLimit:    bodyLimitMB * 1024 * 1024,
		ErrorHandler: ErrorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// ErrorHandler renders errors that escaped the handlers as envelopes.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return models.Respond(c, fe.Code, fe.Message, nil)
	}
	middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", "path", c.Path(), "error", err)
	return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	app.Use(middleware.TracingMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Uploaded images are embedded by the frontend from another origin.
	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))

	app.Use(middleware.StructuredLogger())

	// CORS must run before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || middleware.RateLimitBypassed()
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return models.Respond(c, fiber.StatusTooManyRequests, "Too many requests, please try again later", nil)
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/", s.Welcome)

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	app.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Chat App API Metrics",
	}))

	app.Get("/swagger/*", swagger.HandlerDefault)

	if local, ok := s.storage.(*storage.Local); ok {
		app.Static("/uploads", local.Root())
	}

	// Auth routes
	app.Post("/register", middleware.RateLimit(
		s.redis, 5, 10*time.Minute, "register"), s.Register)
	app.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)

	// Protected routes
	protected := app.Group("", s.AuthRequired())
	protected.Post("/logout", s.Logout)

	protected.Get("/ws", s.WebsocketUpgrade(), s.WebsocketHandler())

	// User routes
	users := protected.Group("/users")
	users.Get("/", s.ListUsers)
	users.Get("/me", s.GetMe)
	users.Put("/me/name", s.UpdateName)
	users.Put("/me/about-me", s.UpdateAboutMe)
	users.Put("/me/status", s.UpdateStatus)
	users.Post("/me/avatar", s.UploadAvatar)

	// Friend routes; :id is always the other user
	friends := protected.Group("/friends")
	friends.Get("/", s.ListFriends)
	friends.Post("/:id", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "friend_request"), s.SendFriendRequest)
	friends.Post("/:id/accept", s.AcceptFriendRequest)
	friends.Post("/:id/reject", s.RejectFriendRequest)
	friends.Post("/:id/cancel", s.CancelFriendRequest)
	friends.Delete("/:id", s.Unfriend)

	// Group routes
	groups := protected.Group("/groups")
	groups.Get("/", s.ListGroups)
	groups.Post("/", s.CreateGroup)
	groups.Get("/:id", s.ShowGroup)
	groups.Put("/:id", s.GroupGate(service.CapUpdateGroup), s.UpdateGroup)
	groups.Delete("/:id", s.GroupGate(service.CapDeleteGroup), s.DeleteGroup)
	groups.Post("/:id/group-image", s.GroupGate(service.CapUpdateGroupImage), s.UploadGroupImage)
	groups.Post("/:id/leave", s.GroupGate(service.CapLeaveGroup), s.LeaveGroup)
	groups.Post("/:id/join", s.JoinGroup)
	protected.Post("/group-link/:link/join", s.JoinByInviteLink)

	sendLimit := middleware.RateLimit(s.redis, 30, time.Minute, "send_message")

	// Direct messages; :id is the friend
	dm := protected.Group("/message-friends")
	dm.Get("/:id", s.FriendMessageGate(), s.ListFriendMessages)
	dm.Post("/:id", s.FriendMessageGate(), sendLimit, s.SendFriendMessage)
	dm.Put("/:id/:messageId", s.FriendMessageGate(), s.EditFriendMessage)
	dm.Put("/:id/:messageId/soft-delete", s.FriendMessageGate(), s.SoftDeleteFriendMessage)
	dm.Put("/:id/:messageId/restore", s.FriendMessageGate(), s.RestoreFriendMessage)
	dm.Delete("/:id/:messageId", s.FriendMessageGate(), s.DestroyFriendMessage)

	// Group messages; :id is the group
	gm := protected.Group("/message-groups")
	gm.Get("/:id", s.GroupMessageGate(), s.ListGroupMessages)
	gm.Post("/:id", s.GroupMessageGate(), sendLimit, s.SendGroupMessage)
	gm.Put("/:id/:messageId", s.GroupMessageGate(), s.EditGroupMessage)
	gm.Put("/:id/:messageId/soft-delete", s.GroupMessageGate(), s.SoftDeleteGroupMessage)
	gm.Put("/:id/:messageId/restore", s.GroupMessageGate(), s.RestoreGroupMessage)
	gm.Delete("/:id/:messageId", s.GroupMessageGate(), s.DestroyGroupMessage)
}

// Welcome handles GET /
// @Summary API information
// @Tags system
// @Produce json
// @Success 200 {object} models.Envelope
// @Router / [get]
func (s *Server) Welcome(c *fiber.Ctx) error {
	return models.Respond(c, fiber.StatusOK, "Welcome to Chat App API", fiber.Map{
		"name":    "Chat App API",
		"version": apiVersion,
	})
}

// LivenessCheck handles liveness probe requests
// @Summary Liveness probe
// @Tags system
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health/live [get]
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
// @Summary Readiness probe
// @Description Pings the database and Redis.
// @Tags system
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/ready [get]
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	// Redis is optional: without it the server runs on in-process fallbacks.
	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"version": apiVersion,
		"status":  overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"websocket_connections": s.hub.ConnectionCount(),
		"time":                  time.Now(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := s.NewApp()

	if s.redis != nil {
		go func() {
			if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				middleware.Logger.Error("failed to start notification wiring", "error", err)
			}
		}()
	}

	if m, ok := s.storage.(*storage.Minio); ok {
		bctx, bcancel := context.WithTimeout(ctx, 10*time.Second)
		err := m.EnsureBucket(bctx)
		bcancel()
		if err != nil {
			return fmt.Errorf("object storage unavailable: %w", err)
		}
	}

	middleware.Logger.Info("server starting", "port", s.config.Port, "env", s.config.Env)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", "error", err)
		}
	}

	if err := s.hub.Shutdown(ctx); err != nil {
		middleware.Logger.Error("error shutting down websocket hub", "error", err)
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", "error", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", "error", rerr)
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
