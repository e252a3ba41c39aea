// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	_ "murmur/docs" // swagger docs
	"murmur/internal/bootstrap"
	"murmur/internal/config"
	"murmur/internal/featureflags"
	"murmur/internal/identity"
	"murmur/internal/invalidation"
	"murmur/internal/middleware"
	"murmur/internal/models"
	"murmur/internal/notifications"
	"murmur/internal/observability"
	"murmur/internal/repository"
	"murmur/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const defaultAllowedOrigins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	store          repository.Store
	notifier       *notifications.Notifier
	hub            *notifications.Hub
	queue          *invalidation.Queue
	consumer       *invalidation.Consumer
	consumerCancel context.CancelFunc
	consumerDone   chan struct{}
	featureFlags   *featureflags.Manager
	wsLog          *observability.WSLogger

	identitySvc     *service.IdentityService
	postSvc         *service.PostService
	commentSvc      *service.CommentService
	reactionSvc     *service.ReactionService
	followSvc       *service.FollowService
	userSvc         *service.UserService
	notificationSvc *service.NotificationService
}

// NewServer connects to the database and Redis, then wires the server.
// Redis is optional; a nil client disables caching and cross-instance push.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	db, redisClient, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{SeedScenario: cfg.DevSeedScenario})
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if cfg == nil || db == nil {
		return nil, errors.New("server requires a config and a database")
	}

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("murmur-api"),
		store:          repository.NewStore(db),
		hub:            notifications.NewHub(),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
		wsLog:          observability.NewWSLogger("notifications"),
	}

	// With Redis every instance publishes through pub/sub and the hub relays
	// to its own sockets; without it the local hub is the publisher.
	var publisher notifications.Publisher = s.hub
	var broadcaster invalidation.Broadcaster = s.hub
	if redisClient != nil {
		s.notifier = notifications.NewNotifier(redisClient)
		publisher = s.notifier
		broadcaster = s.notifier
	}

	emitter := notifications.NewEmitter(publisher,
		notifications.WithPushGate(s.featureFlags.Gate(featureflags.FlagRealtimePush)))

	var views invalidation.Enqueuer = invalidation.Discard{}
	if s.featureFlags.EnabledGlobally(featureflags.FlagViewInvalidation) {
		s.queue = invalidation.NewQueue(cfg.InvalidationQueueSize)
		s.consumer = invalidation.NewConsumer(s.queue, broadcaster)
		views = s.queue
	}

	s.identitySvc = service.NewIdentityService(s.store,
		identity.NewVerifier(cfg.IdentitySecret, cfg.IdentityIssuer, cfg.IdentityAudience))
	s.postSvc = service.NewPostService(s.store, views)
	s.commentSvc = service.NewCommentService(s.store, emitter, views)
	s.reactionSvc = service.NewReactionService(s.store, emitter, views)
	s.followSvc = service.NewFollowService(s.store, emitter, views)
	s.userSvc = service.NewUserService(s.store, views)
	s.notificationSvc = service.NewNotificationService(s.store)

	return s, nil
}

// App builds the Fiber app with middleware and routes. It is built once.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}

	app := fiber.New(fiber.Config{
		AppName:      "Murmur API",
		ErrorHandler: errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
	}
	middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
	return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	// Context Middleware to propagate Request ID and trace ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rate-limited responses still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = defaultAllowedOrigins
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
		// Preflight requests are answered by CORS and never limited.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "Too many requests, please try again later.",
				Code:  "RATE_LIMITED",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// Every API request resolves its caller; AuthRequired guards mutations.
	api := app.Group("/api", middleware.Authenticate(s.identitySvc, s.config.IdentityCookie))
	auth := middleware.AuthRequired

	api.Get("/me", auth, s.GetMe)
	api.Put("/me", auth, s.UpdateMe)
	api.Get("/me/feature-flags", auth, s.GetFeatureFlags)

	posts := api.Group("/posts")
	posts.Get("/", s.GetPosts)
	posts.Post("/", auth, middleware.RateLimit(
		s.redis, 10, time.Minute, "create_post"), s.CreatePost)
	// Define specific /:id/:resource routes BEFORE generic /:id route
	posts.Post("/:id/comments", auth, middleware.RateLimit(
		s.redis, 30, time.Minute, "create_comment"), s.CreateComment)
	posts.Post("/:id/like", auth, s.ToggleLike)
	posts.Get("/:id", s.GetPost)
	posts.Delete("/:id", auth, s.DeletePost)

	users := api.Group("/users")
	// Static segments before the generic /:username route
	users.Get("/suggested", auth, s.GetSuggestedUsers)
	users.Get("/:id/posts", s.GetUserPosts)
	users.Get("/:id/likes", s.GetUserLikes)
	users.Get("/:id/following-status", s.GetFollowingStatus)
	users.Post("/:id/follow", auth, middleware.RateLimit(
		s.redis, 30, time.Minute, "follow"), s.ToggleFollow)
	users.Get("/:username", s.GetUserProfile)

	notes := api.Group("/notifications", auth)
	notes.Get("/", s.GetNotifications)
	notes.Post("/read", s.MarkNotificationsRead)

	api.Get("/ws", auth, s.WebsocketHandler())
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional, so
// only a configured but unreachable Redis makes the instance unready.
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

	redisStatus := "disabled"
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
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Run serves HTTP and runs the background workers until ctx is cancelled,
// then shuts everything down.
func (s *Server) Run(ctx context.Context) error {
	app := s.App()
	g, gctx := errgroup.WithContext(ctx)

	// The consumer outlives gctx so that events enqueued by requests still
	// in flight during shutdown are applied before the stores close.
	s.startConsumer()

	if s.notifier != nil {
		g.Go(func() error {
			if err := s.hub.StartWiring(gctx, s.notifier); err != nil {
				// Push is best effort; the API keeps serving without it.
				observability.LogAsyncOperationError(gctx, "hub_wiring", err,
					map[string]interface{}{"hub": s.hub.Name()})
			}
			return nil
		})
	}

	g.Go(func() error {
		middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
		return app.Listen(":" + s.config.Port)
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Shutdown stops accepting requests, drains the invalidation queue, then
// closes the hub, the database and Redis in that order.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if err := s.stopConsumer(ctx); err != nil {
		middleware.Logger.Error("error draining view invalidation", slog.String("error", err.Error()))
	}

	// Close WebSocket connections gracefully
	if err := s.hub.Shutdown(ctx); err != nil {
		middleware.Logger.Error("error shutting down hub", slog.String("hub", s.hub.Name()), slog.String("error", err.Error()))
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}

func (s *Server) startConsumer() {
	if s.consumer == nil || s.consumerDone != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.consumerCancel = cancel
	s.consumerDone = make(chan struct{})

	go func() {
		defer close(s.consumerDone)
		observability.LogAsyncOperationStart(ctx, "view_invalidation", nil)
		defer observability.LogAsyncOperationEnd(context.Background(), "view_invalidation", nil)
		_ = s.consumer.Run(ctx)
	}()
}

// stopConsumer cancels the consumer and waits until it has drained the
// queue. A consumer that never started drains synchronously.
func (s *Server) stopConsumer(ctx context.Context) error {
	if s.consumer == nil {
		return nil
	}
	if s.consumerDone == nil {
		stopped, cancel := context.WithCancel(context.Background())
		cancel()
		return s.consumer.Run(stopped)
	}

	s.consumerCancel()
	select {
	case <-s.consumerDone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
