// Package server exposes the blog over HTTP: the procedure API, session
// endpoints, health probes and metrics.
package server

import (
	"context"
	"log/slog"
	"time"

	"blog/internal/auth"
	"blog/internal/cache"
	"blog/internal/config"
	"blog/internal/database"
	"blog/internal/middleware"
	"blog/internal/models"
	"blog/internal/repository"
	"blog/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
)

const defaultAllowedOrigins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	store          *database.Accessor
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	sessions       *auth.Sessions
	registry       *Registry
	contentService *service.ContentService
	commentService *service.CommentService
	userService    *service.UserService
}

// NewServer creates a server whose store connects lazily on first use and
// whose cache is used only if Redis answers at startup.
func NewServer(cfg *config.Config) (*Server, error) {
	store := database.NewAccessor(cfg)
	redisClient := cache.Connect(cfg.RedisURL)
	return NewServerWithDeps(cfg, store, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Either may be empty: a nil-handle accessor or a nil Redis client.
func NewServerWithDeps(cfg *config.Config, store *database.Accessor, redisClient *redis.Client) (*Server, error) {
	c := cache.New(redisClient)

	postRepo := repository.NewPostRepository(store, c)
	categoryRepo := repository.NewCategoryRepository(store, c)
	commentRepo := repository.NewCommentRepository(store, c)
	userRepo := repository.NewUserRepository(store, cfg.OwnerOpenID)

	server := &Server{
		config:         cfg,
		store:          store,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("blog-api"),
		sessions:       auth.NewSessions(cfg),
		contentService: service.NewContentService(postRepo, categoryRepo, commentRepo),
		commentService: service.NewCommentService(commentRepo, postRepo),
		userService:    service.NewUserService(userRepo),
	}

	server.registry = NewRegistry(redisClient, server.sessions.ClearSessionCookie)
	server.registerProcedures(server.registry)

	return server, nil
}

// Registry returns the procedure registry.
func (s *Server) Registry() *Registry {
	return s.registry
}

// NewApp returns a Fiber app configured with the API's error handler.
func (s *Server) NewApp() *fiber.App {
	return fiber.New(fiber.Config{
		AppName:   "Blog API",
		BodyLimit: 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return models.RespondWithError(c, fe.Code, &models.AppError{
					Code:    codeForStatus(fe.Code),
					Message: fe.Message,
				})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
}

func codeForStatus(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return models.CodeNotFound
	case fiber.StatusMethodNotAllowed:
		return models.CodeMethod
	case fiber.StatusBadRequest, fiber.StatusRequestEntityTooLarge:
		return models.CodeValidation
	case fiber.StatusUnauthorized:
		return models.CodeUnauthorized
	case fiber.StatusTooManyRequests:
		return models.CodeRateLimited
	case fiber.StatusServiceUnavailable:
		return models.CodeUnavailable
	default:
		return models.CodeInternal
	}
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())

	// Context Middleware to propagate Request ID and trace ID
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so browser clients still receive CORS
	// headers on 429 responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = defaultAllowedOrigins
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return models.RespondWithError(c, fiber.StatusTooManyRequests,
				models.NewRateLimitedError("Too many requests, please try again later."))
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api", s.Identity())

	authGroup := api.Group("/auth")
	authGroup.Post("/session", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "session"), s.CreateSession)
	authGroup.Get("/login-url", s.LoginURL)

	api.Get("/rpc", s.registry.Catalog)
	api.All("/rpc/:procedure", s.registry.Handle)
}

// Start builds the app and listens on the configured port.
func (s *Server) Start() error {
	app := s.NewApp()
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if err := s.store.Close(); err != nil {
		middleware.Logger.Error("error closing database", slog.String("error", err.Error()))
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", err.Error()))
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
