package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"

	identityapp "github.com/stocktrack/backend/internal/application/identity"
	inventoryapp "github.com/stocktrack/backend/internal/application/inventory"
	"github.com/stocktrack/backend/internal/infrastructure/auth"
	"github.com/stocktrack/backend/internal/infrastructure/broadcast"
	"github.com/stocktrack/backend/internal/infrastructure/config"
	"github.com/stocktrack/backend/internal/infrastructure/logger"
	"github.com/stocktrack/backend/internal/infrastructure/persistence"
	"github.com/stocktrack/backend/internal/interfaces/http/handler"
	"github.com/stocktrack/backend/internal/interfaces/http/middleware"
	"github.com/stocktrack/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting StockTrack Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize database connection
	gormLogLevel := gormlogger.Silent
	if cfg.App.Env != "production" {
		gormLogLevel = gormlogger.Warn
	}
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLogLevel)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	sectionRepo := persistence.NewGormSectionRepository(db.DB)
	itemRepo := persistence.NewGormItemRepository(db.DB)
	auditLogRepo := persistence.NewGormAuditLogRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Initialize change broadcaster
	broadcaster, err := newBroadcaster(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize broadcaster", zap.Error(err))
	}
	defer func() {
		if err := broadcaster.Close(); err != nil {
			log.Error("Error closing broadcaster", zap.Error(err))
		}
	}()
	log.Info("Broadcaster initialized", zap.String("driver", cfg.Broadcast.Driver))

	// Initialize application services
	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(userRepo, jwtService, log)
	sectionService := inventoryapp.NewSectionService(txScope, sectionRepo,
		inventoryapp.WithSectionLogger(log),
		inventoryapp.WithSectionTxnTimeout(cfg.Database.TxnTimeout),
	)
	itemService := inventoryapp.NewItemService(txScope, itemRepo, sectionRepo, broadcaster,
		inventoryapp.WithItemLogger(log),
		inventoryapp.WithTxnTimeout(cfg.Database.TxnTimeout),
	)
	auditLogService := inventoryapp.NewAuditLogService(auditLogRepo, itemRepo, userRepo, log)

	// Initialize HTTP handlers
	authHandler := handler.NewAuthHandler(authService)
	sectionHandler := handler.NewSectionHandler(sectionService)
	itemHandler := handler.NewItemHandler(itemService)
	auditLogHandler := handler.NewAuditLogHandler(auditLogService)
	streamHandler := handler.NewStreamHandler(sectionService, broadcaster,
		handler.WithStreamLogger(log),
		handler.WithStreamHeartbeat(cfg.Broadcast.HeartbeatInterval),
	)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware stack, outermost first
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Health check endpoints, served without authentication
	engine.GET("/health", healthHandler(db))
	engine.GET("/api/v1/health", healthHandler(db))

	// Setup API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	jwtConfig := middleware.JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths: []string{
			"/api/v1/health",
			"/api/v1/auth/register",
			"/api/v1/auth/login",
			"/api/v1/auth/refresh",
		},
		Logger: log,
	}
	r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	// Identity routes
	authRoutes := router.NewDomainGroup("auth", "/auth")
	authRoutes.POST("/register", authHandler.Register)
	authRoutes.POST("/login", authHandler.Login)
	authRoutes.POST("/refresh", authHandler.Refresh)
	authRoutes.GET("/me", authHandler.Me)

	// Inventory routes
	inventoryRoutes := router.NewDomainGroup("inventory", "")
	inventoryRoutes.POST("/sections", sectionHandler.Create)
	inventoryRoutes.GET("/sections", sectionHandler.List)
	inventoryRoutes.GET("/sections/:id", sectionHandler.Get)
	inventoryRoutes.PATCH("/sections/:id", sectionHandler.Update)
	inventoryRoutes.DELETE("/sections/:id", sectionHandler.Delete)

	inventoryRoutes.POST("/sections/:id/items", itemHandler.Create)
	inventoryRoutes.GET("/sections/:id/items", itemHandler.List)
	inventoryRoutes.GET("/sections/:id/items/:itemId", itemHandler.Get)
	inventoryRoutes.PATCH("/sections/:id/items/:itemId", itemHandler.UpdateCount)
	inventoryRoutes.PATCH("/sections/:id/items/:itemId/max", itemHandler.UpdateMaxQuantity)
	inventoryRoutes.DELETE("/sections/:id/items/:itemId", itemHandler.Delete)

	inventoryRoutes.GET("/sections/:id/stream", streamHandler.Stream)

	inventoryRoutes.GET("/items/:itemId/logs", auditLogHandler.List)
	inventoryRoutes.PATCH("/logs/:logId", auditLogHandler.UpdateRemark)

	r.Register(authRoutes).Register(inventoryRoutes)
	r.Setup()

	// Create HTTP server. WriteTimeout stays unset so SSE connections are
	// not cut off mid-stream.
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// newBroadcaster builds the change broadcaster selected by configuration.
func newBroadcaster(cfg *config.Config, log *zap.Logger) (broadcast.Broadcaster, error) {
	switch cfg.Broadcast.Driver {
	case "redis":
		return broadcast.NewRedisBroadcaster(
			cfg.Redis.Addr(),
			cfg.Redis.Password,
			cfg.Redis.DB,
			broadcast.WithRedisLogger(log),
			broadcast.WithRedisBuffer(cfg.Broadcast.SubscriberBuffer),
			broadcast.WithChannelPrefix(cfg.Broadcast.ChannelPrefix),
		)
	default:
		return broadcast.NewMemoryBroadcaster(
			broadcast.WithMemoryLogger(log),
			broadcast.WithMemoryBuffer(cfg.Broadcast.SubscriberBuffer),
		), nil
	}
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
