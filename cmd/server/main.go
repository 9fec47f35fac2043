package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"streamshare/internal/core/domain"
	"streamshare/internal/core/ports"
	"streamshare/internal/core/services"
	httphandlers "streamshare/internal/handlers/http"
	"streamshare/internal/infrastructure/auth"
	"streamshare/internal/infrastructure/hub"
	"streamshare/internal/infrastructure/middleware"
	"streamshare/internal/infrastructure/monitoring"
	"streamshare/internal/infrastructure/repositories"
	"streamshare/pkg/config"
	"streamshare/pkg/logger"
	"streamshare/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	startTime := time.Now()

	cfg, err := loadConfig([]string{
		"configs/config.yaml",
		"./configs/config.yaml",
		"/etc/streamshare/config.yaml",
		"config.yaml",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	zapLogger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLogger.Sync()
	log := zapLogger.Sugar()

	// Tracing (no-op provider when disabled)
	tracerProvider, err := tracing.Init(tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: "streamshare",
		JaegerURL:   cfg.Tracing.JaegerURL,
		Environment: cfg.Tracing.Environment,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		log.Fatalw("failed to initialize tracing", "error", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			log.Errorw("error shutting down tracer provider", "error", err)
		}
	}()

	// Repositories
	repoFactory, err := repositories.NewRepositoryFactory(cfg, log)
	if err != nil {
		log.Fatalw("failed to create repository factory", "error", err)
	}
	defer repoFactory.Close()

	ledger := repoFactory.CreateLedger()
	chatRepo := repoFactory.CreateChatRepository()

	if err := seedGenres(context.Background(), ledger); err != nil {
		log.Warnw("failed to seed genres", "error", err)
	}

	// Monitoring
	collector := monitoring.NewPrometheusCollector()

	// Services
	hasher := auth.NewBcryptHasher()
	authService := services.NewAuthService(
		ledger,
		hasher,
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenTTL,
		cfg.Auth.RefreshTokenTTL,
	)
	streamService := services.NewStreamService(ledger)
	chatService := services.NewChatService(ledger, chatRepo)
	settlementService := services.NewSettlementService(ledger, cfg.Settlement.AllowSelfJoin, collector, log)

	// Hub
	registry := hub.NewRegistry()
	router := hub.NewRouter(registry, log)
	relay := hub.NewRelay(router)

	wsOpts := hub.WebSocketServerOptions{
		PingInterval:   cfg.Hub.PingInterval,
		PongTimeout:    cfg.Hub.PongTimeout,
		WriteTimeout:   cfg.Hub.WriteTimeout,
		MaxMessageSize: cfg.Hub.MaxMessageSize,
	}
	if cfg.RateLimiting.Enabled {
		wsOpts.MessagesPerSecond = cfg.RateLimiting.WebSocket.MessagesPerSecond
		wsOpts.Burst = cfg.RateLimiting.WebSocket.Burst
	}
	wsServer := hub.NewWebSocketServer(
		registry,
		router,
		relay,
		authService,
		chatService,
		settlementService,
		collector,
		wsOpts,
		log,
	)

	// HTTP handlers
	authHandler := httphandlers.NewAuthHandler(authService)
	userHandler := httphandlers.NewUserHandler(ledger, authService)
	streamHandler := httphandlers.NewStreamHandler(streamService, chatService, ledger, authService, cfg.Chat.HistoryLimit)
	transactionHandler := httphandlers.NewTransactionHandler(settlementService, ledger, authService)
	webrtcHandler := httphandlers.NewWebRTCHandler(cfg)

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(middleware.RecoveryMiddleware(log))
	engine.Use(middleware.ErrorHandlerMiddleware(log))
	engine.Use(middleware.NewHTTPRateLimitMiddleware(cfg))
	if cfg.Tracing.Enabled {
		engine.Use(middleware.TracingMiddleware())
	}

	authHandler.SetupRoutes(engine)
	userHandler.SetupRoutes(engine)
	streamHandler.SetupRoutes(engine)
	transactionHandler.SetupRoutes(engine)
	webrtcHandler.SetupRoutes(engine)

	engine.GET("/ws", gin.WrapF(wsServer.HandleWebSocket))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":      "healthy",
			"timestamp":   time.Now(),
			"uptime":      time.Since(startTime).String(),
			"connections": registry.Len(),
		})
	})

	if cfg.Monitoring.PrometheusEnabled {
		engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
		log.Info("Prometheus metrics enabled")
	}

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Infof("Starting StreamShare server on %s", cfg.Server.Address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Fatalw("Server failed", "error", err)
	case sig := <-sigChan:
		log.Infow("Received shutdown signal", "signal", sig)
	}

	log.Info("Shutting down StreamShare server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("Error during server shutdown", "error", err)
		if closeErr := srv.Close(); closeErr != nil {
			log.Errorw("Error force closing server", "error", closeErr)
		}
	} else {
		log.Info("Server shutdown gracefully")
	}

	if err := repoFactory.Close(); err != nil {
		log.Errorw("Error closing repository factory", "error", err)
	}

	log.Info("StreamShare server stopped")
}

// seedGenres populates the default browse categories on an empty store.
// loadConfig loads the first candidate path that exists on disk. When none
// exist, config.Load falls back to defaults plus env overrides.
func loadConfig(paths []string) (*config.Config, error) {
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return config.Load(path)
		}
	}
	return config.Load("")
}

func seedGenres(ctx context.Context, ledger ports.Ledger) error {
	existing, err := ledger.ListGenres(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	defaults := []*domain.Genre{
		{ID: "gaming", Name: "Gaming", Description: "Live gameplay and esports", Color: "#9146ff"},
		{ID: "music", Name: "Music", Description: "Concerts, DJ sets and jam sessions", Color: "#1db954"},
		{ID: "art", Name: "Art", Description: "Drawing, painting and digital art", Color: "#ff6b6b"},
		{ID: "tech", Name: "Tech", Description: "Coding, hardware and tech talks", Color: "#4dabf7"},
		{ID: "education", Name: "Education", Description: "Lectures, tutorials and study streams", Color: "#fcc419"},
	}
	for _, g := range defaults {
		if err := ledger.CreateGenre(ctx, g); err != nil {
			return err
		}
	}
	return nil
}
