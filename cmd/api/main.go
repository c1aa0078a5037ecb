package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "ddjj/api/swagger" // swagger docs
	"ddjj/internal/backfill"
	"ddjj/internal/config"
	"ddjj/internal/database"
	"ddjj/internal/handler"
	"ddjj/internal/logger"
	"ddjj/internal/middleware"
	"ddjj/internal/notify"
	"ddjj/internal/period"
	"ddjj/internal/repository"
	"ddjj/internal/service"
	"ddjj/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const version = "1.0.0"

// @title           DDJJ Filing Compliance API
// @version         1.0
// @description     Monthly commerce tax declarations: filings, rectifications, transmission marks and the deadline backfill.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load("configs/.env")
	if err != nil {
		// logger is not configured yet
		bootLog := logger.New(logger.Config{ServiceName: "ddjj-api"})
		bootLog.Fatal().Err(err).Msg("invalid configuration")
	}

	log := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Environment: cfg.Log.Environment,
		ServiceName: "ddjj-api",
		Version:     version,
	})

	db, err := database.NewConnection(cfg.Database.DSN(), log)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	log.Info().Str("host", cfg.Database.Host).Msg("connected to PostgreSQL")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	configRepo := repository.NewConfigurationRepository(db)
	if cfg.Backfill.SeedDefaults {
		seeded, err := configRepo.SeedDefault(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to seed default configuration")
		}
		if seeded {
			log.Info().Msg("default configuration seeded")
		}
	}

	middleware.InitAuth(cfg.Auth.JWTSecret)

	// Event fan-out: websocket clients and, when configured, NATS
	wsHub := websocket.NewHub(log)
	go wsHub.Run(ctx)
	publishers := notify.Multi{wsHub}
	if cfg.NATSURL != "" {
		natsPub, err := notify.ConnectNATS(cfg.NATSURL, log)
		if err != nil {
			log.Warn().Err(err).Str("url", cfg.NATSURL).Msg("NATS unavailable, events go to websocket clients only")
		} else {
			defer natsPub.Close()
			publishers = append(publishers, natsPub)
		}
	}

	clock := period.SystemClock(cfg.Location)

	// Set up dependencies (Repository -> Service -> Handler)
	filingRepo := repository.NewFilingRepository(db)
	rectificationRepo := repository.NewRectificationRepository(db)
	registryRepo := repository.NewRegistryRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	txManager := repository.NewTransactionManager(db)

	engine := backfill.NewEngine(configRepo, filingRepo, notificationRepo, txManager, publishers, clock, cfg.Backfill.BatchSize, log)
	runner := backfill.NewRunner(engine, cfg.Backfill.IdleWait, cfg.Backfill.MaxBatches, log)
	scheduler := backfill.NewScheduler(runner, configRepo, clock, cfg.Backfill.RunAtHour, cfg.Backfill.RunAtMinute, log)

	auditService := service.NewAuditService(auditRepo, log)
	configService := service.NewConfigurationService(configRepo, auditService, publishers, scheduler)
	filingService := service.NewFilingService(filingRepo, configRepo, registryRepo, notificationRepo, txManager, auditService, publishers, clock)
	rectificationService := service.NewRectificationService(rectificationRepo, filingRepo, configRepo, registryRepo, notificationRepo, txManager, auditService, publishers, clock)
	registryService := service.NewRegistryService(registryRepo, auditService, scheduler, log)
	notificationService := service.NewNotificationService(notificationRepo, publishers)

	// Initialize Handlers
	handlers := []interface {
		RegisterRoutes(router *gin.RouterGroup)
	}{
		handler.NewConfigurationHandler(configService),
		handler.NewFilingHandler(filingService),
		handler.NewRectificationHandler(rectificationService),
		handler.NewTradeHandler(registryService),
		handler.NewNotificationHandler(notificationService),
		handler.NewAuditHandler(auditService),
		handler.NewBackfillHandler(scheduler, auditService),
	}

	gin.SetMode(cfg.Server.GinMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(log))

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "backfill": runner.State()})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret(), middleware.RoleAdmin, middleware.RoleOperator)
	})

	for _, h := range handlers {
		h.RegisterRoutes(router.Group(""))
	}

	scheduler.Start(ctx)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	// Cancelling ctx interrupts a backfill idle wait and closes websocket clients.
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	select {
	case <-scheduler.Stop().Done():
	case <-shutdownCtx.Done():
		log.Warn().Msg("scheduled backfill still running at shutdown deadline")
	}

	log.Info().Msg("server stopped")
}
