package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/valetkeys/valet-backend/internal/drivers"
	"github.com/valetkeys/valet-backend/internal/hooks"
	"github.com/valetkeys/valet-backend/internal/pricing"
	"github.com/valetkeys/valet-backend/internal/realtime"
	"github.com/valetkeys/valet-backend/internal/retrieval"
	"github.com/valetkeys/valet-backend/internal/station"
	"github.com/valetkeys/valet-backend/internal/vehicles"
	"github.com/valetkeys/valet-backend/pkg/common"
	"github.com/valetkeys/valet-backend/pkg/config"
	"github.com/valetkeys/valet-backend/pkg/database"
	"github.com/valetkeys/valet-backend/pkg/errors"
	"github.com/valetkeys/valet-backend/pkg/eventbus"
	"github.com/valetkeys/valet-backend/pkg/logger"
	"github.com/valetkeys/valet-backend/pkg/middleware"
	"github.com/valetkeys/valet-backend/pkg/ratelimit"
	"github.com/valetkeys/valet-backend/pkg/validation"
)

const (
	serviceName = "valet-backend"
	version     = "1.0.0"
)

func main() {
	cfg, err := config.Load(serviceName)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	if err := logger.Init(cfg.Server.Environment); err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting valet backend",
		zap.String("service", serviceName),
		zap.String("version", version),
		zap.String("environment", cfg.Server.Environment),
		zap.String("venue", cfg.Venue.Name),
	)

	if cfg.Sentry.Enabled {
		sentryCfg := &errors.SentryConfig{
			DSN:         cfg.Sentry.DSN,
			Environment: cfg.Server.Environment,
			Release:     version,
			ServerName:  serviceName,
		}
		if err := errors.InitSentry(sentryCfg); err != nil {
			logger.Warn("Failed to initialize Sentry, continuing without error tracking", zap.Error(err))
		} else {
			defer errors.Flush(2 * time.Second)
			logger.Info("Sentry error tracking initialized")
		}
	}

	db, err := database.NewPostgresPool(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)

	if err := database.Migrate(&cfg.Database); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Event bus is optional: a nil bus drops publishes, so the services
	// never branch on it.
	var bus *eventbus.Bus
	if cfg.NATS.Enabled {
		bus, err = eventbus.New(eventbus.Config{
			URL:        cfg.NATS.URL,
			Name:       serviceName,
			StreamName: cfg.NATS.Stream,
		})
		if err != nil {
			logger.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		defer bus.Close()
	}

	hookRepo := hooks.NewRepository(db)
	hookSvc := hooks.NewService(hookRepo, cfg.Venue.HookPoolSize)
	if err := hookSvc.EnsurePool(rootCtx); err != nil {
		logger.Fatal("Failed to provision hook pool", zap.Error(err))
	}

	pricingRepo := pricing.NewRepository(db)
	if err := pricingRepo.SeedDefaults(rootCtx); err != nil {
		logger.Fatal("Failed to seed pricing settings", zap.Error(err))
	}

	vehicleRepo := vehicles.NewRepository(db)
	vehicleSvc := vehicles.NewService(vehicleRepo, hookSvc, bus)
	pricingSvc := pricing.NewService(pricingRepo, vehicleRepo)
	retrievalRepo := retrieval.NewRepository(db)
	retrievalSvc := retrieval.NewService(retrievalRepo, vehicleRepo, hookSvc, pricingSvc, bus)
	driverRepo := drivers.NewRepository(db)
	driverSvc := drivers.NewService(driverRepo, bus)
	stationRepo := station.NewRepository(db)
	stationSvc := station.NewService(stationRepo)

	hub := realtime.NewHub()
	go hub.Run()
	if err := realtime.Bridge(rootCtx, bus, hub); err != nil {
		logger.Warn("Failed to bridge events to websocket clients", zap.Error(err))
	}

	var redisClient *redis.Client
	var limiter *ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.RedisAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		limiter = ratelimit.NewLimiter(redisClient, cfg.RateLimit)
	}

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := validation.RegisterRules(v); err != nil {
			logger.Fatal("Failed to register validation rules", zap.Error(err))
		}
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.SentryMiddleware())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RequestTimeout(time.Duration(cfg.Server.RequestTimeout) * time.Second))
	router.Use(middleware.RequestLogger(serviceName))
	router.Use(middleware.CORS(cfg.Server.CORSOrigins))
	if limiter != nil {
		router.Use(middleware.RateLimit(limiter, cfg.RateLimit))
	}

	router.GET("/healthz", common.HealthCheck(serviceName, version))
	router.GET("/health", common.HealthCheck(serviceName, version))

	healthChecks := map[string]func() error{
		"database": func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return db.Ping(ctx)
		},
	}
	if redisClient != nil {
		healthChecks["redis"] = func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return redisClient.Ping(ctx).Err()
		}
	}
	if cfg.NATS.Enabled {
		healthChecks["nats"] = func() error {
			if !bus.Connected() {
				return fmt.Errorf("nats disconnected")
			}
			return nil
		}
	}
	router.GET("/health/ready", common.ReadinessProbe(serviceName, version, healthChecks))

	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": serviceName,
			"version": version,
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	vehicles.NewHandler(vehicleSvc).RegisterRoutes(router)
	retrieval.NewHandler(retrievalSvc).RegisterRoutes(router)
	hooks.NewHandler(hookSvc).RegisterRoutes(router)
	drivers.NewHandler(driverSvc).RegisterRoutes(router)
	pricing.NewHandler(pricingSvc).RegisterRoutes(router)
	station.NewHandler(stationSvc).RegisterRoutes(router)
	realtime.NewHandler(hub).RegisterRoutes(router)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("Server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server stopped")
}
