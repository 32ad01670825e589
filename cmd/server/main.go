package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"

	"github.com/auditgate/auditgate/internal/audit"
	"github.com/auditgate/auditgate/internal/config"
	"github.com/auditgate/auditgate/internal/handler"
	"github.com/auditgate/auditgate/internal/middleware"
	"github.com/auditgate/auditgate/internal/pkg/logger"
	"github.com/auditgate/auditgate/internal/repository"
	"github.com/auditgate/auditgate/internal/service"
)

func main() {
	seed := flag.Bool("seed", false, "load development fixtures on startup")
	flag.Parse()

	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.Log.Level, cfg.Log.Format)

	// 2. Initialize Persistence
	db, err := repository.NewDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := repository.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Connected to PostgreSQL")

	auditRepo := repository.NewAuditRepo(db)

	// Recent-feed cache (Redis > none)
	var recentCache *repository.RedisRecentCache
	recorderOpts := []audit.RecorderOption{
		audit.WithIgnoredFields(cfg.Audit.IgnoredFields),
	}
	if cfg.Redis.Addr != "" {
		redisClient, err := repository.NewRedisClient(cfg)
		if err == nil {
			logger.Info("Connected to Redis")
			recentCache = repository.NewRedisRecentCache(redisClient, cfg.Redis.RecentListKey, cfg.Redis.RecentListMax)
			recorderOpts = append(recorderOpts, audit.WithRecentCache(recentCache))
		} else {
			logger.Error("Failed to connect to Redis, recent audit feed disabled", "error", err)
		}
	}

	// 3. Audit core. Ready only after migrations have run.
	recorder := audit.NewRecorder(auditRepo, recorderOpts...)
	recorder.SetReady()

	userRepo := repository.NewUserRepo(db, recorder)
	categoryRepo := repository.NewCategoryRepo(db, recorder)
	productRepo := repository.NewProductRepo(db, recorder)

	if *seed {
		if err := repository.Seed(context.Background(), db, userRepo, categoryRepo, productRepo); err != nil {
			log.Fatalf("Failed to seed fixtures: %v", err)
		}
		logger.Info("Development fixtures loaded")
	}

	// 4. Services
	authSvc := service.NewAuthService(userRepo, recorder, cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLHours)*time.Hour)
	productSvc := service.NewProductService(productRepo, categoryRepo, recorder)
	auditQuerySvc := service.NewAuditQueryService(auditRepo, recentCache)
	cleanupSvc := service.NewAuditCleanupService(auditRepo)

	// 5. Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	productHandler := handler.NewProductHandler(productSvc)
	categoryHandler := handler.NewCategoryHandler(productSvc)
	auditHandler := handler.NewAuditHandler(auditQuerySvc)

	// 6. Router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.Correlation())
	r.Use(middleware.Metrics())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "auditgate"})
	})

	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	r.POST("/v1/auth/login", authHandler.Login)

	v1 := r.Group("/v1")
	v1.Use(middleware.Auth(authSvc))
	v1.Use(middleware.RateLimit(cfg.RateLimit))
	{
		v1.POST("/auth/logout", authHandler.Logout)
		productHandler.RegisterRoutes(v1.Group("/products"))
		categoryHandler.RegisterRoutes(v1.Group("/categories"))
		auditHandler.RegisterRoutes(v1.Group("/audit"))
	}

	// 7. Scheduled retention sweep
	var scheduler *cron.Cron
	if cfg.Audit.CleanupSchedule != "" {
		scheduler = cron.New()
		_, err := scheduler.AddFunc(cfg.Audit.CleanupSchedule, func() {
			result, err := cleanupSvc.Cleanup(context.Background(), service.CleanupOptions{
				RetentionDays: cfg.Audit.RetentionDays,
				BatchSize:     cfg.Audit.CleanupBatchSize,
			})
			if err != nil {
				logger.Error("Scheduled audit cleanup failed", "error", err)
				return
			}
			logger.Info("Scheduled audit cleanup finished", "deleted", result.Deleted)
		})
		if err != nil {
			log.Fatalf("Invalid cleanup schedule %q: %v", cfg.Audit.CleanupSchedule, err)
		}
		scheduler.Start()
	}

	// 8. Start Server with Graceful Shutdown
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Info("auditgate started", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server listen failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if scheduler != nil {
		scheduler.Stop()
	}
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}

	logger.Info("Server exiting")
}
