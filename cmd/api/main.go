// @title OiPet Saúde API
// @version 1.0
// @description Pet health tracking: accounts, pets, daily health records and notifications.
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer <token>"
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xyz-asif/oipet/docs"
	"github.com/xyz-asif/oipet/internal/config"
	"github.com/xyz-asif/oipet/internal/database"
	"github.com/xyz-asif/oipet/internal/jobs"
	"github.com/xyz-asif/oipet/internal/pkg/cloudinary"
	"github.com/xyz-asif/oipet/internal/pkg/logger"
	"github.com/xyz-asif/oipet/internal/pkg/push"
	"github.com/xyz-asif/oipet/internal/routes"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	lg, err := logger.Init(cfg.AppEnv)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.UsesFallbackSecrets() {
		logger.Warn("using built-in JWT secrets; set JWT_SECRET and JWT_REFRESH_SECRET")
	}

	docs.SwaggerInfo.Host = "localhost:" + cfg.Port

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	deps := routes.Deps{Config: cfg, Registry: prometheus.NewRegistry()}
	deps.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if cfg.StoreDriver == "mongo" {
		db, err := database.Connect(database.Config{
			URI:     cfg.MongoURI,
			DBName:  cfg.MongoDB,
			Timeout: cfg.MongoTimeout,
			MaxPool: cfg.MongoMaxPool,
		})
		if err != nil {
			lg.Fatal("mongo connection failed", zap.Error(err))
		}
		defer func() { _ = db.Disconnect(context.Background()) }()
		deps.Mongo = db
		logger.Info("connected to MongoDB", zap.String("database", cfg.MongoDB))
	} else {
		logger.Warn("using in-memory stores; data is lost on restart")
	}

	if cfg.RedisURL != "" {
		rdb, err := database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			lg.Fatal("redis connection failed", zap.Error(err))
		}
		defer func(c *redis.Client) { _ = c.Close() }(rdb)
		deps.Redis = rdb
	}

	switch cld, err := cloudinary.NewService(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, "oipet"); {
	case err == nil:
		deps.Uploader = cld
	case errors.Is(err, cloudinary.ErrNotConfigured):
		logger.Warn("cloudinary not configured; image uploads disabled")
	default:
		lg.Fatal("cloudinary init failed", zap.Error(err))
	}

	if cfg.FirebaseServiceAccountPath != "" {
		fcm, err := push.NewFCM(ctx, cfg.FirebaseServiceAccountPath)
		if err != nil {
			lg.Fatal("firebase init failed", zap.Error(err))
		}
		deps.Push = fcm
	} else {
		logger.Warn("firebase not configured; push notifications are only logged")
	}

	app, err := routes.SetupRoutes(ctx, deps)
	if err != nil {
		lg.Fatal("setup failed", zap.Error(err))
	}

	var scheduler *jobs.Scheduler
	if cfg.SchedulerEnabled {
		scheduler, err = jobs.New(jobs.Options{Logger: lg, Registerer: deps.Registry})
		if err != nil {
			lg.Fatal("scheduler init failed", zap.Error(err))
		}
		for _, j := range jobs.NotificationJobs(app.Notifications, cfg.NotificationDispatchSpec, cfg.NotificationCleanupSpec) {
			if err := scheduler.Add(j); err != nil {
				lg.Fatal("invalid job schedule", zap.Error(err))
			}
		}
		scheduler.Start()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("server starting", zap.String("port", cfg.Port), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if scheduler != nil {
		scheduler.Stop(shutdownCtx)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
	logger.Info("server exited")
}
