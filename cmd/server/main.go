package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"expertsolve.com/hub/internal/bootstrap"
	"expertsolve.com/hub/internal/config"
	"expertsolve.com/hub/internal/scheduler"
	"expertsolve.com/hub/internal/server"
	"expertsolve.com/hub/pkg/database"
	"expertsolve.com/hub/pkg/logger"
	"expertsolve.com/hub/pkg/storage"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg.DSN(), !cfg.IsProduction())
	if err != nil {
		log.Fatal("database connection failed", "error", err)
	}
	defer database.Close(db)

	if err := bootstrap.Migrate(db, log); err != nil {
		log.Fatal("migration failed", "error", err)
	}
	if !cfg.IsProduction() {
		if err := bootstrap.SeedAdminUser(db, log, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			log.Fatal("failed to seed admin user", "error", err)
		}
	}

	redisClient := connectRedis(cfg, log)
	if redisClient != nil {
		defer redisClient.Close()
	}

	var searchClient meilisearch.ServiceManager
	if cfg.MeiliSearchHost != "" {
		searchClient = meilisearch.New(normalizeMeiliHost(cfg.MeiliSearchHost), meilisearch.WithAPIKey(cfg.MeiliMasterKey))
	} else {
		log.Warn("MEILISEARCH_HOST not set, search uses database matching")
	}

	var images storage.ImageStorage
	if cfg.CloudinaryConfigured() {
		images, err = storage.NewCloudinaryStorage(storage.CloudinaryConfig{
			URL:       cfg.CloudinaryURL,
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
		})
		if err != nil {
			log.Fatal("failed to initialize cloudinary storage", "error", err)
		}
	} else {
		log.Warn("cloudinary not configured, image uploads disabled")
	}

	srv, err := server.NewServer(cfg, server.Dependencies{
		DB:     db,
		Redis:  redisClient,
		Search: searchClient,
		Images: images,
		Log:    log,
	})
	if err != nil {
		log.Fatal("failed to build server", "error", err)
	}

	jobs := scheduler.NewScheduler(log)
	services := srv.Services()
	for _, job := range []scheduler.Job{
		&scheduler.ActivityPurgeJob{Activity: services.Activity, Retention: cfg.ActivityLogRetention, Spec: "@daily", Log: log},
		&scheduler.SessionPurgeJob{Sessions: services.Sessions, Spec: "@hourly", Log: log},
		&scheduler.ReindexJob{Questions: services.Questions, Challenges: services.Challenges, Spec: cfg.SearchReindexCron, Log: log},
	} {
		if err := jobs.RegisterJob(job); err != nil {
			log.Fatal("failed to register job", "error", err)
		}
	}
	jobs.Start()

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server listening", "addr", httpServer.Addr, "env", cfg.AppEnv)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server exited with error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	jobs.Stop(ctx)
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}

// connectRedis returns nil when REDIS_URL is unset or unreachable; rate
// limiting and realtime notifications are then disabled.
func connectRedis(cfg *config.Config, log *logger.Logger) *redis.Client {
	if cfg.RedisURL == "" {
		log.Warn("REDIS_URL not set, rate limiting and realtime notifications disabled")
		return nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatal("invalid REDIS_URL", "error", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("redis unreachable, continuing without it", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

func normalizeMeiliHost(host string) string {
	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		return host
	}
	return "http://" + host + ":7700"
}
