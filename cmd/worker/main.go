// Command worker runs the maintenance jobs: resource health
// recompute, buffer provisioning checks and enrichment feed ingestion.
// A Redis lock keeps the pass on a single instance at a time.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/lead-engine/internal/config"
	"github.com/ignite/lead-engine/internal/ingest"
	"github.com/ignite/lead-engine/internal/pkg/distlock"
	"github.com/ignite/lead-engine/internal/pkg/logger"
	"github.com/ignite/lead-engine/internal/repository/postgres"
	"github.com/ignite/lead-engine/internal/service/pool"
	"github.com/ignite/lead-engine/internal/service/resource"
	"github.com/ignite/lead-engine/internal/worker"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	db, err := postgres.Open(cfg.Database)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		log.Fatalf("parse redis URL: %v", err)
	}
	redisClient := redis.NewClient(opts)
	defer redisClient.Close()

	resourceRepo := postgres.NewResourceRepo(db)
	assignmentRepo := postgres.NewAssignmentRepo(db)
	resourceSvc := resource.NewService(resourceRepo, assignmentRepo, cfg.Resource)

	var feed worker.FeedRunner
	if cfg.Ingest.Enabled {
		poolSvc := pool.NewService(postgres.NewPoolRepo(db))
		f, err := ingest.NewFeed(context.Background(), cfg.Ingest, poolSvc)
		if err != nil {
			log.Fatalf("init feed: %v", err)
		}
		feed = f
		logger.Info("feed ingestion enabled", "bucket", cfg.Ingest.S3Bucket)
	}

	lock := distlock.NewRedisLock(redisClient, "maintenance", 10*time.Minute)
	m := worker.NewMaintenance(resourceSvc, feed, lock, worker.DefaultInterval)
	m.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	m.Stop()
}
