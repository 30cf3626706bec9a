// Command server runs the lead engine HTTP API.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ignite/lead-engine/internal/api"
	"github.com/ignite/lead-engine/internal/config"
	"github.com/ignite/lead-engine/internal/pkg/logger"
	"github.com/ignite/lead-engine/internal/ratelimit"
	"github.com/ignite/lead-engine/internal/repository/postgres"
	"github.com/ignite/lead-engine/internal/service/admission"
	"github.com/ignite/lead-engine/internal/service/allocation"
	"github.com/ignite/lead-engine/internal/service/pool"
	"github.com/ignite/lead-engine/internal/service/resource"
	"github.com/ignite/lead-engine/internal/service/suppression"
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

	limiter, err := ratelimit.NewFromURL(cfg.Redis.URL)
	if err != nil {
		log.Fatalf("connect redis: %v", err)
	}
	defer limiter.Close()

	poolRepo := postgres.NewPoolRepo(db)
	assignmentRepo := postgres.NewAssignmentRepo(db)
	resourceRepo := postgres.NewResourceRepo(db)
	suppressionRepo := postgres.NewSuppressionRepo(db)
	tenantRepo := postgres.NewTenantRepo(db)

	poolSvc := pool.NewService(poolRepo)
	allocationSvc := allocation.NewService(poolRepo, assignmentRepo,
		cfg.Admission.DefaultMaxTouches, cfg.Admission.CoolingPeriodDays)
	resourceSvc := resource.NewService(resourceRepo, assignmentRepo, cfg.Resource)
	suppressionSvc := suppression.NewService(suppressionRepo)

	gate := admission.NewGate(
		poolReader{poolRepo},
		suppressionRepo,
		assignmentRepo,
		tenantRepo,
		limiter,
		cfg.Admission,
	)

	handlers := api.NewHandlers(poolSvc, allocationSvc, gate, resourceSvc, suppressionSvc)
	server := api.NewServer(cfg.Server, handlers)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
