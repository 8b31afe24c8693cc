package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/akudrin/dotabet-backend/internal/api"
	"github.com/akudrin/dotabet-backend/internal/cache"
	"github.com/akudrin/dotabet-backend/internal/config"
	"github.com/akudrin/dotabet-backend/internal/db"
	"github.com/akudrin/dotabet-backend/internal/logger"
	"github.com/akudrin/dotabet-backend/internal/metrics"
	"github.com/akudrin/dotabet-backend/internal/producer"
	"github.com/akudrin/dotabet-backend/internal/provider"
	"github.com/akudrin/dotabet-backend/internal/repository/postgres"
	"github.com/akudrin/dotabet-backend/internal/scheduler"
	"github.com/akudrin/dotabet-backend/internal/services"
	"github.com/akudrin/dotabet-backend/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.New(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if os.Getenv("APP_MIGRATE") == "true" {
		if err := db.RunMigrations(ctx, pool); err != nil {
			log.Error("migrations", "err", err)
			os.Exit(1)
		}
	}

	repos := postgres.NewRepositories(pool)
	wp := worker.NewPool(4)
	defer wp.Stop()

	var rc *cache.Cache
	if cfg.RedisAddr != "" {
		rdb, err := cache.Connect(cfg.RedisAddr)
		if err != nil {
			log.Warn("redis unavailable, running without read cache", "err", err)
		} else {
			rc = cache.New(rdb, 5*time.Second)
			defer rdb.Close()
		}
	}

	pub := producer.New(cfg.KafkaBrokers, cfg.TopicBetPlaced, cfg.TopicMatchSettled, wp, log)
	defer pub.Close()

	dota := provider.NewOpenDota(cfg.ProviderBaseURL, cfg.ProviderTimeout)

	userSvc := services.NewUserService(repos.Users, rc, cfg)
	matchSvc := services.NewMatchService(repos.Matches, dota, rc)
	betSvc := services.NewBetService(repos.Users, repos.Matches, repos.Bets, pub, cfg, log)
	ingestSvc := services.NewIngestService(repos.Matches, dota, cfg, log)
	settleSvc := services.NewSettlementService(repos.Matches, repos.Users, repos.Bets, dota, pub, cfg, log)

	metrics.Init()

	sched := scheduler.New(cfg.SyncInterval, ingestSvc, settleSvc, log)
	go sched.Run(ctx)

	r := api.NewRouter(cfg, userSvc, matchSvc, betSvc)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server", "err", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
