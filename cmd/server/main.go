package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/oggyb/matchmaking/internal/app"
	"github.com/oggyb/matchmaking/internal/cache"
	"github.com/oggyb/matchmaking/internal/config"
	"github.com/oggyb/matchmaking/internal/db"
	"github.com/oggyb/matchmaking/internal/logger"
	"github.com/oggyb/matchmaking/internal/rpc"
	"github.com/oggyb/matchmaking/internal/server"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		os.Exit(1)
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(context.Background()); err != nil {
		log.Error("failed to connect to redis", "err", err)
		os.Exit(1)
	}
	defer redisCache.Close()

	appCtx := app.New(cfg, database, redisCache, log)

	if cfg.App.ENV == "development" {
		if err := db.SeedTestData(database, log); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	grpcServer := server.NewGRPCServer(log, rpc.NewRegistrar(appCtx))
	ops := server.NewOpsRouter(map[string]server.Pinger{
		"db": func(ctx context.Context) error {
			sqlDB, err := database.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		"redis": redisCache.Ping,
	})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting gRPC server", "addr", cfg.GRPC.Host+":"+cfg.GRPC.Port)
		return server.StartGRPCServer(ctx, cfg, grpcServer)
	})
	g.Go(func() error {
		log.Info("starting ops server", "addr", cfg.Metrics.Addr)
		return server.StartOpsServer(ctx, cfg.Metrics.Addr, ops, log)
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
