// Command server runs the DocFlow HTTP API on Postgres.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/dharsanguruparan/DocFlow/internal/api"
	"github.com/dharsanguruparan/DocFlow/internal/config"
	"github.com/dharsanguruparan/DocFlow/internal/database"
	"github.com/dharsanguruparan/DocFlow/internal/document"
	"github.com/dharsanguruparan/DocFlow/internal/logger"
	"github.com/dharsanguruparan/DocFlow/internal/query"
	"github.com/dharsanguruparan/DocFlow/internal/queue"
	"github.com/dharsanguruparan/DocFlow/internal/repository"
	"github.com/dharsanguruparan/DocFlow/internal/roles"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	zlog, err := logger.New(cfg.LogEnvironment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zlog.Sync()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		zlog.Fatal("connect database", zap.Error(err))
	}
	defer pool.Close()
	if err := database.EnsureSchema(ctx, pool); err != nil {
		zlog.Fatal("ensure schema", zap.Error(err))
	}
	store := repository.NewPostgres(pool)

	opts := []document.Option{document.WithDownloadPrefix(cfg.DownloadPrefix)}
	if cfg.ArchiveEnabled {
		client := asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer client.Close()
		opts = append(opts, document.WithNotifier(queue.NewPublisher(client)))
	}
	engine := document.NewEngine(store, zlog, opts...)
	srv := api.New(cfg, engine, query.NewService(store, zlog), roles.NewService(store, cfg.RoleCacheTTL, zlog), zlog)

	if err := srv.Run(ctx); err != nil {
		zlog.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}
