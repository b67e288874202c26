package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmehdipour/ivr-gateway/internal/config"
	"github.com/jmehdipour/ivr-gateway/internal/db"
	"github.com/jmehdipour/ivr-gateway/internal/events"
	httpSrv "github.com/jmehdipour/ivr-gateway/internal/http"
	"github.com/jmehdipour/ivr-gateway/internal/logger"
	"github.com/jmehdipour/ivr-gateway/internal/provider"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run HTTP server (webhooks + /make-call)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		log := logger.Init(cfg.Log.Level)
		defer func() { _ = log.Sync() }()

		if missing := cfg.Missing(); len(missing) > 0 {
			log.Warn("call settings incomplete; /make-call will fail until set", zap.Strings("missing", missing))
		}

		prov, err := provider.New(cfg.Provider)
		if err != nil {
			return err
		}

		var redisClient *redis.Client
		if cfg.Redis.Addr != "" {
			redisClient, err = db.NewRedisClient(cmd.Context(), cfg.Redis)
			if err != nil {
				return fmt.Errorf("redis connect: %w", err)
			}
			defer func() { _ = redisClient.Close() }()
		}

		sink := events.FromConfig(cfg.Events.Kafka, log.Named("events"))
		defer func() { _ = sink.Close() }()

		server := httpSrv.NewServer(cfg, prov, sink, redisClient, log)

		log.Info("ivr server starting",
			zap.String("addr", cfg.HTTP.Addr),
			zap.String("provider", prov.Name()),
			zap.String("public_url", cfg.PublicURL),
			zap.Bool("idempotency", redisClient != nil),
		)

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Start(cfg.HTTP.Addr)
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-sigCh:
			log.Info("signal received, shutting down", zap.String("signal", sig.String()))
		case err := <-errCh:
			if err != nil {
				log.Error("http server exited", zap.Error(err))
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)

		return nil
	},
}
