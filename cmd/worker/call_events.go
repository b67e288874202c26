package worker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmehdipour/ivr-gateway/internal/config"
	"github.com/jmehdipour/ivr-gateway/internal/kafka"
	"github.com/jmehdipour/ivr-gateway/internal/logger"
	"github.com/jmehdipour/ivr-gateway/internal/metrics"
	"github.com/jmehdipour/ivr-gateway/internal/worker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newCallEventsCmd() *cobra.Command {
	var (
		workers     int
		metricsAddr string
	)
	cmd := &cobra.Command{
		Use:   "call-events",
		Short: "Consume call-end events and record call metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCallEvents(cmd, workers, metricsAddr)
		},
	}
	cmd.Flags().IntVar(&workers, "workers", 4, "number of goroutines processing events")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve /metrics on this address (e.g. :9101)")
	return cmd
}

func runCallEvents(cmd *cobra.Command, workers int, metricsAddr string) error {
	// 1) load config
	cfgPath, _ := cmd.Root().PersistentFlags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.Init(cfg.Log.Level)
	defer func() { _ = log.Sync() }()

	kc := cfg.Events.Kafka
	if len(kc.Brokers) == 0 || kc.Topic == "" {
		return errors.New("events.kafka.brokers and events.kafka.topic are required")
	}

	metrics.MustRegister(prometheus.DefaultRegisterer)

	// 2) kafka consumer
	consumer := kafka.NewConsumer(kc)
	defer consumer.Close()

	w := worker.NewCallEvents(consumer, log.Named("call-events"))
	if workers > 0 {
		w.Workers = workers
	}

	// 3) graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server exited", zap.Error(err))
			}
		}()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(sctx)
		}()
	}

	log.Info("call-events worker started",
		zap.Strings("brokers", kc.Brokers),
		zap.String("topic", kc.Topic),
		zap.String("group", kc.GroupID),
		zap.Int("workers", w.Workers),
	)

	return w.Run(ctx)
}
