// Package events exports call-end notifications.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmehdipour/ivr-gateway/internal/config"
	"github.com/jmehdipour/ivr-gateway/internal/kafka"
	"github.com/jmehdipour/ivr-gateway/internal/metrics"
	"github.com/jmehdipour/ivr-gateway/internal/model"
	"go.uber.org/zap"
)

// Sink receives CallEnded events from the hangup webhook.
type Sink interface {
	Publish(ctx context.Context, ev model.CallEnded) error
	Close() error
}

// LogSink only logs. It is the default when no broker is configured.
type LogSink struct {
	log *zap.Logger
}

func NewLogSink(log *zap.Logger) *LogSink {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogSink{log: log}
}

func (s *LogSink) Publish(_ context.Context, ev model.CallEnded) error {
	s.log.Info("call ended",
		zap.String("event_id", ev.ID),
		zap.String("call_id", ev.CallID),
		zap.Int("duration", ev.Duration),
		zap.String("end_time", ev.EndTime),
	)
	return nil
}

func (s *LogSink) Close() error { return nil }

type publisher interface {
	Publish(ctx context.Context, key, value []byte) error
	Close() error
}

// KafkaSink writes events as JSON keyed by call id.
type KafkaSink struct {
	p publisher
}

func NewKafkaSink(p publisher) *KafkaSink { return &KafkaSink{p: p} }

func (s *KafkaSink) Publish(ctx context.Context, ev model.CallEnded) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal call event: %w", err)
	}
	if err := s.p.Publish(ctx, []byte(ev.CallID), b); err != nil {
		metrics.CallEventsTotal.WithLabelValues("publish_failed").Inc()
		return fmt.Errorf("publish call event: %w", err)
	}
	metrics.CallEventsTotal.WithLabelValues("published").Inc()
	return nil
}

func (s *KafkaSink) Close() error { return s.p.Close() }

// FromConfig picks the Kafka sink when brokers are configured.
func FromConfig(cfg config.KafkaConfig, log *zap.Logger) Sink {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return NewLogSink(log)
	}
	return NewKafkaSink(kafka.NewProducer(cfg))
}
