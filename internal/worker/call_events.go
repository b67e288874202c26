package worker

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/jmehdipour/ivr-gateway/internal/kafka"
	"github.com/jmehdipour/ivr-gateway/internal/metrics"
	"github.com/jmehdipour/ivr-gateway/internal/model"
	"go.uber.org/zap"
)

type fetcher interface {
	Fetch(ctx context.Context) (kafka.Message, error)
	Commit(ctx context.Context, m kafka.Message) error
}

// CallEvents:
// - fetches CallEnded events from Kafka,
// - records call duration metrics,
// - logs one line per ended call.
type CallEvents struct {
	Consumer fetcher
	Log      *zap.Logger

	Workers int // number of goroutines processing messages
}

func NewCallEvents(consumer fetcher, log *zap.Logger) *CallEvents {
	if log == nil {
		log = zap.NewNop()
	}
	return &CallEvents{
		Consumer: consumer,
		Log:      log,
		Workers:  4,
	}
}

// Run starts the worker and blocks until ctx is cancelled.
func (w *CallEvents) Run(ctx context.Context) error {
	if w.Workers <= 0 {
		w.Workers = 4
	}

	msgCh := make(chan kafka.Message, w.Workers*2)

	go func() {
		defer close(msgCh)
		for {
			m, err := w.Consumer.Fetch(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				w.Log.Warn("kafka fetch failed", zap.Error(err))
				select {
				case <-ctx.Done():
					return
				case <-time.After(200 * time.Millisecond):
				}
				continue
			}
			select {
			case msgCh <- m:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < w.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for m := range msgCh {
				w.processOne(ctx, m)
			}
		}()
	}

	wg.Wait()
	return nil
}

func (w *CallEvents) processOne(ctx context.Context, m kafka.Message) {
	var ev model.CallEnded
	if err := json.Unmarshal(m.Value, &ev); err != nil || ev.CallID == "" {
		metrics.CallEventsTotal.WithLabelValues("bad_payload").Inc()
		// poison: commit and skip
		if cerr := w.Consumer.Commit(ctx, m); cerr != nil {
			w.Log.Warn("kafka commit failed", zap.Error(cerr))
		}
		w.Log.Warn("bad call event", zap.Int64("offset", m.Offset), zap.Error(err))
		return
	}

	metrics.CallEventsTotal.WithLabelValues("consumed").Inc()
	if ev.Duration >= 0 {
		metrics.ExportedCallDuration.Observe(float64(ev.Duration))
	}
	w.Log.Info("call event",
		zap.String("event_id", ev.ID),
		zap.String("provider", ev.Provider),
		zap.String("call_id", ev.CallID),
		zap.Int("duration", ev.Duration),
		zap.String("end_time", ev.EndTime),
	)

	if err := w.Consumer.Commit(ctx, m); err != nil {
		w.Log.Warn("kafka commit failed", zap.Error(err))
	}
}
