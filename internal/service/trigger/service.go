package trigger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmehdipour/ivr-gateway/internal/config"
	"github.com/jmehdipour/ivr-gateway/internal/ivr"
	"github.com/jmehdipour/ivr-gateway/internal/metrics"
	"github.com/jmehdipour/ivr-gateway/internal/model"
	"github.com/jmehdipour/ivr-gateway/internal/provider"
	"github.com/jmehdipour/ivr-gateway/internal/util"
	"go.uber.org/zap"
)

// FormatHint is shown next to ErrInvalidNumber.
const FormatHint = "Use format: +[country code][number] (e.g., +919876543210 or +14155552671)"

var (
	ErrEmptyNumber   = errors.New("phone number is required")
	ErrInvalidNumber = errors.New("invalid phone number format")
)

// UserMessage is the caller-facing text for a Trigger validation error.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrEmptyNumber):
		return "Phone number is required"
	case errors.Is(err, ErrInvalidNumber):
		return "Invalid phone number format. " + FormatHint
	default:
		return err.Error()
	}
}

// Service places outbound calls that start the menu flow.
type Service struct {
	cfg      config.Config
	provider provider.Provider
	log      *zap.Logger
}

// New constructs the trigger service.
func New(cfg config.Config, p provider.Provider, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{cfg: cfg, provider: p, log: log}
}

// Trigger validates the destination, then asks the provider to dial it with
// the answer URL as primary and fallback callback and the hangup URL as the
// call-end callback. Nothing is retried.
func (s *Service) Trigger(ctx context.Context, raw string) (model.CallResult, error) {
	to := strings.TrimSpace(raw)
	if to == "" {
		metrics.CallsTriggered.WithLabelValues("invalid").Inc()
		return model.CallResult{}, ErrEmptyNumber
	}
	if !util.IsE164(to) {
		metrics.CallsTriggered.WithLabelValues("invalid").Inc()
		return model.CallResult{}, ErrInvalidNumber
	}

	if err := s.cfg.RequireCallSettings(); err != nil {
		metrics.CallsTriggered.WithLabelValues("misconfigured").Inc()
		s.log.Error("call settings missing", zap.Error(err))
		return model.CallResult{}, err
	}

	answerURL := s.cfg.PublicURL + ivr.PathAnswer
	req := model.CallRequest{
		To:          to,
		From:        s.cfg.Provider.PhoneNumber,
		AnswerURL:   answerURL,
		FallbackURL: answerURL,
		HangupURL:   s.cfg.PublicURL + ivr.PathHangup,
	}
	region := util.PhoneRegion(to)

	s.log.Info("placing call",
		zap.String("provider", s.provider.Name()),
		zap.String("to", to),
		zap.String("region", region),
		zap.String("answer_url", req.AnswerURL),
	)

	res, err := s.provider.CreateCall(ctx, req)
	if err != nil {
		metrics.CallsTriggered.WithLabelValues("provider_error").Inc()
		fields := []zap.Field{zap.String("to", to), zap.Error(err)}
		var perr *provider.Error
		if errors.As(err, &perr) && perr.Status > 0 {
			fields = append(fields, zap.Int("status", perr.Status))
		}
		s.log.Error("create call failed", fields...)
		return model.CallResult{}, fmt.Errorf("create call: %w", err)
	}

	res.Region = region
	metrics.CallsTriggered.WithLabelValues("success").Inc()
	s.log.Info("call placed",
		zap.String("request_uuid", res.RequestUUID),
		zap.String("api_id", res.APIID),
		zap.String("message", res.Message),
	)
	return res, nil
}
