package trigger

import (
	"context"
	"errors"
	"testing"

	"github.com/jmehdipour/ivr-gateway/internal/config"
	"github.com/jmehdipour/ivr-gateway/internal/markup"
	"github.com/jmehdipour/ivr-gateway/internal/metrics"
	"github.com/jmehdipour/ivr-gateway/internal/model"
	"github.com/jmehdipour/ivr-gateway/internal/provider"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap/zaptest"
)

type stubProvider struct {
	calls []model.CallRequest
	res   model.CallResult
	err   error
}

func (s *stubProvider) Name() string            { return "stub" }
func (s *stubProvider) Dialect() markup.Dialect { return markup.Plivo }
func (s *stubProvider) Fields() provider.Fields { return provider.Fields{} }

func (s *stubProvider) CreateCall(_ context.Context, req model.CallRequest) (model.CallResult, error) {
	s.calls = append(s.calls, req)
	return s.res, s.err
}

func validConfig() config.Config {
	return config.Config{
		PublicURL: "https://ivr.example.com",
		Provider: config.ProviderConfig{
			Name:        "plivo",
			AuthID:      "MAID",
			AuthToken:   "token",
			PhoneNumber: "+15550001111",
		},
	}
}

func TestTriggerSuccess(t *testing.T) {
	sp := &stubProvider{res: model.CallResult{Provider: "stub", RequestUUID: "req-1", APIID: "api-1", Message: "call fired"}}
	svc := New(validConfig(), sp, zaptest.NewLogger(t))
	before := testutil.ToFloat64(metrics.CallsTriggered.WithLabelValues("success"))

	res, err := svc.Trigger(context.Background(), "  +14155552671 ")
	if err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	if res.RequestUUID == "" || res.RequestUUID != "req-1" {
		t.Errorf("expected tracking id, got %+v", res)
	}
	if res.Region != "US" {
		t.Errorf("expected US region, got %q", res.Region)
	}
	if len(sp.calls) != 1 {
		t.Fatalf("expected one provider call, got %d", len(sp.calls))
	}

	got := sp.calls[0]
	if got.To != "+14155552671" || got.From != "+15550001111" {
		t.Errorf("unexpected numbers %+v", got)
	}
	if got.AnswerURL != "https://ivr.example.com/answer" || got.FallbackURL != got.AnswerURL {
		t.Errorf("answer and fallback must both be the answer endpoint: %+v", got)
	}
	if got.HangupURL != "https://ivr.example.com/hangup" {
		t.Errorf("unexpected hangup url %s", got.HangupURL)
	}
	if after := testutil.ToFloat64(metrics.CallsTriggered.WithLabelValues("success")); after != before+1 {
		t.Errorf("success counter not incremented: %v -> %v", before, after)
	}
}

func TestTriggerRejectsLocally(t *testing.T) {
	tests := []struct {
		in   string
		want error
	}{
		{"", ErrEmptyNumber},
		{"   ", ErrEmptyNumber},
		{"abc", ErrInvalidNumber},
		{"14155552671", ErrInvalidNumber},
		{"+0123456789", ErrInvalidNumber},
		{"+123", ErrInvalidNumber},
		{"+1234567890123456", ErrInvalidNumber},
	}
	for _, tt := range tests {
		sp := &stubProvider{}
		_, err := New(validConfig(), sp, nil).Trigger(context.Background(), tt.in)
		if !errors.Is(err, tt.want) {
			t.Errorf("%q: got %v, want %v", tt.in, err, tt.want)
		}
		if len(sp.calls) != 0 {
			t.Errorf("%q: provider must not be called", tt.in)
		}
	}
}

func TestTriggerMissingConfig(t *testing.T) {
	cfg := validConfig()
	cfg.Provider.AuthToken = ""
	cfg.PublicURL = ""
	sp := &stubProvider{}

	_, err := New(cfg, sp, nil).Trigger(context.Background(), "+14155552671")
	var merr *config.MissingError
	if !errors.As(err, &merr) {
		t.Fatalf("expected *config.MissingError, got %v", err)
	}
	if len(merr.Keys) != 2 || merr.Keys[0] != "IVR_PROVIDER_AUTH_TOKEN" || merr.Keys[1] != "IVR_PUBLIC_URL" {
		t.Errorf("unexpected keys %v", merr.Keys)
	}
	if len(sp.calls) != 0 {
		t.Error("provider must not be called without configuration")
	}
}

func TestTriggerProviderError(t *testing.T) {
	sp := &stubProvider{err: &provider.Error{Provider: "stub", Message: "Authentication failed", Status: 401}}
	_, err := New(validConfig(), sp, zaptest.NewLogger(t)).Trigger(context.Background(), "+14155552671")

	var perr *provider.Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected *provider.Error, got %v", err)
	}
	if perr.Status != 401 {
		t.Errorf("unexpected status %d", perr.Status)
	}
	if len(sp.calls) != 1 {
		t.Errorf("expected exactly one attempt, got %d", len(sp.calls))
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(ErrEmptyNumber); got != "Phone number is required" {
		t.Errorf("unexpected message %q", got)
	}
	if got := UserMessage(ErrInvalidNumber); got != "Invalid phone number format. "+FormatHint {
		t.Errorf("unexpected message %q", got)
	}
}
