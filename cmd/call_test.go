package cmd

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jmehdipour/ivr-gateway/internal/config"
	"github.com/jmehdipour/ivr-gateway/internal/markup"
	"github.com/jmehdipour/ivr-gateway/internal/model"
	"github.com/jmehdipour/ivr-gateway/internal/provider"
	"github.com/jmehdipour/ivr-gateway/internal/service/trigger"
)

type stubProvider struct {
	calls int
	err   error
}

func (s *stubProvider) Name() string            { return "stub" }
func (s *stubProvider) Dialect() markup.Dialect { return markup.Plivo }
func (s *stubProvider) Fields() provider.Fields { return provider.Fields{} }

func (s *stubProvider) CreateCall(_ context.Context, req model.CallRequest) (model.CallResult, error) {
	s.calls++
	return model.CallResult{Provider: "stub", RequestUUID: "req-1", APIID: "api-1", Message: "call fired"}, s.err
}

func callConfig() config.Config {
	return config.Config{
		PublicURL: "https://ivr.example.com",
		Provider: config.ProviderConfig{
			AuthID:      "MAID",
			AuthToken:   "token",
			PhoneNumber: "+15550001111",
		},
	}
}

func TestRunCallFromPrompt(t *testing.T) {
	p := &stubProvider{}
	var out bytes.Buffer

	err := runCall(context.Background(), callConfig(), p, nil, strings.NewReader("+14155552671\n"), &out)
	if err != nil {
		t.Fatalf("runCall: %v", err)
	}
	if p.calls != 1 {
		t.Errorf("expected one provider call, got %d", p.calls)
	}
	if !strings.Contains(out.String(), "Initiating call to: +14155552671") {
		t.Errorf("expected announcement of the trimmed number:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "Call UUID: req-1") {
		t.Errorf("expected tracking id in output:\n%s", out.String())
	}
}

func TestRunCallInvalidNumber(t *testing.T) {
	p := &stubProvider{}
	var out bytes.Buffer

	err := runCall(context.Background(), callConfig(), p, []string{"abc"}, strings.NewReader(""), &out)
	if !errors.Is(err, trigger.ErrInvalidNumber) {
		t.Fatalf("expected ErrInvalidNumber, got %v", err)
	}
	if p.calls != 0 {
		t.Error("provider must not be called")
	}
	if !strings.Contains(out.String(), trigger.FormatHint) {
		t.Errorf("expected format hint:\n%s", out.String())
	}
	if strings.Contains(out.String(), "Initiating call") {
		t.Errorf("a rejected number must not be announced:\n%s", out.String())
	}
}

func TestRunCallMissingConfig(t *testing.T) {
	cfg := callConfig()
	cfg.Provider.AuthID = ""
	p := &stubProvider{}
	var out bytes.Buffer

	err := runCall(context.Background(), cfg, p, []string{"+14155552671"}, strings.NewReader(""), &out)
	var merr *config.MissingError
	if !errors.As(err, &merr) {
		t.Fatalf("expected *config.MissingError, got %v", err)
	}
	if !strings.Contains(out.String(), "IVR_PROVIDER_AUTH_ID") {
		t.Errorf("expected missing key listed:\n%s", out.String())
	}
	if p.calls != 0 {
		t.Error("provider must not be called")
	}
}

func TestRunCallProviderError(t *testing.T) {
	p := &stubProvider{err: &provider.Error{Provider: "stub", Message: "Authentication failed", Status: 401}}
	var out bytes.Buffer

	err := runCall(context.Background(), callConfig(), p, []string{"+14155552671"}, strings.NewReader(""), &out)
	if !errors.Is(err, errCallFailed) {
		t.Fatalf("expected errCallFailed, got %v", err)
	}
	for _, want := range []string{"Authentication failed", "Status Code: 401", "Troubleshooting tips"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("expected %q in output:\n%s", want, out.String())
		}
	}
}
