package provider

import (
	"context"
	"fmt"

	"github.com/jmehdipour/ivr-gateway/internal/config"
	"github.com/jmehdipour/ivr-gateway/internal/markup"
	"github.com/jmehdipour/ivr-gateway/internal/model"
)

// Provider places outbound calls and describes the provider's webhook shape.
type Provider interface {
	Name() string
	Dialect() markup.Dialect
	Fields() Fields
	CreateCall(ctx context.Context, req model.CallRequest) (model.CallResult, error)
}

// Fields names the form fields a provider sends on webhook callbacks.
type Fields struct {
	CallID   string
	From     string
	To       string
	Digits   string
	Duration string
	EndTime  string
}

// Error is a failed provider API call. Status is the HTTP status when the
// provider answered, 0 for transport failures.
type Error struct {
	Provider string
	Message  string
	Status   int
	Err      error
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Provider, e.Message, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds the provider selected by cfg.Name. Credentials are not checked
// here; webhook handlers only need the dialect and field names.
func New(cfg config.ProviderConfig) (Provider, error) {
	switch cfg.Name {
	case "", "plivo":
		return NewPlivoProvider(cfg.AuthID, cfg.AuthToken, cfg.BaseURL, cfg.TimeoutMs), nil
	case "twilio":
		return NewTwilioProvider(cfg.AuthID, cfg.AuthToken, cfg.TimeoutMs), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Name)
	}
}
