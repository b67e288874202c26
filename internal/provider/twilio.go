package provider

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jmehdipour/ivr-gateway/internal/markup"
	"github.com/jmehdipour/ivr-gateway/internal/model"
	"github.com/twilio/twilio-go"
	"github.com/twilio/twilio-go/client"
	api "github.com/twilio/twilio-go/rest/api/v2010"
)

var twilioFields = Fields{
	CallID:   "CallSid",
	From:     "From",
	To:       "To",
	Digits:   "Digits",
	Duration: "CallDuration",
	EndTime:  "Timestamp",
}

type callCreator interface {
	CreateCall(params *api.CreateCallParams) (*api.ApiV2010Call, error)
}

type TwilioProvider struct {
	client     callCreator
	httpClient *http.Client
}

// NewTwilioProvider builds the REST client on an http.Client bounded by timeoutMs.
func NewTwilioProvider(accountSID, authToken string, timeoutMs int) *TwilioProvider {
	if timeoutMs <= 0 {
		timeoutMs = 10000
	}

	hc := &http.Client{Timeout: time.Duration(timeoutMs) * time.Millisecond}
	base := &client.Client{
		Credentials: client.NewCredentials(accountSID, authToken),
		HTTPClient:  hc,
	}
	base.SetAccountSid(accountSID)

	rest := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
		Client:   base,
	})
	return &TwilioProvider{client: rest.Api, httpClient: hc}
}

func (p *TwilioProvider) Name() string            { return "twilio" }
func (p *TwilioProvider) Dialect() markup.Dialect { return markup.TwiML }
func (p *TwilioProvider) Fields() Fields          { return twilioFields }

// CreateCall places the call through the Twilio REST API. The hangup URL is
// registered as the status callback, which fires on completion by default.
// twilio-go takes no context, so the call runs aside and ctx bounds the wait;
// the http.Client timeout bounds the request itself.
func (p *TwilioProvider) CreateCall(ctx context.Context, cr model.CallRequest) (model.CallResult, error) {
	if err := ctx.Err(); err != nil {
		return model.CallResult{}, &Error{Provider: p.Name(), Message: err.Error(), Err: err}
	}

	params := &api.CreateCallParams{}
	params.SetTo(cr.To)
	params.SetFrom(cr.From)
	params.SetUrl(cr.AnswerURL)
	params.SetMethod(http.MethodPost)
	if cr.FallbackURL != "" {
		params.SetFallbackUrl(cr.FallbackURL)
		params.SetFallbackMethod(http.MethodPost)
	}
	if cr.HangupURL != "" {
		params.SetStatusCallback(cr.HangupURL)
		params.SetStatusCallbackMethod(http.MethodPost)
	}

	type created struct {
		resp *api.ApiV2010Call
		err  error
	}
	done := make(chan created, 1)
	go func() {
		resp, err := p.client.CreateCall(params)
		done <- created{resp: resp, err: err}
	}()

	var (
		resp *api.ApiV2010Call
		err  error
	)
	select {
	case <-ctx.Done():
		return model.CallResult{}, &Error{Provider: p.Name(), Message: ctx.Err().Error(), Err: ctx.Err()}
	case r := <-done:
		resp, err = r.resp, r.err
	}
	if err != nil {
		var restErr *client.TwilioRestError
		if errors.As(err, &restErr) {
			return model.CallResult{}, &Error{Provider: p.Name(), Message: restErr.Message, Status: restErr.Status, Err: err}
		}
		return model.CallResult{}, &Error{Provider: p.Name(), Message: err.Error(), Err: err}
	}
	if resp == nil || resp.Sid == nil {
		return model.CallResult{}, &Error{Provider: p.Name(), Message: "missing call sid"}
	}

	return model.CallResult{
		Provider:    p.Name(),
		RequestUUID: *resp.Sid,
		Message:     "call queued",
	}, nil
}
