package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jmehdipour/ivr-gateway/internal/markup"
	"github.com/jmehdipour/ivr-gateway/internal/model"
)

const DefaultPlivoBaseURL = "https://api.plivo.com"

var plivoFields = Fields{
	CallID:   "CallUUID",
	From:     "From",
	To:       "To",
	Digits:   "Digits",
	Duration: "Duration",
	EndTime:  "EndTime",
}

type PlivoProvider struct {
	authID    string
	authToken string
	baseURL   string
	client    *http.Client
}

func NewPlivoProvider(authID, authToken, baseURL string, timeoutMs int) *PlivoProvider {
	if timeoutMs <= 0 {
		timeoutMs = 10000
	}

	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultPlivoBaseURL
	}

	return &PlivoProvider{
		authID:    authID,
		authToken: authToken,
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    &http.Client{Timeout: time.Duration(timeoutMs) * time.Millisecond},
	}
}

func (p *PlivoProvider) Name() string            { return "plivo" }
func (p *PlivoProvider) Dialect() markup.Dialect { return markup.Plivo }
func (p *PlivoProvider) Fields() Fields          { return plivoFields }

type plivoCallReq struct {
	From           string `json:"from"`
	To             string `json:"to"`
	AnswerURL      string `json:"answer_url"`
	AnswerMethod   string `json:"answer_method"`
	FallbackURL    string `json:"fallback_url,omitempty"`
	FallbackMethod string `json:"fallback_method,omitempty"`
	HangupURL      string `json:"hangup_url,omitempty"`
	HangupMethod   string `json:"hangup_method,omitempty"`
}

type plivoCallResp struct {
	APIID       string          `json:"api_id"`
	Message     string          `json:"message"`
	RequestUUID json.RawMessage `json:"request_uuid"` // string, or a list for bulk dials
	Error       string          `json:"error"`
}

// CreateCall fires one outbound call. It is never retried.
func (p *PlivoProvider) CreateCall(ctx context.Context, cr model.CallRequest) (model.CallResult, error) {
	body := plivoCallReq{
		From:         cr.From,
		To:           cr.To,
		AnswerURL:    cr.AnswerURL,
		AnswerMethod: http.MethodPost,
	}
	if cr.FallbackURL != "" {
		body.FallbackURL = cr.FallbackURL
		body.FallbackMethod = http.MethodPost
	}
	if cr.HangupURL != "" {
		body.HangupURL = cr.HangupURL
		body.HangupMethod = http.MethodPost
	}

	b, err := json.Marshal(body)
	if err != nil {
		return model.CallResult{}, err
	}

	endpoint := p.baseURL + "/v1/Account/" + url.PathEscape(p.authID) + "/Call/"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return model.CallResult{}, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(p.authID, p.authToken)

	res, err := p.client.Do(req)
	if err != nil {
		return model.CallResult{}, &Error{Provider: p.Name(), Message: err.Error(), Err: err}
	}

	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return model.CallResult{}, &Error{Provider: p.Name(), Message: "read response: " + err.Error(), Status: res.StatusCode, Err: err}
	}

	var out plivoCallResp
	_ = json.Unmarshal(raw, &out)

	if res.StatusCode/100 != 2 {
		msg := out.Error
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		if msg == "" {
			msg = http.StatusText(res.StatusCode)
		}
		return model.CallResult{}, &Error{Provider: p.Name(), Message: msg, Status: res.StatusCode}
	}

	requestUUID := decodeRequestUUID(out.RequestUUID)
	if requestUUID == "" {
		return model.CallResult{}, &Error{
			Provider: p.Name(),
			Message:  fmt.Sprintf("response without request_uuid: %s", strings.TrimSpace(string(raw))),
			Status:   res.StatusCode,
		}
	}

	return model.CallResult{
		Provider:    p.Name(),
		RequestUUID: requestUUID,
		APIID:       out.APIID,
		Message:     out.Message,
	}, nil
}

func decodeRequestUUID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var one string
	if err := json.Unmarshal(raw, &one); err == nil {
		return one
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err == nil && len(many) > 0 {
		return strings.Join(many, ",")
	}
	return ""
}
