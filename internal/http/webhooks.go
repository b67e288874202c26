package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jmehdipour/ivr-gateway/internal/events"
	"github.com/jmehdipour/ivr-gateway/internal/ivr"
	"github.com/jmehdipour/ivr-gateway/internal/markup"
	"github.com/jmehdipour/ivr-gateway/internal/metrics"
	"github.com/jmehdipour/ivr-gateway/internal/model"
	"github.com/jmehdipour/ivr-gateway/internal/provider"
	"github.com/jmehdipour/ivr-gateway/internal/util"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// webhooks answers provider callbacks. Every handler is stateless; the only
// carried value is the lang query on level-2 URLs.
type webhooks struct {
	menu    *ivr.Menu
	dialect markup.Dialect
	fields  provider.Fields
	name    string
	sink    events.Sink
	log     *zap.Logger
}

func newWebhooks(menu *ivr.Menu, p provider.Provider, sink events.Sink, log *zap.Logger) *webhooks {
	return &webhooks{
		menu:    menu,
		dialect: p.Dialect(),
		fields:  p.Fields(),
		name:    p.Name(),
		sink:    sink,
		log:     log,
	}
}

func (h *webhooks) render(c echo.Context, r *markup.Response) error {
	out, err := h.dialect.Render(r)
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, markup.ContentType, out)
}

func (h *webhooks) answer(c echo.Context) error {
	metrics.WebhooksTotal.WithLabelValues("answer").Inc()
	h.log.Info("call answered",
		zap.String("call_id", c.FormValue(h.fields.CallID)),
		zap.String("from", c.FormValue(h.fields.From)),
		zap.String("to", c.FormValue(h.fields.To)),
	)
	return h.render(c, h.menu.Answer())
}

func (h *webhooks) language(c echo.Context) error {
	metrics.WebhooksTotal.WithLabelValues("language").Inc()

	digits, present := h.digits(c)
	r, lang, ok := h.menu.Language(digits, present, c.QueryParam("lang"))
	choice := "invalid"
	if ok {
		choice = lang.String()
	}
	metrics.MenuSelections.WithLabelValues("language", choice).Inc()

	h.log.Info("language selection",
		zap.String("call_id", c.FormValue(h.fields.CallID)),
		zap.String("digits", digits),
		zap.Bool("valid", ok),
		zap.String("language", langName(lang, ok)),
	)
	return h.render(c, r)
}

func (h *webhooks) action(c echo.Context) error {
	metrics.WebhooksTotal.WithLabelValues("action").Inc()

	digits, _ := h.digits(c)
	r, choice := h.menu.Action(digits, c.QueryParam("lang"))
	metrics.MenuSelections.WithLabelValues("action", choice).Inc()

	h.log.Info("menu action",
		zap.String("call_id", c.FormValue(h.fields.CallID)),
		zap.String("digits", digits),
		zap.String("language", model.LanguageFromQuery(c.QueryParam("lang")).Name()),
		zap.String("choice", choice),
	)
	return h.render(c, r)
}

func (h *webhooks) invalid(c echo.Context) error {
	metrics.WebhooksTotal.WithLabelValues("invalid").Inc()
	h.log.Warn("invalid input", zap.String("call_id", c.FormValue(h.fields.CallID)))
	return h.render(c, h.menu.Invalid())
}

func (h *webhooks) hangup(c echo.Context) error {
	metrics.WebhooksTotal.WithLabelValues("hangup").Inc()

	duration, err := strconv.Atoi(strings.TrimSpace(c.FormValue(h.fields.Duration)))
	if err != nil {
		duration = 0
	}
	ev := model.CallEnded{
		ID:         util.NewID(),
		Provider:   h.name,
		CallID:     c.FormValue(h.fields.CallID),
		From:       c.FormValue(h.fields.From),
		To:         c.FormValue(h.fields.To),
		Duration:   duration,
		EndTime:    c.FormValue(h.fields.EndTime),
		ReceivedAt: time.Now().UTC(),
	}
	metrics.CallDuration.Observe(float64(duration))

	if err := h.sink.Publish(c.Request().Context(), ev); err != nil {
		h.log.Warn("call event not exported", zap.String("call_id", ev.CallID), zap.Error(err))
	}
	return c.NoContent(http.StatusOK)
}

// digits returns the collected digits and whether the field was sent at all.
func (h *webhooks) digits(c echo.Context) (string, bool) {
	params, err := c.FormParams()
	if err != nil {
		return "", false
	}
	vals, ok := params[h.fields.Digits]
	if !ok || len(vals) == 0 {
		return "", false
	}
	return strings.TrimSpace(vals[0]), true
}

func langName(l model.Language, ok bool) string {
	if !ok {
		return ""
	}
	return l.Name()
}
