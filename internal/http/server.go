package http

import (
	"context"
	"net/http"

	"github.com/jmehdipour/ivr-gateway/internal/config"
	"github.com/jmehdipour/ivr-gateway/internal/events"
	"github.com/jmehdipour/ivr-gateway/internal/http/middleware"
	"github.com/jmehdipour/ivr-gateway/internal/ivr"
	"github.com/jmehdipour/ivr-gateway/internal/metrics"
	"github.com/jmehdipour/ivr-gateway/internal/provider"
	"github.com/jmehdipour/ivr-gateway/internal/service/trigger"
	"github.com/labstack/echo/v4"
	echoMid "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	e   *echo.Echo
	log *zap.Logger
}

// NewServer wires the webhook, trigger and status routes. rds may be nil,
// which disables Idempotency-Key handling.
func NewServer(cfg config.Config, prov provider.Provider, sink events.Sink, rds *redis.Client, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}

	// services
	menu := ivr.NewMenu(cfg.PublicURL, cfg.Menu.Voice, cfg.Menu.TimeoutSec, cfg.Menu.Retries)
	triggerSvc := trigger.New(cfg, prov, log.Named("trigger"))
	hooks := newWebhooks(menu, prov, sink, log.Named("webhook"))

	// echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echoMid.Recover(), middleware.RequestID(), middleware.RequestLogger(log.Named("http")))

	metrics.MustRegister(prometheus.DefaultRegisterer)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// health
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/health", healthHandler(cfg))
	e.GET("/", func(c echo.Context) error { return c.Redirect(http.StatusFound, "/health") })

	// middlewares
	var store middleware.Store
	if rds != nil {
		store = middleware.NewRedisStore(rds, cfg.Idempotency.KeyPrefix)
	}
	idemMW := middleware.IdempotencyMiddleware(middleware.IdempotencyConfig{
		Store: store,
		TTL:   cfg.Idempotency.TTL,
	})

	// routes
	e.POST("/make-call", makeCallHandler(triggerSvc, log.Named("make-call")), idemMW)

	methods := []string{http.MethodGet, http.MethodPost}
	e.Match(methods, ivr.PathAnswer, hooks.answer)
	e.Match(methods, ivr.PathLanguage, hooks.language)
	e.Match(methods, ivr.PathAction, hooks.action)
	e.Match(methods, ivr.PathInvalid, hooks.invalid)
	e.Match(methods, ivr.PathHangup, hooks.hangup)

	return &Server{e: e, log: log}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.e }

func (s *Server) Start(addr string) error {
	s.log.Info("http: listening", zap.String("addr", addr))
	return s.e.Start(addr)
}
func (s *Server) Shutdown(ctx context.Context) error { return s.e.Shutdown(ctx) }
