package http

import (
	"net/http"

	"github.com/jmehdipour/ivr-gateway/internal/config"
	"github.com/labstack/echo/v4"
)

const notConfigured = "Not configured"

func orNotConfigured(s string) string {
	if s == "" {
		return notConfigured
	}
	return s
}

func healthHandler(cfg config.Config) echo.HandlerFunc {
	missing := cfg.Missing()
	if missing == nil {
		missing = []string{}
	}
	body := map[string]any{
		"status":  "OK",
		"message": "IVR Server is running",
		"config": map[string]any{
			"port":        cfg.Port(),
			"provider":    cfg.Provider.Name,
			"phoneNumber": orNotConfigured(cfg.Provider.PhoneNumber),
			"publicUrl":   orNotConfigured(cfg.PublicURL),
			"missing":     missing,
		},
		"endpoints": map[string]string{
			"makeCall": "POST /make-call",
			"answer":   "POST /answer",
			"language": "POST /language",
			"action":   "POST /action",
			"invalid":  "POST /invalid",
			"hangup":   "POST /hangup",
		},
	}
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, body)
	}
}
