package http

import (
	"errors"
	"net/http"

	"github.com/jmehdipour/ivr-gateway/internal/config"
	"github.com/jmehdipour/ivr-gateway/internal/provider"
	"github.com/jmehdipour/ivr-gateway/internal/service/trigger"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type makeCallReq struct {
	PhoneNumber string `json:"phoneNumber" form:"phoneNumber"`
}

// makeCallHandler accepts a JSON or form-encoded body. Provider failures are
// logged by the trigger service; only unexpected errors are logged here.
func makeCallHandler(svc *trigger.Service, log *zap.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req makeCallReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]any{"success": false, "error": "bad request"})
		}

		res, err := svc.Trigger(c.Request().Context(), req.PhoneNumber)
		if err != nil {
			var (
				merr *config.MissingError
				perr *provider.Error
			)
			switch {
			case errors.Is(err, trigger.ErrEmptyNumber), errors.Is(err, trigger.ErrInvalidNumber):
				return c.JSON(http.StatusBadRequest, map[string]any{
					"success": false,
					"error":   trigger.UserMessage(err),
				})
			case errors.As(err, &merr):
				return c.JSON(http.StatusInternalServerError, map[string]any{
					"success": false,
					"error":   "Server configuration error: " + merr.Error(),
					"missing": merr.Keys,
				})
			case errors.As(err, &perr):
				body := map[string]any{
					"success": false,
					"error":   perr.Message,
				}
				if perr.Status > 0 {
					body["statusCode"] = perr.Status
				}
				return c.JSON(http.StatusBadGateway, body)
			}

			log.Error("make-call failed", zap.Error(err))

			return c.JSON(http.StatusInternalServerError, map[string]any{"success": false, "error": "Failed to initiate call"})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"success":  true,
			"message":  "Call initiated successfully",
			"callUuid": res.RequestUUID,
			"apiId":    res.APIID,
			"region":   res.Region,
		})
	}
}
