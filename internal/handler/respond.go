// Package handler exposes the HTTP API.  Handlers bind and shape
// requests; the rules live in the service package.
package handler

import (
	"context"
	"errors"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/turf-slot-booking/internal/apperr"
)

// requestTimeout bounds the storage work done for one request.
const requestTimeout = 5 * time.Second

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// fail writes err as {"error": ...}.  Storage failures are logged and
// replaced with a generic message; conflicts also carry the start time.
func fail(c echo.Context, log *zap.Logger, err error) error {
	status := apperr.HTTPStatus(err)
	if status >= 500 {
		log.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
	}
	body := echo.Map{"error": apperr.PublicMessage(err)}
	var ce *apperr.ConflictError
	if errors.As(err, &ce) && ce.StartTime != "" {
		body["startTime"] = ce.StartTime
	}
	return c.JSON(status, body)
}

func orNop(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}
