package ratelimit

import (
	"strconv"

	xhttp "DarkPull/pkg/http"

	"github.com/labstack/echo/v4"
)

// Middleware limits requests per client IP. A non-positive capacity disables it.
// Rejections use the standard error envelope with a Retry-After hint.
func Middleware(l *Limiter, capacity, refillPerSec float64) echo.MiddlewareFunc {
	retryAfter := "1"
	if refillPerSec > 0 && refillPerSec < 1 {
		retryAfter = strconv.Itoa(int(1/refillPerSec + 0.5))
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if capacity <= 0 {
				return next(c)
			}
			if !l.Allow(c.RealIP(), capacity, refillPerSec) {
				c.Response().Header().Set(echo.HeaderRetryAfter, retryAfter)
				return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("rate limit exceeded"))
			}
			return next(c)
		}
	}
}
