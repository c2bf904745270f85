package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	applogger "DarkPull/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Recover turns a handler panic into an error for the server's error
// handler, which answers with an opaque 500 envelope.
func Recover(l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				if r == http.ErrAbortHandler {
					panic(r)
				}
				perr, ok := r.(error)
				if !ok {
					perr = fmt.Errorf("%v", r)
				}
				l.Error("panic recovered",
					applogger.Error(perr),
					applogger.String("route", RouteLabel(c)),
					applogger.String("path", c.Request().URL.Path),
					applogger.String("stack", string(debug.Stack())),
				)
				err = fmt.Errorf("panic: %w", perr)
			}()
			return next(c)
		}
	}
}
