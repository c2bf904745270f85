package http

import (
	"sort"

	applogger "DarkPull/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Handler registers the service routes on the server's Echo instance.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}

// RouteTable lists "METHOD path" for every registered route, sorted.
// Middleware-only entries (echo's "*" routes) are skipped.
func RouteTable(e *echo.Echo) []string {
	var out []string
	for _, r := range e.Routes() {
		if r.Method == echo.RouteNotFound || r.Path == "/*" {
			continue
		}
		out = append(out, r.Method+" "+r.Path)
	}
	sort.Strings(out)
	return out
}

func logRoutes(l *applogger.Logger, e *echo.Echo) {
	for _, r := range RouteTable(e) {
		l.Debug("route registered", applogger.String("route", r))
	}
}
