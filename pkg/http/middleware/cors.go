package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	AllowOrigins  []string
	AllowMethods  []string // defaults to the methods the API serves
	AllowHeaders  []string
	ExposeHeaders []string
	MaxAge        time.Duration // preflight cache, zero omits the header
}

var defaultCORSMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}

// CORS returns CORS middleware. Disallowed origins get no CORS headers and
// their preflights fall through to routing.
func CORS(cfg CORSConfig) echo.MiddlewareFunc {
	methods := cfg.AllowMethods
	if len(methods) == 0 {
		methods = defaultCORSMethods
	}
	allowMethods := strings.Join(methods, ", ")
	allowHeaders := strings.Join(cfg.AllowHeaders, ", ")
	exposeHeaders := strings.Join(cfg.ExposeHeaders, ", ")
	maxAge := ""
	if cfg.MaxAge > 0 {
		maxAge = strconv.Itoa(int(cfg.MaxAge.Seconds()))
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Add(echo.HeaderVary, echo.HeaderOrigin)

			origin := c.Request().Header.Get(echo.HeaderOrigin)
			if origin == "" {
				return next(c)
			}
			allowOrigin, ok := allowedOrigin(cfg.AllowOrigins, origin)
			if !ok {
				return next(c)
			}
			h.Set(echo.HeaderAccessControlAllowOrigin, allowOrigin)
			if exposeHeaders != "" {
				h.Set(echo.HeaderAccessControlExposeHeaders, exposeHeaders)
			}

			preflight := c.Request().Method == http.MethodOptions &&
				c.Request().Header.Get(echo.HeaderAccessControlRequestMethod) != ""
			if !preflight {
				return next(c)
			}
			h.Set(echo.HeaderAccessControlAllowMethods, allowMethods)
			if allowHeaders != "" {
				h.Set(echo.HeaderAccessControlAllowHeaders, allowHeaders)
			}
			if maxAge != "" {
				h.Set(echo.HeaderAccessControlMaxAge, maxAge)
			}
			return c.NoContent(http.StatusNoContent)
		}
	}
}

// allowedOrigin returns the value for Access-Control-Allow-Origin. An empty
// list or a "*" entry allows every origin.
func allowedOrigin(allow []string, origin string) (string, bool) {
	if len(allow) == 0 {
		return "*", true
	}
	for _, o := range allow {
		if o == "*" {
			return "*", true
		}
		if strings.EqualFold(o, origin) {
			return origin, true
		}
	}
	return "", false
}
