// Package httpapi exposes Archon's HTTP surface (§6): auth, scan
// lifecycle, hybrid search, RAG chat, audit, and entity graph endpoints
// over an echo router, grounded on root routes.go's/handlers.go's
// echo-group-per-concern layout and auth_handlers.go's JWT middleware
// wiring, replacing root's playground/prompt/dataset surface.
package httpapi

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"archon/internal/archonerr"
	"archon/internal/audit"
	"archon/internal/auth"
	"archon/internal/catalog"
	"archon/internal/chat"
	"archon/internal/config"
	"archon/internal/logging"
	"archon/internal/progress"
	"archon/internal/ratelimit"
	"archon/internal/retrieve"
	"archon/internal/scan"
)

// Deps collects every collaborator the HTTP layer dispatches to. It is
// assembled once at startup (main) and threaded through route registration,
// mirroring root's *Config-threaded handler functions but with narrow,
// already-constructed collaborators instead of one do-everything config
// struct.
type Deps struct {
	Config      *config.Config
	Store       catalog.Store
	AuthService *auth.Service
	Scanner     *scan.Orchestrator
	Pool        *scan.Pool
	Progress    *progress.Bus
	Retriever   *retrieve.Retriever
	Chat        *chat.Engine
	AuditChain  *audit.Chain
	RateLimiter *ratelimit.Limiter
}

// NewServer builds the echo router: ambient middleware, the shared error
// handler translating archonerr kinds to status codes, and the full route
// tree.
func NewServer(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = errorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(requestLoggerMiddleware())
	e.Use(rateLimitMiddleware(deps.RateLimiter))

	registerRoutes(e, deps)
	return e
}

// requestLoggerMiddleware logs each request via the shared logrus logger
// instead of echo's default stdout writer, matching the rest of Archon's
// structured logging.
func requestLoggerMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			entry := logging.Log.WithFields(map[string]any{
				"method": c.Request().Method,
				"path":   c.Request().URL.Path,
				"status": c.Response().Status,
			})
			if err != nil {
				entry.WithError(err).Warn("request failed")
			} else {
				entry.Debug("request handled")
			}
			return err
		}
	}
}

// errorHandler is echo's HTTPErrorHandler: it translates an *archonerr.Error
// (or a plain echo.HTTPError, e.g. from echo-jwt) into the JSON error body
// every handler below gets for free by just returning an error.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := archonerr.StatusCode(archonerr.KindOf(err))
	message := err.Error()
	if he, ok := err.(*echo.HTTPError); ok {
		status = he.Code
		if msg, ok := he.Message.(string); ok {
			message = msg
		}
	}

	if werr := c.JSON(status, map[string]string{"error": message}); werr != nil {
		logging.Log.WithError(werr).Error("failed to write error response")
	}
}
