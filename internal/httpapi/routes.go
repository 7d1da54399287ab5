package httpapi

import "github.com/labstack/echo/v4"

// registerRoutes wires every concern's route group onto the root echo
// instance, grounded on root routes.go's dispatch table (one
// register<Concern>Endpoints call per concern, nothing routed directly off
// NewServer). Paths are unprefixed per §6 (/scan, /search, /chat, ...).
func registerRoutes(e *echo.Echo, deps Deps) {
	api := e.Group("")

	registerAuthEndpoints(api, deps)
	registerScanEndpoints(api, deps)
	registerSearchEndpoints(api, deps)
	registerChatEndpoints(api, deps)
	registerAuditEndpoints(api, deps)
	registerEntitiesEndpoints(api, deps)

	registerWSEndpoints(e, deps)
}
