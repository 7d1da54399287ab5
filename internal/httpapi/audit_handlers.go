package httpapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"archon/internal/archonerr"
	"archon/internal/catalog"
)

// registerAuditEndpoints wires §6's read-only audit surface (C13), admin
// and analyst roles only: auditing the catalog is itself privileged.
func registerAuditEndpoints(api *echo.Group, deps Deps) {
	g := api.Group("/audit", requireAuth(deps), requireRole(catalog.RoleAnalyst))
	g.GET("", listAuditHandler(deps))
	g.GET("/verify", verifyAuditHandler(deps), requireRole(catalog.RoleAdmin))
	g.GET("/document/:id", auditByDocumentHandler(deps))
}

func listAuditHandler(deps Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		limit, _ := strconv.Atoi(c.QueryParam("limit"))
		if limit <= 0 {
			limit = 100
		}
		offset, _ := strconv.Atoi(c.QueryParam("offset"))

		entries, err := deps.Store.ListAudit(c.Request().Context(), limit, offset)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, entries)
	}
}

// verifyAuditHandler walks the whole chain and reports where it breaks, if
// it does (§4.11's tamper-evidence promise).
func verifyAuditHandler(deps Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		result, err := deps.AuditChain.VerifyChain(c.Request().Context())
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, result)
	}
}

func auditByDocumentHandler(deps Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			return archonerr.Validation("invalid document id %q", c.Param("id"))
		}
		entries, err := deps.Store.ListAuditByDocument(c.Request().Context(), id)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, entries)
	}
}
