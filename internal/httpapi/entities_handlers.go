package httpapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"archon/internal/archonerr"
	"archon/internal/audit"
	"archon/internal/catalog"
)

// registerEntitiesEndpoints wires §6's entity extraction/graph surface
// (C8): read endpoints for any authenticated role, merge restricted to
// analyst and above since it mutates the catalog.
func registerEntitiesEndpoints(api *echo.Group, deps Deps) {
	g := api.Group("/entities", requireAuth(deps))
	g.GET("", listEntitiesHandler(deps))
	g.GET("/types", entityTypesHandler(deps))
	g.GET("/document/:id", entitiesByDocumentHandler(deps))
	g.GET("/graph", entityGraphHandler(deps))
	g.POST("/merge", mergeEntitiesHandler(deps), requireRole(catalog.RoleAnalyst))
}

// listEntitiesHandler implements GET /entities: a document-scoped listing,
// the same data entities/document/{id} serves, keyed by a query parameter
// instead of a path segment for callers that prefer it.
func listEntitiesHandler(deps Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		docParam := c.QueryParam("document_id")
		if docParam == "" {
			return archonerr.Validation("document_id query parameter is required")
		}
		id, err := strconv.ParseInt(docParam, 10, 64)
		if err != nil {
			return archonerr.Validation("invalid document_id %q", docParam)
		}
		entities, err := deps.Store.ListEntitiesByDocument(c.Request().Context(), id)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, entities)
	}
}

func entityTypesHandler(deps Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		types, err := deps.Store.ListEntityTypes(c.Request().Context())
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, types)
	}
}

func entitiesByDocumentHandler(deps Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			return archonerr.Validation("invalid document id %q", c.Param("id"))
		}
		entities, err := deps.Store.ListEntitiesByDocument(c.Request().Context(), id)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, entities)
	}
}

func entityGraphHandler(deps Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		filter := catalog.EntityGraphFilter{
			ProjectPath: c.QueryParam("project_path"),
			Focus:       c.QueryParam("focus"),
		}
		if t := c.QueryParam("entity_type"); t != "" {
			et := catalog.EntityType(t)
			filter.EntityType = &et
		}
		if mc := c.QueryParam("min_count"); mc != "" {
			n, err := strconv.Atoi(mc)
			if err != nil {
				return archonerr.Validation("invalid min_count %q", mc)
			}
			filter.MinCount = n
		}
		filter.Limit = 200
		if l := c.QueryParam("limit"); l != "" {
			n, err := strconv.Atoi(l)
			if err != nil {
				return archonerr.Validation("invalid limit %q", l)
			}
			filter.Limit = n
		}

		edges, err := deps.Store.EntityGraph(c.Request().Context(), filter)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, edges)
	}
}

type mergeEntitiesRequest struct {
	FromText string `json:"from_text"`
	ToText   string `json:"to_text"`
}

// mergeEntitiesHandler implements §4.9's analyst-driven entity dedup: every
// occurrence of FromText is relabeled to ToText, and the number of rows
// affected is returned so a caller can confirm the merge had effect.
func mergeEntitiesHandler(deps Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req mergeEntitiesRequest
		if err := c.Bind(&req); err != nil {
			return archonerr.Validation("malformed merge request")
		}
		if req.FromText == "" || req.ToText == "" {
			return archonerr.Validation("from_text and to_text are both required")
		}

		affected, err := deps.Store.MergeEntities(c.Request().Context(), req.FromText, req.ToText)
		if err != nil {
			return err
		}

		appendAudit(c.Request().Context(), deps, audit.Entry{
			Action:  catalog.AuditEntityMerged,
			Details: req.FromText + " -> " + req.ToText,
			UserIP:  c.RealIP(),
		})
		return c.JSON(http.StatusOK, map[string]any{"rows_affected": affected})
	}
}
