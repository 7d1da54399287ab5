package httpapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"archon/internal/archonerr"
	"archon/internal/audit"
	"archon/internal/catalog"
	"archon/internal/retrieve"
)

// registerSearchEndpoints wires §6's POST /search over the hybrid
// retriever (C11).
func registerSearchEndpoints(api *echo.Group, deps Deps) {
	g := api.Group("/search", requireAuth(deps))
	g.POST("", searchHandler(deps))
}

type searchRequest struct {
	Query          string   `json:"query"`
	Limit          int      `json:"limit"`
	Offset         int      `json:"offset"`
	SemanticWeight float64  `json:"semantic_weight"`
	FileTypes      []string `json:"file_types"`
	ScanIDs        []int64  `json:"scan_ids"`
}

func searchHandler(deps Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req searchRequest
		if err := c.Bind(&req); err != nil {
			return archonerr.Validation("malformed search request")
		}
		if req.Query == "" {
			return archonerr.Validation("query is required")
		}
		if req.Limit <= 0 {
			req.Limit = 20
		}

		fileTypes := make([]catalog.FileType, len(req.FileTypes))
		for i, t := range req.FileTypes {
			fileTypes[i] = catalog.FileType(t)
		}

		resp, err := deps.Retriever.Retrieve(c.Request().Context(), retrieve.Query{
			Text:           req.Query,
			Limit:          req.Limit,
			Offset:         req.Offset,
			SemanticWeight: req.SemanticWeight,
			FileTypes:      fileTypes,
			ScanIDs:        req.ScanIDs,
		}, time.Now)
		if err != nil {
			return err
		}

		appendAudit(c.Request().Context(), deps, audit.Entry{
			Action:  catalog.AuditSearchPerformed,
			UserIP:  c.RealIP(),
			Details: req.Query,
		})

		return c.JSON(http.StatusOK, map[string]any{
			"query":              resp.Query,
			"total_results":      resp.TotalResults,
			"results":            resp.Results,
			"processing_time_ms": resp.ProcessingTimeMs,
		})
	}
}
