package httpapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"archon/internal/archonerr"
	"archon/internal/audit"
	"archon/internal/catalog"
)

// registerScanEndpoints wires §6's scan lifecycle surface, grounded on
// routes.go's group-per-concern registration.
func registerScanEndpoints(api *echo.Group, deps Deps) {
	g := api.Group("/scan", requireAuth(deps))
	g.POST("", createScanHandler(deps), requireRole(catalog.RoleAnalyst))
	g.POST("/estimate", estimateScanHandler(deps), requireRole(catalog.RoleAnalyst))
	g.GET("", listScansHandler(deps))
	g.GET("/:id", getScanHandler(deps))
	g.GET("/:id/progress", scanProgressHandler(deps))
	g.POST("/:id/cancel", cancelScanHandler(deps), requireRole(catalog.RoleAnalyst))
	g.POST("/:id/resume", resumeScanHandler(deps), requireRole(catalog.RoleAnalyst))
	g.DELETE("/:id", deleteScanHandler(deps), requireRole(catalog.RoleAdmin))
}

func scanIDParam(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, archonerr.Validation("invalid scan id %q", c.Param("id"))
	}
	return id, nil
}

type createScanRequest struct {
	Path             string `json:"path"`
	EnableEmbeddings bool   `json:"enable_embeddings"`
}

// createScanHandler implements POST /scan: deduplicates against any
// pending/running scan of the same path as given in the request before
// creating a new one
// and enqueuing it on the worker pool.
func createScanHandler(deps Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req createScanRequest
		if err := c.Bind(&req); err != nil {
			return archonerr.Validation("malformed scan request")
		}
		if req.Path == "" {
			return archonerr.Validation("path is required")
		}
		if err := deps.Scanner.ValidateRoot(req.Path); err != nil {
			return err
		}

		ctx := c.Request().Context()
		if existing, err := deps.Store.FindPendingOrRunningScanByPath(ctx, req.Path); err == nil && existing != nil {
			return c.JSON(http.StatusOK, existing)
		}

		s, err := deps.Store.CreateScan(ctx, req.Path, req.EnableEmbeddings)
		if err != nil {
			return err
		}

		scanID := s.ID
		appendAudit(ctx, deps, audit.Entry{Action: catalog.AuditScanCreated, ScanID: &scanID})

		deps.Pool.Enqueue(s.ID, false)
		return c.JSON(http.StatusCreated, s)
	}
}

func estimateScanHandler(deps Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		path := c.QueryParam("path")
		if path == "" {
			return archonerr.Validation("path query parameter is required")
		}
		est, err := deps.Scanner.Estimate(c.Request().Context(), path)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, map[string]any{
			"file_count":  est.FileCount,
			"size_mb":     est.SizeMB,
			"type_counts": est.TypeCounts,
			"embedding_estimate": map[string]any{
				"tokens":             est.EmbeddingTokens,
				"cost_usd":           est.EmbeddingCostUSD,
				"free_tier_available": est.FreeTierOK,
				"note":               est.Note,
			},
		})
	}
}

func listScansHandler(deps Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		scans, err := deps.Store.ListScans(c.Request().Context())
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, scans)
	}
}

func getScanHandler(deps Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := scanIDParam(c)
		if err != nil {
			return err
		}
		s, err := deps.Store.GetScan(c.Request().Context(), id)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, s)
	}
}

// scanProgressHandler serves a single snapshot for callers that don't need
// the WS stream (GET /scan/{id}/progress).
func scanProgressHandler(deps Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := scanIDParam(c)
		if err != nil {
			return err
		}
		event, ok := deps.Progress.Snapshot(c.Request().Context(), id)
		if !ok {
			return archonerr.NotFound("no progress recorded for scan %d", id)
		}
		return c.JSON(http.StatusOK, event)
	}
}

func cancelScanHandler(deps Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := scanIDParam(c)
		if err != nil {
			return err
		}
		deps.Pool.Cancel(id)
		return c.NoContent(http.StatusAccepted)
	}
}

func resumeScanHandler(deps Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := scanIDParam(c)
		if err != nil {
			return err
		}
		s, err := deps.Store.GetScan(c.Request().Context(), id)
		if err != nil {
			return err
		}
		if s.Status == catalog.ScanRunning {
			return archonerr.Conflict("scan %d is already running", id)
		}
		deps.Pool.Enqueue(id, true)
		return c.NoContent(http.StatusAccepted)
	}
}

func deleteScanHandler(deps Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := scanIDParam(c)
		if err != nil {
			return err
		}
		ctx := c.Request().Context()
		if _, err := deps.Store.GetScan(ctx, id); err != nil {
			return err
		}
		deps.Pool.Cancel(id)
		if err := deps.Store.DeleteDocumentsByScan(ctx, id); err != nil {
			return err
		}
		if err := deps.Store.DeleteScan(ctx, id); err != nil {
			return err
		}
		return c.NoContent(http.StatusNoContent)
	}
}

// appendAudit is a best-effort audit write shared by every handler that
// needs one; a failure to append never fails the request it's attached to.
func appendAudit(ctx context.Context, deps Deps, e audit.Entry) {
	if deps.AuditChain == nil {
		return
	}
	_, _ = deps.AuditChain.Append(ctx, e)
}
