package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"archon/internal/archonerr"
	"archon/internal/audit"
	"archon/internal/catalog"
	"archon/internal/chat"
)

// registerChatEndpoints wires §6's POST /chat and POST /chat/stream over
// the RAG chat engine (C12), grounded on root stream_agents.go's SSE
// write-loop for the streaming path.
func registerChatEndpoints(api *echo.Group, deps Deps) {
	g := api.Group("/chat", requireAuth(deps))
	g.POST("", chatHandler(deps))
	g.POST("/stream", chatStreamHandler(deps))
}

type chatRequest struct {
	Message        string `json:"message"`
	UseRAG         bool   `json:"use_rag"`
	ContextLimit   int    `json:"context_limit"`
	IncludeHistory bool   `json:"include_history"`
}

func bindChatRequest(c echo.Context) (chat.Request, error) {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return chat.Request{}, archonerr.Validation("malformed chat request")
	}
	if req.Message == "" {
		return chat.Request{}, archonerr.Validation("message is required")
	}
	return chat.Request{
		SessionID:      c.Request().Header.Get("X-Session-Id"),
		Message:        req.Message,
		UseRAG:         req.UseRAG,
		ContextLimit:   req.ContextLimit,
		IncludeHistory: req.IncludeHistory,
	}, nil
}

func contextsPayload(contexts []chat.Context) []map[string]any {
	out := make([]map[string]any, len(contexts))
	for i, ctx := range contexts {
		snippet := ctx.Snippet
		if len(snippet) > 500 {
			snippet = snippet[:500]
		}
		out[i] = map[string]any{
			"document_id":     ctx.DocumentID,
			"file_name":       ctx.FileName,
			"snippet":         snippet,
			"relevance_score": ctx.Score,
		}
	}
	return out
}

func chatHandler(deps Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		req, err := bindChatRequest(c)
		if err != nil {
			return err
		}

		resp, err := deps.Chat.Chat(c.Request().Context(), req)
		if err != nil {
			return err
		}

		appendAudit(c.Request().Context(), deps, audit.Entry{
			Action: catalog.AuditChatMessage,
			UserIP: c.RealIP(),
		})

		return c.JSON(http.StatusOK, map[string]any{
			"response":      resp.Answer,
			"contexts":      contextsPayload(resp.Contexts),
			"message_count": deps.Chat.MessageCount(req.SessionID),
			"rag_enabled":   deps.Chat.RAGEnabled(),
		})
	}
}

// chatStreamHandler emits SSE `data: {"token":"..."}\n\n` lines and a
// terminal `data: {"done":true, "contexts":[...], "message_count":N}\n\n`
// line, grounded on stream_agents.go's write-then-flush SSE loop.
func chatStreamHandler(deps Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		req, err := bindChatRequest(c)
		if err != nil {
			return err
		}

		resp := c.Response()
		resp.Header().Set(echo.HeaderContentType, "text/event-stream")
		resp.Header().Set("Cache-Control", "no-cache")
		resp.Header().Set("Connection", "keep-alive")
		resp.WriteHeader(http.StatusOK)

		onToken := func(tok string) error {
			if _, err := fmt.Fprintf(resp, "data: {\"token\":%q}\n\n", tok); err != nil {
				return err
			}
			resp.Flush()
			return nil
		}

		result, err := deps.Chat.ChatStream(c.Request().Context(), req, onToken)
		if err != nil {
			fmt.Fprintf(resp, "data: {\"error\":%q}\n\n", err.Error())
			resp.Flush()
			return nil
		}

		contextsJSON, err := json.Marshal(contextsPayload(result.Contexts))
		if err != nil {
			contextsJSON = []byte("[]")
		}
		fmt.Fprintf(resp, "data: {\"done\":true,\"contexts\":%s,\"message_count\":%d}\n\n",
			contextsJSON, deps.Chat.MessageCount(req.SessionID))
		resp.Flush()

		appendAudit(c.Request().Context(), deps, audit.Entry{
			Action: catalog.AuditChatMessage,
			UserIP: c.RealIP(),
		})
		return nil
	}
}
