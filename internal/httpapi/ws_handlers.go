package httpapi

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"archon/internal/catalog"
	"archon/internal/progress"
	"archon/internal/scan"
)

// upgrader allows any origin: Archon's WS endpoint carries no credentials
// of its own beyond what the caller already holds, and is consumed by the
// same frontend the REST API serves.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// registerWSEndpoints wires WS /ws/scan/{id} (§6): the server emits a
// {"type":"progress", data:{...}} frame every ~500ms and exactly one
// terminal {"type":"complete", data:{...}} or {"type":"error", ...} frame,
// grounded on internal/progress.Bus.Poll's at-least-once, terminal-last
// delivery contract.
func registerWSEndpoints(e *echo.Echo, deps Deps) {
	e.GET("/ws/scan/:id", scanProgressWSHandler(deps))
}

type wsFrame struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

func scanProgressWSHandler(deps Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := scanIDParam(c)
		if err != nil {
			return err
		}

		conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			return err
		}
		defer conn.Close()

		send := func(event scan.ProgressEvent) error {
			frame := wsFrame{Type: "progress", Data: event}
			if event.Terminal {
				frame.Type = "complete"
				if event.Status == string(catalog.ScanFailed) {
					frame.Type = "error"
				}
			}
			return conn.WriteJSON(frame)
		}

		ctx := c.Request().Context()
		if err := deps.Progress.Poll(ctx, id, progress.DefaultPollInterval, send); err != nil {
			_ = conn.WriteJSON(wsFrame{Type: "error", Data: map[string]string{"message": err.Error()}})
		}
		return nil
	}
}
