package http

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/lexcouncil/lexcouncil/internal/hub"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsReadTimeout  = 60 * time.Second
	wsPingInterval = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WatchRun streams a run's transcript over WebSocket.
// GET /v1/runs/:run_id/ws
func (h *Handler) WatchRun(c echo.Context) error {
	runID := c.Param("run_id")

	run, err := h.service.GetRun(c.Request().Context(), runID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if run == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "run not found"})
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade websocket")
		return err
	}

	sub := h.hub.NewSubscriber(ws, runID)
	h.hub.Register(sub)

	go h.writePump(sub)
	go h.readPump(sub)

	return nil
}

// readPump drains client frames so close and pong handling work. Clients
// send nothing meaningful; the stream is one-way.
func (h *Handler) readPump(sub *hub.Subscriber) {
	defer func() {
		h.hub.Unregister(sub)
		sub.Close()
	}()

	sub.Conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	sub.Conn.SetPongHandler(func(string) error {
		sub.Conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		return nil
	})

	for {
		if _, _, err := sub.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debug().Err(err).Msg("websocket read error")
			}
			return
		}
	}
}

// writePump pushes hub events to the client and keeps the connection alive.
func (h *Handler) writePump(sub *hub.Subscriber) {
	ticker := time.NewTicker(wsPingInterval)
	defer func() {
		ticker.Stop()
		sub.Close()
	}()

	for {
		select {
		case message, ok := <-sub.Send:
			sub.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if !ok {
				sub.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := sub.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Debug().Err(err).Msg("websocket write error")
				return
			}

		case <-ticker.C:
			sub.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := sub.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
