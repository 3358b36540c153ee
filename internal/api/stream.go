package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"docwiz/internal/notify"
)

const streamWriteTimeout = 10 * time.Second

// stream pushes session events over a websocket: first the retained
// history, then live events until the client leaves or the session closes.
func (h *Handler) stream(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPattern,
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "session", s.ID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "stream ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr, "session", s.ID)
		}
	}()

	events, cancelSub := s.Feed().Subscribe(64)
	defer cancelSub()

	// Reads only detect the client going away.
	ctx := ws.CloseRead(r.Context())

	var last uint64
	for _, ev := range s.Feed().Since(0) {
		if err := writeEvent(ctx, ws, ev); err != nil {
			return
		}
		last = ev.Seq
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev, open := <-events:
			if !open {
				return
			}
			if ev.Seq <= last {
				continue
			}
			if err := writeEvent(ctx, ws, ev); err != nil {
				slog.Debug("WebSocket write failed", "error", err, "session", s.ID)
				return
			}
		}
	}
}

func writeEvent(ctx context.Context, ws *websocket.Conn, ev notify.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, streamWriteTimeout)
	defer cancel()
	return ws.Write(ctx, websocket.MessageText, data)
}
