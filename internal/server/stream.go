package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/frameiq/agent-server/internal/agent/model"
	logx "github.com/frameiq/agent-server/pkg/logger"
	"github.com/frameiq/agent-server/pkg/metrics"
)

// ChatStream handles POST /api/v1/chat/stream
// The turn runs exactly as in Chat, but each pipeline stage is pushed as an
// SSE event as it executes, ending with a "done" event that carries the
// final reply and any media payload.
func (h *Handler) ChatStream(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeTurnInput(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	// SSE connections outlive the server write timeout
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		logx.Debug().Err(err).Msg("Could not clear write deadline for SSE")
	}

	metrics.IncrementSSEConnections()
	defer metrics.DecrementSSEConnections()

	sendSSEEvent(w, flusher, "connected", map[string]string{
		"session_id": in.SessionID,
	})

	result, err := h.service.ProcessTurnStream(r.Context(), in, func(ev model.StageEvent) {
		select {
		case <-r.Context().Done():
			return
		default:
		}
		if ev.Done {
			return // final event is sent below with the full result
		}
		sendSSEEvent(w, flusher, "stage", ev)
	})
	if err != nil {
		logx.Warn().Err(err).Str("session_id", in.SessionID).Msg("Streamed turn rejected")
	}
	if result == nil {
		sendSSEEvent(w, flusher, "error", map[string]string{"error": "turn failed"})
		return
	}

	sendSSEEvent(w, flusher, "done", result)
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		logx.Error().Err(err).Str("event", event).Msg("Failed to marshal SSE event")
		return
	}

	fmt.Fprintf(w, "event: %s\n", event)
	fmt.Fprintf(w, "data: %s\n\n", payload)
	flusher.Flush()
}
