package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/frameiq/agent-server/internal/agent/model"
	errx "github.com/frameiq/agent-server/internal/core/error"
	"github.com/frameiq/agent-server/internal/memory"
	"github.com/frameiq/agent-server/internal/service"
	logx "github.com/frameiq/agent-server/pkg/logger"
)

const maxQueryLength = 4000

// Handler serves the chat and session endpoints.
type Handler struct {
	service *service.TurnService
}

// ChatRequest is the JSON body of POST /api/v1/chat.
type ChatRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Query     string `json:"query"`
}

// Chat handles POST /api/v1/chat
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeTurnInput(w, r)
	if !ok {
		return
	}

	result, err := h.service.ProcessTurn(r.Context(), in)
	if err != nil {
		var appErr *errx.Error
		if errors.As(err, &appErr) && appErr.Kind == errx.KindRateLimit {
			w.Header().Set("Retry-After", fmt.Sprintf("%.0f", appErr.RetryAfter.Seconds()))
			writeJSON(w, http.StatusTooManyRequests, result)
			return
		}
		logx.Error().Err(err).Str("session_id", in.SessionID).Msg("Chat turn failed")
		writeError(w, http.StatusInternalServerError, errx.SystemErrorMessage)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// SessionInfoResponse is the JSON body of GET /api/v1/sessions/{id}.
type SessionInfoResponse struct {
	*memory.Session
	Summary string `json:"summary"`
}

// SessionInfo handles GET /api/v1/sessions/{id}
func (h *Handler) SessionInfo(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	sess, err := h.service.SessionInfo(r.Context(), sessionID)
	if err != nil {
		logx.Error().Err(err).Str("session_id", sessionID).Msg("Session lookup failed")
		writeError(w, http.StatusInternalServerError, errx.SystemErrorMessage)
		return
	}
	if sess == nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	writeJSON(w, http.StatusOK, SessionInfoResponse{
		Session: sess,
		Summary: memory.ContextSummary(sess),
	})
}

// HistoryMessage is one transcript entry in the history response.
type HistoryMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// HistoryResponse is the JSON body of GET /api/v1/sessions/{id}/history.
type HistoryResponse struct {
	SessionID string           `json:"session_id"`
	Messages  []HistoryMessage `json:"messages"`
}

// History handles GET /api/v1/sessions/{id}/history
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	history, err := h.service.History(r.Context(), sessionID)
	if err != nil {
		logx.Error().Err(err).Str("session_id", sessionID).Msg("History load failed")
		writeError(w, http.StatusInternalServerError, errx.SystemErrorMessage)
		return
	}

	resp := HistoryResponse{SessionID: sessionID, Messages: []HistoryMessage{}}
	for _, m := range history.Messages {
		if m == nil || m.Role == schema.System || m.Role == schema.Tool {
			continue
		}
		resp.Messages = append(resp.Messages, HistoryMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// ClearHistory handles DELETE /api/v1/sessions/{id}/history
func (h *Handler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	if err := h.service.ClearSession(r.Context(), sessionID); err != nil {
		logx.Error().Err(err).Str("session_id", sessionID).Msg("History clear failed")
		writeError(w, http.StatusInternalServerError, errx.SystemErrorMessage)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *Handler) decodeTurnInput(w http.ResponseWriter, r *http.Request) (model.TurnInput, bool) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return model.TurnInput{}, false
	}

	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return model.TurnInput{}, false
	}
	if len(req.Query) > maxQueryLength {
		writeError(w, http.StatusBadRequest, "query is too long")
		return model.TurnInput{}, false
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	return model.TurnInput{SessionID: req.SessionID, Query: req.Query}, true
}
