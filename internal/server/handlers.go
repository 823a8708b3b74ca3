package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/mdelehaye/cvchat/internal/config"
	"github.com/mdelehaye/cvchat/internal/cv"
	"github.com/mdelehaye/cvchat/internal/session"
	"github.com/mdelehaye/cvchat/pkg/types"
)

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

type chatResponse struct {
	Response       string   `json:"response"`
	Sources        []string `json:"sources"`
	SessionID      string   `json:"session_id"`
	ConversationID string   `json:"conversation_id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":        s.cfg.App.Name,
		"version":     config.Version,
		"description": "Conversational API for exploring Mathieu Delehaye's CV",
		"docs":        "/docs",
		"endpoints": map[string]string{
			"POST /chat":            "Ask a question about the CV",
			"GET /sample-questions": "Suggested questions to try",
			"GET /health":           "Service health",
			"POST /reset-session":   "Clear a conversation session",
			"GET /active-sessions":  "List active session IDs",
		},
		"privacy": "Conversations are kept in memory only and expire automatically.",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.llm.Available(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   config.Version,
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := s.engine.Chat(r.Context(), req.SessionID, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, types.ErrEmptyMessage):
			writeError(w, http.StatusBadRequest, "message must not be empty")
		case errors.Is(err, types.ErrMessageTooLong):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			slog.Error("chat failed", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to process message")
		}
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Response:       result.Answer,
		Sources:        result.Sources,
		SessionID:      result.SessionID,
		ConversationID: result.SessionID,
	})
}

func (s *Server) handleSampleQuestions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"sample_questions": cv.SampleQuestions,
	})
}

func (s *Server) handleResetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id query parameter is required")
		return
	}

	err := s.sessions.Delete(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeJSON(w, http.StatusOK, map[string]any{
				"message": "session not found or already cleared",
			})
			return
		}
		slog.Error("failed to reset session", "session", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to reset session")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "session cleared",
	})
}

func (s *Server) handleActiveSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.sessions.List(r.Context())
	if err != nil {
		slog.Error("failed to list sessions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}
	if ids == nil {
		ids = []string{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"active_sessions": ids,
		"count":           len(ids),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
