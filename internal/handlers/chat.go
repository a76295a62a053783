package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"portfolio-backend/internal/middleware"
	"portfolio-backend/internal/models"
	"portfolio-backend/internal/services"
)

const (
	MsgConfiguration = "Service configuration error. Please contact the administrator."
	MsgMissingInput  = "Please provide a message."
	MsgUnavailable   = "I'm sorry, I'm having trouble connecting right now. Please try again later."
)

// maxChatBody caps the request body; ten history messages fit comfortably.
const maxChatBody = 1 << 20

type chatOrchestrator interface {
	Ready() error
	Answer(ctx context.Context, req models.ChatRequest) (*services.Turn, error)
}

type ChatHandler struct {
	orchestrator chatOrchestrator
	timeout      time.Duration
}

// NewChatHandler bounds every turn by timeout so the error reply is written
// before the server's write deadline. A zero timeout leaves turns unbounded.
func NewChatHandler(orchestrator chatOrchestrator, timeout time.Duration) *ChatHandler {
	return &ChatHandler{orchestrator: orchestrator, timeout: timeout}
}

func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	if err := h.orchestrator.Ready(); err != nil {
		status, msg := ClassifyError(err)
		logChatError(r.Context(), err, status)
		writeJSON(w, status, models.ChatResponse{Response: msg})
		return
	}

	req, err := DecodeChatRequest(http.MaxBytesReader(w, r.Body, maxChatBody))
	if err != nil {
		status, msg := ClassifyError(err)
		logChatError(r.Context(), err, status)
		writeJSON(w, status, models.ChatResponse{Response: msg})
		return
	}

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	turn, err := h.orchestrator.Answer(ctx, req)
	if err != nil {
		status, msg := ClassifyError(err)
		logChatError(r.Context(), err, status)
		writeJSON(w, status, models.ChatResponse{Response: msg})
		return
	}

	writeJSON(w, http.StatusOK, models.ChatResponse{Response: turn.Text, Model: turn.Model})
}

// DecodeChatRequest reads a chat payload. A message that is present but not a
// string is a *services.ValidationError; any other decode failure is returned as is.
func DecodeChatRequest(r io.Reader) (models.ChatRequest, error) {
	var req models.ChatRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field == "message" {
			return req, &services.ValidationError{Message: "message must be a string"}
		}
		return req, err
	}
	return req, nil
}

// ClassifyError maps an orchestrator error to a status code and user-facing message.
func ClassifyError(err error) (int, string) {
	var cfgErr *services.ConfigurationError
	var valErr *services.ValidationError

	switch {
	case errors.As(err, &valErr):
		return http.StatusBadRequest, MsgMissingInput
	case errors.As(err, &cfgErr):
		return http.StatusInternalServerError, MsgConfiguration
	default:
		return http.StatusInternalServerError, MsgUnavailable
	}
}

func logChatError(ctx context.Context, err error, status int) {
	entry := log.WithFields(log.Fields{
		"request_id": middleware.GetRequestID(ctx),
		"status":     status,
		"error":      err.Error(),
		"event":      "chat_failed",
	})
	if status >= http.StatusInternalServerError {
		entry.Error("Chat request failed")
		return
	}
	entry.Warn("Chat request rejected")
}

func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Shared helpers

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
