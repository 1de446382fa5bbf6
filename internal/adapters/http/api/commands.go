package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	service "github.com/okian/patabol/internal/app"
	"github.com/okian/patabol/internal/domain/session"
	"github.com/okian/patabol/pkg/logger"
)

// CommandRunner runs chat commands.
type CommandRunner interface {
	Handle(ctx context.Context, cmd service.Command) (service.Result, error)
}

// CommandsHandler is the inbound chat channel.
type CommandsHandler struct {
	runner CommandRunner
	log    logger.Logger
}

// NewCommandsHandler creates a new commands handler.
func NewCommandsHandler(runner CommandRunner, log logger.Logger) *CommandsHandler {
	return &CommandsHandler{runner: runner, log: log}
}

// commandRequest mirrors the OpenAPI schema for POST /v1/commands.
type commandRequest struct {
	UserID    string `json:"user_id"`
	Text      string `json:"text"`
	MessageID string `json:"message_id,omitempty"`
}

func (c commandRequest) validate() error {
	switch {
	case strings.TrimSpace(c.UserID) == "":
		return errors.New("missing user_id")
	case c.UserID == session.BotID:
		return errors.New("user_id is reserved")
	case strings.TrimSpace(c.Text) == "":
		return errors.New("missing text")
	}
	return nil
}

// HandlePostCommand handles POST /v1/commands. Replies for the sender are
// returned in the body; messages for other participants go out through the
// notifier.
func (h *CommandsHandler) HandlePostCommand(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_command"
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req commandRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrap(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrap(op, ErrBadRequest, err))
		return
	}

	res, err := h.runner.Handle(r.Context(), service.Command{
		UserID:    strings.TrimSpace(req.UserID),
		Text:      req.Text,
		MessageID: req.MessageID,
	})
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, res)
	case errors.Is(err, service.ErrQueueFull):
		writeJSON(w, http.StatusTooManyRequests, res)
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", wrap(op, ErrUnavailable, err))
	default:
		h.log.Error(r.Context(), "command failed", logger.Participant(req.UserID), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}
