package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/okian/patabol/internal/adapters/notify"
	"github.com/okian/patabol/internal/domain/session"
	"github.com/okian/patabol/pkg/logger"
)

// SessionReader looks sessions up by code.
type SessionReader interface {
	Snapshot(ctx context.Context, code string) (*session.View, error)
}

// SessionsHandler serves session summaries and live feeds.
type SessionsHandler struct {
	sessions SessionReader
	feed     FeedServer
	log      logger.Logger
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(sessions SessionReader, feed FeedServer, log logger.Logger) *SessionsHandler {
	return &SessionsHandler{sessions: sessions, feed: feed, log: log}
}

type participantResponse struct {
	Nickname string   `json:"nickname"`
	Team     string   `json:"team"`
	Bot      bool     `json:"bot"`
	Status   string   `json:"status"`
	Roster   []string `json:"roster"`
}

type sessionResponse struct {
	Code         string                `json:"code"`
	State        string                `json:"state"`
	CreatedAt    time.Time             `json:"created_at"`
	Participants []participantResponse `json:"participants"`
	PoolSize     int                   `json:"pool_size"`
	Available    int                   `json:"available"`
	Played       bool                  `json:"played"`
	Score        *notify.Score         `json:"score,omitempty"`
}

func newSessionResponse(v *session.View) sessionResponse {
	out := sessionResponse{
		Code:         v.Code,
		State:        v.State.String(),
		CreatedAt:    v.CreatedAt,
		Participants: make([]participantResponse, 0, len(v.Participants)),
		PoolSize:     len(v.Pool),
		Available:    len(v.Available),
	}
	for _, p := range v.Participants {
		out.Participants = append(out.Participants, participantResponse{
			Nickname: p.Nickname,
			Team:     p.Team,
			Bot:      p.Bot,
			Status:   p.Status.String(),
			Roster:   p.RosterIDs(),
		})
	}
	if res := v.Result; res != nil {
		out.Played = true
		out.Score = &notify.Score{
			Home:     res.Home.Name,
			Away:     res.Away.Name,
			HomeGoal: res.Home.Goals,
			AwayGoal: res.Away.Goals,
			MVP:      res.MVP.ID,
		}
	}
	return out
}

// HandleGetSession handles GET /v1/sessions/{code}.
func (h *SessionsHandler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	v, ok := h.lookup(w, r, "api.get_session")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(v))
}

// HandleFeed handles GET /v1/sessions/{code}/feed, a read-only websocket
// that streams the match of the session while it plays.
func (h *SessionsHandler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	const op = "api.feed"
	if h.feed == nil {
		writeError(w, http.StatusNotFound, "not_found", wrap(op, ErrNotFound, nil))
		return
	}
	v, ok := h.lookup(w, r, op)
	if !ok {
		return
	}
	if err := h.feed.Serve(w, r, v.Code); err != nil && !errors.Is(err, notify.ErrHubClosed) {
		h.log.Warn(r.Context(), "feed upgrade failed", logger.SessionCode(v.Code), logger.Error(err))
	}
}

func (h *SessionsHandler) lookup(w http.ResponseWriter, r *http.Request, op string) (*session.View, bool) {
	code := session.NormalizeCode(chi.URLParam(r, "code"))
	v, err := h.sessions.Snapshot(r.Context(), code)
	switch {
	case err == nil:
		return v, true
	case errors.Is(err, session.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "not_found", wrap(op, ErrNotFound, err))
	default:
		writeError(w, http.StatusServiceUnavailable, "unavailable", wrap(op, ErrUnavailable, err))
	}
	return nil, false
}
