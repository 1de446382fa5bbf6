package session

import (
	"time"

	"github.com/okian/patabol/internal/domain/model"
)

// ParticipantView is a read-only copy of a participant.
type ParticipantView struct {
	ID       string         `json:"-"`
	Nickname string         `json:"nickname"`
	Team     string         `json:"team"`
	Bot      bool           `json:"bot"`
	Roster   []model.Player `json:"roster"`
	Status   Status         `json:"status"`
}

// RosterIDs returns the ids of the roster in draft order.
func (p ParticipantView) RosterIDs() []string {
	out := make([]string, len(p.Roster))
	for i, pl := range p.Roster {
		out[i] = pl.ID
	}
	return out
}

// View is a read-only copy of a session, safe to use without the session lock.
type View struct {
	Code         string             `json:"code"`
	State        State              `json:"state"`
	Creator      string             `json:"-"`
	CreatedAt    time.Time          `json:"created_at"`
	Participants []ParticipantView  `json:"participants"`
	Pool         []model.Player     `json:"-"`
	Available    []model.Player     `json:"-"`
	Result       *model.MatchResult `json:"-"`
}

// Participant returns the view of the participant with the given id.
func (v *View) Participant(id string) (ParticipantView, bool) {
	for _, p := range v.Participants {
		if p.ID == id {
			return p, true
		}
	}
	return ParticipantView{}, false
}

// Opponent returns the view of the other occupied slot.
func (v *View) Opponent(id string) (ParticipantView, bool) {
	for _, p := range v.Participants {
		if p.ID != id {
			return p, true
		}
	}
	return ParticipantView{}, false
}

// HasBot reports whether the scripted opponent occupies a slot.
func (v *View) HasBot() bool {
	_, ok := v.Participant(BotID)
	return ok
}

// Humans returns the ids of every non-scripted participant.
func (v *View) Humans() []string {
	out := make([]string, 0, len(v.Participants))
	for _, p := range v.Participants {
		if !p.Bot {
			out = append(out, p.ID)
		}
	}
	return out
}

// FindPlayer looks a pool player up by normalized id.
func (v *View) FindPlayer(id string) (model.Player, bool) {
	id = model.NormalizePlayerID(id)
	for _, pl := range v.Pool {
		if pl.ID == id {
			return pl, true
		}
	}
	return model.Player{}, false
}

// Snapshot copies the session.
func (s *Session) Snapshot() *View {
	v := &View{
		Code:         s.Code,
		State:        s.State,
		Creator:      s.Creator,
		CreatedAt:    s.CreatedAt,
		Participants: make([]ParticipantView, 0, len(s.Participants)),
		Pool:         copyPlayers(s.Pool),
		Available:    copyPlayers(s.Available()),
		Result:       s.Result,
	}
	for _, p := range s.Participants {
		v.Participants = append(v.Participants, participantView(p))
	}
	return v
}

func participantView(p *Participant) ParticipantView {
	return ParticipantView{
		ID:       p.ID,
		Nickname: p.Nickname,
		Team:     p.Team,
		Bot:      p.IsBot(),
		Roster:   copyPlayers(p.Roster),
		Status:   p.Status,
	}
}

// View returns a copy of the participant.
func (p *Participant) View() ParticipantView {
	return participantView(p)
}

func copyPlayers(in []*model.Player) []model.Player {
	out := make([]model.Player, len(in))
	for i, pl := range in {
		out[i] = *pl
	}
	return out
}

// ConfirmResult is a ConfirmOutcome that holds no references into the
// session, so it can cross the session lock.
type ConfirmResult struct {
	AlreadyConfirmed bool
	BotDrafted       bool
	Trigger          bool
}

// Result detaches the outcome from the session.
func (o ConfirmOutcome) Result() ConfirmResult {
	return ConfirmResult{
		AlreadyConfirmed: o.AlreadyConfirmed,
		BotDrafted:       o.BotDrafted != nil,
		Trigger:          o.Trigger,
	}
}
