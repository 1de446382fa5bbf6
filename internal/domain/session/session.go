// Package session implements the lifecycle of a drafting session: two slots
// sharing one pool, exclusive rosters, confirmation gating and the one-time
// transition that schedules the match.
//
// A Session does no locking of its own. Callers serialize access per session.
package session

import (
	"strings"
	"time"

	"github.com/okian/patabol/internal/domain/model"
	"github.com/okian/patabol/internal/domain/random"
)

const (
	// BotID is the reserved participant id of the scripted opponent.
	BotID = "PATABOL_BOT"
	// BotNickname is the scripted opponent's nickname.
	BotNickname = "IA"

	// MaxRoster is the largest roster a participant may draft.
	MaxRoster = 5
	// MaxParticipants is the number of slots in a session.
	MaxParticipants = 2
	// CodeLength is the length of a session code.
	CodeLength = 6
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// DefaultTeamNames are drawn when a participant omits a team name.
var DefaultTeamNames = []string{
	"Los Rayos", "Fieras FC", "Tormenta", "Acero", "Relámpagos",
	"Águilas", "Leones", "Tigres", "Viento Norte", "Fuego Sagrado",
	"Hielo", "Sombra", "Bravo", "Noble", "Lince",
}

// State is the lifecycle state of a session.
type State int

const (
	StateAwaitingPlayers State = iota
	StateSelectingRosters
	StateBothReady
	// StateSimulated is terminal: the match has been scheduled.
	StateSimulated
)

func (s State) String() string {
	switch s {
	case StateAwaitingPlayers:
		return "awaiting_players"
	case StateSelectingRosters:
		return "selecting_rosters"
	case StateBothReady:
		return "both_ready"
	case StateSimulated:
		return "simulated"
	default:
		return "unknown"
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Status is a participant's confirmation status.
type Status int

const (
	StatusPending Status = iota
	StatusConfirmed
)

func (s Status) String() string {
	if s == StatusConfirmed {
		return "confirmed"
	}
	return "pending"
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Participant occupies one slot of a session.
type Participant struct {
	ID       string
	Nickname string
	Team     string
	Roster   []*model.Player
	Status   Status
}

// IsBot reports whether the participant is the scripted opponent.
func (p *Participant) IsBot() bool { return p.ID == BotID }

// Session is one drafting session.
type Session struct {
	Code         string
	Pool         []*model.Player
	Participants []*Participant
	Creator      string
	State        State
	CreatedAt    time.Time
	// Result is the last match played, with team names and rosters as played.
	Result *model.MatchResult

	src random.Source
}

// NewCode draws a session code of CodeLength uppercase alphanumerics.
func NewCode(src random.Source) string {
	var b strings.Builder
	b.Grow(CodeLength)
	for i := 0; i < CodeLength; i++ {
		b.WriteByte(codeAlphabet[src.Intn(len(codeAlphabet))])
	}
	return b.String()
}

// NormalizeCode uppercases and trims a typed session code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// New creates a session owned by creator. The state starts at
// StateSelectingRosters so the creator can draft while waiting for an opponent.
func New(code string, pool []*model.Player, creator, nickname, team string, src random.Source) *Session {
	s := &Session{
		Code:      code,
		Pool:      pool,
		Creator:   creator,
		State:     StateSelectingRosters,
		CreatedAt: time.Now(),
		src:       src,
	}
	s.Participants = append(s.Participants, &Participant{
		ID:       creator,
		Nickname: nickname,
		Team:     s.teamName(team),
	})
	return s
}

func (s *Session) teamName(team string) string {
	if t := strings.TrimSpace(team); t != "" {
		return t
	}
	return random.Choice(s.src, DefaultTeamNames)
}

// Participant returns the participant with the given id.
func (s *Session) Participant(id string) (*Participant, bool) {
	for _, p := range s.Participants {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// Opponent returns the other occupied slot, if any.
func (s *Session) Opponent(id string) (*Participant, bool) {
	for _, p := range s.Participants {
		if p.ID != id {
			return p, true
		}
	}
	return nil, false
}

// Humans returns the ids of every non-scripted participant in join order.
func (s *Session) Humans() []string {
	out := make([]string, 0, len(s.Participants))
	for _, p := range s.Participants {
		if !p.IsBot() {
			out = append(out, p.ID)
		}
	}
	return out
}

// HasBot reports whether the scripted opponent occupies a slot.
func (s *Session) HasBot() bool {
	_, ok := s.Participant(BotID)
	return ok
}

// Join adds a participant to the session.
func (s *Session) Join(id, nickname, team string) (*Participant, error) {
	const op = "join"
	if id == BotID {
		return nil, E(op, ErrReservedParticipant)
	}
	if s.MatchQueued() {
		return nil, E(op, ErrMatchLocked)
	}
	if len(s.Participants) >= MaxParticipants {
		return nil, E(op, ErrSessionFull)
	}
	if _, ok := s.Participant(id); ok {
		return nil, E(op, ErrAlreadyJoined)
	}
	p := &Participant{ID: id, Nickname: nickname, Team: s.teamName(team)}
	s.Participants = append(s.Participants, p)
	s.recompute()
	return p, nil
}

// AddBot adds the scripted opponent. Only the creator may do it.
func (s *Session) AddBot(requester, team string) (*Participant, error) {
	const op = "add_bot"
	if requester != s.Creator {
		return nil, E(op, ErrNotCreator)
	}
	if len(s.Participants) >= MaxParticipants {
		return nil, E(op, ErrSessionFull)
	}
	if s.HasBot() {
		return nil, E(op, ErrOpponentPresent)
	}
	p := &Participant{ID: BotID, Nickname: BotNickname, Team: s.teamName(team)}
	s.Participants = append(s.Participants, p)
	s.recompute()
	return p, nil
}

// Available returns the pool minus every drafted player, optionally
// restricted to the given roles, in pool order.
func (s *Session) Available(roles ...model.Role) []*model.Player {
	taken := make(map[string]bool)
	for _, p := range s.Participants {
		for _, pl := range p.Roster {
			taken[pl.ID] = true
		}
	}
	out := make([]*model.Player, 0, len(s.Pool))
	for _, pl := range s.Pool {
		if taken[pl.ID] || !roleMatches(pl.Role, roles) {
			continue
		}
		out = append(out, pl)
	}
	return out
}

func roleMatches(r model.Role, roles []model.Role) bool {
	if len(roles) == 0 {
		return true
	}
	for _, want := range roles {
		if r == want {
			return true
		}
	}
	return false
}

// EligibleFor returns the pool minus the other participant's roster.
func (s *Session) EligibleFor(id string) []*model.Player {
	taken := make(map[string]bool)
	for _, p := range s.Participants {
		if p.ID == id {
			continue
		}
		for _, pl := range p.Roster {
			taken[pl.ID] = true
		}
	}
	out := make([]*model.Player, 0, len(s.Pool))
	for _, pl := range s.Pool {
		if !taken[pl.ID] {
			out = append(out, pl)
		}
	}
	return out
}

// FindPlayer looks a pool player up by id. The id is normalized first.
func (s *Session) FindPlayer(id string) (*model.Player, error) {
	id = model.NormalizePlayerID(id)
	for _, pl := range s.Pool {
		if pl.ID == id {
			return pl, nil
		}
	}
	return nil, ES("find_player", id, ErrPlayerNotFound)
}

// Roster returns the participant's drafted players in draft order.
func (s *Session) Roster(id string) ([]*model.Player, error) {
	p, err := s.member("roster", id)
	if err != nil {
		return nil, err
	}
	return p.Roster, nil
}

// LastResult returns the match played in this session, or nil.
func (s *Session) LastResult() *model.MatchResult { return s.Result }

func (s *Session) member(op, id string) (*Participant, error) {
	p, ok := s.Participant(id)
	if !ok {
		return nil, E(op, ErrNotInSession)
	}
	return p, nil
}

// SelectRoster replaces the participant's roster with the given players.
func (s *Session) SelectRoster(id string, playerIDs []string) ([]*model.Player, error) {
	const op = "select_roster"
	p, err := s.member(op, id)
	if err != nil {
		return nil, err
	}
	if s.State == StateSimulated {
		return nil, E(op, ErrMatchLocked)
	}
	if len(playerIDs) == 0 {
		return nil, E(op, ErrEmptySelection)
	}
	if len(playerIDs) > MaxRoster {
		return nil, E(op, ErrRosterTooLarge)
	}
	eligible := s.EligibleFor(id)
	if len(eligible) == 0 {
		return nil, E(op, ErrNoPlayersAvailable)
	}
	byID := make(map[string]*model.Player, len(eligible))
	for _, pl := range eligible {
		byID[pl.ID] = pl
	}

	roster := make([]*model.Player, 0, len(playerIDs))
	seen := make(map[string]bool, len(playerIDs))
	for _, raw := range playerIDs {
		pid := model.NormalizePlayerID(raw)
		if seen[pid] {
			return nil, ES(op, pid, ErrDuplicatePlayer)
		}
		seen[pid] = true
		pl, ok := byID[pid]
		if !ok {
			return nil, ES(op, raw, ErrPlayerUnavailable)
		}
		roster = append(roster, pl)
	}

	p.Roster = roster
	p.Status = StatusPending
	s.recompute()
	return roster, nil
}

// AutoSelectRoster drafts up to MaxRoster eligible players for the
// participant: one goalkeeper when possible, the rest at random.
func (s *Session) AutoSelectRoster(id string) ([]*model.Player, error) {
	const op = "auto_select_roster"
	p, err := s.member(op, id)
	if err != nil {
		return nil, err
	}
	if s.State == StateSimulated {
		return nil, E(op, ErrMatchLocked)
	}
	roster := s.draft(id)
	if len(roster) == 0 {
		return nil, E(op, ErrNoPlayersAvailable)
	}
	p.Roster = roster
	p.Status = StatusPending
	s.recompute()
	return roster, nil
}

func (s *Session) draft(id string) []*model.Player {
	eligible := s.EligibleFor(id)
	size := min(MaxRoster, len(eligible))
	if size == 0 {
		return nil
	}

	var keepers []*model.Player
	for _, pl := range eligible {
		if pl.Role == model.RoleGoalkeeper {
			keepers = append(keepers, pl)
		}
	}
	roster := make([]*model.Player, 0, size)
	if len(keepers) > 0 {
		roster = append(roster, random.Choice(s.src, keepers))
	}
	rest := make([]*model.Player, 0, len(eligible))
	for _, pl := range eligible {
		if len(roster) == 0 || pl != roster[0] {
			rest = append(rest, pl)
		}
	}
	return append(roster, random.Sample(s.src, rest, size-len(roster))...)
}

// RemovePlayer returns a player from the participant's roster to the pool.
func (s *Session) RemovePlayer(id, playerID string) (*model.Player, error) {
	const op = "remove_player"
	p, err := s.member(op, id)
	if err != nil {
		return nil, err
	}
	if s.State == StateSimulated {
		return nil, E(op, ErrMatchLocked)
	}
	if len(p.Roster) == 0 {
		return nil, E(op, ErrEmptyRoster)
	}
	pid := model.NormalizePlayerID(playerID)
	for i, pl := range p.Roster {
		if pl.ID != pid {
			continue
		}
		p.Roster = append(p.Roster[:i:i], p.Roster[i+1:]...)
		p.Status = StatusPending
		s.recompute()
		return pl, nil
	}
	return nil, ES(op, pid, ErrNotInRoster)
}

// ConfirmOutcome describes what a confirmation changed.
type ConfirmOutcome struct {
	// AlreadyConfirmed is set when the participant had confirmed before.
	AlreadyConfirmed bool
	// BotDrafted is the scripted opponent when it drafted during this call.
	BotDrafted *Participant
	// Trigger is set exactly once per session: when this call moved it to
	// StateSimulated and the match must be scheduled.
	Trigger bool
}

// Confirm locks in the participant's roster. When the other slot is the
// scripted opponent with no roster, it drafts and confirms in response.
func (s *Session) Confirm(id string) (ConfirmOutcome, error) {
	const op = "confirm"
	var out ConfirmOutcome
	p, err := s.member(op, id)
	if err != nil {
		return out, err
	}
	if len(p.Roster) == 0 {
		return out, E(op, ErrEmptyRoster)
	}
	out.AlreadyConfirmed = p.Status == StatusConfirmed
	if s.State == StateSimulated {
		return out, nil
	}
	p.Status = StatusConfirmed

	if bot, ok := s.Opponent(id); ok && bot.IsBot() {
		switch {
		case len(bot.Roster) == 0:
			if roster := s.draft(bot.ID); len(roster) > 0 {
				bot.Roster = roster
				bot.Status = StatusConfirmed
				out.BotDrafted = bot
			}
		case bot.Status == StatusPending:
			// Reverted trigger: the scripted side keeps its roster.
			bot.Status = StatusConfirmed
		}
	}
	s.recompute()

	if s.ReadyToPlay() {
		s.State = StateSimulated
		out.Trigger = true
	}
	return out, nil
}

// ReadyToPlay reports whether both slots are filled with confirmed,
// non-empty rosters.
func (s *Session) ReadyToPlay() bool {
	if len(s.Participants) != MaxParticipants {
		return false
	}
	for _, p := range s.Participants {
		if len(p.Roster) == 0 || p.Status != StatusConfirmed {
			return false
		}
	}
	return true
}

// RevertTrigger undoes a Confirm trigger whose match could not be scheduled.
// Both sides go back to pending so they can confirm again.
func (s *Session) RevertTrigger() bool {
	if s.State != StateSimulated || s.Result != nil {
		return false
	}
	for _, p := range s.Participants {
		p.Status = StatusPending
	}
	s.State = StateBothReady
	s.recompute()
	return true
}

// Matchup returns both participants in join order when the scheduled match
// can be played.
func (s *Session) Matchup() (home, away *Participant, ok bool) {
	if s.State != StateSimulated || s.Result != nil || len(s.Participants) != MaxParticipants {
		return nil, nil, false
	}
	home, away = s.Participants[0], s.Participants[1]
	if len(home.Roster) == 0 || len(away.Roster) == 0 {
		return nil, nil, false
	}
	return home, away, true
}

// RecordResult stores the outcome of the scheduled match.
func (s *Session) RecordResult(res *model.MatchResult) {
	s.Result = res
}

// MatchQueued reports whether the match was triggered but not played yet.
// The slots are frozen until the result is recorded.
func (s *Session) MatchQueued() bool {
	return s.State == StateSimulated && s.Result == nil
}

// Leave removes the participant and reports how many humans remain.
func (s *Session) Leave(id string) (humansLeft int, err error) {
	idx := -1
	for i, p := range s.Participants {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return len(s.Humans()), E("leave", ErrNotInSession)
	}
	if s.MatchQueued() {
		return len(s.Humans()), E("leave", ErrMatchLocked)
	}
	s.Participants = append(s.Participants[:idx:idx], s.Participants[idx+1:]...)
	s.recompute()
	return len(s.Humans()), nil
}

// recompute derives the state from the slots. StateSimulated is terminal.
func (s *Session) recompute() {
	if s.State == StateSimulated {
		return
	}
	if len(s.Participants) < MaxParticipants {
		s.State = StateAwaitingPlayers
		return
	}
	for _, p := range s.Participants {
		if len(p.Roster) == 0 {
			s.State = StateSelectingRosters
			return
		}
	}
	s.State = StateBothReady
}
