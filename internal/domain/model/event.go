package model

// EventKind classifies a match event.
type EventKind int

const (
	EventOther EventKind = iota
	EventGoal
	EventFoul
	EventSteal
	EventDribble
	EventPass
	EventAdvance
	EventSave
)

func (k EventKind) String() string {
	switch k {
	case EventGoal:
		return "goal"
	case EventFoul:
		return "foul"
	case EventSteal:
		return "steal"
	case EventDribble:
		return "dribble"
	case EventPass:
		return "pass"
	case EventAdvance:
		return "advance"
	case EventSave:
		return "save"
	default:
		return "other"
	}
}

// MarshalText encodes the kind by name.
func (k EventKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Side identifies one of the two teams of a match.
type Side int

const (
	SideHome Side = iota
	SideAway
)

// Opponent returns the other side.
func (s Side) Opponent() Side {
	if s == SideHome {
		return SideAway
	}
	return SideHome
}

func (s Side) String() string {
	if s == SideHome {
		return "home"
	}
	return "away"
}

// MarshalText encodes the side by name.
func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// EventPayload carries the structured facts behind an event's text.
type EventPayload struct {
	Actor       string `json:"actor"`
	Counterpart string `json:"counterpart,omitempty"`
	Side        Side   `json:"side"`
	Epic        bool   `json:"epic,omitempty"`
}

// Event is a single entry of the play-by-play log.
type Event struct {
	Minute  int          `json:"minute"`
	Second  int          `json:"second"`
	Kind    EventKind    `json:"kind"`
	Text    string       `json:"text"`
	Payload EventPayload `json:"payload"`
}

// TeamResult is one side of a finished match.
type TeamResult struct {
	Name  string `json:"name"`
	Goals int    `json:"goals"`
	// Players are snapshots taken when the match ended, stats included.
	Players []Player `json:"players"`
}

// MatchResult is the outcome of a simulation.
type MatchResult struct {
	Home   TeamResult `json:"home"`
	Away   TeamResult `json:"away"`
	Events []Event    `json:"events"`
	MVP    Player     `json:"mvp"`
}

// Team returns the result of the given side.
func (r *MatchResult) Team(s Side) *TeamResult {
	if s == SideHome {
		return &r.Home
	}
	return &r.Away
}

// Winner returns the winning side, or false on a draw.
func (r *MatchResult) Winner() (Side, bool) {
	switch {
	case r.Home.Goals > r.Away.Goals:
		return SideHome, true
	case r.Away.Goals > r.Home.Goals:
		return SideAway, true
	default:
		return SideHome, false
	}
}
