// Package match simulates a short match between two rosters.
//
// A match is 30 ticks of 10 seconds. On every tick the ball holder takes one
// action (shot, take-on, pass or advance) whose success probability depends on
// the holder's attributes, the opponent involved and the holder's hidden flair.
package match

import (
	"errors"
	"fmt"
	"sort"

	"github.com/okian/patabol/internal/domain/model"
	"github.com/okian/patabol/internal/domain/random"
)

const (
	// Ticks is the number of actions in a match.
	Ticks = 30
	// TickSeconds is the match time covered by a tick.
	TickSeconds = 10

	shotChance   = 0.30
	takeOnChance = 0.40
)

// ErrEmptyRoster is returned when either side has no players.
var ErrEmptyRoster = errors.New("match: both rosters must be non-empty")

// Engine runs simulations. It is safe for concurrent use as long as the
// rosters passed to concurrent Simulate calls do not share players.
type Engine struct {
	src random.Source
}

// New creates an Engine. Without WithSource it seeds itself from crypto/rand.
func New(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.src == nil {
		src, err := random.NewFromCrypto()
		if err != nil {
			src = random.New(1)
		}
		e.src = src
	}
	return e
}

// SuccessProb maps an attribute to a probability around base, capped at 0.95.
func SuccessProb(attr int, base float64) float64 {
	return min(0.95, base+float64(attr-5)*0.1)
}

// WithFlair applies the acting player's flair bonus to p.
func WithFlair(flair int, p float64) float64 {
	switch {
	case flair >= 9:
		return min(0.98, p+0.30)
	case flair >= 7:
		return min(0.95, p+0.15)
	case flair >= 4:
		return min(0.90, p+0.05)
	default:
		return p
	}
}

// Simulate plays home against away. The players' Stats are reset first and
// hold the match counters afterwards; the result carries snapshots of them.
func (e *Engine) Simulate(home, away []*model.Player) (*model.MatchResult, error) {
	if len(home) == 0 || len(away) == 0 {
		return nil, ErrEmptyRoster
	}
	for _, p := range home {
		p.ResetStats()
	}
	for _, p := range away {
		p.ResetStats()
	}

	m := &state{
		src:     e.src,
		rosters: [2][]*model.Player{home, away},
	}
	if random.Chance(e.src, 0.5) {
		m.possession = model.SideHome
	} else {
		m.possession = model.SideAway
	}
	for t := 0; t < Ticks; t++ {
		m.tick(t)
	}

	res := &model.MatchResult{
		Home:   model.TeamResult{Goals: m.goals[model.SideHome], Players: snapshot(home)},
		Away:   model.TeamResult{Goals: m.goals[model.SideAway], Players: snapshot(away)},
		Events: m.events,
		MVP:    mvp(home, away).Snapshot(),
	}
	return res, nil
}

func snapshot(players []*model.Player) []model.Player {
	out := make([]model.Player, len(players))
	for i, p := range players {
		out[i] = p.Snapshot()
	}
	return out
}

// mvp returns the highest scoring player; ties go to the lowest id.
func mvp(home, away []*model.Player) *model.Player {
	all := make([]*model.Player, 0, len(home)+len(away))
	all = append(all, home...)
	all = append(all, away...)
	sort.SliceStable(all, func(i, j int) bool {
		si, sj := all[i].MVPScore(), all[j].MVPScore()
		if si != sj {
			return si > sj
		}
		return model.PlayerIDLess(all[i].ID, all[j].ID)
	})
	return all[0]
}

type state struct {
	src        random.Source
	rosters    [2][]*model.Player
	possession model.Side
	holder     *model.Player
	goals      [2]int
	events     []model.Event

	minute, second int
}

func (m *state) tick(t int) {
	elapsed := t * TickSeconds
	m.minute = elapsed / 60
	m.second = elapsed % 60

	if m.holder == nil {
		m.holder = random.Choice(m.src, m.rosters[m.possession])
	}
	p := m.holder

	switch {
	case p.Role == model.RoleForward && random.Chance(m.src, shotChance):
		m.shoot(p)
	case random.Chance(m.src, takeOnChance):
		m.takeOn(p)
	case m.src.Intn(2) == 0:
		m.advance(p)
	default:
		m.pass(p)
	}
}

// log records an event; side is the team of the payload's actor.
func (m *state) log(kind model.EventKind, side model.Side, text string, payload model.EventPayload) {
	payload.Side = side
	m.events = append(m.events, model.Event{
		Minute:  m.minute,
		Second:  m.second,
		Kind:    kind,
		Text:    text,
		Payload: payload,
	})
}

func (m *state) turnover() {
	m.possession = m.possession.Opponent()
	m.holder = nil
}

func (m *state) advance(p *model.Player) {
	p.Stats.Touches++
	prob := WithFlair(p.Flair, SuccessProb(p.Attributes.Control, 0.6))
	if !random.Chance(m.src, prob) {
		m.turnover()
		return
	}
	m.log(model.EventAdvance, m.possession, fmt.Sprintf("%s avanza con la pelota", p.Label()),
		model.EventPayload{Actor: p.ID})
}

func (m *state) pass(p *model.Player) {
	p.Stats.Touches++
	prob := WithFlair(p.Flair, SuccessProb(p.Attributes.Control, 0.7))
	if !random.Chance(m.src, prob) {
		m.turnover()
		return
	}
	mate := m.teammate(p)
	p.Stats.Passes++
	mate.Stats.Touches++
	m.holder = mate
	m.log(model.EventPass, m.possession, fmt.Sprintf("%s pasa a %s", p.Label(), mate.Label()),
		model.EventPayload{Actor: p.ID, Counterpart: mate.ID})
}

// teammate picks a pass receiver other than p, or p itself in a
// one-player roster.
func (m *state) teammate(p *model.Player) *model.Player {
	roster := m.rosters[m.possession]
	others := make([]*model.Player, 0, len(roster))
	for _, q := range roster {
		if q != p {
			others = append(others, q)
		}
	}
	if len(others) == 0 {
		return p
	}
	return random.Choice(m.src, others)
}

func (m *state) takeOn(p *model.Player) {
	def := random.Choice(m.src, m.rosters[m.possession.Opponent()])
	p.Stats.Touches++
	def.Stats.Touches++

	attack := SuccessProb(p.Attributes.Dribble, 0.5)
	defend := SuccessProb(def.Attributes.Strength, 0.5)
	prob := WithFlair(p.Flair, attack-(defend-0.5)*0.3)
	foul := 0.1 + float64(def.Attributes.Strength-5)*0.05

	switch {
	case random.Chance(m.src, foul):
		def.Stats.Fouls++
		m.log(model.EventFoul, m.possession.Opponent(), fmt.Sprintf("Falta de %s sobre %s", def.Label(), p.Label()),
			model.EventPayload{Actor: def.ID, Counterpart: p.ID})
	case random.Chance(m.src, prob):
		p.Stats.Dribbles++
		m.log(model.EventDribble, m.possession, fmt.Sprintf("%s regatea a %s", p.Label(), def.Label()),
			model.EventPayload{Actor: p.ID, Counterpart: def.ID})
	default:
		def.Stats.Steals++
		m.possession = m.possession.Opponent()
		m.holder = def
		m.log(model.EventSteal, m.possession, fmt.Sprintf("%s roba la pelota a %s", def.Label(), p.Label()),
			model.EventPayload{Actor: def.ID, Counterpart: p.ID})
	}
}

func (m *state) shoot(p *model.Player) {
	gk := goalkeeper(m.rosters[m.possession.Opponent()])
	p.Stats.Touches++

	prob := SuccessProb(p.Attributes.Control, 0.3) + SuccessProb(p.Attributes.Dribble, 0.2)
	prob -= (SuccessProb(gk.Attributes.Control, 0.4) - 0.4) * 0.4
	prob = WithFlair(p.Flair, prob)

	if random.Chance(m.src, prob) {
		m.goals[m.possession]++
		p.Stats.Goals++
		epic := random.Chance(m.src, float64(p.Flair)/10) || p.Flair >= 7
		text := fmt.Sprintf("⚽ GOOOL de %s!", p.Label())
		if epic {
			text += " ¡Jugada ÉPICA con toque mágico!"
		}
		m.log(model.EventGoal, m.possession, text, model.EventPayload{Actor: p.ID, Counterpart: gk.ID, Epic: epic})
		m.holder = nil
		return
	}
	gk.Stats.Saves++
	m.log(model.EventSave, m.possession.Opponent(), fmt.Sprintf("%s ataja el intento de %s", gk.Label(), p.Label()),
		model.EventPayload{Actor: gk.ID, Counterpart: p.ID})
	m.holder = nil
}

// goalkeeper returns the first goalkeeper of the roster, or its first entry.
func goalkeeper(roster []*model.Player) *model.Player {
	for _, p := range roster {
		if p.Role == model.RoleGoalkeeper {
			return p
		}
	}
	return roster[0]
}
