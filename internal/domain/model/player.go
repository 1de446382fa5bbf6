// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Role is a player's preferred position.
type Role int

const (
	RoleGoalkeeper Role = iota + 1
	RoleDefender
	RoleMidfielder
	RoleForward
)

// Roles lists every role in lineup order.
var Roles = []Role{RoleGoalkeeper, RoleDefender, RoleMidfielder, RoleForward}

func (r Role) String() string {
	switch r {
	case RoleGoalkeeper:
		return "goalkeeper"
	case RoleDefender:
		return "defender"
	case RoleMidfielder:
		return "midfielder"
	case RoleForward:
		return "forward"
	default:
		return "unknown"
	}
}

// MarshalText encodes the role by name so JSON feeds stay readable.
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Attributes are the visible skill ratings of a player, each in [1,10].
type Attributes struct {
	Control  int `json:"control"`
	Speed    int `json:"speed"`
	Strength int `json:"strength"`
	Dribble  int `json:"dribble"`
}

// Stats are per-match counters. They are reset before every simulation.
type Stats struct {
	Touches  int `json:"touches"`
	Passes   int `json:"passes"`
	Dribbles int `json:"dribbles"`
	Steals   int `json:"steals"`
	Fouls    int `json:"fouls"`
	Goals    int `json:"goals"`
	Saves    int `json:"saves"`
}

// Player is a generated footballer ("patabolista").
type Player struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Role       Role       `json:"role"`
	Attributes Attributes `json:"attributes"`
	// Flair is hidden from participants and only feeds the simulation.
	Flair int   `json:"-"`
	Stats Stats `json:"stats"`
}

// Label renders the player as "Name [P1]".
func (p *Player) Label() string {
	return fmt.Sprintf("%s [%s]", p.Name, p.ID)
}

// ResetStats zeroes the per-match counters.
func (p *Player) ResetStats() {
	p.Stats = Stats{}
}

// MVPScore weighs goals, dribbles, steals and passes.
func (p *Player) MVPScore() int {
	return p.Stats.Goals*3 + p.Stats.Dribbles*2 + p.Stats.Steals + p.Stats.Passes
}

// Snapshot returns a value copy of the player.
func (p *Player) Snapshot() Player {
	return *p
}

// NormalizePlayerID trims and uppercases an id and strips leading zeros from
// ids of the form P<digits>. It is idempotent: "p01", "P001" and "P1" all
// normalize to "P1".
func NormalizePlayerID(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	n, ok := PlayerNumber(s)
	if !ok {
		return s
	}
	return "P" + strconv.Itoa(n)
}

// PlayerNumber returns the numeric part of a P<digits> id.
func PlayerNumber(id string) (int, bool) {
	if len(id) < 2 || (id[0] != 'P' && id[0] != 'p') {
		return 0, false
	}
	digits := id[1:]
	for _, c := range digits {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

// PlayerIDLess orders ids numerically when both are P<digits>, lexically otherwise.
func PlayerIDLess(a, b string) bool {
	na, okA := PlayerNumber(a)
	nb, okB := PlayerNumber(b)
	if okA && okB {
		return na < nb
	}
	return a < b
}
