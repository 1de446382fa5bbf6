// Package pool generates the shared set of players a session drafts from.
package pool

import (
	"fmt"
	"strconv"

	"github.com/okian/patabol/internal/domain/model"
	"github.com/okian/patabol/internal/domain/random"
)

// DefaultSize is the pool size used by sessions.
const DefaultSize = 15

var firstNames = []string{
	"Leo", "Bruno", "Carlos", "Diego", "Luis", "Miguel", "Javier",
	"Andrés", "Fernando", "Ricardo", "Sergio", "Alejandro", "Roberto",
	"Daniel", "Pablo", "Manuel", "Francisco", "Antonio", "José", "Juan",
}

var surnames = []string{
	"Rayo", "Fierro", "Veloz", "Torre", "Acero", "Rápido", "Fuerte",
	"Ágil", "Noble", "Bravo", "Lince", "Tigre", "León", "Águila",
	"Trueno", "Relámpago", "Viento", "Fuego", "Hielo", "Sombra",
}

// standardTemplate is the role split of a 15-player pool.
var standardTemplate = []model.Role{
	model.RoleGoalkeeper, model.RoleGoalkeeper,
	model.RoleDefender, model.RoleDefender, model.RoleDefender, model.RoleDefender,
	model.RoleMidfielder, model.RoleMidfielder, model.RoleMidfielder, model.RoleMidfielder, model.RoleMidfielder,
	model.RoleForward, model.RoleForward, model.RoleForward, model.RoleForward,
}

// Generator builds pools of players with a realistic role distribution.
type Generator struct {
	src random.Source
}

// New creates a Generator. Without WithSource it seeds itself from crypto/rand.
func New(opts ...Option) *Generator {
	g := &Generator{}
	for _, opt := range opts {
		opt(g)
	}
	if g.src == nil {
		src, err := random.NewFromCrypto()
		if err != nil {
			src = random.New(1)
		}
		g.src = src
	}
	return g
}

// Generate returns count players with ids P1..Pcount in pool order.
// Names are unique within the returned pool.
func (g *Generator) Generate(count int) []*model.Player {
	if count <= 0 {
		return nil
	}
	roles := Distribution(count)
	names := newNamer(g.src)

	players := make([]*model.Player, 0, len(roles))
	for i, role := range roles {
		players = append(players, &model.Player{
			ID:         fmt.Sprintf("P%d", i+1),
			Name:       names.next(),
			Role:       role,
			Attributes: g.attributes(role),
			Flair:      g.flair(),
		})
	}
	return players
}

// Distribution returns the role of each pool slot. A 15-player pool uses the
// fixed 2/4/5/4 split; other sizes are derived proportionally and forwards take
// whatever remains.
func Distribution(count int) []model.Role {
	if count == len(standardTemplate) {
		out := make([]model.Role, len(standardTemplate))
		copy(out, standardTemplate)
		return out
	}
	gk := max(1, count/8)
	def := max(1, count/4)
	mid := max(1, count/3)
	fwd := count - gk - def - mid

	roles := make([]model.Role, 0, count)
	roles = appendN(roles, model.RoleGoalkeeper, gk)
	roles = appendN(roles, model.RoleDefender, def)
	roles = appendN(roles, model.RoleMidfielder, mid)
	roles = appendN(roles, model.RoleForward, fwd)
	if len(roles) > count {
		roles = roles[:count]
	}
	return roles
}

func appendN(roles []model.Role, r model.Role, n int) []model.Role {
	for i := 0; i < n; i++ {
		roles = append(roles, r)
	}
	return roles
}

func (g *Generator) attributes(role model.Role) model.Attributes {
	base := random.IntRange(g.src, 1, 10)
	u := func(lo, hi int) int { return random.IntRange(g.src, lo, hi) }

	var a model.Attributes
	switch role {
	case model.RoleGoalkeeper:
		a.Control = base + u(0, 3)
		a.Speed = u(2, 6)
		a.Strength = base + u(2, 4)
		a.Dribble = u(1, 5)
	case model.RoleDefender:
		a.Control = u(3, 7)
		a.Speed = u(3, 7)
		a.Strength = base + u(1, 3)
		a.Dribble = u(2, 6)
	case model.RoleMidfielder:
		a.Control = base + u(0, 2)
		a.Speed = u(4, 8)
		a.Strength = u(3, 7)
		a.Dribble = base + u(0, 2)
	default:
		a.Control = u(4, 8)
		a.Speed = base + u(1, 3)
		a.Strength = u(2, 6)
		a.Dribble = base + u(2, 4)
	}
	a.Control = clamp(a.Control)
	a.Speed = clamp(a.Speed)
	a.Strength = clamp(a.Strength)
	a.Dribble = clamp(a.Dribble)
	return a
}

// flair draws from a skewed distribution: 60% in 1-3, 30% in 4-6,
// 9% in 7-8 and 1% in 9-10.
func (g *Generator) flair() int {
	r := g.src.Float64()
	switch {
	case r < 0.60:
		return random.IntRange(g.src, 1, 3)
	case r < 0.90:
		return random.IntRange(g.src, 4, 6)
	case r < 0.99:
		return random.IntRange(g.src, 7, 8)
	default:
		return random.IntRange(g.src, 9, 10)
	}
}

func clamp(v int) int {
	return max(1, min(10, v))
}

// namer hands out unique "First Last" names. Once every combination is used
// it appends a numeric suffix instead of resampling forever.
type namer struct {
	src  random.Source
	used map[string]struct{}
}

func newNamer(src random.Source) *namer {
	return &namer{src: src, used: make(map[string]struct{})}
}

func (n *namer) next() string {
	capacity := len(firstNames) * len(surnames)
	if len(n.used) < capacity {
		for {
			name := random.Choice(n.src, firstNames) + " " + random.Choice(n.src, surnames)
			if _, taken := n.used[name]; !taken {
				n.used[name] = struct{}{}
				return name
			}
		}
	}
	base := random.Choice(n.src, firstNames) + " " + random.Choice(n.src, surnames)
	for i := 2; ; i++ {
		name := base + " " + strconv.Itoa(i)
		if _, taken := n.used[name]; !taken {
			n.used[name] = struct{}{}
			return name
		}
	}
}
