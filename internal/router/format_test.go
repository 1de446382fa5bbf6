package router

import (
	"strconv"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/patabol/internal/domain/model"
	"github.com/okian/patabol/internal/domain/random"
	"github.com/okian/patabol/internal/domain/session"
)

func player(id string, role model.Role) model.Player {
	return model.Player{
		ID:         id,
		Name:       "Name" + id,
		Role:       role,
		Attributes: model.Attributes{Control: 10, Speed: 1, Strength: 5, Dribble: 6},
	}
}

func TestStars(t *testing.T) {
	Convey("Stars maps 1-10 to one to five stars", t, func() {
		So(Stars(1), ShouldEqual, "⭐☆☆☆☆")
		So(Stars(2), ShouldEqual, "⭐☆☆☆☆")
		So(Stars(5), ShouldEqual, "⭐⭐⭐☆☆")
		So(Stars(10), ShouldEqual, "⭐⭐⭐⭐⭐")
		So(Stars(0), ShouldEqual, "⭐☆☆☆☆")
		So(Stars(42), ShouldEqual, "⭐⭐⭐⭐⭐")
	})
}

func TestFormatting(t *testing.T) {
	Convey("Given some players", t, func() {
		gk := player("P1", model.RoleGoalkeeper)
		fw := player("P2", model.RoleForward)

		Convey("Roles have Spanish names", func() {
			So(RoleName(model.RoleGoalkeeper), ShouldEqual, "Portero")
			So(RoleName(model.RoleDefender), ShouldEqual, "Defensa")
			So(RoleName(model.RoleMidfielder), ShouldEqual, "Medio")
			So(RoleName(model.RoleForward), ShouldEqual, "Delantero")
		})

		Convey("A player card shows the attributes", func() {
			card := FormatDetail(gk)
			So(card, ShouldContainSubstring, "🆔 ID: P1")
			So(card, ShouldContainSubstring, "NameP1 [P1]")
			So(card, ShouldContainSubstring, "Portero")
			So(card, ShouldContainSubstring, "(10/10)")
			So(card, ShouldNotContainSubstring, "Flair")
		})

		Convey("A pool lists every player with its role", func() {
			out := FormatPool([]model.Player{gk, fw}, "y 3 más")
			So(out, ShouldStartWith, msgPoolTitle)
			So(out, ShouldContainSubstring, "1. NameP1 [P1]")
			So(out, ShouldContainSubstring, "2. NameP2 [P2]")
			So(out, ShouldEndWith, "y 3 más")
			So(FormatPool(nil, ""), ShouldEqual, msgPoolEmpty)
		})

		Convey("A lineup names who confirmed", func() {
			out := FormatLineup(session.ParticipantView{Nickname: "Ana", Team: "Reds", Roster: []model.Player{gk, fw}})
			So(out, ShouldStartWith, "✅ Ana confirmó el equipo *Reds*:")
			So(out, ShouldContainSubstring, "2. NameP2 [P2] (Delantero)")
		})

		Convey("Events are prefixed by their icon", func() {
			So(FormatEvent(model.Event{Kind: model.EventSave, Text: "parada"}), ShouldEqual, "🧤 parada")
			So(FormatEvent(model.Event{Kind: model.EventGoal, Text: "gol"}), ShouldEqual, "⚽ gol")
			So(EventIcon(model.EventOther), ShouldEqual, "•")
		})

		Convey("A result shows the winner and the player of the match", func() {
			mvp := gk
			mvp.Stats.Goals = 2
			res := &model.MatchResult{
				Home: model.TeamResult{Name: "Reds", Goals: 2, Players: []model.Player{mvp}},
				Away: model.TeamResult{Name: "Blues", Goals: 1, Players: []model.Player{fw}},
				MVP:  mvp,
			}
			out := FormatResult(res)
			So(out, ShouldContainSubstring, "Reds: 2")
			So(out, ShouldContainSubstring, "Blues: 1")
			So(out, ShouldContainSubstring, "¡Ganador: Reds!")
			So(out, ShouldContainSubstring, "Goles: 2")

			res.Away.Goals = 2
			So(FormatResult(res), ShouldContainSubstring, "Empate")

			stats := FormatStats(res)
			So(stats, ShouldContainSubstring, "👥 Reds:")
			So(stats, ShouldContainSubstring, "👥 Blues:")
			So(stats, ShouldContainSubstring, "G:2 P:0")
		})
	})
}

func TestCanonicalCommand(t *testing.T) {
	Convey("Aliases resolve to the full command", t, func() {
		So(CanonicalCommand("/c"), ShouldEqual, "/confirmar")
		So(CanonicalCommand("/A"), ShouldEqual, "/seleccionar_auto")
		So(CanonicalCommand("/help"), ShouldEqual, "/ayuda")
		So(CanonicalCommand("/EST"), ShouldEqual, "/estadisticas")
		So(CanonicalCommand("/Pool"), ShouldEqual, "/pool")
	})
}

func TestStratifiedSample(t *testing.T) {
	Convey("Given a pool of twenty players", t, func() {
		var players []model.Player
		roles := []model.Role{model.RoleGoalkeeper, model.RoleDefender, model.RoleMidfielder, model.RoleForward}
		counts := []int{2, 6, 6, 6}
		n := 0
		for i, role := range roles {
			for j := 0; j < counts[i]; j++ {
				n++
				players = append(players, player("P"+strconv.Itoa(n), role))
			}
		}
		src := random.New(7)

		Convey("A sample keeps every role and the pool order", func() {
			sample := StratifiedSample(src, players, 10)
			So(sample, ShouldHaveLength, 10)

			seen := make(map[model.Role]int)
			last := 0
			for _, p := range sample {
				seen[p.Role]++
				num, ok := model.PlayerNumber(p.ID)
				So(ok, ShouldBeTrue)
				So(num, ShouldBeGreaterThan, last)
				last = num
			}
			for _, role := range roles {
				So(seen[role], ShouldBeGreaterThanOrEqualTo, 1)
			}
		})

		Convey("A small pool is returned as is", func() {
			So(StratifiedSample(src, players[:3], 10), ShouldResemble, players[:3])
		})

		Convey("Sampling is deterministic for a seed", func() {
			a := StratifiedSample(random.New(3), players, 8)
			b := StratifiedSample(random.New(3), players, 8)
			So(a, ShouldResemble, b)
		})
	})
}
