package model_test

import (
	"encoding/json"
	"testing"

	"github.com/okian/patabol/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestNormalizePlayerID(t *testing.T) {
	convey.Convey("Given player ids typed by participants", t, func() {
		convey.Convey("Then leading zeros and case do not matter", func() {
			convey.So(model.NormalizePlayerID("p01"), convey.ShouldEqual, "P1")
			convey.So(model.NormalizePlayerID("P1"), convey.ShouldEqual, "P1")
			convey.So(model.NormalizePlayerID(" P001 "), convey.ShouldEqual, "P1")
			convey.So(model.NormalizePlayerID("p15"), convey.ShouldEqual, "P15")
			convey.So(model.NormalizePlayerID("P0"), convey.ShouldEqual, "P0")
		})

		convey.Convey("Then normalization is idempotent", func() {
			for _, raw := range []string{"p01", "P10", "x7", "p", "  pa3 ", ""} {
				once := model.NormalizePlayerID(raw)
				convey.So(model.NormalizePlayerID(once), convey.ShouldEqual, once)
			}
		})

		convey.Convey("Then ids that are not P<digits> are only trimmed and uppercased", func() {
			convey.So(model.NormalizePlayerID(" pa3 "), convey.ShouldEqual, "PA3")
			convey.So(model.NormalizePlayerID("p"), convey.ShouldEqual, "P")
		})
	})
}

func TestPlayerIDLess(t *testing.T) {
	convey.Convey("Given numbered ids", t, func() {
		convey.So(model.PlayerIDLess("P2", "P10"), convey.ShouldBeTrue)
		convey.So(model.PlayerIDLess("P10", "P2"), convey.ShouldBeFalse)
		convey.So(model.PlayerIDLess("A", "B"), convey.ShouldBeTrue)
	})
}

func TestPlayer(t *testing.T) {
	convey.Convey("Given a player with match stats", t, func() {
		p := &model.Player{ID: "P3", Name: "Leo Rayo", Role: model.RoleForward, Flair: 9}
		p.Stats = model.Stats{Goals: 2, Dribbles: 1, Steals: 1, Passes: 3, Touches: 9}

		convey.Convey("Then the label and MVP score are derived", func() {
			convey.So(p.Label(), convey.ShouldEqual, "Leo Rayo [P3]")
			convey.So(p.MVPScore(), convey.ShouldEqual, 2*3+1*2+1+3)
		})

		convey.Convey("When the stats are reset", func() {
			snap := p.Snapshot()
			p.ResetStats()

			convey.Convey("Then counters are zero and earlier snapshots are untouched", func() {
				convey.So(p.Stats, convey.ShouldResemble, model.Stats{})
				convey.So(snap.Stats.Goals, convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When encoded as JSON", func() {
			raw, err := json.Marshal(p)

			convey.Convey("Then flair stays hidden and the role is named", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(string(raw), convey.ShouldNotContainSubstring, "Flair")
				convey.So(string(raw), convey.ShouldContainSubstring, `"role":"forward"`)
			})
		})
	})
}

func TestMatchResult(t *testing.T) {
	convey.Convey("Given match results", t, func() {
		convey.Convey("Then the winner follows the score", func() {
			r := &model.MatchResult{Home: model.TeamResult{Goals: 1}, Away: model.TeamResult{Goals: 3}}
			side, ok := r.Winner()
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(side, convey.ShouldEqual, model.SideAway)
			convey.So(r.Team(model.SideAway).Goals, convey.ShouldEqual, 3)
		})

		convey.Convey("Then a level score is a draw", func() {
			r := &model.MatchResult{}
			_, ok := r.Winner()
			convey.So(ok, convey.ShouldBeFalse)
		})

		convey.Convey("Then events encode kinds and sides by name", func() {
			e := model.Event{Kind: model.EventGoal, Payload: model.EventPayload{Actor: "P1", Side: model.SideAway, Epic: true}}
			raw, err := json.Marshal(e)
			convey.So(err, convey.ShouldBeNil)
			convey.So(string(raw), convey.ShouldContainSubstring, `"kind":"goal"`)
			convey.So(string(raw), convey.ShouldContainSubstring, `"side":"away"`)
			convey.So(model.SideHome.Opponent(), convey.ShouldEqual, model.SideAway)
		})
	})
}
