package session_test

import (
	"errors"
	"testing"

	"github.com/okian/patabol/internal/domain/model"
	"github.com/okian/patabol/internal/domain/pool"
	"github.com/okian/patabol/internal/domain/random"
	"github.com/okian/patabol/internal/domain/session"
	. "github.com/smartystreets/goconvey/convey"
)

func newSession(seed int64) *session.Session {
	src := random.New(seed)
	players := pool.New(pool.WithSource(src)).Generate(pool.DefaultSize)
	return session.New("ABC123", players, "ana", "Ana", "Reds", src)
}

func ids(players []*model.Player) []string {
	out := make([]string, len(players))
	for i, p := range players {
		out[i] = p.ID
	}
	return out
}

func TestSessionLifecycle(t *testing.T) {
	Convey("Given a freshly created session", t, func() {
		s := newSession(1)

		Convey("Then the creator holds the first slot", func() {
			So(s.State, ShouldEqual, session.StateSelectingRosters)
			So(len(s.Participants), ShouldEqual, 1)
			So(s.Participants[0].Team, ShouldEqual, "Reds")
			So(s.Creator, ShouldEqual, "ana")
		})

		Convey("When a second participant joins without a team name", func() {
			p, err := s.Join("beto", "Beto", "")

			Convey("Then a default team is assigned and rosters are awaited", func() {
				So(err, ShouldBeNil)
				So(p.Team, ShouldBeIn, session.DefaultTeamNames)
				So(s.State, ShouldEqual, session.StateSelectingRosters)
			})

			Convey("Then a third participant is rejected", func() {
				_, err := s.Join("carla", "Carla", "")
				So(errors.Is(err, session.ErrSessionFull), ShouldBeTrue)
				So(session.KindOf(err), ShouldEqual, session.KindPolicy)
			})

			Convey("Then the scripted opponent cannot be added", func() {
				_, err := s.AddBot("ana", "")
				So(errors.Is(err, session.ErrSessionFull), ShouldBeTrue)
			})
		})

		Convey("When the same participant joins twice", func() {
			_, err := s.Join("ana", "Ana", "")
			So(errors.Is(err, session.ErrAlreadyJoined), ShouldBeTrue)
		})

		Convey("When someone claims the reserved bot id", func() {
			_, err := s.Join(session.BotID, "Bot", "")
			So(errors.Is(err, session.ErrReservedParticipant), ShouldBeTrue)
		})
	})
}

func TestScriptedOpponent(t *testing.T) {
	Convey("Given a session with a scripted opponent", t, func() {
		s := newSession(2)

		Convey("When a non-creator asks for it", func() {
			_, err := s.AddBot("beto", "")
			So(errors.Is(err, session.ErrNotCreator), ShouldBeTrue)
		})

		bot, err := s.AddBot("ana", "Robots")
		So(err, ShouldBeNil)
		So(bot.Nickname, ShouldEqual, session.BotNickname)
		So(bot.Team, ShouldEqual, "Robots")

		Convey("Then adding it again is rejected", func() {
			_, err := s.AddBot("ana", "")
			So(errors.Is(err, session.ErrSessionFull), ShouldBeTrue)
		})

		Convey("Then it never drafts before the human confirms", func() {
			_, err := s.AutoSelectRoster("ana")
			So(err, ShouldBeNil)
			So(bot.Roster, ShouldBeEmpty)
			_, err = s.RemovePlayer("ana", s.Participants[0].Roster[0].ID)
			So(err, ShouldBeNil)
			So(bot.Roster, ShouldBeEmpty)
			So(s.State, ShouldEqual, session.StateSelectingRosters)
		})

		Convey("When the human confirms", func() {
			_, err := s.SelectRoster("ana", []string{"p1", "P3"})
			So(err, ShouldBeNil)
			out, err := s.Confirm("ana")

			Convey("Then the bot drafts a disjoint roster with a goalkeeper and the match triggers", func() {
				So(err, ShouldBeNil)
				So(out.BotDrafted, ShouldEqual, bot)
				So(out.Trigger, ShouldBeTrue)
				So(len(bot.Roster), ShouldEqual, session.MaxRoster)
				So(bot.Roster[0].Role, ShouldEqual, model.RoleGoalkeeper)
				So(bot.Status, ShouldEqual, session.StatusConfirmed)
				for _, id := range ids(bot.Roster) {
					So(id, ShouldNotBeIn, []string{"P1", "P3"})
				}
				So(s.State, ShouldEqual, session.StateSimulated)
			})

			Convey("Then confirming again never triggers twice", func() {
				again, err := s.Confirm("ana")
				So(err, ShouldBeNil)
				So(again.AlreadyConfirmed, ShouldBeTrue)
				So(again.Trigger, ShouldBeFalse)
			})

			Convey("Then roster changes are locked", func() {
				_, err := s.SelectRoster("ana", []string{"P2"})
				So(errors.Is(err, session.ErrMatchLocked), ShouldBeTrue)
				_, err = s.AutoSelectRoster("ana")
				So(errors.Is(err, session.ErrMatchLocked), ShouldBeTrue)
				_, err = s.RemovePlayer("ana", "P1")
				So(errors.Is(err, session.ErrMatchLocked), ShouldBeTrue)
			})

			Convey("Then the slots are frozen until the match is played", func() {
				So(s.MatchQueued(), ShouldBeTrue)
				_, err := s.Leave("ana")
				So(errors.Is(err, session.ErrMatchLocked), ShouldBeTrue)
				_, err = s.Join("caro", "Caro", "")
				So(errors.Is(err, session.ErrMatchLocked), ShouldBeTrue)
				So(len(s.Participants), ShouldEqual, session.MaxParticipants)
				_, _, ok := s.Matchup()
				So(ok, ShouldBeTrue)

				s.RecordResult(&model.MatchResult{})
				So(s.MatchQueued(), ShouldBeFalse)
				left, err := s.Leave("ana")
				So(err, ShouldBeNil)
				So(left, ShouldEqual, 0)
			})

			Convey("Then the matchup is available until a result is recorded", func() {
				home, away, ok := s.Matchup()
				So(ok, ShouldBeTrue)
				So(home.ID, ShouldEqual, "ana")
				So(away.ID, ShouldEqual, session.BotID)

				s.RecordResult(&model.MatchResult{})
				_, _, ok = s.Matchup()
				So(ok, ShouldBeFalse)
				So(s.RevertTrigger(), ShouldBeFalse)
			})

			Convey("Then a failed schedule can be reverted and confirmed again", func() {
				So(s.RevertTrigger(), ShouldBeTrue)
				So(s.State, ShouldEqual, session.StateBothReady)
				So(s.Participants[0].Status, ShouldEqual, session.StatusPending)
				So(bot.Status, ShouldEqual, session.StatusPending)

				retry, err := s.Confirm("ana")
				So(err, ShouldBeNil)
				So(retry.BotDrafted, ShouldBeNil)
				So(retry.Trigger, ShouldBeTrue)
				So(bot.Status, ShouldEqual, session.StatusConfirmed)
			})
		})
	})

	Convey("Given a human who confirmed before the bot was added", t, func() {
		s := newSession(4)
		_, err := s.AutoSelectRoster("ana")
		So(err, ShouldBeNil)
		first, err := s.Confirm("ana")
		So(err, ShouldBeNil)
		So(first.Trigger, ShouldBeFalse)

		_, err = s.AddBot("ana", "")
		So(err, ShouldBeNil)

		Convey("When the human confirms again", func() {
			out, err := s.Confirm("ana")

			Convey("Then the bot drafts and the match triggers", func() {
				So(err, ShouldBeNil)
				So(out.AlreadyConfirmed, ShouldBeTrue)
				So(out.BotDrafted, ShouldNotBeNil)
				So(out.Trigger, ShouldBeTrue)
			})
		})
	})
}

func TestRosterSelection(t *testing.T) {
	Convey("Given two humans in a session", t, func() {
		s := newSession(5)
		_, err := s.Join("beto", "Beto", "Blues")
		So(err, ShouldBeNil)
		_, err = s.SelectRoster("ana", []string{"P1", "P02", "p3"})
		So(err, ShouldBeNil)

		Convey("Then the roster holds the normalized ids", func() {
			p, _ := s.Participant("ana")
			So(ids(p.Roster), ShouldResemble, []string{"P1", "P2", "P3"})
			So(p.Status, ShouldEqual, session.StatusPending)

			roster, err := s.Roster("ana")
			So(err, ShouldBeNil)
			So(ids(roster), ShouldResemble, []string{"P1", "P2", "P3"})
			_, err = s.Roster("nobody")
			So(errors.Is(err, session.ErrNotInSession), ShouldBeTrue)
			So(s.LastResult(), ShouldBeNil)
		})

		Convey("Then the other side cannot take those players", func() {
			_, err := s.SelectRoster("beto", []string{"P4", "P2"})
			So(errors.Is(err, session.ErrPlayerUnavailable), ShouldBeTrue)
			So(session.SubjectOf(err), ShouldEqual, "P2")
			So(session.KindOf(err), ShouldEqual, session.KindValidation)
			p, _ := s.Participant("beto")
			So(p.Roster, ShouldBeEmpty)
		})

		Convey("Then auto selection never includes the other side's players", func() {
			for i := 0; i < 20; i++ {
				roster, err := s.AutoSelectRoster("beto")
				So(err, ShouldBeNil)
				for _, id := range ids(roster) {
					So(id, ShouldNotBeIn, []string{"P1", "P2", "P3"})
				}
			}
			So(s.State, ShouldEqual, session.StateBothReady)
		})

		Convey("Then invalid selections are rejected", func() {
			_, err := s.SelectRoster("beto", nil)
			So(errors.Is(err, session.ErrEmptySelection), ShouldBeTrue)
			_, err = s.SelectRoster("beto", []string{"P4", "P5", "P6", "P7", "P8", "P9"})
			So(errors.Is(err, session.ErrRosterTooLarge), ShouldBeTrue)
			_, err = s.SelectRoster("beto", []string{"P4", "p04"})
			So(errors.Is(err, session.ErrDuplicatePlayer), ShouldBeTrue)
			_, err = s.SelectRoster("beto", []string{"P99"})
			So(errors.Is(err, session.ErrPlayerUnavailable), ShouldBeTrue)
			_, err = s.SelectRoster("nobody", []string{"P4"})
			So(errors.Is(err, session.ErrNotInSession), ShouldBeTrue)
			So(session.KindOf(err), ShouldEqual, session.KindNotFound)
		})

		Convey("Then available players exclude every roster", func() {
			_, err := s.SelectRoster("beto", []string{"P4"})
			So(err, ShouldBeNil)
			avail := s.Available()
			So(len(avail), ShouldEqual, 11)
			for _, id := range ids(avail) {
				So(id, ShouldNotBeIn, []string{"P1", "P2", "P3", "P4"})
			}
			keepers := s.Available(model.RoleGoalkeeper)
			for _, p := range keepers {
				So(p.Role, ShouldEqual, model.RoleGoalkeeper)
			}
			So(len(s.EligibleFor("beto")), ShouldEqual, 12)
		})

		Convey("When removing players", func() {
			removed, err := s.RemovePlayer("ana", "p02")

			Convey("Then the player returns to the pool", func() {
				So(err, ShouldBeNil)
				So(removed.ID, ShouldEqual, "P2")
				p, _ := s.Participant("ana")
				So(ids(p.Roster), ShouldResemble, []string{"P1", "P3"})
			})

			Convey("Then unknown roster ids and empty rosters are rejected", func() {
				_, err := s.RemovePlayer("ana", "P9")
				So(errors.Is(err, session.ErrNotInRoster), ShouldBeTrue)
				_, err = s.RemovePlayer("beto", "P9")
				So(errors.Is(err, session.ErrEmptyRoster), ShouldBeTrue)
			})
		})

		Convey("When only one side confirms", func() {
			out, err := s.Confirm("ana")

			Convey("Then nothing triggers", func() {
				So(err, ShouldBeNil)
				So(out.Trigger, ShouldBeFalse)
				So(out.BotDrafted, ShouldBeNil)
			})

			Convey("Then an empty roster cannot confirm", func() {
				_, err := s.Confirm("beto")
				So(errors.Is(err, session.ErrEmptyRoster), ShouldBeTrue)
			})

			Convey("Then the second confirmation triggers exactly once", func() {
				_, err := s.SelectRoster("beto", []string{"P5"})
				So(err, ShouldBeNil)
				out, err := s.Confirm("beto")
				So(err, ShouldBeNil)
				So(out.Trigger, ShouldBeTrue)
				again, err := s.Confirm("ana")
				So(err, ShouldBeNil)
				So(again.Trigger, ShouldBeFalse)
			})

			Convey("Then changing the roster resets the confirmation", func() {
				_, err := s.SelectRoster("ana", []string{"P6"})
				So(err, ShouldBeNil)
				p, _ := s.Participant("ana")
				So(p.Status, ShouldEqual, session.StatusPending)
			})
		})

		Convey("When a participant leaves", func() {
			left, err := s.Leave("beto")

			Convey("Then the session awaits players again", func() {
				So(err, ShouldBeNil)
				So(left, ShouldEqual, 1)
				So(s.State, ShouldEqual, session.StateAwaitingPlayers)
				_, err := s.Leave("beto")
				So(errors.Is(err, session.ErrNotInSession), ShouldBeTrue)
			})
		})
	})
}

func TestCodesAndViews(t *testing.T) {
	Convey("Given session codes", t, func() {
		src := random.New(8)
		for i := 0; i < 50; i++ {
			code := session.NewCode(src)
			So(len(code), ShouldEqual, session.CodeLength)
			for _, c := range code {
				So((c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9'), ShouldBeTrue)
			}
		}
		So(session.NormalizeCode(" abc123 "), ShouldEqual, "ABC123")
	})

	Convey("Given a snapshot of a session", t, func() {
		s := newSession(6)
		_, err := s.SelectRoster("ana", []string{"P1"})
		So(err, ShouldBeNil)
		v := s.Snapshot()

		Convey("Then later mutations do not leak into it", func() {
			_, err := s.SelectRoster("ana", []string{"P2"})
			So(err, ShouldBeNil)
			p, ok := v.Participant("ana")
			So(ok, ShouldBeTrue)
			So(p.RosterIDs(), ShouldResemble, []string{"P1"})
			So(len(v.Available), ShouldEqual, 14)
			pl, ok := v.FindPlayer("p01")
			So(ok, ShouldBeTrue)
			So(pl.ID, ShouldEqual, "P1")
			So(v.Humans(), ShouldResemble, []string{"ana"})
		})

		Convey("Then pool lookups normalize ids", func() {
			pl, err := s.FindPlayer(" p007 ")
			So(err, ShouldBeNil)
			So(pl.ID, ShouldEqual, "P7")
			_, err = s.FindPlayer("P40")
			So(errors.Is(err, session.ErrPlayerNotFound), ShouldBeTrue)
		})
	})
}
