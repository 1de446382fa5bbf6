package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	service "github.com/okian/patabol/internal/app"
	"github.com/okian/patabol/internal/adapters/notify"
	"github.com/okian/patabol/internal/domain/session"
	"github.com/okian/patabol/internal/router"
)

func send(svc *service.Service, user, text string) service.Result {
	res, err := svc.Handle(context.Background(), service.Command{UserID: user, Text: text})
	So(err, ShouldBeNil)
	return res
}

func codeOf(svc *service.Service, user string) string {
	v, err := svc.Current(context.Background(), user)
	So(err, ShouldBeNil)
	return v.Code
}

func TestFlow_AgainstScriptedOpponent(t *testing.T) {
	Convey("Given Ana playing against the scripted opponent", t, func() {
		rec := newRecorder()
		svc := startService(rec)
		defer svc.Stop()

		res := send(svc, "ana", "/sesion Ana Reds")
		So(res.Messages[0], ShouldContainSubstring, "Sesión creada")
		So(res.Messages[0], ShouldContainSubstring, "Reds")
		code := codeOf(svc, "ana")
		So(res.Messages[0], ShouldContainSubstring, code)

		res = send(svc, "ana", "/u ia")
		So(res.Messages[0], ShouldContainSubstring, "IA unida")

		res = send(svc, "ana", "/a")
		So(res.Messages[0], ShouldContainSubstring, "seleccionado automáticamente")

		v, err := svc.Snapshot(context.Background(), code)
		So(err, ShouldBeNil)
		bot, ok := v.Participant(session.BotID)
		So(ok, ShouldBeTrue)
		So(bot.Roster, ShouldBeEmpty)

		Convey("When Ana confirms", func() {
			res := send(svc, "ana", "/c")

			Convey("Then the match is scheduled once", func() {
				So(res.MatchScheduled, ShouldBeTrue)
				So(res.Messages, ShouldHaveLength, 3)
				So(res.Messages[0], ShouldContainSubstring, "Ana confirmó el equipo *Reds*")
				So(res.Messages[1], ShouldContainSubstring, session.BotNickname)
				So(res.Messages[2], ShouldEqual, "🎮 Ambos equipos confirmados. ¡Iniciando partido!")

				again, err := svc.Handle(context.Background(), service.Command{UserID: "ana", Text: "/c"})
				if err == nil {
					So(again.MatchScheduled, ShouldBeFalse)
				}
			})

			Convey("Then the feed is delivered in order and the session closes", func() {
				So(eventually(func() bool { return rec.ended(code) }), ShouldBeTrue)

				items := rec.feedOf(code)
				So(len(items), ShouldBeGreaterThanOrEqualTo, 4)
				So(items[0].Kind, ShouldEqual, notify.FeedStart)
				So(items[0].Text, ShouldEqual, router.MsgMatchStart)
				n := len(items)
				So(items[n-3].Kind, ShouldEqual, notify.FeedResult)
				So(items[n-3].Text, ShouldContainSubstring, "RESULTADO FINAL")
				So(items[n-3].Score, ShouldNotBeNil)
				So(items[n-3].Score.Home, ShouldEqual, "Reds")
				So(items[n-2].Kind, ShouldEqual, notify.FeedStats)
				So(items[n-1].Text, ShouldEqual, router.MsgMatchEnd)
				for _, it := range items[1 : n-3] {
					So(it.Kind, ShouldEqual, notify.FeedEvent)
					So(it.Event, ShouldNotBeNil)
				}

				notes := rec.notesFor("ana")
				So(notes, ShouldNotBeEmpty)
				So(notes[0], ShouldEqual, router.MsgMatchStart)
				So(notes[len(notes)-1], ShouldEqual, router.MsgMatchEnd)
				So(rec.notesFor(session.BotID), ShouldBeEmpty)

				So(eventually(func() bool {
					_, err := svc.Snapshot(context.Background(), code)
					return errors.Is(err, session.ErrSessionNotFound)
				}), ShouldBeTrue)

				res := send(svc, "ana", "/pool")
				So(res.Messages[0], ShouldContainSubstring, "/sesion")
				So(eventually(func() bool {
					return svc.GetStats()["matchesProcessed"] == int64(1)
				}), ShouldBeTrue)
			})
		})
	})
}

func TestFlow_TwoHumans(t *testing.T) {
	Convey("Given two humans in one session", t, func() {
		rec := newRecorder()
		svc := startService(rec)
		defer svc.Stop()

		send(svc, "ana", "/sesion Ana Reds")
		code := codeOf(svc, "ana")

		res := send(svc, "bob", "/unirse "+strings.ToLower(code)+" Bob Blues")
		So(res.Messages[0], ShouldContainSubstring, "Bob")
		So(rec.notesFor("ana"), ShouldResemble, []string{"👤 Bob se unió a tu sesión (equipo: Blues)."})

		Convey("A non-creator cannot add the scripted opponent", func() {
			res := send(svc, "bob", "/u ia")
			So(res.Messages[0], ShouldNotContainSubstring, "IA unida")
		})

		Convey("When both confirm", func() {
			send(svc, "ana", "/s p1 p2 p3")
			send(svc, "bob", "/a")

			first := send(svc, "ana", "/c")
			So(first.MatchScheduled, ShouldBeFalse)
			So(first.Messages, ShouldHaveLength, 1)
			So(rec.notesFor("bob"), ShouldHaveLength, 1)
			So(rec.notesFor("bob")[0], ShouldContainSubstring, "Ana confirmó")

			Convey("A changed roster needs a new confirmation", func() {
				send(svc, "ana", "/q p3")
				v, err := svc.Snapshot(context.Background(), code)
				So(err, ShouldBeNil)
				me, _ := v.Participant("ana")
				So(me.Status, ShouldEqual, session.StatusPending)
			})

			Convey("The second confirmation starts the match for both", func() {
				second := send(svc, "bob", "/c")
				So(second.MatchScheduled, ShouldBeTrue)
				So(eventually(func() bool { return rec.ended(code) }), ShouldBeTrue)

				for _, id := range []string{"ana", "bob"} {
					notes := rec.notesFor(id)
					So(notes[len(notes)-1], ShouldEqual, router.MsgMatchEnd)
				}
			})
		})
	})
}

func TestService_Dedupe(t *testing.T) {
	Convey("Given a redelivered message", t, func() {
		svc := startService(newRecorder())
		defer svc.Stop()

		cmd := service.Command{UserID: "ana", Text: "/sesion Ana", MessageID: "m-1"}
		first, err := svc.Handle(context.Background(), cmd)
		So(err, ShouldBeNil)
		So(first.Duplicate, ShouldBeFalse)

		Convey("Then it is not run twice", func() {
			second, err := svc.Handle(context.Background(), cmd)
			So(err, ShouldBeNil)
			So(second.Duplicate, ShouldBeTrue)
			So(second.Messages, ShouldBeEmpty)
			So(svc.GetStats()["sessions"], ShouldEqual, 1)
		})

		Convey("Then the same id from another user still runs", func() {
			res, err := svc.Handle(context.Background(), service.Command{UserID: "bob", Text: "/sesion Bob", MessageID: "m-1"})
			So(err, ShouldBeNil)
			So(res.Duplicate, ShouldBeFalse)
			So(svc.GetStats()["sessions"], ShouldEqual, 2)
		})
	})
}

func TestService_QueueFull(t *testing.T) {
	Convey("Given a single worker stuck on a slow feed and a queue of one", t, func() {
		svc := startService(newRecorder(),
			service.WithWorkerCount(1),
			service.WithQueueSize(1),
			service.WithEventDelay(time.Hour),
		)
		defer svc.Stop()

		var (
			user    string
			code    string
			last    service.Result
			lastErr error
		)
		for i := 0; i < 10; i++ {
			user = "user-" + string(rune('a'+i))
			send(svc, user, "/sesion U")
			code = codeOf(svc, user)
			send(svc, user, "/u ia")
			send(svc, user, "/a")
			last, lastErr = svc.Handle(context.Background(), service.Command{UserID: user, Text: "/c", MessageID: "c"})
			if lastErr != nil {
				break
			}
		}

		Convey("Then the confirmation is refused and rolled back", func() {
			So(errors.Is(lastErr, service.ErrQueueFull), ShouldBeTrue)
			So(last.Messages, ShouldResemble, []string{router.MsgQueueFull})
			So(last.MatchScheduled, ShouldBeFalse)

			v, err := svc.Snapshot(context.Background(), code)
			So(err, ShouldBeNil)
			So(v.State, ShouldEqual, session.StateBothReady)
			for _, p := range v.Participants {
				So(p.Status, ShouldEqual, session.StatusPending)
				So(p.Roster, ShouldNotBeEmpty)
			}

			Convey("and the retry is not swallowed as a duplicate", func() {
				res, err := svc.Handle(context.Background(), service.Command{UserID: user, Text: "/c", MessageID: "c"})
				So(res.Duplicate, ShouldBeFalse)
				So(errors.Is(err, service.ErrQueueFull), ShouldBeTrue)
			})
		})
	})
}
