package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/patabol/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type recorded struct {
	recipients []string
	text       string
	item       *FeedItem
	at         time.Time
}

type recorder struct {
	mu   sync.Mutex
	got  []recorded
	fail error
}

func (r *recorder) Notify(_ context.Context, recipients []string, msg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, recorded{recipients: recipients, text: msg, at: time.Now()})
	return r.fail
}

func (r *recorder) Publish(_ context.Context, _ string, item FeedItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, recorded{item: &item, at: time.Now()})
	return r.fail
}

func (r *recorder) all() []recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recorded(nil), r.got...)
}

func TestMulti(t *testing.T) {
	Convey("Given a Multi with two sinks", t, func() {
		a, b := &recorder{}, &recorder{fail: errors.New("boom")}
		m := Multi{a, b}
		ctx := context.Background()

		Convey("every sink receives notifications even when one fails", func() {
			err := m.Notify(ctx, []string{"u1"}, "hola")
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "boom")
			So(a.all(), ShouldHaveLength, 1)
			So(b.all(), ShouldHaveLength, 1)
		})

		Convey("feed items reach every sink", func() {
			_ = m.Publish(ctx, "ABC123", FeedItem{Kind: FeedStart, Session: "ABC123"})
			So(a.all()[0].item.Kind, ShouldEqual, FeedStart)
			So(b.all()[0].item.Session, ShouldEqual, "ABC123")
		})
	})
}

func TestLogAndDiscard(t *testing.T) {
	Convey("The log and discard sinks never fail", t, func() {
		ctx := context.Background()
		for _, n := range []Notifier{NewLogNotifier(nil), Discard{}} {
			So(n.Notify(ctx, []string{"u1", "u2"}, "hola"), ShouldBeNil)
			So(n.Publish(ctx, "ABC123", FeedItem{Kind: FeedEvent, Text: "x"}), ShouldBeNil)
		}
	})
}

func TestPacer(t *testing.T) {
	Convey("Given a pacer with a short delay", t, func() {
		rec := &recorder{}
		p := NewPacer(rec, 30*time.Millisecond)
		ctx := context.Background()

		Convey("the first step is immediate and the rest are spaced", func() {
			start := time.Now()
			for i := 0; i < 3; i++ {
				So(p.Step(ctx, []string{"u1"}, FeedItem{Kind: FeedEvent, Session: "S", Text: "t"}), ShouldBeNil)
			}
			So(time.Since(start), ShouldBeGreaterThanOrEqualTo, 55*time.Millisecond)

			got := rec.all()
			So(got, ShouldHaveLength, 6)
			So(got[0].text, ShouldEqual, "t")
			So(got[1].item.Session, ShouldEqual, "S")
		})

		Convey("items without text are only published", func() {
			So(p.Step(ctx, []string{"u1"}, FeedItem{Kind: FeedEnd, Session: "S"}), ShouldBeNil)
			got := rec.all()
			So(got, ShouldHaveLength, 1)
			So(got[0].item, ShouldNotBeNil)
		})

		Convey("a cancelled context stops waiting", func() {
			slow := NewPacer(rec, time.Hour)
			So(slow.Step(ctx, nil, FeedItem{Session: "S"}), ShouldBeNil)
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			So(slow.Step(cctx, nil, FeedItem{Session: "S"}), ShouldNotBeNil)
		})
	})

	Convey("A zero delay does not pace", t, func() {
		rec := &recorder{}
		p := NewPacer(rec, 0)
		start := time.Now()
		for i := 0; i < 50; i++ {
			So(p.Publish(context.Background(), "S", FeedItem{}), ShouldBeNil)
		}
		So(time.Since(start), ShouldBeLessThan, time.Second)
		So(rec.all(), ShouldHaveLength, 50)
	})
}

func TestSubjectToken(t *testing.T) {
	Convey("Subject tokens never contain separators or wildcards", t, func() {
		So(subjectToken("tg.123 *>"), ShouldEqual, "tg_123___")
		So(subjectToken("ABC123"), ShouldEqual, "ABC123")
	})
}
