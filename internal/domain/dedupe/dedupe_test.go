package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/patabol/internal/domain/dedupe"
)

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new deduper", t, func() {
		d := dedupe.NewInMemoryDeduper()
		So(d.Size(), ShouldEqual, 0)

		Convey("When a message id arrives for the first time", func() {
			seen := d.SeenAndRecord(ctx, "tg_1:100")

			Convey("Then it is recorded", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("And a redelivery is reported as seen", func() {
				So(d.SeenAndRecord(ctx, "tg_1:100"), ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When an id is unrecorded", func() {
			d.SeenAndRecord(ctx, "tg_1:100")
			d.Unrecord(ctx, "tg_1:100")

			Convey("Then it can be processed again", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "tg_1:100"), ShouldBeFalse)
			})
		})

		Convey("When an unknown id is unrecorded", func() {
			d.Unrecord(ctx, "nope")
			So(d.Size(), ShouldEqual, 0)
		})

		Convey("Empty ids are ordinary ids", func() {
			So(d.SeenAndRecord(ctx, ""), ShouldBeFalse)
			So(d.SeenAndRecord(ctx, ""), ShouldBeTrue)
		})
	})

	Convey("Given a bounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
		for _, id := range []string{"m1", "m2", "m3"} {
			So(d.SeenAndRecord(ctx, id), ShouldBeFalse)
		}

		Convey("When it is full, the oldest id is forgotten first", func() {
			So(d.SeenAndRecord(ctx, "m4"), ShouldBeFalse)
			So(d.Size(), ShouldEqual, 3)

			So(d.SeenAndRecord(ctx, "m2"), ShouldBeTrue)
			So(d.SeenAndRecord(ctx, "m3"), ShouldBeTrue)
			So(d.SeenAndRecord(ctx, "m4"), ShouldBeTrue)
			So(d.SeenAndRecord(ctx, "m1"), ShouldBeFalse)
			So(d.Size(), ShouldEqual, 3)
		})

		Convey("When the newest id is removed, eviction still follows insertion order", func() {
			d.Unrecord(ctx, "m3")
			So(d.SeenAndRecord(ctx, "m4"), ShouldBeFalse)
			So(d.SeenAndRecord(ctx, "m5"), ShouldBeFalse)

			So(d.SeenAndRecord(ctx, "m2"), ShouldBeTrue)
			So(d.SeenAndRecord(ctx, "m4"), ShouldBeTrue)
			So(d.SeenAndRecord(ctx, "m5"), ShouldBeTrue)
		})

		Convey("When a middle id is removed", func() {
			d.Unrecord(ctx, "m2")
			So(d.Size(), ShouldEqual, 2)
			So(d.SeenAndRecord(ctx, "m1"), ShouldBeTrue)
			So(d.SeenAndRecord(ctx, "m3"), ShouldBeTrue)
		})
	})

	Convey("A size of one keeps only the latest id", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(1))
		So(d.SeenAndRecord(ctx, "a"), ShouldBeFalse)
		So(d.SeenAndRecord(ctx, "b"), ShouldBeFalse)
		So(d.SeenAndRecord(ctx, "b"), ShouldBeTrue)
		So(d.Size(), ShouldEqual, 1)
	})

	Convey("Non-positive sizes are unbounded", t, func() {
		for _, size := range []int{0, -1} {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(size))
			for i := 0; i < 1000; i++ {
				d.SeenAndRecord(ctx, fmt.Sprintf("m-%d", i))
			}
			So(d.Size(), ShouldEqual, 1000)
			So(d.SeenAndRecord(ctx, "m-0"), ShouldBeTrue)
		}
	})
}

func TestDedupeConcurrency(t *testing.T) {
	Convey("Given concurrent redeliveries of the same ids", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(1000))
		const workers = 10
		const ids = 100

		var (
			wg    sync.WaitGroup
			mu    sync.Mutex
			fresh int
		)
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < ids; i++ {
					if !d.SeenAndRecord(context.Background(), fmt.Sprintf("m-%d", i)) {
						mu.Lock()
						fresh++
						mu.Unlock()
					}
				}
			}()
		}
		wg.Wait()

		Convey("Then each id is accepted exactly once", func() {
			So(fresh, ShouldEqual, ids)
			So(d.Size(), ShouldEqual, ids)
		})
	})
}

