package random_test

import (
	"testing"

	"github.com/okian/patabol/internal/domain/random"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSource(t *testing.T) {
	Convey("Given two sources with the same seed", t, func() {
		a := random.New(7)
		b := random.New(7)

		Convey("Then they produce the same sequence", func() {
			for i := 0; i < 50; i++ {
				So(a.Intn(100), ShouldEqual, b.Intn(100))
				So(a.Float64(), ShouldEqual, b.Float64())
			}
		})
	})

	Convey("Given a crypto-seeded source", t, func() {
		src, err := random.NewFromCrypto()

		Convey("Then it is usable", func() {
			So(err, ShouldBeNil)
			v := src.Intn(10)
			So(v, ShouldBeBetweenOrEqual, 0, 9)
		})
	})
}

func TestHelpers(t *testing.T) {
	Convey("Given a seeded source", t, func() {
		src := random.New(1)

		Convey("IntRange stays inside inclusive bounds", func() {
			seen := map[int]bool{}
			for i := 0; i < 500; i++ {
				v := random.IntRange(src, 2, 4)
				So(v, ShouldBeBetweenOrEqual, 2, 4)
				seen[v] = true
			}
			So(len(seen), ShouldEqual, 3)
			So(random.IntRange(src, 5, 5), ShouldEqual, 5)
		})

		Convey("Sample returns distinct elements and clamps k", func() {
			items := []int{1, 2, 3, 4, 5, 6}
			got := random.Sample(src, items, 4)
			So(len(got), ShouldEqual, 4)
			uniq := map[int]bool{}
			for _, v := range got {
				uniq[v] = true
			}
			So(len(uniq), ShouldEqual, 4)
			So(items, ShouldResemble, []int{1, 2, 3, 4, 5, 6})

			So(len(random.Sample(src, items, 10)), ShouldEqual, 6)
			So(random.Sample(src, items, 0), ShouldBeEmpty)
		})

		Convey("Choice picks an element of the slice", func() {
			items := []string{"a", "b"}
			So(random.Choice(src, items), ShouldBeIn, items)
		})

		Convey("Chance honours the extremes", func() {
			So(random.Chance(src, 0), ShouldBeFalse)
			So(random.Chance(src, 1), ShouldBeTrue)
		})

		Convey("Shuffle permutes in place and repeats per seed", func() {
			a := []int{1, 2, 3, 4, 5, 6, 7, 8}
			b := []int{1, 2, 3, 4, 5, 6, 7, 8}
			random.Shuffle(random.New(9), a)
			random.Shuffle(random.New(9), b)
			So(a, ShouldResemble, b)
			So(a, ShouldHaveLength, 8)
			So(a, ShouldContain, 1)
			So(a, ShouldContain, 8)
			sum := 0
			for _, v := range a {
				sum += v
			}
			So(sum, ShouldEqual, 36)
		})
	})
}
