package hashing_test

import (
	"fmt"
	"testing"

	"github.com/ecotone-audio/ecotone/internal/domain/hashing"
	. "github.com/smartystreets/goconvey/convey"
)

func TestStableInt(t *testing.T) {
	Convey("Given the stable integer hash", t, func() {
		Convey("When hashing the same key twice", func() {
			a, errA := hashing.StableInt("american_robin", 128)
			b, errB := hashing.StableInt("american_robin", 128)

			Convey("Then both calls succeed with the same value", func() {
				So(errA, ShouldBeNil)
				So(errB, ShouldBeNil)
				So(a, ShouldEqual, b)
			})
		})

		Convey("When hashing many different keys", func() {
			seen := make(map[int]struct{})
			for i := 0; i < 100; i++ {
				v, err := hashing.StableInt(fmt.Sprintf("species_%d", i), 1000)
				So(err, ShouldBeNil)
				So(v, ShouldBeGreaterThanOrEqualTo, 0)
				So(v, ShouldBeLessThan, 1000)
				seen[v] = struct{}{}
			}

			Convey("Then the values spread across the range", func() {
				So(len(seen), ShouldBeGreaterThan, 50)
			})
		})

		Convey("When hashing with a small modulus", func() {
			counts := make(map[int]int)
			for i := 0; i < 200; i++ {
				v, err := hashing.StableInt(fmt.Sprintf("key_%d", i), 4)
				So(err, ShouldBeNil)
				counts[v]++
			}

			Convey("Then no bucket is starved", func() {
				for bucket := 0; bucket < 4; bucket++ {
					So(counts[bucket], ShouldBeGreaterThan, 0)
				}
			})
		})

		Convey("When the modulus is not positive", func() {
			_, errZero := hashing.StableInt("x", 0)
			_, errNeg := hashing.StableInt("x", -5)

			Convey("Then it fails with ErrInvalidModulus", func() {
				So(errZero, ShouldWrap, hashing.ErrInvalidModulus)
				So(errNeg, ShouldWrap, hashing.ErrInvalidModulus)
			})
		})
	})
}

func TestStableFloat01(t *testing.T) {
	Convey("Given the stable float hash", t, func() {
		Convey("When hashing the same key twice", func() {
			a := hashing.StableFloat01("stellers_jay:velocity")
			b := hashing.StableFloat01("stellers_jay:velocity")

			Convey("Then the values are identical", func() {
				So(a, ShouldEqual, b)
			})
		})

		Convey("When hashing many keys", func() {
			Convey("Then every value lands in [0, 1)", func() {
				for i := 0; i < 100; i++ {
					v := hashing.StableFloat01(fmt.Sprintf("key_%d", i))
					So(v, ShouldBeGreaterThanOrEqualTo, 0.0)
					So(v, ShouldBeLessThan, 1.0)
				}
			})
		})
	})
}

func TestShuffle(t *testing.T) {
	Convey("Given a species id sequence", t, func() {
		ids := []string{"robin", "jay", "bluebird", "chickadee", "junco", "towhee"}
		identity := func(s string) string { return s }

		Convey("When shuffling twice with the same discriminator", func() {
			a := hashing.Shuffle(ids, identity, "2016")
			b := hashing.Shuffle(ids, identity, "2016")

			Convey("Then the permutations are identical", func() {
				So(a, ShouldResemble, b)
			})
		})

		Convey("When shuffling with different discriminators", func() {
			a := hashing.Shuffle(ids, identity, "2016")
			b := hashing.Shuffle(ids, identity, "2017")

			Convey("Then both keep every element", func() {
				So(len(a), ShouldEqual, len(ids))
				So(len(b), ShouldEqual, len(ids))
				seen := make(map[string]struct{})
				for _, id := range a {
					seen[id] = struct{}{}
				}
				So(len(seen), ShouldEqual, len(ids))
			})

			Convey("And the orders differ", func() {
				So(a, ShouldNotResemble, b)
			})
		})

		Convey("When shuffling", func() {
			input := []string{"robin", "jay", "bluebird"}
			_ = hashing.Shuffle(input, identity, "x")

			Convey("Then the input slice is untouched", func() {
				So(input, ShouldResemble, []string{"robin", "jay", "bluebird"})
			})
		})
	})
}

func TestContentHash(t *testing.T) {
	Convey("Given the content hash", t, func() {
		Convey("When hashing the same bytes twice", func() {
			a := hashing.ContentHash([]byte("artifact"))
			b := hashing.ContentHash([]byte("artifact"))

			Convey("Then the digests match and are 16 hex chars", func() {
				So(a, ShouldEqual, b)
				So(len(a), ShouldEqual, 16)
			})
		})

		Convey("When hashing different bytes", func() {
			a := hashing.ContentHash([]byte("artifact"))
			b := hashing.ContentHash([]byte("artifact2"))

			Convey("Then the digests differ", func() {
				So(a, ShouldNotEqual, b)
			})
		})
	})
}
