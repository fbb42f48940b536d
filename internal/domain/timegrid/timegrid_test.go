package timegrid_test

import (
	"testing"

	"github.com/ecotone-audio/ecotone/internal/domain/timegrid"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNew(t *testing.T) {
	Convey("Given time grid parameters", t, func() {
		Convey("When they are valid", func() {
			grid, err := timegrid.New(2010, 2020, 60, 8, 4)

			Convey("Then the grid is built", func() {
				So(err, ShouldBeNil)
				So(grid.NumYears(), ShouldEqual, 11)
				So(grid.BeatsPerYear(), ShouldEqual, 32)
				So(grid.TotalBeats(), ShouldEqual, 352)
			})
		})

		Convey("When the end year precedes the start year", func() {
			_, err := timegrid.New(2020, 2010, 60, 8, 4)

			Convey("Then it fails with ErrInvalidGrid", func() {
				So(err, ShouldWrap, timegrid.ErrInvalidGrid)
			})
		})

		Convey("When the bpm is not positive", func() {
			_, errZero := timegrid.New(2010, 2020, 0, 8, 4)
			_, errNeg := timegrid.New(2010, 2020, -10, 8, 4)

			Convey("Then it fails with ErrInvalidGrid", func() {
				So(errZero, ShouldWrap, timegrid.ErrInvalidGrid)
				So(errNeg, ShouldWrap, timegrid.ErrInvalidGrid)
			})
		})

		Convey("When bars or beats are below one", func() {
			_, errBars := timegrid.New(2010, 2020, 60, 0, 4)
			_, errBeats := timegrid.New(2010, 2020, 60, 8, 0)

			Convey("Then it fails with ErrInvalidGrid", func() {
				So(errBars, ShouldWrap, timegrid.ErrInvalidGrid)
				So(errBeats, ShouldWrap, timegrid.ErrInvalidGrid)
			})
		})
	})
}

func TestGridConversions(t *testing.T) {
	Convey("Given a grid at 60 bpm with 8 bars of 4 beats per year", t, func() {
		grid, err := timegrid.New(2016, 2018, 60, 8, 4)
		So(err, ShouldBeNil)

		Convey("When asking for a year's beat window", func() {
			start, end := grid.YearBeatRange(2017)

			Convey("Then it is offset by whole year segments", func() {
				So(start, ShouldEqual, 32.0)
				So(end, ShouldEqual, 64.0)
			})
		})

		Convey("When the year is the first one", func() {
			start, end := grid.YearBeatRange(2016)

			Convey("Then the window starts at beat zero", func() {
				So(start, ShouldEqual, 0.0)
				So(end, ShouldEqual, 32.0)
			})
		})

		Convey("When converting beats to seconds at 60 bpm", func() {
			Convey("Then one beat is one second", func() {
				So(grid.SecondsPerBeat(), ShouldEqual, 1.0)
				So(grid.BeatToSeconds(32), ShouldEqual, 32.0)
				So(grid.TotalSeconds(), ShouldEqual, 96.0)
			})
		})

		Convey("When listing the years", func() {
			years := grid.Years()

			Convey("Then they are ascending and complete", func() {
				So(years, ShouldResemble, []int{2016, 2017, 2018})
			})
		})
	})

	Convey("Given a grid at 120 bpm", t, func() {
		grid, err := timegrid.New(2016, 2016, 120, 8, 4)
		So(err, ShouldBeNil)

		Convey("Then a beat lasts half a second", func() {
			So(grid.SecondsPerBeat(), ShouldEqual, 0.5)
			So(grid.TotalSeconds(), ShouldEqual, 16.0)
		})
	})
}
