package timeline_test

import (
	"testing"

	"github.com/ecotone-audio/ecotone/internal/domain/model"
	"github.com/ecotone-audio/ecotone/internal/domain/timegrid"
	"github.com/ecotone-audio/ecotone/internal/domain/timeline"
	. "github.com/smartystreets/goconvey/convey"
)

func note(channel, pitch int, start float64) model.NoteEvent {
	return model.NoteEvent{Channel: channel, Pitch: pitch, Velocity: 80, StartBeat: start, DurationBeats: 1}
}

func TestBuild(t *testing.T) {
	Convey("Given per-year music records in arbitrary order", t, func() {
		grid, err := timegrid.New(2016, 2017, 60, 8, 4)
		So(err, ShouldBeNil)

		years := []model.YearMusic{
			{
				Year:      2017,
				Notes:     []model.NoteEvent{note(1, 70, 40), note(0, 60, 32)},
				CCs:       []model.CCEvent{{Channel: 1, Controller: 10, Value: 30, TimeBeat: 32}},
				Decisions: model.Decisions{Year: 2017},
			},
			{
				Year:  2016,
				Notes: []model.NoteEvent{note(2, 90, 4.5), note(0, 62, 0), note(1, 64, 0)},
				CCs: []model.CCEvent{
					{Channel: 1, Controller: 91, Value: 40, TimeBeat: 0},
					{Channel: 1, Controller: 10, Value: 96, TimeBeat: 0},
				},
				Decisions: model.Decisions{Year: 2016},
			},
		}

		Convey("When building the timeline", func() {
			tl := timeline.Build(grid, years)

			Convey("Then notes come out in temporal order", func() {
				notes := tl.Notes()
				So(tl.NoteCount(), ShouldEqual, 5)
				for i := 1; i < len(notes); i++ {
					So(notes[i].StartBeat, ShouldBeGreaterThanOrEqualTo, notes[i-1].StartBeat)
				}
				So(notes[0].Pitch, ShouldEqual, 62)
				So(notes[1].Pitch, ShouldEqual, 64)
			})

			Convey("And ties break by channel before pitch", func() {
				notes := tl.Notes()
				So(notes[0].Channel, ShouldEqual, 0)
				So(notes[1].Channel, ShouldEqual, 1)
			})

			Convey("And control changes are ordered by beat then controller", func() {
				ccs := tl.CCs()
				So(tl.CCCount(), ShouldEqual, 3)
				So(ccs[0].Controller, ShouldEqual, 10)
				So(ccs[1].Controller, ShouldEqual, 91)
				So(ccs[2].TimeBeat, ShouldEqual, 32.0)
			})

			Convey("And years are sorted ascending", func() {
				So(tl.Years()[0].Year, ShouldEqual, 2016)
				So(tl.Years()[1].Year, ShouldEqual, 2017)
				So(tl.Decisions()[0].Year, ShouldEqual, 2016)
			})

			Convey("And the duration follows the grid", func() {
				So(tl.DurationSeconds(), ShouldEqual, 64.0)
				So(tl.Grid().NumYears(), ShouldEqual, 2)
			})

			Convey("And rebuilding from the same records is identical", func() {
				again := timeline.Build(grid, years)
				So(again.Notes(), ShouldResemble, tl.Notes())
				So(again.CCs(), ShouldResemble, tl.CCs())
			})

			Convey("And mutating an accessor copy does not disturb the timeline", func() {
				notes := tl.Notes()
				notes[0].Pitch = 1
				So(tl.Notes()[0].Pitch, ShouldEqual, 62)
			})
		})
	})
}
