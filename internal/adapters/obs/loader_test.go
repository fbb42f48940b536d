package obs_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/ecotone-audio/ecotone/internal/adapters/obs"
	"github.com/ecotone-audio/ecotone/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

const validCSV = `year,species_id,species_name,obs_count,effort
2016,american_robin,American Robin,42,120.5
2016,wrentit,Wrentit,7,
2017,american_robin,American Robin,38,98
`

func TestLoad(t *testing.T) {
	Convey("Given a well-formed observation CSV", t, func() {
		loader := obs.NewLoader()

		Convey("When loading it", func() {
			table, err := loader.Load(context.Background(), strings.NewReader(validCSV))

			Convey("Then rows land under their years", func() {
				So(err, ShouldBeNil)
				So(len(table[2016]), ShouldEqual, 2)
				So(len(table[2017]), ShouldEqual, 1)
			})

			Convey("And values parse into the observation fields", func() {
				robin := table[2016][0]
				So(robin.SpeciesID, ShouldEqual, "american_robin")
				So(robin.SpeciesName, ShouldEqual, "American Robin")
				So(robin.ObsCount, ShouldEqual, 42.0)
				So(robin.Effort, ShouldNotBeNil)
				So(*robin.Effort, ShouldEqual, 120.5)
			})

			Convey("And an empty effort column stays unknown rather than zero", func() {
				So(table[2016][1].Effort, ShouldBeNil)
			})
		})
	})

	Convey("Given a CSV with malformed rows", t, func() {
		loader := obs.NewLoader()
		body := `year,species_id,species_name,obs_count,effort
2016,american_robin,American Robin,42,
,wrentit,Wrentit,7,
2016,,Oak Titmouse,3,
2016,oak_titmouse,Oak Titmouse,many,
2016,hermit_thrush,Hermit Thrush,4,soft
2017,wrentit,Wrentit,9,
`

		Convey("When loading it", func() {
			table, err := loader.Load(context.Background(), strings.NewReader(body))

			Convey("Then bad rows are dropped, not fatal", func() {
				So(err, ShouldBeNil)
				So(len(table[2016]), ShouldEqual, 1)
				So(len(table[2017]), ShouldEqual, 1)
				So(table[2016][0].SpeciesID, ShouldEqual, "american_robin")
			})
		})
	})

	Convey("Given a CSV with the wrong header", t, func() {
		loader := obs.NewLoader()
		body := "year,species,name,count,effort\n2016,a,A,1,\n"

		Convey("When loading it", func() {
			_, err := loader.Load(context.Background(), strings.NewReader(body))

			Convey("Then it fails with ErrBadInput", func() {
				So(err, ShouldWrap, obs.ErrBadInput)
			})
		})
	})

	Convey("Given an empty reader", t, func() {
		loader := obs.NewLoader()

		Convey("When loading it", func() {
			_, err := loader.Load(context.Background(), strings.NewReader(""))

			Convey("Then the missing header is an error", func() {
				So(err, ShouldWrap, obs.ErrBadInput)
			})
		})
	})

	Convey("Given a missing file", t, func() {
		loader := obs.NewLoader()

		Convey("When loading it", func() {
			_, err := loader.LoadFile(context.Background(), "does/not/exist.csv")

			Convey("Then it fails with ErrOpenInput", func() {
				So(err, ShouldWrap, obs.ErrOpenInput)
			})
		})
	})
}

func TestSampleRoundTrip(t *testing.T) {
	Convey("Given a generated sample table", t, func() {
		table := obs.GenerateSampleTable(2014, 2018)

		Convey("Then generation is deterministic", func() {
			So(obs.GenerateSampleTable(2014, 2018), ShouldResemble, table)
		})

		Convey("When writing it out and loading it back", func() {
			var buf bytes.Buffer
			So(obs.WriteCSV(&buf, table), ShouldBeNil)

			loaded, err := obs.NewLoader().Load(context.Background(), &buf)

			Convey("Then the table survives the round trip", func() {
				So(err, ShouldBeNil)
				So(loaded, ShouldResemble, table)
			})
		})
	})
}
