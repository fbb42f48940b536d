package diversity_test

import (
	"testing"

	"github.com/ecotone-audio/ecotone/internal/domain/diversity"
	"github.com/ecotone-audio/ecotone/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func row(year int, id string, count float64) model.Observation {
	return model.Observation{Year: year, SpeciesID: id, SpeciesName: id, ObsCount: count}
}

func rowWithEffort(year int, id string, count, effort float64) model.Observation {
	r := row(year, id, count)
	r.Effort = &effort
	return r
}

func TestComputeTwoYearScenario(t *testing.T) {
	Convey("Given {A:10, B:5} in 2016 and {A:8, C:3} in 2017", t, func() {
		table := model.Table{
			2016: {row(2016, "A", 10), row(2016, "B", 5)},
			2017: {row(2017, "A", 8), row(2017, "C", 3)},
		}
		calc := diversity.NewCalculator()

		Convey("When computing metrics for both years", func() {
			metrics := calc.Compute(table, 2016, 2017)
			So(len(metrics), ShouldEqual, 2)
			first, second := metrics[0], metrics[1]

			Convey("Then richness is 2 in both years", func() {
				So(first.Richness, ShouldEqual, 2)
				So(second.Richness, ShouldEqual, 2)
			})

			Convey("And the first year has zero turnover", func() {
				So(first.Turnover, ShouldEqual, 0.0)
			})

			Convey("And 2017 turnover is the symmetric difference over the union", func() {
				// |{A,B} Δ {A,C}| / |{A,B} ∪ {A,C}| = 2/3
				So(second.Turnover, ShouldAlmostEqual, 2.0/3.0, 1e-12)
			})

			Convey("And C is the only new species in 2017", func() {
				So(second.NewSpecies, ShouldResemble, []string{"C"})
				So(second.LostSpecies, ShouldResemble, []string{"B"})
			})

			Convey("And top species rank descending by abundance", func() {
				So(first.TopSpecies, ShouldResemble, []string{"A", "B"})
				So(second.TopSpecies, ShouldResemble, []string{"A", "C"})
			})
		})
	})
}

func TestComputeBoundsAndIdempotence(t *testing.T) {
	Convey("Given a multi-year table with churn", t, func() {
		table := model.Table{
			2015: {row(2015, "a", 4), row(2015, "b", 2), row(2015, "c", 9)},
			2016: {row(2016, "c", 1), row(2016, "d", 7)},
			2017: {row(2017, "d", 3), row(2017, "e", 5), row(2017, "f", 2), row(2017, "g", 8)},
		}
		calc := diversity.NewCalculator()

		Convey("When computing metrics", func() {
			metrics := calc.Compute(table, 2015, 2017)

			Convey("Then turnover stays within [0, 1] and starts at 0", func() {
				So(metrics[0].Turnover, ShouldEqual, 0.0)
				for _, m := range metrics {
					So(m.Turnover, ShouldBeGreaterThanOrEqualTo, 0.0)
					So(m.Turnover, ShouldBeLessThanOrEqualTo, 1.0)
				}
			})

			Convey("And re-deriving from the same table yields identical metrics", func() {
				again := calc.Compute(table, 2015, 2017)
				So(again, ShouldResemble, metrics)
			})
		})
	})

	Convey("Given a year range with a gap year", t, func() {
		table := model.Table{
			2015: {row(2015, "a", 4)},
			2017: {row(2017, "a", 4)},
		}
		calc := diversity.NewCalculator()

		Convey("When computing across the gap", func() {
			metrics := calc.Compute(table, 2015, 2017)

			Convey("Then the empty year has zero richness and full turnover", func() {
				So(metrics[1].Richness, ShouldEqual, 0)
				So(metrics[1].Turnover, ShouldEqual, 1.0)
			})

			Convey("And the year after the gap sees the species as new", func() {
				So(metrics[2].Turnover, ShouldEqual, 1.0)
				So(metrics[2].NewSpecies, ShouldResemble, []string{"a"})
			})
		})
	})

	Convey("Given two consecutive empty years", t, func() {
		calc := diversity.NewCalculator()

		Convey("When computing metrics", func() {
			metrics := calc.Compute(model.Table{}, 2015, 2016)

			Convey("Then an empty union yields zero turnover, not a division by zero", func() {
				So(metrics[1].Turnover, ShouldEqual, 0.0)
			})
		})
	})
}

func TestTopSpeciesRanking(t *testing.T) {
	Convey("Given abundances with ties", t, func() {
		table := model.Table{
			2016: {
				row(2016, "wren", 5),
				row(2016, "finch", 5),
				row(2016, "owl", 9),
				row(2016, "dove", 1),
			},
		}

		Convey("When computing with an uncapped pool", func() {
			metrics := diversity.NewCalculator().Compute(table, 2016, 2016)

			Convey("Then ties break by ascending species id", func() {
				So(metrics[0].TopSpecies, ShouldResemble, []string{"owl", "finch", "wren", "dove"})
			})
		})

		Convey("When the pool is capped at 2", func() {
			metrics := diversity.NewCalculator(diversity.WithTopK(2)).Compute(table, 2016, 2016)

			Convey("Then only the strongest species remain", func() {
				So(metrics[0].TopSpecies, ShouldResemble, []string{"owl", "finch"})
			})
		})
	})
}

func TestConfidence(t *testing.T) {
	Convey("Given the effort-based confidence", t, func() {
		calc := diversity.NewCalculator(diversity.WithConfidenceScale(100))

		Convey("When a year has no effort data at all", func() {
			table := model.Table{2016: {row(2016, "a", 3)}}
			metrics := calc.Compute(table, 2016, 2016)

			Convey("Then confidence defaults to full trust", func() {
				// Policy: count-only data is fully trusted, not distrusted.
				So(metrics[0].Confidence, ShouldEqual, 1.0)
				So(metrics[0].Effort, ShouldBeNil)
			})
		})

		Convey("When effort is present", func() {
			table := model.Table{
				2016: {rowWithEffort(2016, "a", 3, 50), rowWithEffort(2016, "b", 2, 50)},
				2017: {rowWithEffort(2017, "a", 3, 2000)},
			}
			metrics := calc.Compute(table, 2016, 2017)

			Convey("Then confidence saturates toward 1 with growing effort", func() {
				So(metrics[0].Confidence, ShouldBeGreaterThan, 0.0)
				So(metrics[0].Confidence, ShouldBeLessThan, 1.0)
				So(metrics[1].Confidence, ShouldBeGreaterThan, metrics[0].Confidence)
				So(metrics[1].Confidence, ShouldBeLessThan, 1.0)
			})

			Convey("And per-row efforts sum into the year effort", func() {
				So(metrics[0].Effort, ShouldNotBeNil)
				So(*metrics[0].Effort, ShouldEqual, 100.0)
			})
		})
	})
}

func TestMedianRichness(t *testing.T) {
	Convey("Given a set of year metrics", t, func() {
		metrics := []diversity.YearMetrics{
			{Richness: 2}, {Richness: 9}, {Richness: 4},
		}

		Convey("When computing the median of an odd count", func() {
			So(diversity.MedianRichness(metrics), ShouldEqual, 4.0)
		})

		Convey("When computing the median of an even count", func() {
			even := append(metrics, diversity.YearMetrics{Richness: 6})
			So(diversity.MedianRichness(even), ShouldEqual, 5.0)
		})

		Convey("When there are no metrics", func() {
			So(diversity.MedianRichness(nil), ShouldEqual, 0.0)
		})
	})
}
