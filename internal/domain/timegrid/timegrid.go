// Package timegrid maps calendar years onto a fixed musical time grid.
//
// One year occupies a fixed number of bars; all event times in the pipeline
// are expressed as absolute beats on this grid and converted to seconds only
// at the rendering boundary.
package timegrid

import "fmt"

// Grid holds the musical time parameters for a run. Construct with New so the
// invariants are checked once, before any year is processed.
type Grid struct {
	StartYear   int
	EndYear     int
	BPM         float64
	BarsPerYear int
	BeatsPerBar int
}

// New validates the grid parameters and returns a Grid.
func New(startYear, endYear int, bpm float64, barsPerYear, beatsPerBar int) (Grid, error) {
	if endYear < startYear {
		return Grid{}, fmt.Errorf("%w: end_year %d before start_year %d", ErrInvalidGrid, endYear, startYear)
	}
	if bpm <= 0 {
		return Grid{}, fmt.Errorf("%w: bpm %v", ErrInvalidGrid, bpm)
	}
	if barsPerYear < 1 || beatsPerBar < 1 {
		return Grid{}, fmt.Errorf("%w: bars_per_year %d, beats_per_bar %d", ErrInvalidGrid, barsPerYear, beatsPerBar)
	}
	return Grid{
		StartYear:   startYear,
		EndYear:     endYear,
		BPM:         bpm,
		BarsPerYear: barsPerYear,
		BeatsPerBar: beatsPerBar,
	}, nil
}

// NumYears returns the number of year segments on the grid.
func (g Grid) NumYears() int { return g.EndYear - g.StartYear + 1 }

// BeatsPerYear returns the beats in one year segment.
func (g Grid) BeatsPerYear() int { return g.BarsPerYear * g.BeatsPerBar }

// TotalBeats returns the length of the whole timeline in beats.
func (g Grid) TotalBeats() int { return g.NumYears() * g.BeatsPerYear() }

// SecondsPerBeat returns the duration of one beat.
func (g Grid) SecondsPerBeat() float64 { return 60.0 / g.BPM }

// TotalSeconds returns the length of the whole timeline in seconds.
func (g Grid) TotalSeconds() float64 { return float64(g.TotalBeats()) * g.SecondsPerBeat() }

// YearBeatRange returns the absolute [start, end) beat window for a year.
func (g Grid) YearBeatRange(year int) (start, end float64) {
	idx := year - g.StartYear
	start = float64(idx * g.BeatsPerYear())
	return start, start + float64(g.BeatsPerYear())
}

// BeatToSeconds converts an absolute beat position to seconds.
func (g Grid) BeatToSeconds(beat float64) float64 { return beat * g.SecondsPerBeat() }

// Years returns every year on the grid in ascending order.
func (g Grid) Years() []int {
	years := make([]int, 0, g.NumYears())
	for y := g.StartYear; y <= g.EndYear; y++ {
		years = append(years, y)
	}
	return years
}
