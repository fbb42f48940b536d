// Package diversity computes per-year biodiversity metrics from the
// aggregated observation table.
//
// All metrics are pure functions of the table. Turnover and new/lost species
// compare a year against the previous one, so the computation is an explicit
// fold over years in ascending order carrying only the previous species set.
package diversity

import (
	"math"
	"sort"

	"github.com/ecotone-audio/ecotone/internal/domain/model"
)

// Default parameters, overridable through options.
const (
	defaultTopK            = 40
	defaultConfidenceScale = 100.0
)

// YearMetrics summarizes one year of observations.
type YearMetrics struct {
	Year     int
	Richness int     // distinct species observed
	TotalObs float64 // summed observation counts
	Turnover float64 // symmetric difference over union vs. previous year, [0,1]
	// Confidence is a saturating function of sampling effort in [0,1].
	// Years with no effort data get 1.0: count-only data is fully trusted.
	Confidence  float64
	Effort      *float64 // year effort, nil when unrecorded
	TopSpecies  []string // desc by abundance, ties asc by species id, capped at TopK
	NewSpecies  []string // present this year, absent the previous one; sorted
	LostSpecies []string // present the previous year, absent this one; sorted
}

// Option applies a configuration option to the Calculator.
type Option func(*Calculator)

// WithTopK caps the ranked top-species pool per year.
func WithTopK(k int) Option {
	return func(c *Calculator) {
		if k > 0 {
			c.topK = k
		}
	}
}

// WithConfidenceScale sets the effort scale k in confidence = 1 - exp(-effort/k).
func WithConfidenceScale(scale float64) Option {
	return func(c *Calculator) {
		if scale > 0 {
			c.confidenceScale = scale
		}
	}
}

// Calculator derives YearMetrics from an observation table.
type Calculator struct {
	topK            int
	confidenceScale float64
}

// NewCalculator creates a Calculator with configuration options.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{
		topK:            defaultTopK,
		confidenceScale: defaultConfidenceScale,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compute returns metrics for every year in [startYear, endYear] in ascending
// order. Years absent from the table yield zero-richness metrics; that is a
// data-sparsity condition, not an error.
func (c *Calculator) Compute(table model.Table, startYear, endYear int) []YearMetrics {
	out := make([]YearMetrics, 0, endYear-startYear+1)
	var prevSet map[string]struct{}

	for year := startYear; year <= endYear; year++ {
		rows := table[year]
		set := table.SpeciesSet(year)

		m := YearMetrics{
			Year:     year,
			Richness: len(set),
		}
		for _, r := range rows {
			m.TotalObs += r.ObsCount
		}

		if prevSet == nil {
			// First year: no previous set to compare against. Every species
			// counts as new so the shimmer source is well defined, but
			// turnover stays 0 (and gates shimmer off anyway).
			m.Turnover = 0
			m.NewSpecies = sortedKeys(set)
		} else {
			m.Turnover = turnover(set, prevSet)
			m.NewSpecies = sortedDiff(set, prevSet)
			m.LostSpecies = sortedDiff(prevSet, set)
		}

		m.Effort = yearEffort(rows)
		m.Confidence = c.confidence(m.Effort)
		m.TopSpecies = c.topSpecies(rows)

		out = append(out, m)
		prevSet = set
	}
	return out
}

// MedianRichness returns the median richness across the given metrics, used
// by the drone layer to decide when to add the ninth.
func MedianRichness(metrics []YearMetrics) float64 {
	if len(metrics) == 0 {
		return 0
	}
	vals := make([]int, len(metrics))
	for i, m := range metrics {
		vals[i] = m.Richness
	}
	sort.Ints(vals)
	mid := len(vals) / 2
	if len(vals)%2 == 1 {
		return float64(vals[mid])
	}
	return float64(vals[mid-1]+vals[mid]) / 2
}

// turnover is the size of the symmetric difference over the size of the
// union. An empty union means two empty years: nothing changed, so 0.
func turnover(cur, prev map[string]struct{}) float64 {
	union := len(cur)
	inter := 0
	for id := range prev {
		if _, ok := cur[id]; ok {
			inter++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(union-inter) / float64(union)
}

func (c *Calculator) confidence(effort *float64) float64 {
	if effort == nil {
		return 1.0
	}
	e := *effort
	if e < 0 {
		e = 0
	}
	return 1.0 - math.Exp(-e/c.confidenceScale)
}

// topSpecies ranks species descending by abundance with ascending species-id
// tie-breaks, so the ranking is total and reproducible.
func (c *Calculator) topSpecies(rows []model.Observation) []string {
	ranked := make([]model.Observation, len(rows))
	copy(ranked, rows)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].ObsCount != ranked[j].ObsCount {
			return ranked[i].ObsCount > ranked[j].ObsCount
		}
		return ranked[i].SpeciesID < ranked[j].SpeciesID
	})
	if len(ranked) > c.topK {
		ranked = ranked[:c.topK]
	}
	ids := make([]string, len(ranked))
	for i, r := range ranked {
		ids[i] = r.SpeciesID
	}
	return ids
}

func yearEffort(rows []model.Observation) *float64 {
	var total float64
	seen := false
	for _, r := range rows {
		if r.Effort != nil {
			total += *r.Effort
			seen = true
		}
	}
	if !seen {
		return nil
	}
	return &total
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func sortedDiff(a, b map[string]struct{}) []string {
	var out []string
	for id := range a {
		if _, ok := b[id]; !ok {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
