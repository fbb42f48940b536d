// Package model contains domain models passed between layers.
package model

// Observation is one aggregated per-year, per-species row of the input table.
// (Year, SpeciesID) is unique within a table; the aggregation collaborator
// guarantees this before the row reaches the core.
type Observation struct {
	Year        int     // observation year
	SpeciesID   string  // stable species identifier, e.g. "american_robin"
	SpeciesName string  // display name
	ObsCount    float64 // summed observation count for the year
	Effort      *float64 // summed sampling effort for the year; nil when unrecorded
}

// Table maps a year to its aggregated observation rows. Built once by the
// loading adapter and read-only afterward.
type Table map[int][]Observation

// Years returns the years present in the table, in no particular order.
func (t Table) Years() []int {
	years := make([]int, 0, len(t))
	for y := range t {
		years = append(years, y)
	}
	return years
}

// SpeciesSet returns the set of species ids observed in the given year.
func (t Table) SpeciesSet(year int) map[string]struct{} {
	rows := t[year]
	set := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		set[r.SpeciesID] = struct{}{}
	}
	return set
}
