// Package timeline assembles per-year music into the final ordered artifact
// handed to the render collaborator.
package timeline

import (
	"sort"

	"github.com/ecotone-audio/ecotone/internal/domain/model"
	"github.com/ecotone-audio/ecotone/internal/domain/timegrid"
)

// Timeline is the fully materialized, immutable event sequence for a run.
// Events carry absolute beat positions on the grid; Build sorts them into
// temporal order once, and the accessors return copies so no caller can
// disturb the ordering afterward.
type Timeline struct {
	grid  timegrid.Grid
	years []model.YearMusic
	notes []model.NoteEvent
	ccs   []model.CCEvent
}

// Build aggregates YearMusic records into a Timeline. Input order does not
// matter; years are sorted ascending and events into a stable temporal order
// (start beat, then channel, then pitch), so two builds over the same records
// are identical.
func Build(grid timegrid.Grid, years []model.YearMusic) *Timeline {
	sorted := make([]model.YearMusic, len(years))
	copy(sorted, years)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Year < sorted[j].Year })

	t := &Timeline{grid: grid, years: sorted}
	for _, ym := range sorted {
		t.notes = append(t.notes, ym.Notes...)
		t.ccs = append(t.ccs, ym.CCs...)
	}
	sort.SliceStable(t.notes, func(i, j int) bool {
		a, b := t.notes[i], t.notes[j]
		if a.StartBeat != b.StartBeat {
			return a.StartBeat < b.StartBeat
		}
		if a.Channel != b.Channel {
			return a.Channel < b.Channel
		}
		return a.Pitch < b.Pitch
	})
	sort.SliceStable(t.ccs, func(i, j int) bool {
		a, b := t.ccs[i], t.ccs[j]
		if a.TimeBeat != b.TimeBeat {
			return a.TimeBeat < b.TimeBeat
		}
		if a.Controller != b.Controller {
			return a.Controller < b.Controller
		}
		return a.Channel < b.Channel
	})
	return t
}

// Notes returns all note events in temporal order.
func (t *Timeline) Notes() []model.NoteEvent {
	out := make([]model.NoteEvent, len(t.notes))
	copy(out, t.notes)
	return out
}

// CCs returns all control-change events in temporal order.
func (t *Timeline) CCs() []model.CCEvent {
	out := make([]model.CCEvent, len(t.ccs))
	copy(out, t.ccs)
	return out
}

// Years returns the per-year records in ascending year order.
func (t *Timeline) Years() []model.YearMusic {
	out := make([]model.YearMusic, len(t.years))
	copy(out, t.years)
	return out
}

// Decisions returns every year's decision trace in ascending year order.
func (t *Timeline) Decisions() []model.Decisions {
	out := make([]model.Decisions, len(t.years))
	for i, ym := range t.years {
		out[i] = ym.Decisions
	}
	return out
}

// Grid returns the time grid the events were placed on.
func (t *Timeline) Grid() timegrid.Grid { return t.grid }

// NoteCount returns the total number of note events.
func (t *Timeline) NoteCount() int { return len(t.notes) }

// CCCount returns the total number of control-change events.
func (t *Timeline) CCCount() int { return len(t.ccs) }

// DurationSeconds returns the rendered length of the timeline.
func (t *Timeline) DurationSeconds() float64 { return t.grid.TotalSeconds() }
