// Package voicing assigns each species a stable musical identity.
//
// A species voice is a pure function of the species id and the static musical
// configuration, never of the year or of which other species are present.
// Each attribute uses its own hash sub-key so the four draws are independent;
// reusing one draw would correlate pitch, pan, and timbre audibly.
package voicing

import (
	"sort"
	"sync"

	"github.com/ecotone-audio/ecotone/internal/domain/hashing"
)

// Hash sub-key suffixes for the independent per-species draws.
const (
	suffixDegree  = ":deg"
	suffixOctave  = ":oct"
	suffixPan     = ":pan"
	suffixProgram = ":prog"
)

const (
	midiMax            = 127
	panRange           = 128
	semitonesPerOctave = 12
)

// Voice is the stable, hash-derived musical identity of one species.
type Voice struct {
	SpeciesID    string `json:"species_id"`
	SpeciesName  string `json:"species_name"`
	Degree       int    `json:"degree"`        // index into the scale intervals
	OctaveOffset int    `json:"octave_offset"` // centered around 0
	Pitch        int    `json:"pitch"`         // resulting MIDI note, 0-127
	Pan          int    `json:"pan"`           // CC10 value, 0-127
	Program      int    `json:"program"`       // MIDI program from the pool
}

// Option applies a configuration option to the Assigner.
type Option func(*Assigner)

// WithOctaveSpan sets how many octaves the per-species octave draw covers.
func WithOctaveSpan(span int) Option {
	return func(a *Assigner) {
		if span > 0 {
			a.octaveSpan = span
		}
	}
}

// Assigner derives and memoizes species voices. Safe for concurrent use: the
// derivation is pure, so racing first accesses recompute the same value and
// the winner is indistinguishable from the loser.
type Assigner struct {
	scale      []int
	rootMidi   int
	programs   []int
	octaveSpan int

	mu    sync.RWMutex
	cache map[string]Voice
}

// NewAssigner creates an Assigner for the given scale intervals, base root
// MIDI note, and instrument program pool. The caller validates that scale and
// programs are non-empty before any year is processed.
func NewAssigner(scale []int, rootMidi int, programs []int, opts ...Option) *Assigner {
	a := &Assigner{
		scale:      scale,
		rootMidi:   rootMidi,
		programs:   programs,
		octaveSpan: 3,
		cache:      make(map[string]Voice),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Voice returns the stable voice for a species, deriving and caching it on
// first access.
func (a *Assigner) Voice(speciesID, speciesName string) Voice {
	a.mu.RLock()
	v, ok := a.cache[speciesID]
	a.mu.RUnlock()
	if ok {
		return v
	}

	v = a.derive(speciesID, speciesName)

	a.mu.Lock()
	// A racing goroutine may have derived the same voice already; both
	// results are identical, so last write wins harmlessly.
	a.cache[speciesID] = v
	a.mu.Unlock()
	return v
}

// Assigned returns every cached voice sorted by species id, for the metadata
// document.
func (a *Assigner) Assigned() []Voice {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]Voice, 0, len(a.cache))
	for _, v := range a.cache {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SpeciesID < out[j].SpeciesID })
	return out
}

// Size returns the number of cached voices.
func (a *Assigner) Size() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.cache)
}

func (a *Assigner) derive(speciesID, speciesName string) Voice {
	degree := hashing.MustStableInt(speciesID+suffixDegree, len(a.scale))
	octave := hashing.MustStableInt(speciesID+suffixOctave, a.octaveSpan) - a.octaveSpan/2
	pan := hashing.MustStableInt(speciesID+suffixPan, panRange)
	program := a.programs[hashing.MustStableInt(speciesID+suffixProgram, len(a.programs))]

	pitch := clampMidi(a.rootMidi + a.scale[degree] + semitonesPerOctave*octave)

	return Voice{
		SpeciesID:    speciesID,
		SpeciesName:  speciesName,
		Degree:       degree,
		OctaveOffset: octave,
		Pitch:        pitch,
		Pan:          pan,
		Program:      program,
	}
}

func clampMidi(p int) int {
	if p < 0 {
		return 0
	}
	if p > midiMax {
		return midiMax
	}
	return p
}
