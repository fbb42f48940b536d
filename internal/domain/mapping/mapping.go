// Package mapping is the rules engine that turns per-year biodiversity
// metrics into timed note and control-change events on the musical grid.
//
// Three layers, one MIDI channel each:
//   - drone (0): structural anchor, root motion driven by turnover
//   - pads (1): species voices carrying the body of the ecosystem
//   - shimmer (2): change texture, gated and densified by turnover
//
// Every numeric decision is either a documented formula over the metrics or a
// stable hash draw, and is recorded in the year's decision trace. A year is
// never a failure: zero species yields a minimum-velocity drone and silence
// elsewhere.
package mapping

import (
	"fmt"
	"math"
	"strconv"

	"github.com/ecotone-audio/ecotone/internal/domain/hashing"
	"github.com/ecotone-audio/ecotone/internal/domain/model"
	"github.com/ecotone-audio/ecotone/internal/domain/timegrid"
	"github.com/ecotone-audio/ecotone/internal/domain/voicing"
)

// Default mapping parameters, overridable through options.
const (
	defaultMinVoices        = 6
	defaultMaxVoices        = 16
	defaultBaseRoot         = 62 // D4
	defaultDroneVelocity    = 60
	defaultShimmerThreshold = 0.2
	defaultShimmerMaxEvents = 24
	defaultShimmerSourceCap = 5
)

const (
	maxDroneShift     = 3   // semitones either direction
	droneShiftRange   = 3.0 // round(turnover*range) before clamping
	fifthInterval     = 7
	ninthInterval     = 14
	fifthVelocityDrop = 5
	ninthVelocityDrop = 10
	minVelocity       = 1
	maxVelocity       = 127
	centerPan         = 64
	shimmerOctaveLift = 24 // two octaves
	shimmerNoteBeats  = 0.5
	ccPan             = 10
	ccBrightness      = 74
	ccReverb          = 91
)

// Engine generates YearMusic from metrics. Construct once per run with New;
// it is safe for concurrent GenerateYear calls across years.
type Engine struct {
	grid     timegrid.Grid
	assigner *voicing.Assigner

	minVoices        int
	maxVoices        int
	baseRoot         int
	droneVelocity    int
	shimmerThreshold float64
	shimmerMaxEvents int
	shimmerSourceCap int
	medianRichness   float64

	droneEnabled   bool
	padsEnabled    bool
	shimmerEnabled bool
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithVoiceBounds sets the pad layer voice count bounds.
func WithVoiceBounds(minVoices, maxVoices int) Option {
	return func(e *Engine) {
		e.minVoices = minVoices
		e.maxVoices = maxVoices
	}
}

// WithBaseRoot sets the drone's base root MIDI note.
func WithBaseRoot(root int) Option {
	return func(e *Engine) {
		if root >= 0 && root <= maxVelocity {
			e.baseRoot = root
		}
	}
}

// WithDroneVelocity sets the drone's base velocity before confidence scaling.
func WithDroneVelocity(vel int) Option {
	return func(e *Engine) {
		if vel >= minVelocity && vel <= maxVelocity {
			e.droneVelocity = vel
		}
	}
}

// WithShimmerThreshold sets the turnover level above which shimmer activates.
func WithShimmerThreshold(t float64) Option {
	return func(e *Engine) {
		if t >= 0 && t < 1 {
			e.shimmerThreshold = t
		}
	}
}

// WithShimmerMaxEvents sets the shimmer event count at turnover = 1.0.
func WithShimmerMaxEvents(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.shimmerMaxEvents = n
		}
	}
}

// WithMedianRichness provides the run-wide median richness used by the drone
// layer to decide when the ninth joins the chord.
func WithMedianRichness(m float64) Option {
	return func(e *Engine) { e.medianRichness = m }
}

// WithLayers enables or disables individual layers.
func WithLayers(drone, pads, shimmer bool) Option {
	return func(e *Engine) {
		e.droneEnabled = drone
		e.padsEnabled = pads
		e.shimmerEnabled = shimmer
	}
}

// New creates an Engine. Bound violations are configuration errors and fail
// here, before any year is processed.
func New(grid timegrid.Grid, assigner *voicing.Assigner, opts ...Option) (*Engine, error) {
	e := &Engine{
		grid:             grid,
		assigner:         assigner,
		minVoices:        defaultMinVoices,
		maxVoices:        defaultMaxVoices,
		baseRoot:         defaultBaseRoot,
		droneVelocity:    defaultDroneVelocity,
		shimmerThreshold: defaultShimmerThreshold,
		shimmerMaxEvents: defaultShimmerMaxEvents,
		shimmerSourceCap: defaultShimmerSourceCap,
		droneEnabled:     true,
		padsEnabled:      true,
		shimmerEnabled:   true,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.minVoices < 0 || e.maxVoices < 1 || e.minVoices > e.maxVoices {
		return nil, fmt.Errorf("%w: min_voices %d, max_voices %d", ErrInvalidBounds, e.minVoices, e.maxVoices)
	}
	return e, nil
}

// VoiceCount computes the pad voice count for a richness value:
// clamp(round(sqrt(richness)*2), min, max).
func (e *Engine) VoiceCount(richness int) int {
	n := int(math.Round(math.Sqrt(float64(richness)) * 2))
	if n < e.minVoices {
		n = e.minVoices
	}
	if n > e.maxVoices {
		n = e.maxVoices
	}
	return n
}

// GenerateYear produces all events and the decision trace for one year. rows
// are the year's aggregated observations; they may be empty.
func (e *Engine) GenerateYear(m YearMetrics, rows []model.Observation) model.YearMusic {
	ym := model.YearMusic{Year: m.Year}
	ym.Decisions = model.Decisions{
		Year:       m.Year,
		Richness:   m.Richness,
		Turnover:   m.Turnover,
		Confidence: m.Confidence,
		MinVoices:  e.minVoices,
		MaxVoices:  e.maxVoices,
	}

	names := speciesNames(rows)
	abundance, maxObs := abundanceIndex(rows)

	if e.droneEnabled {
		e.generateDrone(m, &ym)
	}
	if e.padsEnabled && m.Richness > 0 {
		e.generatePads(m, names, abundance, maxObs, &ym)
	}
	if e.shimmerEnabled {
		e.generateShimmer(m, names, &ym)
	}
	return ym
}

// generateDrone emits the sustained root and fifth for the year window, plus
// the ninth when the year is richer than the run median. Turnover sets the
// distance of the root from center; the direction of the shift comes from a
// stable hash draw because turnover itself carries no sign.
func (e *Engine) generateDrone(m YearMetrics, ym *model.YearMusic) {
	start, end := e.grid.YearBeatRange(m.Year)
	duration := end - start

	shift := int(math.Round(m.Turnover * droneShiftRange))
	if shift > maxDroneShift {
		shift = maxDroneShift
	}
	direction := 1
	if hashing.MustStableInt(strconv.Itoa(m.Year)+":drone_dir", 2) == 0 {
		direction = -1
	}
	root := clampMidi(e.baseRoot + direction*shift)

	vel := clampVelocity(int(math.Round(float64(e.droneVelocity) * m.Confidence)))
	if m.Richness == 0 {
		// Silent year: the drone still sounds, barely, so the timeline keeps
		// its structural floor.
		vel = minVelocity
	}

	ninth := float64(m.Richness) > e.medianRichness

	ym.Decisions.DroneShift = shift
	ym.Decisions.DroneDirection = direction
	ym.Decisions.DroneRoot = root
	ym.Decisions.DroneVelocity = vel
	ym.Decisions.DroneNinth = ninth

	ym.Notes = append(ym.Notes, model.NoteEvent{
		Channel:       model.ChannelDrone,
		Pitch:         root,
		Velocity:      vel,
		StartBeat:     start,
		DurationBeats: duration,
		Pan:           centerPan,
		Layer:         model.LayerDrone,
	}, model.NoteEvent{
		Channel:       model.ChannelDrone,
		Pitch:         clampMidi(root + fifthInterval),
		Velocity:      clampVelocity(vel - fifthVelocityDrop),
		StartBeat:     start,
		DurationBeats: duration,
		Pan:           centerPan,
		Layer:         model.LayerDrone,
	})
	if ninth {
		ym.Notes = append(ym.Notes, model.NoteEvent{
			Channel:       model.ChannelDrone,
			Pitch:         clampMidi(root + ninthInterval),
			Velocity:      clampVelocity(vel - ninthVelocityDrop),
			StartBeat:     start,
			DurationBeats: duration,
			Pan:           centerPan,
			Layer:         model.LayerDrone,
		})
	}
}

// generatePads voices the year's selected species as sustained notes across
// the window. Selection reshuffles the top-species pool per year so the pad
// chord varies reproducibly instead of freezing on the abundance ranking.
func (e *Engine) generatePads(m YearMetrics, names map[string]string, abundance map[string]float64, maxObs float64, ym *model.YearMusic) {
	start, end := e.grid.YearBeatRange(m.Year)
	duration := end - start

	n := e.VoiceCount(m.Richness)
	pool := hashing.Shuffle(m.TopSpecies, func(id string) string { return id }, strconv.Itoa(m.Year))
	if len(pool) > n {
		pool = pool[:n]
	}
	ym.Decisions.VoiceCount = n

	for _, id := range pool {
		voice := e.assigner.Voice(id, names[id])

		norm := 0.0
		if maxObs > 0 {
			norm = abundance[id] / maxObs
		}
		norm = clamp01(norm)
		vel := clampVelocity(int(math.Round((25 + 70*norm) * m.Confidence)))

		ym.Decisions.SelectedSpecies = append(ym.Decisions.SelectedSpecies, model.PadDecision{
			SpeciesID:     id,
			NormAbundance: norm,
			Pitch:         voice.Pitch,
			Velocity:      vel,
			Pan:           voice.Pan,
			Program:       voice.Program,
		})

		ym.Notes = append(ym.Notes, model.NoteEvent{
			Channel:       model.ChannelPads,
			Pitch:         voice.Pitch,
			Velocity:      vel,
			StartBeat:     start,
			DurationBeats: duration,
			Pan:           voice.Pan,
			SpeciesID:     id,
			Layer:         model.LayerPads,
		})
		ym.CCs = append(ym.CCs,
			model.CCEvent{Channel: model.ChannelPads, Controller: ccPan, Value: voice.Pan, TimeBeat: start},
			model.CCEvent{Channel: model.ChannelPads, Controller: ccBrightness, Value: int(40 + 60*m.Confidence), TimeBeat: start},
			model.CCEvent{Channel: model.ChannelPads, Controller: ccReverb, Value: int(40 + 60*(1-m.Confidence)), TimeBeat: start},
		)
	}
}

// generateShimmer emits short high notes marking species-set change. Gated on
// turnover; density grows linearly from the threshold to the configured
// maximum at full turnover. Start beats come from hash draws inside the
// window rather than an even grid, to avoid a mechanical pulse.
func (e *Engine) generateShimmer(m YearMetrics, names map[string]string, ym *model.YearMusic) {
	ym.Decisions.ShimmerSource = "none"
	if m.Turnover <= e.shimmerThreshold {
		return
	}

	source := m.NewSpecies
	sourceName := "new"
	if len(source) == 0 {
		source = m.TopSpecies
		sourceName = "top"
	}
	if len(source) == 0 {
		return
	}
	if len(source) > e.shimmerSourceCap {
		source = source[:e.shimmerSourceCap]
	}

	span := 1 - e.shimmerThreshold
	count := int(math.Round(float64(e.shimmerMaxEvents) * (m.Turnover - e.shimmerThreshold) / span))
	if count < 1 {
		count = 1
	}

	ym.Decisions.ShimmerActive = true
	ym.Decisions.ShimmerSource = sourceName
	ym.Decisions.ShimmerCount = count
	ym.Decisions.ShimmerIDs = source

	start, end := e.grid.YearBeatRange(m.Year)
	window := end - start
	vel := clampVelocity(int(math.Round((15 + 30*m.Turnover) * m.Confidence)))

	for i := 0; i < count; i++ {
		id := source[i%len(source)]
		voice := e.assigner.Voice(id, names[id])

		beat := start + hashing.StableFloat01(fmt.Sprintf("%d:shimmer:%d", m.Year, i))*window
		dur := shimmerNoteBeats
		if beat+dur > end {
			dur = end - beat
		}

		ym.Notes = append(ym.Notes, model.NoteEvent{
			Channel:       model.ChannelShimmer,
			Pitch:         clampMidi(voice.Pitch + shimmerOctaveLift),
			Velocity:      vel,
			StartBeat:     beat,
			DurationBeats: dur,
			Pan:           voice.Pan,
			SpeciesID:     id,
			Layer:         model.LayerShimmer,
		})
	}
}

func speciesNames(rows []model.Observation) map[string]string {
	names := make(map[string]string, len(rows))
	for _, r := range rows {
		names[r.SpeciesID] = r.SpeciesName
	}
	return names
}

func abundanceIndex(rows []model.Observation) (map[string]float64, float64) {
	idx := make(map[string]float64, len(rows))
	var maxObs float64
	for _, r := range rows {
		idx[r.SpeciesID] = r.ObsCount
		if r.ObsCount > maxObs {
			maxObs = r.ObsCount
		}
	}
	return idx, maxObs
}

func clampMidi(p int) int {
	if p < 0 {
		return 0
	}
	if p > maxVelocity {
		return maxVelocity
	}
	return p
}

func clampVelocity(v int) int {
	if v < minVelocity {
		return minVelocity
	}
	if v > maxVelocity {
		return maxVelocity
	}
	return v
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
