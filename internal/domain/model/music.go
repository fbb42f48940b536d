package model

// MIDI channel assignments for the three layers.
const (
	ChannelDrone   = 0
	ChannelPads    = 1
	ChannelShimmer = 2
)

// Layer names used in events and decision traces.
const (
	LayerDrone   = "drone"
	LayerPads    = "pads"
	LayerShimmer = "shimmer"
)

// NoteEvent is a single timed note. Beats are absolute positions on the
// run-wide time grid, not offsets within a year.
type NoteEvent struct {
	Channel       int     `json:"channel"`
	Pitch         int     `json:"pitch"`    // MIDI note number, 0-127
	Velocity      int     `json:"velocity"` // 1-127
	StartBeat     float64 `json:"start_beat"`
	DurationBeats float64 `json:"duration_beats"`
	Pan           int     `json:"pan"` // 0-127, from the species voice
	SpeciesID     string  `json:"species_id,omitempty"`
	Layer         string  `json:"layer"`
}

// CCEvent is a timed MIDI control change.
type CCEvent struct {
	Channel    int     `json:"channel"`
	Controller int     `json:"controller"`
	Value      int     `json:"value"` // 0-127
	TimeBeat   float64 `json:"time_beat"`
}

// PadDecision records how one selected species was voiced in the pads layer.
type PadDecision struct {
	SpeciesID     string  `json:"species_id"`
	NormAbundance float64 `json:"norm_abundance"`
	Pitch         int     `json:"pitch"`
	Velocity      int     `json:"velocity"`
	Pan           int     `json:"pan"`
	Program       int     `json:"program"`
}

// Decisions is the per-year audit record. Every numeric output of the mapping
// must be reconstructable from these fields plus the documented formulas.
type Decisions struct {
	Year       int     `json:"year"`
	Richness   int     `json:"richness"`
	Turnover   float64 `json:"turnover"`
	Confidence float64 `json:"confidence"`

	DroneShift     int  `json:"drone_shift"`     // semitones, before direction
	DroneDirection int  `json:"drone_direction"` // -1 or +1
	DroneRoot      int  `json:"drone_root"`      // resulting MIDI root
	DroneVelocity  int  `json:"drone_velocity"`
	DroneNinth     bool `json:"drone_ninth"` // richness above run median

	VoiceCount      int           `json:"voice_count"`
	MinVoices       int           `json:"min_voices"`
	MaxVoices       int           `json:"max_voices"`
	SelectedSpecies []PadDecision `json:"selected_species"`

	ShimmerActive bool     `json:"shimmer_active"`
	ShimmerSource string   `json:"shimmer_source"` // "new", "top", or "none"
	ShimmerCount  int      `json:"shimmer_count"`
	ShimmerIDs    []string `json:"shimmer_ids,omitempty"`
}

// YearMusic holds all events generated for one year. Immutable after the
// mapping engine returns it.
type YearMusic struct {
	Year      int         `json:"year"`
	Notes     []NoteEvent `json:"notes"`
	CCs       []CCEvent   `json:"ccs"`
	Decisions Decisions   `json:"decisions"`
}
