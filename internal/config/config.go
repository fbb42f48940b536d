// Package config defines pipeline configuration structures and loading hooks.
//
// Conventions:
// - Keep the struct flat with koanf tags; Load layers defaults, file, env.
// - Validate everything up front: a bad configuration must fail before any
//   year is processed.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"fmt"
	"runtime"

	"github.com/ecotone-audio/ecotone/internal/domain/voicing"
)

// Config contains process configuration for one sonification run.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// RunID labels the run's artifacts. Empty means derive a deterministic
	// UUID from the configuration itself.
	RunID string `koanf:"run_id"`

	// ParkName labels the dataset, e.g. "yosemite".
	ParkName string `koanf:"park_name"`

	// InputPath is the aggregated observation CSV consumed by the pipeline.
	InputPath string `koanf:"input_path"`

	// TimelinePath and MetadataPath are where the serialized artifacts land.
	TimelinePath string `koanf:"timeline_path"`
	MetadataPath string `koanf:"metadata_path"`

	// Time grid.
	StartYear   int     `koanf:"start_year"`
	EndYear     int     `koanf:"end_year"`
	BPM         float64 `koanf:"bpm"`
	BarsPerYear int     `koanf:"bars_per_year"`
	BeatsPerBar int     `koanf:"beats_per_bar"`

	// Musical mapping.
	Mode          string `koanf:"mode"`
	BaseRootMidi  int    `koanf:"base_root_midi"`
	OctaveSpan    int    `koanf:"octave_span"`
	MinVoices     int    `koanf:"min_voices"`
	MaxVoices     int    `koanf:"max_voices"`
	TopKSpecies   int    `koanf:"top_k_species_pool"`
	PadPrograms   []int  `koanf:"pad_programs"`
	DroneVelocity int    `koanf:"drone_velocity"`

	// Shimmer gating and density.
	ShimmerThreshold float64 `koanf:"turnover_shimmer_threshold"`
	ShimmerMaxEvents int     `koanf:"shimmer_max_events"`

	// EffortConfidenceScale is k in confidence = 1 - exp(-effort/k).
	EffortConfidenceScale float64 `koanf:"effort_confidence_scale"`

	// Layer toggles.
	DroneEnabled   bool `koanf:"layer_drone"`
	PadsEnabled    bool `koanf:"layer_pads"`
	ShimmerEnabled bool `koanf:"layer_shimmer"`

	// WorkerCount sets the per-year mapping fan-out; QueueSize bounds the
	// in-memory job queue.
	WorkerCount int `koanf:"worker_count"`
	QueueSize   int `koanf:"queue_size"`

	// MetricsAddr, when non-empty, exposes Prometheus metrics over HTTP
	// while the pipeline runs, e.g. ":9090".
	MetricsAddr string `koanf:"metrics_addr"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		ParkName:              "park",
		InputPath:             "data/year_species.csv",
		TimelinePath:          "out/timeline.json",
		MetadataPath:          "out/mapping_meta.json",
		StartYear:             2010,
		EndYear:               2020,
		BPM:                   60,
		BarsPerYear:           8,
		BeatsPerBar:           4,
		Mode:                  "d_dorian",
		BaseRootMidi:          62, // D4
		OctaveSpan:            3,
		MinVoices:             6,
		MaxVoices:             16,
		TopKSpecies:           40,
		PadPrograms:           []int{89, 90, 91, 92, 94},
		DroneVelocity:         60,
		ShimmerThreshold:      0.2,
		ShimmerMaxEvents:      24,
		EffortConfidenceScale: 100,
		DroneEnabled:          true,
		PadsEnabled:           true,
		ShimmerEnabled:        true,
		WorkerCount:           runtime.NumCPU(),
		QueueSize:             1024,
	}
}

// Validate checks every invariant the pipeline relies on and returns the
// first violation wrapped in ErrInvalidConfig. The pipeline never starts on
// an invalid configuration.
func (c *Config) Validate() error {
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}

	if c.EndYear < c.StartYear {
		return fail("end_year %d before start_year %d", c.EndYear, c.StartYear)
	}
	if c.BPM <= 0 {
		return fail("bpm must be positive, got %v", c.BPM)
	}
	if c.BarsPerYear < 1 || c.BeatsPerBar < 1 {
		return fail("bars_per_year %d and beats_per_bar %d must be at least 1", c.BarsPerYear, c.BeatsPerBar)
	}
	if _, err := voicing.ScaleIntervals(c.Mode); err != nil {
		return fail("%v", err)
	}
	if c.BaseRootMidi < 0 || c.BaseRootMidi > 127 {
		return fail("base_root_midi %d outside [0,127]", c.BaseRootMidi)
	}
	if c.OctaveSpan < 1 {
		return fail("octave_span %d must be at least 1", c.OctaveSpan)
	}
	if c.MinVoices < 0 || c.MaxVoices < 1 || c.MinVoices > c.MaxVoices {
		return fail("min_voices %d and max_voices %d are inconsistent", c.MinVoices, c.MaxVoices)
	}
	if c.TopKSpecies < 1 {
		return fail("top_k_species_pool %d must be at least 1", c.TopKSpecies)
	}
	if len(c.PadPrograms) == 0 {
		return fail("pad_programs must not be empty")
	}
	for _, p := range c.PadPrograms {
		if p < 0 || p > 127 {
			return fail("pad program %d outside [0,127]", p)
		}
	}
	if c.DroneVelocity < 1 || c.DroneVelocity > 127 {
		return fail("drone_velocity %d outside [1,127]", c.DroneVelocity)
	}
	if c.ShimmerThreshold < 0 || c.ShimmerThreshold >= 1 {
		return fail("turnover_shimmer_threshold %v outside [0,1)", c.ShimmerThreshold)
	}
	if c.ShimmerMaxEvents < 1 {
		return fail("shimmer_max_events %d must be at least 1", c.ShimmerMaxEvents)
	}
	if c.EffortConfidenceScale <= 0 {
		return fail("effort_confidence_scale must be positive, got %v", c.EffortConfidenceScale)
	}
	if c.WorkerCount < 1 {
		return fail("worker_count %d must be at least 1", c.WorkerCount)
	}
	if c.QueueSize < 1 {
		return fail("queue_size %d must be at least 1", c.QueueSize)
	}
	return nil
}
