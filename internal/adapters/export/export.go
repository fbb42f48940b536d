// Package export serializes the timeline and the decision-trace metadata
// document.
//
// Serialization is part of the determinism contract: the documents contain
// no wall-clock timestamps and no map-ordered collections, so two runs over
// the same input and configuration produce byte-identical files. Each
// document carries a content hash computed over itself with the hash field
// empty.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/ecotone-audio/ecotone/internal/config"
	"github.com/ecotone-audio/ecotone/internal/domain/hashing"
	"github.com/ecotone-audio/ecotone/internal/domain/model"
	"github.com/ecotone-audio/ecotone/internal/domain/timeline"
	"github.com/ecotone-audio/ecotone/internal/domain/voicing"
	"github.com/ecotone-audio/ecotone/pkg/logger"
	"github.com/ecotone-audio/ecotone/pkg/metrics"
)

const version = "v0"

// Minimum richness below which a year gets a diagnostic warning.
const lowRichness = 5

// TimelineDoc is the serialized event timeline handed to the render
// collaborator.
type TimelineDoc struct {
	Version      string            `json:"version"`
	RunID        string            `json:"run_id"`
	Park         string            `json:"park"`
	BPM          float64           `json:"bpm"`
	TotalBeats   int               `json:"total_beats"`
	TotalSeconds float64           `json:"total_seconds"`
	Notes        []model.NoteEvent `json:"notes"`
	CCs          []model.CCEvent   `json:"ccs"`
	ContentHash  string            `json:"content_hash"`
}

// MetadataDoc is the transparency artifact: configuration snapshot, per-year
// decision traces, and the full species voice table.
type MetadataDoc struct {
	Version       string            `json:"version"`
	RunID         string            `json:"run_id"`
	Park          string            `json:"park"`
	Config        ConfigSnapshot    `json:"config"`
	Summary       Summary           `json:"summary"`
	Years         []model.Decisions `json:"years"`
	SpeciesVoices []voicing.Voice   `json:"species_voices"`
	Warnings      []string          `json:"warnings,omitempty"`
	ContentHash   string            `json:"content_hash"`
}

// ConfigSnapshot is the portable subset of the run configuration (no paths,
// no process-local settings).
type ConfigSnapshot struct {
	StartYear        int     `json:"start_year"`
	EndYear          int     `json:"end_year"`
	BPM              float64 `json:"bpm"`
	BarsPerYear      int     `json:"bars_per_year"`
	BeatsPerBar      int     `json:"beats_per_bar"`
	Mode             string  `json:"mode"`
	BaseRootMidi     int     `json:"base_root_midi"`
	OctaveSpan       int     `json:"octave_span"`
	MinVoices        int     `json:"min_voices"`
	MaxVoices        int     `json:"max_voices"`
	TopKSpecies      int     `json:"top_k_species_pool"`
	PadPrograms      []int   `json:"pad_programs"`
	DroneVelocity    int     `json:"drone_velocity"`
	ShimmerThreshold float64 `json:"turnover_shimmer_threshold"`
	ShimmerMaxEvents int     `json:"shimmer_max_events"`
	ConfidenceScale  float64 `json:"effort_confidence_scale"`
	DroneEnabled     bool    `json:"layer_drone"`
	PadsEnabled      bool    `json:"layer_pads"`
	ShimmerEnabled   bool    `json:"layer_shimmer"`
}

// Summary aggregates run-level counts for quick inspection.
type Summary struct {
	TotalYears         int    `json:"total_years"`
	TotalNotes         int    `json:"total_notes"`
	TotalCCs           int    `json:"total_ccs"`
	TotalSpeciesVoiced int    `json:"total_species_voiced"`
	Scale              string `json:"scale"`
	RootMidi           int    `json:"root_midi"`
}

// Snapshot extracts the portable configuration subset.
func Snapshot(cfg *config.Config) ConfigSnapshot {
	return ConfigSnapshot{
		StartYear:        cfg.StartYear,
		EndYear:          cfg.EndYear,
		BPM:              cfg.BPM,
		BarsPerYear:      cfg.BarsPerYear,
		BeatsPerBar:      cfg.BeatsPerBar,
		Mode:             cfg.Mode,
		BaseRootMidi:     cfg.BaseRootMidi,
		OctaveSpan:       cfg.OctaveSpan,
		MinVoices:        cfg.MinVoices,
		MaxVoices:        cfg.MaxVoices,
		TopKSpecies:      cfg.TopKSpecies,
		PadPrograms:      cfg.PadPrograms,
		DroneVelocity:    cfg.DroneVelocity,
		ShimmerThreshold: cfg.ShimmerThreshold,
		ShimmerMaxEvents: cfg.ShimmerMaxEvents,
		ConfidenceScale:  cfg.EffortConfidenceScale,
		DroneEnabled:     cfg.DroneEnabled,
		PadsEnabled:      cfg.PadsEnabled,
		ShimmerEnabled:   cfg.ShimmerEnabled,
	}
}

// RunID returns the configured run id, or a deterministic UUIDv5 derived
// from the configuration snapshot when none is set. Deriving from the
// snapshot keeps artifacts reproducible while still distinguishing runs with
// different settings.
func RunID(cfg *config.Config) string {
	if cfg.RunID != "" {
		return cfg.RunID
	}
	snap, _ := json.Marshal(Snapshot(cfg))
	return uuid.NewSHA1(uuid.NameSpaceOID, snap).String()
}

// BuildTimelineDoc assembles the serializable timeline document.
func BuildTimelineDoc(cfg *config.Config, t *timeline.Timeline) *TimelineDoc {
	doc := &TimelineDoc{
		Version:      version,
		RunID:        RunID(cfg),
		Park:         cfg.ParkName,
		BPM:          cfg.BPM,
		TotalBeats:   t.Grid().TotalBeats(),
		TotalSeconds: t.Grid().TotalSeconds(),
		Notes:        t.Notes(),
		CCs:          t.CCs(),
	}
	doc.ContentHash = docHash(doc)
	return doc
}

// BuildMetadataDoc assembles the decision-trace metadata document.
func BuildMetadataDoc(cfg *config.Config, t *timeline.Timeline, voices []voicing.Voice) *MetadataDoc {
	doc := &MetadataDoc{
		Version:       version,
		RunID:         RunID(cfg),
		Park:          cfg.ParkName,
		Config:        Snapshot(cfg),
		Years:         t.Decisions(),
		SpeciesVoices: voices,
		Summary: Summary{
			TotalYears:         len(t.Years()),
			TotalNotes:         t.NoteCount(),
			TotalCCs:           t.CCCount(),
			TotalSpeciesVoiced: len(voices),
			Scale:              cfg.Mode,
			RootMidi:           cfg.BaseRootMidi,
		},
		Warnings: collectWarnings(t),
	}
	doc.ContentHash = docHash(doc)
	return doc
}

// collectWarnings surfaces data-quality conditions worth flagging alongside
// the artifact: effort-free runs (confidence pinned at 1.0 by policy) and
// unusually sparse years.
func collectWarnings(t *timeline.Timeline) []string {
	var warnings []string

	decisions := t.Decisions()
	allFullConfidence := len(decisions) > 0
	for _, d := range decisions {
		if d.Confidence != 1.0 {
			allFullConfidence = false
			break
		}
	}
	if allFullConfidence {
		warnings = append(warnings, "no effort data supplied; confidence defaulted to 1.0 for all years")
	}
	for _, d := range decisions {
		if d.Richness < lowRichness {
			warnings = append(warnings, fmt.Sprintf("year %d has low richness (%d species)", d.Year, d.Richness))
		}
	}
	return warnings
}

// Marshal renders a document as indented JSON with a trailing newline.
func Marshal(doc any) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return append(data, '\n'), nil
}

// docHash computes the content hash of a document with its hash field blank.
// The field is set by the caller afterward, so verification is: blank the
// field, re-marshal, re-hash.
func docHash(doc any) string {
	data, err := json.Marshal(doc)
	if err != nil {
		// All document types marshal cleanly; an error here is a bug.
		panic(err)
	}
	return hashing.ContentHash(data)
}

// Writer persists documents to disk.
type Writer struct {
	logger logger.Logger
}

// NewWriter creates a Writer.
func NewWriter() *Writer {
	return &Writer{logger: logger.Get().Named("export")}
}

// Write marshals doc and writes it to path, creating parent directories.
func (w *Writer) Write(ctx context.Context, path, artifact string, doc any) error {
	data, err := Marshal(doc)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: %v", ErrWriteArtifact, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteArtifact, err)
	}
	metrics.RecordArtifactBytes(artifact, len(data))
	w.logger.Info(ctx, "wrote artifact",
		logger.String("artifact", artifact),
		logger.String("path", path),
		logger.Int("bytes", len(data)),
	)
	return nil
}
