// Package obs loads the aggregated per-year, per-species observation table.
//
// The core mapping assumes a pre-validated table, so this adapter is where
// malformed rows die: they are dropped with a warning and counted, never
// passed through.
package obs

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ecotone-audio/ecotone/internal/domain/model"
	"github.com/ecotone-audio/ecotone/pkg/logger"
	"github.com/ecotone-audio/ecotone/pkg/metrics"
)

// Expected CSV header columns, in order.
var header = []string{"year", "species_id", "species_name", "obs_count", "effort"}

// Loader reads aggregated observation CSVs into a model.Table.
type Loader struct {
	logger logger.Logger
}

// NewLoader creates a Loader.
func NewLoader() *Loader {
	return &Loader{logger: logger.Get().Named("obs")}
}

// LoadFile reads the CSV at path.
func (l *Loader) LoadFile(ctx context.Context, path string) (model.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpenInput, err)
	}
	defer f.Close()
	return l.Load(ctx, f)
}

// Load reads CSV rows from r. The first record must be the header. Rows with
// a missing year or species id, or unparseable numbers, are dropped with a
// warning; an empty effort column yields a nil Effort.
func (l *Loader) Load(ctx context.Context, r io.Reader) (model.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(header)

	first, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrBadInput, err)
	}
	for i, col := range header {
		if strings.TrimSpace(first[i]) != col {
			return nil, fmt.Errorf("%w: header column %d is %q, want %q", ErrBadInput, i, first[i], col)
		}
	}

	table := make(model.Table)
	accepted, dropped := 0, 0
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrBadInput, line, err)
		}

		row, rowErr := parseRow(record)
		if rowErr != nil {
			dropped++
			metrics.RecordRowDropped()
			l.logger.Warn(ctx, "dropping malformed row",
				logger.Int("line", line),
				logger.Error(rowErr),
			)
			continue
		}
		table[row.Year] = append(table[row.Year], row)
		accepted++
	}

	metrics.RecordRowsLoaded(accepted)
	l.logger.Info(ctx, "loaded observation table",
		logger.Int("rows", accepted),
		logger.Int("dropped", dropped),
		logger.Int("years", len(table)),
	)
	return table, nil
}

func parseRow(record []string) (model.Observation, error) {
	yearStr := strings.TrimSpace(record[0])
	speciesID := strings.TrimSpace(record[1])
	if yearStr == "" || speciesID == "" {
		return model.Observation{}, fmt.Errorf("missing year or species_id")
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return model.Observation{}, fmt.Errorf("bad year %q: %w", yearStr, err)
	}
	count, err := strconv.ParseFloat(strings.TrimSpace(record[3]), 64)
	if err != nil {
		return model.Observation{}, fmt.Errorf("bad obs_count %q: %w", record[3], err)
	}

	row := model.Observation{
		Year:        year,
		SpeciesID:   speciesID,
		SpeciesName: strings.TrimSpace(record[2]),
		ObsCount:    count,
	}
	if effortStr := strings.TrimSpace(record[4]); effortStr != "" {
		effort, err := strconv.ParseFloat(effortStr, 64)
		if err != nil {
			return model.Observation{}, fmt.Errorf("bad effort %q: %w", effortStr, err)
		}
		row.Effort = &effort
	}
	return row, nil
}
