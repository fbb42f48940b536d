package obs

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/ecotone-audio/ecotone/internal/domain/hashing"
	"github.com/ecotone-audio/ecotone/internal/domain/model"
)

// Sample species pool for generated test data.
var sampleSpecies = []struct{ id, name string }{
	{"american_robin", "American Robin"},
	{"stellers_jay", "Steller's Jay"},
	{"western_bluebird", "Western Bluebird"},
	{"mountain_chickadee", "Mountain Chickadee"},
	{"acorn_woodpecker", "Acorn Woodpecker"},
	{"dark_eyed_junco", "Dark-eyed Junco"},
	{"spotted_towhee", "Spotted Towhee"},
	{"white_crowned_sparrow", "White-crowned Sparrow"},
	{"northern_flicker", "Northern Flicker"},
	{"red_tailed_hawk", "Red-tailed Hawk"},
	{"great_horned_owl", "Great Horned Owl"},
	{"annas_hummingbird", "Anna's Hummingbird"},
	{"california_quail", "California Quail"},
	{"oak_titmouse", "Oak Titmouse"},
	{"wrentit", "Wrentit"},
	{"hermit_thrush", "Hermit Thrush"},
}

// GenerateSampleTable builds a deterministic synthetic table for the year
// range. Presence and counts come from stable hash draws so generated
// fixtures are identical on every machine, with enough per-year churn to
// exercise turnover and shimmer.
func GenerateSampleTable(startYear, endYear int) model.Table {
	table := make(model.Table)
	for year := startYear; year <= endYear; year++ {
		for _, sp := range sampleSpecies {
			key := fmt.Sprintf("sample:%d:%s", year, sp.id)
			// Roughly three quarters of the pool present each year.
			if hashing.MustStableInt(key+":present", 4) == 0 {
				continue
			}
			count := float64(5 + hashing.MustStableInt(key+":count", 200))
			effort := float64(50 + hashing.MustStableInt(fmt.Sprintf("sample:%d:effort", year), 150))
			table[year] = append(table[year], model.Observation{
				Year:        year,
				SpeciesID:   sp.id,
				SpeciesName: sp.name,
				ObsCount:    count,
				Effort:      &effort,
			})
		}
		sort.Slice(table[year], func(i, j int) bool {
			return table[year][i].SpeciesID < table[year][j].SpeciesID
		})
	}
	return table
}

// WriteCSV serializes a table in the loader's CSV format, rows ordered by
// year then species id.
func WriteCSV(w io.Writer, table model.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}

	years := table.Years()
	sort.Ints(years)
	for _, year := range years {
		rows := make([]model.Observation, len(table[year]))
		copy(rows, table[year])
		sort.Slice(rows, func(i, j int) bool { return rows[i].SpeciesID < rows[j].SpeciesID })
		for _, r := range rows {
			effort := ""
			if r.Effort != nil {
				effort = strconv.FormatFloat(*r.Effort, 'f', -1, 64)
			}
			record := []string{
				strconv.Itoa(r.Year),
				r.SpeciesID,
				r.SpeciesName,
				strconv.FormatFloat(r.ObsCount, 'f', -1, 64),
				effort,
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
