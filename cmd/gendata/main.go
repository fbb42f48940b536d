// Command gendata writes a deterministic sample observation table, useful
// for trying the pipeline without a real dataset.
package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"

	"github.com/ecotone-audio/ecotone/internal/adapters/obs"
	"github.com/ecotone-audio/ecotone/pkg/logger"
)

func main() {
	startYear := flag.Int("start", 2010, "first year of the sample table")
	endYear := flag.Int("end", 2020, "last year of the sample table")
	out := flag.String("out", "data/year_species.csv", "output CSV path")
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get().Named("gendata")
	ctx := context.Background()

	if *endYear < *startYear {
		log.Error(ctx, "end year before start year",
			logger.Int("start", *startYear),
			logger.Int("end", *endYear),
		)
		os.Exit(1)
	}

	table := obs.GenerateSampleTable(*startYear, *endYear)

	if dir := filepath.Dir(*out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Error(ctx, "failed to create output directory", logger.Error(err))
			os.Exit(1)
		}
	}
	f, err := os.Create(*out)
	if err != nil {
		log.Error(ctx, "failed to create output file", logger.Error(err))
		os.Exit(1)
	}
	defer f.Close()

	if err := obs.WriteCSV(f, table); err != nil {
		log.Error(ctx, "failed to write sample table", logger.Error(err))
		os.Exit(1)
	}

	rows := 0
	for _, yearRows := range table {
		rows += len(yearRows)
	}
	log.Info(ctx, "wrote sample table",
		logger.String("path", *out),
		logger.Int("years", len(table)),
		logger.Int("rows", rows),
	)
}
