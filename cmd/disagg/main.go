// Command disagg runs one disaggregation of national malaria incidence across
// Nigerian states and writes the per-state estimates to CSV, GeoJSON, and the
// optional Postgres and Kafka sinks.
//
// Usage:
//
//	go run ./cmd/disagg \
//	  -boundaries data/nigeria_states.geojson \
//	  -population data/population.csv \
//	  -environment data/environment.csv \
//	  -lulc data/lulc.csv \
//	  -incidence 194000 \
//	  -out-csv out/state_allocations.csv \
//	  -out-geojson out/state_allocations.geojson
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/euphoricking/malaria-incidence-nigeria/internal/adapter/csvfile"
	"github.com/euphoricking/malaria-incidence-nigeria/internal/adapter/geojson"
	kafkaadapter "github.com/euphoricking/malaria-incidence-nigeria/internal/adapter/kafka"
	"github.com/euphoricking/malaria-incidence-nigeria/internal/adapter/postgres"
	"github.com/euphoricking/malaria-incidence-nigeria/internal/config"
	"github.com/euphoricking/malaria-incidence-nigeria/internal/observability"
	"github.com/euphoricking/malaria-incidence-nigeria/internal/pipeline"
)

// fileLoader satisfies pipeline.Loader from the flat input files.
type fileLoader struct {
	csvfile.Tables
	geojson.BoundaryFile
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "disagg:", err)
		os.Exit(1)
	}
}

func run() error {
	boundaries := flag.String("boundaries", "", "GeoJSON file with state boundary features")
	population := flag.String("population", "", "CSV file with per-state population")
	environment := flag.String("environment", "", "CSV file with per-state temperature and rainfall")
	lulc := flag.String("lulc", "", "CSV file with per-state land-use composition")
	incidence := flag.Float64("incidence", 0, "national incidence count to disaggregate")
	outCSV := flag.String("out-csv", "", "output CSV path (optional)")
	outGeoJSON := flag.String("out-geojson", "", "output GeoJSON path (optional)")
	databaseURL := flag.String("database-url", "", "Postgres sink connection string (overrides DATABASE_URL)")
	flag.Parse()

	if *boundaries == "" || *population == "" || *environment == "" || *lulc == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -boundaries, -population, -environment, -lulc")
	}

	// Optional env file for DATABASE_URL, Kafka, and logging settings.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if *databaseURL != "" {
		cfg.DatabaseURL = *databaseURL
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loader := &fileLoader{
		Tables: csvfile.Tables{
			PopulationPath:  *population,
			EnvironmentPath: *environment,
			LULCPath:        *lulc,
		},
		BoundaryFile: geojson.BoundaryFile{
			Path:          *boundaries,
			StateProperty: cfg.BoundaryStateProperty,
		},
	}

	var exporters []pipeline.Exporter
	if *outCSV != "" {
		exporters = append(exporters, &csvfile.Exporter{Path: *outCSV})
	}
	if *outGeoJSON != "" {
		exporters = append(exporters, &geojson.Exporter{Path: *outGeoJSON, StateProperty: cfg.BoundaryStateProperty})
	}
	if cfg.DatabaseURL != "" {
		pool, err := postgres.NewPool(ctx, cfg)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer pool.Close()
		exporters = append(exporters, postgres.NewStore(pool))
		logger.Info("postgres sink enabled")
	}
	if cfg.KafkaEnabled {
		writer := kafkaadapter.NewWriter(cfg, logger)
		defer writer.Close() //nolint:errcheck // close error only matters mid-run
		exporters = append(exporters, writer)
		logger.Info("kafka sink enabled", "topic", cfg.KafkaSinkTopic)
	}
	if len(exporters) == 0 {
		return fmt.Errorf("no sinks configured: pass -out-csv or -out-geojson, or set DATABASE_URL or KAFKA_ENABLED")
	}

	merge := pipeline.MergeOptions{AllowMissing: !cfg.StrictMerge}
	p := pipeline.New(loader, exporters, logger, metrics, merge)

	alloc, err := p.Run(ctx, *incidence)
	if err != nil {
		return err
	}

	logger.Info("allocation written",
		"run_id", alloc.RunID,
		"states", len(alloc.States),
		"national_incidence", alloc.NationalIncidence,
	)
	return nil
}
