package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/euphoricking/malaria-incidence-nigeria/internal/domain"
	"github.com/euphoricking/malaria-incidence-nigeria/internal/observability"
)

// Loader provides the four independent input datasets for one run.
type Loader interface {
	LoadBoundaries(ctx context.Context) ([]domain.BoundaryFeature, error)
	LoadPopulation(ctx context.Context) ([]domain.PopulationRow, error)
	LoadEnvironment(ctx context.Context) ([]domain.EnvironmentRow, error)
	LoadLULC(ctx context.Context) ([]domain.LULCRow, error)
}

// Exporter persists a completed allocation to one destination.
type Exporter interface {
	Export(ctx context.Context, alloc *domain.Allocation) error
}

// Pipeline runs the disaggregation: load, merge, score, allocate, export.
// Each run owns its working set exclusively and discards it on completion.
type Pipeline struct {
	loader    Loader
	exporters []Exporter
	logger    *slog.Logger
	metrics   *observability.Metrics
	merge     MergeOptions
	ready     atomic.Bool
}

// New creates a Pipeline with the given loader, export sinks, and observability.
func New(loader Loader, exporters []Exporter, logger *slog.Logger, metrics *observability.Metrics, merge MergeOptions) *Pipeline {
	return &Pipeline{
		loader:    loader,
		exporters: exporters,
		logger:    logger,
		metrics:   metrics,
		merge:     merge,
	}
}

// CheckReadiness returns nil once the pipeline has completed at least one run.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a run yet")
	}
	return nil
}

// Run executes one disaggregation of nationalIncidence across the loaded
// states and writes the result to every configured exporter. Failures carry
// the stage that raised them; the run either produces a fully populated
// allocation or nothing.
func (p *Pipeline) Run(ctx context.Context, nationalIncidence float64) (*domain.Allocation, error) {
	if nationalIncidence < 0 {
		return nil, fmt.Errorf("national incidence must be non-negative, got %g", nationalIncidence)
	}

	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID)
	start := time.Now()

	logger.Info("disaggregation run started", "national_incidence", nationalIncidence)

	boundaries, population, environment, lulc, err := p.loadInputs(ctx)
	if err != nil {
		p.metrics.PipelineFailures.WithLabelValues("load").Inc()
		return nil, fmt.Errorf("load: %w", err)
	}
	logger.Info("inputs loaded",
		"boundaries", len(boundaries),
		"population_rows", len(population),
		"environment_rows", len(environment),
		"lulc_rows", len(lulc),
	)

	records, warnings, err := p.timedMerge(boundaries, population, environment, lulc)
	if err != nil {
		p.metrics.PipelineFailures.WithLabelValues("merge").Inc()
		return nil, fmt.Errorf("merge: %w", err)
	}
	for _, w := range warnings {
		logger.Warn("merge warning", "detail", w)
	}

	records, err = p.timedScore(records)
	if err != nil {
		p.metrics.PipelineFailures.WithLabelValues("score").Inc()
		return nil, fmt.Errorf("risk scoring: %w", err)
	}

	records, totalWeight, err := p.timedAllocate(records, nationalIncidence)
	if err != nil {
		p.metrics.PipelineFailures.WithLabelValues("allocate").Inc()
		return nil, fmt.Errorf("allocation: %w", err)
	}

	alloc := domain.NewAllocation(runID, nationalIncidence, totalWeight, domain.MaxRainfall(records), records)

	if err := p.export(ctx, alloc); err != nil {
		p.metrics.PipelineFailures.WithLabelValues("export").Inc()
		return nil, fmt.Errorf("export: %w", err)
	}

	p.metrics.PipelineRuns.Inc()
	p.metrics.StatesAllocated.Add(float64(len(records)))
	p.metrics.RunDuration.Observe(time.Since(start).Seconds())
	p.ready.Store(true)

	logger.Info("disaggregation run complete",
		"states", len(records),
		"total_weight", totalWeight,
		"duration", time.Since(start),
	)
	return alloc, nil
}

func (p *Pipeline) loadInputs(ctx context.Context) (
	[]domain.BoundaryFeature, []domain.PopulationRow, []domain.EnvironmentRow, []domain.LULCRow, error,
) {
	defer p.observeStage("load", time.Now())

	boundaries, err := p.loader.LoadBoundaries(ctx)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	population, err := p.loader.LoadPopulation(ctx)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	environment, err := p.loader.LoadEnvironment(ctx)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	lulc, err := p.loader.LoadLULC(ctx)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	return boundaries, population, environment, lulc, nil
}

func (p *Pipeline) timedMerge(
	boundaries []domain.BoundaryFeature,
	population []domain.PopulationRow,
	environment []domain.EnvironmentRow,
	lulc []domain.LULCRow,
) ([]domain.StateRecord, []string, error) {
	defer p.observeStage("merge", time.Now())
	return Merge(boundaries, population, environment, lulc, p.merge)
}

func (p *Pipeline) timedScore(records []domain.StateRecord) ([]domain.StateRecord, error) {
	defer p.observeStage("score", time.Now())
	return domain.ScoreStates(records)
}

func (p *Pipeline) timedAllocate(records []domain.StateRecord, n float64) ([]domain.StateRecord, float64, error) {
	defer p.observeStage("allocate", time.Now())
	return domain.Allocate(records, n)
}

func (p *Pipeline) export(ctx context.Context, alloc *domain.Allocation) error {
	defer p.observeStage("export", time.Now())

	for _, exporter := range p.exporters {
		if err := exporter.Export(ctx, alloc); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) observeStage(stage string, start time.Time) {
	p.metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
