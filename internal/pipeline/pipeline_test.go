package pipeline_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/euphoricking/malaria-incidence-nigeria/internal/domain"
	"github.com/euphoricking/malaria-incidence-nigeria/internal/observability"
	"github.com/euphoricking/malaria-incidence-nigeria/internal/pipeline"
)

// --- mocks ---

type mockLoader struct {
	boundaries  []domain.BoundaryFeature
	population  []domain.PopulationRow
	environment []domain.EnvironmentRow
	lulc        []domain.LULCRow
	err         error
}

func (m *mockLoader) LoadBoundaries(context.Context) ([]domain.BoundaryFeature, error) {
	return m.boundaries, m.err
}

func (m *mockLoader) LoadPopulation(context.Context) ([]domain.PopulationRow, error) {
	return m.population, m.err
}

func (m *mockLoader) LoadEnvironment(context.Context) ([]domain.EnvironmentRow, error) {
	return m.environment, m.err
}

func (m *mockLoader) LoadLULC(context.Context) ([]domain.LULCRow, error) {
	return m.lulc, m.err
}

type mockExporter struct {
	exported []*domain.Allocation
	err      error
}

func (m *mockExporter) Export(_ context.Context, alloc *domain.Allocation) error {
	if m.err != nil {
		return m.err
	}
	m.exported = append(m.exported, alloc)
	return nil
}

// threeStateLoader reproduces the canonical hand-checked scenario:
// A(pop=100, temp=26, rain=100, forested), B(pop=200, temp=32, rain=50, urban),
// C(pop=50, temp=20, rain=200, water).
func threeStateLoader() *mockLoader {
	return &mockLoader{
		boundaries: []domain.BoundaryFeature{{State: "A"}, {State: "B"}, {State: "C"}},
		population: []domain.PopulationRow{
			{State: "A", Population: 100},
			{State: "B", Population: 200},
			{State: "C", Population: 50},
		},
		environment: []domain.EnvironmentRow{
			{State: "A", Temperature: 26, Rainfall: 100},
			{State: "B", Temperature: 32, Rainfall: 50},
			{State: "C", Temperature: 20, Rainfall: 200},
		},
		lulc: []domain.LULCRow{
			{State: "A", Category: "Forested", Proportion: 1},
			{State: "B", Category: "Urban", Proportion: 1},
			{State: "C", Category: "Water", Proportion: 1},
		},
	}
}

func newPipeline(loader pipeline.Loader, exporters ...pipeline.Exporter) *pipeline.Pipeline {
	return pipeline.New(loader, exporters, slog.Default(), observability.NewMetricsForTesting(), pipeline.MergeOptions{})
}

// --- tests ---

func TestPipeline_Run_ThreeStateScenario(t *testing.T) {
	exp := &mockExporter{}
	p := newPipeline(threeStateLoader(), exp)

	alloc, err := p.Run(context.Background(), 1000)
	require.NoError(t, err)
	require.Len(t, alloc.States, 3)

	// R_max = 200 couples every rain score to state C.
	assert.Equal(t, 200.0, alloc.MaxRainfall)

	a, b, c := alloc.States[0], alloc.States[1], alloc.States[2]

	// A: forested 1.0 × temp 1.0 × rain 0.5 = 0.5 risk, weight 50.
	assert.InDelta(t, 1.0, a.LULCWeight, 1e-9)
	assert.InDelta(t, 1.0, a.TempScore, 1e-9)
	assert.InDelta(t, 0.5, a.RainScore, 1e-9)
	assert.InDelta(t, 0.5, a.EnvRisk, 1e-9)
	assert.InDelta(t, 50.0, a.StateWeight, 1e-9)

	// B: 32°C is exactly 6°C from optimal, temp score clips to 0.
	assert.InDelta(t, 1.5, b.LULCWeight, 1e-9)
	assert.InDelta(t, 0.0, b.TempScore, 1e-9)
	assert.InDelta(t, 0.0, b.EnvRisk, 1e-9)

	// C: 20°C likewise zeroes the risk despite maximum rainfall.
	assert.InDelta(t, 0.5, c.LULCWeight, 1e-9)
	assert.InDelta(t, 1.0, c.RainScore, 1e-9)
	assert.InDelta(t, 0.0, c.EnvRisk, 1e-9)

	// All cases land on A; the sum is exactly the national figure.
	assert.InDelta(t, 1000.0, a.AllocatedCases, 1e-6)
	assert.InDelta(t, 0.0, b.AllocatedCases, 1e-9)
	assert.InDelta(t, 0.0, c.AllocatedCases, 1e-9)

	var sum float64
	for _, s := range alloc.States {
		sum += s.AllocatedCases
	}
	assert.InDelta(t, 1000.0, sum, 1e-6)

	require.Len(t, exp.exported, 1)
	assert.Same(t, alloc, exp.exported[0])
	assert.NotEmpty(t, alloc.RunID)
}

func TestPipeline_Run_OutputOrderMatchesBoundaries(t *testing.T) {
	loader := threeStateLoader()
	loader.boundaries = []domain.BoundaryFeature{{State: "C"}, {State: "A"}, {State: "B"}}
	p := newPipeline(loader, &mockExporter{})

	alloc, err := p.Run(context.Background(), 1000)
	require.NoError(t, err)

	order := []string{alloc.States[0].State, alloc.States[1].State, alloc.States[2].State}
	assert.Equal(t, []string{"C", "A", "B"}, order)
}

func TestPipeline_Run_Failures(t *testing.T) {
	t.Run("negative incidence rejected", func(t *testing.T) {
		p := newPipeline(threeStateLoader(), &mockExporter{})
		_, err := p.Run(context.Background(), -5)
		require.Error(t, err)
	})

	t.Run("loader failure aborts with load stage", func(t *testing.T) {
		loader := threeStateLoader()
		loader.err = &domain.MissingInputError{Dataset: "population", Path: "pop.csv", Err: errors.New("no such file")}
		p := newPipeline(loader, &mockExporter{})

		_, err := p.Run(context.Background(), 1000)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "load:")

		var missing *domain.MissingInputError
		assert.ErrorAs(t, err, &missing)
	})

	t.Run("zero rainfall everywhere halts at scoring", func(t *testing.T) {
		loader := threeStateLoader()
		loader.environment = []domain.EnvironmentRow{
			{State: "A", Temperature: 26, Rainfall: 0},
			{State: "B", Temperature: 26, Rainfall: 0},
			{State: "C", Temperature: 26, Rainfall: 0},
		}
		exp := &mockExporter{}
		p := newPipeline(loader, exp)

		_, err := p.Run(context.Background(), 1000)
		var degenerate *domain.DegenerateInputError
		require.ErrorAs(t, err, &degenerate)
		assert.Empty(t, exp.exported, "nothing may be exported on failure")
	})

	t.Run("zero populations halt at allocation", func(t *testing.T) {
		loader := threeStateLoader()
		loader.population = []domain.PopulationRow{
			{State: "A", Population: 0},
			{State: "B", Population: 0},
			{State: "C", Population: 0},
		}
		p := newPipeline(loader, &mockExporter{})

		_, err := p.Run(context.Background(), 1000)
		var degenerate *domain.DegenerateInputError
		require.ErrorAs(t, err, &degenerate)
		assert.Contains(t, err.Error(), "allocation")
	})

	t.Run("exporter failure surfaces", func(t *testing.T) {
		p := newPipeline(threeStateLoader(), &mockExporter{err: errors.New("disk full")})
		_, err := p.Run(context.Background(), 1000)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "export:")
	})
}

func TestPipeline_CheckReadiness(t *testing.T) {
	p := newPipeline(threeStateLoader(), &mockExporter{})

	require.Error(t, p.CheckReadiness(context.Background()))

	_, err := p.Run(context.Background(), 1000)
	require.NoError(t, err)

	assert.NoError(t, p.CheckReadiness(context.Background()))
}
