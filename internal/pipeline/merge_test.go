package pipeline

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/euphoricking/malaria-incidence-nigeria/internal/domain"
)

func TestMerge(t *testing.T) {
	boundaries := []domain.BoundaryFeature{
		{State: "Lagos", Geometry: json.RawMessage(`{"type":"Polygon","coordinates":[]}`)},
		{State: "Kano"},
	}
	population := []domain.PopulationRow{
		{State: "Lagos", Population: 14_800_000},
		{State: "Kano", Population: 15_400_000},
	}
	environment := []domain.EnvironmentRow{
		{State: "Lagos", Temperature: 27.1, Rainfall: 1700},
		{State: "Kano", Temperature: 26.4, Rainfall: 880},
	}
	lulc := []domain.LULCRow{
		{State: "Lagos", Category: "Urban", Proportion: 0.8},
		{State: "Lagos", Category: "Water", Proportion: 0.2},
	}

	t.Run("joins on boundary order", func(t *testing.T) {
		records, warnings, err := Merge(boundaries, population, environment, lulc, MergeOptions{})
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Empty(t, warnings)

		assert.Equal(t, "Lagos", records[0].State)
		assert.Equal(t, int64(14_800_000), records[0].Population)
		assert.Equal(t, 27.1, records[0].AvgTemperature)
		assert.Equal(t, 1700.0, records[0].AvgRainfall)
		assert.Len(t, records[0].LULC, 2)
		assert.JSONEq(t, `{"type":"Polygon","coordinates":[]}`, string(records[0].Geometry))

		assert.Equal(t, "Kano", records[1].State)
		assert.Empty(t, records[1].LULC, "missing land cover is not a merge failure")
	})

	t.Run("state key matching ignores case and whitespace", func(t *testing.T) {
		pop := []domain.PopulationRow{
			{State: " LAGOS ", Population: 1},
			{State: "kano", Population: 2},
		}
		records, _, err := Merge(boundaries, pop, environment, lulc, MergeOptions{})
		require.NoError(t, err)
		assert.Equal(t, int64(1), records[0].Population)
		assert.Equal(t, int64(2), records[1].Population)
	})

	t.Run("boundary state without population fails fast", func(t *testing.T) {
		_, _, err := Merge(boundaries, population[:1], environment, lulc, MergeOptions{})

		var mismatch *domain.SchemaMismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, "population", mismatch.Dataset)
		assert.Equal(t, []string{"Kano"}, mismatch.Keys)
	})

	t.Run("boundary state without environment fails fast", func(t *testing.T) {
		_, _, err := Merge(boundaries, population, environment[1:], lulc, MergeOptions{})

		var mismatch *domain.SchemaMismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, "environment", mismatch.Dataset)
	})

	t.Run("explicit defaults substitute when allowed", func(t *testing.T) {
		opts := MergeOptions{
			AllowMissing:       true,
			DefaultPopulation:  1000,
			DefaultTemperature: 25.0,
			DefaultRainfall:    900.0,
		}
		records, warnings, err := Merge(boundaries, population[:1], environment[:1], lulc, opts)
		require.NoError(t, err)

		assert.Equal(t, int64(1000), records[1].Population)
		assert.Equal(t, 25.0, records[1].AvgTemperature)
		assert.Equal(t, 900.0, records[1].AvgRainfall)
		assert.Len(t, warnings, 2)
	})

	t.Run("rows for unknown states dropped with warning", func(t *testing.T) {
		pop := append([]domain.PopulationRow{{State: "Atlantis", Population: 5}}, population...)
		records, warnings, err := Merge(boundaries, pop, environment, lulc, MergeOptions{})
		require.NoError(t, err)
		assert.Len(t, records, 2)
		require.Len(t, warnings, 1)
		assert.Contains(t, warnings[0], "Atlantis")
	})

	t.Run("duplicate population key is a schema mismatch", func(t *testing.T) {
		pop := append([]domain.PopulationRow{{State: "Lagos", Population: 5}}, population...)
		_, _, err := Merge(boundaries, pop, environment, lulc, MergeOptions{})

		var mismatch *domain.SchemaMismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, "duplicate state key", mismatch.Detail)
	})

	t.Run("duplicate boundary key is a schema mismatch", func(t *testing.T) {
		dup := append([]domain.BoundaryFeature{{State: "Lagos"}}, boundaries...)
		_, _, err := Merge(dup, population, environment, lulc, MergeOptions{})

		var mismatch *domain.SchemaMismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, "boundaries", mismatch.Dataset)
	})

	t.Run("empty boundary set fails", func(t *testing.T) {
		_, _, err := Merge(nil, population, environment, lulc, MergeOptions{})
		require.Error(t, err)
	})
}
