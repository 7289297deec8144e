package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTempScore(t *testing.T) {
	tests := []struct {
		name        string
		temperature float64
		expected    float64
	}{
		{"optimal", 26.0, 1.0},
		{"at upper edge of range", 32.0, 0.0},
		{"at lower edge of range", 20.0, 0.0},
		{"beyond range clips to zero", 38.0, 0.0},
		{"far below range clips to zero", 5.0, 0.0},
		{"halfway above", 29.0, 0.5},
		{"halfway below", 23.0, 0.5},
		{"one degree off", 27.0, 1 - 1.0/6.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := TempScore(tt.temperature)
			assert.InDelta(t, tt.expected, score, 1e-9)
			assert.GreaterOrEqual(t, score, 0.0)
			assert.LessOrEqual(t, score, 1.0)
		})
	}
}

func TestRainScore(t *testing.T) {
	t.Run("maximum scores one", func(t *testing.T) {
		assert.InDelta(t, 1.0, RainScore(200, 200), 1e-9)
	})

	t.Run("proportional below maximum", func(t *testing.T) {
		assert.InDelta(t, 0.25, RainScore(50, 200), 1e-9)
	})

	t.Run("zero rainfall scores zero", func(t *testing.T) {
		assert.Equal(t, 0.0, RainScore(0, 200))
	})
}

func TestLULCWeight(t *testing.T) {
	t.Run("single urban category", func(t *testing.T) {
		rows := []LULCRow{{State: "Lagos", Category: "Urban", Proportion: 1.0}}
		assert.InDelta(t, 1.5, LULCWeight(rows), 1e-9)
	})

	t.Run("no category records defaults", func(t *testing.T) {
		assert.Equal(t, DefaultLULCWeight, LULCWeight(nil))
	})

	t.Run("proportion-weighted average", func(t *testing.T) {
		rows := []LULCRow{
			{State: "Rivers", Category: "Urban", Proportion: 0.6},
			{State: "Rivers", Category: "Water", Proportion: 0.4},
		}
		// 1.5×0.6 + 0.5×0.4
		assert.InDelta(t, 1.1, LULCWeight(rows), 1e-9)
	})

	t.Run("unmapped category contributes default weight", func(t *testing.T) {
		rows := []LULCRow{
			{State: "Borno", Category: "Wetland", Proportion: 0.5},
			{State: "Borno", Category: "Urban", Proportion: 0.5},
		}
		assert.InDelta(t, (1.0+1.5)/2, LULCWeight(rows), 1e-9)
	})

	t.Run("shares renormalized when they do not sum to one", func(t *testing.T) {
		rows := []LULCRow{
			{State: "Kano", Category: "Urban", Proportion: 0.3},
			{State: "Kano", Category: "Water", Proportion: 0.2},
		}
		assert.InDelta(t, (1.5*0.3+0.5*0.2)/0.5, LULCWeight(rows), 1e-9)
	})

	t.Run("category matching is case-insensitive", func(t *testing.T) {
		rows := []LULCRow{{Category: "AGRICULTURAL", Proportion: 1.0}}
		assert.InDelta(t, 1.3, LULCWeight(rows), 1e-9)
	})

	t.Run("non-positive proportions ignored", func(t *testing.T) {
		rows := []LULCRow{
			{Category: "Urban", Proportion: 0},
			{Category: "Forested", Proportion: -0.2},
		}
		assert.Equal(t, DefaultLULCWeight, LULCWeight(rows))
	})
}

func TestScoreStates(t *testing.T) {
	t.Run("annotates all factors", func(t *testing.T) {
		states := []StateRecord{
			{State: "A", AvgTemperature: 26, AvgRainfall: 100, LULC: []LULCRow{{Category: "Forested", Proportion: 1}}},
			{State: "B", AvgTemperature: 32, AvgRainfall: 50, LULC: []LULCRow{{Category: "Urban", Proportion: 1}}},
			{State: "C", AvgTemperature: 20, AvgRainfall: 200, LULC: []LULCRow{{Category: "Water", Proportion: 1}}},
		}

		scored, err := ScoreStates(states)
		require.NoError(t, err)
		require.Len(t, scored, 3)

		assert.InDelta(t, 1.0, scored[0].TempScore, 1e-9)
		assert.InDelta(t, 0.5, scored[0].RainScore, 1e-9)
		assert.InDelta(t, 0.5, scored[0].EnvRisk, 1e-9) // 1.0 × 1.0 × 0.5

		assert.InDelta(t, 0.0, scored[1].TempScore, 1e-9)
		assert.InDelta(t, 0.0, scored[1].EnvRisk, 1e-9)

		assert.InDelta(t, 1.0, scored[2].RainScore, 1e-9)
		assert.InDelta(t, 0.0, scored[2].EnvRisk, 1e-9) // temp 6°C below optimal
	})

	t.Run("zero maximum rainfall is degenerate", func(t *testing.T) {
		states := []StateRecord{
			{State: "A", AvgTemperature: 26, AvgRainfall: 0},
			{State: "B", AvgTemperature: 27, AvgRainfall: 0},
		}

		_, err := ScoreStates(states)
		require.Error(t, err)

		var degenerate *DegenerateInputError
		require.ErrorAs(t, err, &degenerate)
		assert.Equal(t, "risk scoring", degenerate.Stage)
	})

	t.Run("NaN rainfall is rejected, not propagated", func(t *testing.T) {
		states := []StateRecord{
			{State: "A", AvgTemperature: 26, AvgRainfall: 100},
			{State: "B", AvgTemperature: 27, AvgRainfall: math.NaN()},
		}

		_, err := ScoreStates(states)
		var degenerate *DegenerateInputError
		require.ErrorAs(t, err, &degenerate)
		assert.Contains(t, degenerate.Reason, "B")
		assert.Contains(t, degenerate.Reason, "non-finite rainfall")
	})

	t.Run("infinite temperature is rejected", func(t *testing.T) {
		states := []StateRecord{
			{State: "A", AvgTemperature: math.Inf(1), AvgRainfall: 100},
		}

		_, err := ScoreStates(states)
		var degenerate *DegenerateInputError
		require.ErrorAs(t, err, &degenerate)
		assert.Contains(t, degenerate.Reason, "non-finite temperature")
	})

	t.Run("negative rainfall is rejected", func(t *testing.T) {
		states := []StateRecord{
			{State: "A", AvgTemperature: 26, AvgRainfall: 100},
			{State: "B", AvgTemperature: 27, AvgRainfall: -200},
		}

		_, err := ScoreStates(states)
		var degenerate *DegenerateInputError
		require.ErrorAs(t, err, &degenerate)
		assert.Contains(t, degenerate.Reason, "negative rainfall")
	})

	t.Run("missing LULC defaults rather than propagating NaN", func(t *testing.T) {
		states := []StateRecord{{State: "A", AvgTemperature: 26, AvgRainfall: 10}}

		scored, err := ScoreStates(states)
		require.NoError(t, err)
		assert.Equal(t, DefaultLULCWeight, scored[0].LULCWeight)
		assert.False(t, scored[0].EnvRisk != scored[0].EnvRisk, "risk must not be NaN")
	})
}
