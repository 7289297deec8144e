package domain

import (
	"fmt"
	"math"
	"strings"
)

const (
	// OptimalTemperature is the temperature of peak Anopheles transmission
	// suitability, in °C.
	OptimalTemperature = 26.0

	// TemperatureRange is the distance from optimal, in °C, at which the
	// temperature score reaches zero.
	TemperatureRange = 6.0

	// DefaultLULCWeight is assigned when a state has no land-cover record or
	// an unmapped category.
	DefaultLULCWeight = 1.0
)

// lulcWeights maps normalized land-cover categories to transmission weights.
// Built environments and irrigated agriculture concentrate vector habitat and
// human exposure; open water dilutes it.
var lulcWeights = map[string]float64{
	"urban":        1.5,
	"agricultural": 1.3,
	"forested":     1.0,
	"water":        0.5,
}

// LULCWeightForCategory returns the weight for a single category, or the
// default for unmapped categories. Matching is case-insensitive.
func LULCWeightForCategory(category string) (weight float64, mapped bool) {
	w, ok := lulcWeights[strings.ToLower(strings.TrimSpace(category))]
	if !ok {
		return DefaultLULCWeight, false
	}
	return w, true
}

// LULCWeight computes a state's land-cover weight as the proportion-weighted
// average over its category records. A state with no records gets the default
// weight. Unmapped categories contribute the default weight for their share.
// Proportions are renormalized so malformed shares cannot skew the average.
func LULCWeight(rows []LULCRow) float64 {
	if len(rows) == 0 {
		return DefaultLULCWeight
	}

	var totalShare, weighted float64
	for _, row := range rows {
		if row.Proportion <= 0 {
			continue
		}
		w, _ := LULCWeightForCategory(row.Category)
		weighted += w * row.Proportion
		totalShare += row.Proportion
	}
	if totalShare == 0 {
		return DefaultLULCWeight
	}
	return weighted / totalShare
}

// TempScore maps temperature proximity to the transmission optimum onto
// [0, 1]: 1 at the optimum, falling linearly to 0 at TemperatureRange degrees
// away, clipped at 0 beyond that rather than going negative.
func TempScore(temperature float64) float64 {
	dist := temperature - OptimalTemperature
	if dist < 0 {
		dist = -dist
	}
	score := 1 - dist/TemperatureRange
	if score < 0 {
		return 0
	}
	return score
}

// RainScore normalizes rainfall against the maximum observed across all
// states in the current run. maxRainfall must be > 0; callers guard the
// degenerate case before scoring.
func RainScore(rainfall, maxRainfall float64) float64 {
	return rainfall / maxRainfall
}

// EnvRisk combines the three factors multiplicatively.
func EnvRisk(lulcWeight, tempScore, rainScore float64) float64 {
	return lulcWeight * tempScore * rainScore
}

// MaxRainfall returns the run-wide maximum rainfall. The rain score of every
// state is coupled to this aggregate, so it is recomputed per run rather than
// held as a constant.
func MaxRainfall(states []StateRecord) float64 {
	var max float64
	for _, s := range states {
		if s.AvgRainfall > max {
			max = s.AvgRainfall
		}
	}
	return max
}

// ScoreStates annotates every record with its LULC weight, temperature score,
// rainfall score, and combined environmental risk. It fails with a
// DegenerateInputError when the run-wide maximum rainfall is zero, which
// would make the rainfall normalization undefined, and when any state
// carries a non-finite temperature or a non-finite or negative rainfall.
func ScoreStates(states []StateRecord) ([]StateRecord, error) {
	for i := range states {
		s := &states[i]
		if math.IsNaN(s.AvgTemperature) || math.IsInf(s.AvgTemperature, 0) {
			return nil, &DegenerateInputError{
				Stage:  "risk scoring",
				Reason: fmt.Sprintf("state %q has non-finite temperature", s.State),
			}
		}
		if math.IsNaN(s.AvgRainfall) || math.IsInf(s.AvgRainfall, 0) {
			return nil, &DegenerateInputError{
				Stage:  "risk scoring",
				Reason: fmt.Sprintf("state %q has non-finite rainfall", s.State),
			}
		}
		if s.AvgRainfall < 0 {
			return nil, &DegenerateInputError{
				Stage:  "risk scoring",
				Reason: fmt.Sprintf("state %q has negative rainfall", s.State),
			}
		}
	}

	maxRain := MaxRainfall(states)
	if maxRain <= 0 {
		return nil, &DegenerateInputError{
			Stage:  "risk scoring",
			Reason: "maximum rainfall across all states is zero",
		}
	}

	for i := range states {
		s := &states[i]
		s.LULCWeight = LULCWeight(s.LULC)
		s.TempScore = TempScore(s.AvgTemperature)
		s.RainScore = RainScore(s.AvgRainfall, maxRain)
		s.EnvRisk = EnvRisk(s.LULCWeight, s.TempScore, s.RainScore)
	}
	return states, nil
}
