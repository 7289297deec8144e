package domain

import (
	"encoding/json"
	"time"
)

// PopulationRow is one record from the population table.
type PopulationRow struct {
	State      string
	Population int64
}

// EnvironmentRow is one record from the environmental table.
type EnvironmentRow struct {
	State       string
	Temperature float64 // annual mean, °C
	Rainfall    float64 // annual mean, mm
}

// LULCRow is one land-use/land-cover record. A state may have several rows,
// one per category, with Proportion giving that category's share of the
// state's area. Proportions for a state are expected to sum to 1; they are
// renormalized during weighting if they do not.
type LULCRow struct {
	State      string
	Category   string
	Proportion float64
}

// BoundaryFeature is one state's administrative boundary. Geometry is carried
// through the pipeline untouched and re-attached on export.
type BoundaryFeature struct {
	State    string
	Geometry json.RawMessage
}

// StateRecord is the per-state working record. It is constructed once per run
// from the joined inputs and annotated additively as each stage runs.
type StateRecord struct {
	State      string          `json:"state"`
	Geometry   json.RawMessage `json:"-"`
	Population int64           `json:"population"`

	AvgTemperature float64   `json:"avg_temperature"`
	AvgRainfall    float64   `json:"avg_rainfall"`
	LULC           []LULCRow `json:"-"`

	LULCWeight     float64 `json:"lulc_weight"`
	TempScore      float64 `json:"temp_score"`
	RainScore      float64 `json:"rain_score"`
	EnvRisk        float64 `json:"env_risk"`
	StateWeight    float64 `json:"state_weight"`
	AllocatedCases float64 `json:"allocated_cases"`
}

// NewAllocation assembles the result of a completed run, stamped with the
// package clock.
func NewAllocation(runID string, nationalIncidence, totalWeight, maxRainfall float64, states []StateRecord) *Allocation {
	return &Allocation{
		RunID:             runID,
		NationalIncidence: nationalIncidence,
		TotalWeight:       totalWeight,
		MaxRainfall:       maxRainfall,
		States:            states,
		GeneratedAt:       clock.Now().UTC(),
	}
}

// Allocation is the result of one complete pipeline run.
type Allocation struct {
	RunID             string        `json:"run_id"`
	NationalIncidence float64       `json:"national_incidence"`
	TotalWeight       float64       `json:"total_weight"`
	MaxRainfall       float64       `json:"max_rainfall"`
	States            []StateRecord `json:"states"`
	GeneratedAt       time.Time     `json:"generated_at"`
}
