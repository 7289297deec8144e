package domain

import "math"

// Allocate distributes a national incidence count across scored states in
// proportion to population × environmental risk. The resulting allocations
// sum to nationalIncidence within floating-point tolerance whenever the total
// weight is positive. A zero total weight (all risks or all populations zero)
// makes the split undefined and fails with a DegenerateInputError instead of
// emitting NaN.
func Allocate(states []StateRecord, nationalIncidence float64) ([]StateRecord, float64, error) {
	var totalWeight float64
	for i := range states {
		s := &states[i]
		s.StateWeight = float64(s.Population) * s.EnvRisk
		totalWeight += s.StateWeight
	}

	if math.IsNaN(totalWeight) || math.IsInf(totalWeight, 0) {
		return nil, 0, &DegenerateInputError{
			Stage:  "allocation",
			Reason: "total state weight is not finite",
		}
	}
	if totalWeight <= 0 {
		return nil, 0, &DegenerateInputError{
			Stage:  "allocation",
			Reason: "total state weight is zero",
		}
	}

	for i := range states {
		s := &states[i]
		s.AllocatedCases = s.StateWeight / totalWeight * nationalIncidence
	}
	return states, totalWeight, nil
}
