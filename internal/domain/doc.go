// Package domain models the state-level disaggregation of a national malaria
// incidence figure for Nigeria.
//
// # Inputs
//
// Four independent datasets keyed by state name feed one run:
//
//	population:  state, population (head count, non-negative integer)
//	environment: state, temperature (annual mean °C), rainfall (annual mean mm)
//	lulc:        state, category, proportion (share of state area in [0,1])
//	boundaries:  state + administrative boundary geometry (GeoJSON)
//
// The boundary collection is authoritative: its state set and its order define
// the output. Population and environment are left-joined onto it; a boundary
// state missing from either table is a schema mismatch unless the caller
// supplies explicit fallback values.
//
// # Weighting model
//
// Land use/land cover (LULC) weight per category:
//
//	urban 1.5 | agricultural 1.3 | forested 1.0 | water 0.5
//
// A state with several category records gets the proportion-weighted average
// of its category weights. A state with no records, or an unmapped category,
// falls back to the neutral weight 1.0. Missing LULC data is never fatal.
//
// Temperature score: max(0, 1 − |T − 26| / 6). Peak transmission suitability
// at 26°C, linear falloff, clipped to zero at 6°C or more from optimal.
//
// Rainfall score: R / R_max, where R_max is the maximum rainfall observed
// across all states in the current run. The score is a run-wide normalization,
// not a constant scale: every state's score moves with the wettest state in
// the dataset. R_max of zero halts the run.
//
// Environmental risk is the product lulc_weight × temp_score × rain_score.
//
// # Allocation
//
// Each state weighs population × env_risk. The national incidence count N is
// split proportionally: allocated = weight / Σweights × N, so allocations sum
// to N modulo floating-point rounding. A zero total weight halts the run
// rather than emitting NaN.
//
// # Failure modes
//
// All failures are deterministic data-validity problems, typed as
// [MissingInputError], [SchemaMismatchError], and [DegenerateInputError].
// There is no transient failure surface and therefore no retry policy.
package domain
