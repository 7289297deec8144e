package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/euphoricking/malaria-incidence-nigeria/internal/domain"
)

// MergeOptions controls how unmatched boundary states are handled. The
// boundary collection is authoritative; by default a boundary state missing
// from the population or environment table fails the merge. Setting
// AllowMissing substitutes the explicit defaults instead.
type MergeOptions struct {
	AllowMissing       bool
	DefaultPopulation  int64
	DefaultTemperature float64
	DefaultRainfall    float64
}

// Merge left-joins the population, environment, and land-cover tables onto
// the boundary collection. Output order equals boundary order. Rows keyed by
// states absent from the boundary set are dropped and reported as warnings.
func Merge(
	boundaries []domain.BoundaryFeature,
	population []domain.PopulationRow,
	environment []domain.EnvironmentRow,
	lulc []domain.LULCRow,
	opts MergeOptions,
) ([]domain.StateRecord, []string, error) {
	if len(boundaries) == 0 {
		return nil, nil, &domain.SchemaMismatchError{Dataset: "boundaries", Detail: "no boundary features"}
	}

	popByState := make(map[string]domain.PopulationRow, len(population))
	for _, row := range population {
		key := stateKey(row.State)
		if _, dup := popByState[key]; dup {
			return nil, nil, &domain.SchemaMismatchError{
				Dataset: "population", Detail: "duplicate state key", Keys: []string{row.State},
			}
		}
		popByState[key] = row
	}

	envByState := make(map[string]domain.EnvironmentRow, len(environment))
	for _, row := range environment {
		key := stateKey(row.State)
		if _, dup := envByState[key]; dup {
			return nil, nil, &domain.SchemaMismatchError{
				Dataset: "environment", Detail: "duplicate state key", Keys: []string{row.State},
			}
		}
		envByState[key] = row
	}

	lulcByState := make(map[string][]domain.LULCRow, len(lulc))
	for _, row := range lulc {
		key := stateKey(row.State)
		lulcByState[key] = append(lulcByState[key], row)
	}

	boundaryKeys := make(map[string]bool, len(boundaries))
	records := make([]domain.StateRecord, 0, len(boundaries))
	var missingPop, missingEnv []string

	for _, b := range boundaries {
		key := stateKey(b.State)
		if boundaryKeys[key] {
			return nil, nil, &domain.SchemaMismatchError{
				Dataset: "boundaries", Detail: "duplicate state key", Keys: []string{b.State},
			}
		}
		boundaryKeys[key] = true

		rec := domain.StateRecord{
			State:    b.State,
			Geometry: b.Geometry,
			LULC:     lulcByState[key],
		}

		if pop, ok := popByState[key]; ok {
			rec.Population = pop.Population
		} else {
			missingPop = append(missingPop, b.State)
			rec.Population = opts.DefaultPopulation
		}

		if env, ok := envByState[key]; ok {
			rec.AvgTemperature = env.Temperature
			rec.AvgRainfall = env.Rainfall
		} else {
			missingEnv = append(missingEnv, b.State)
			rec.AvgTemperature = opts.DefaultTemperature
			rec.AvgRainfall = opts.DefaultRainfall
		}

		records = append(records, rec)
	}

	if !opts.AllowMissing {
		if len(missingPop) > 0 {
			return nil, nil, &domain.SchemaMismatchError{
				Dataset: "population", Detail: "boundary states without a population row", Keys: missingPop,
			}
		}
		if len(missingEnv) > 0 {
			return nil, nil, &domain.SchemaMismatchError{
				Dataset: "environment", Detail: "boundary states without an environment row", Keys: missingEnv,
			}
		}
	}

	warnings := orphanWarnings(boundaryKeys, popByState, envByState, lulcByState)
	for _, state := range missingPop {
		warnings = append(warnings, fmt.Sprintf("state %q: population defaulted to %d", state, opts.DefaultPopulation))
	}
	for _, state := range missingEnv {
		warnings = append(warnings, fmt.Sprintf("state %q: environment defaulted to %.1f°C / %.1fmm",
			state, opts.DefaultTemperature, opts.DefaultRainfall))
	}

	return records, warnings, nil
}

// orphanWarnings reports rows keyed by states that no boundary feature carries.
func orphanWarnings(
	boundaryKeys map[string]bool,
	popByState map[string]domain.PopulationRow,
	envByState map[string]domain.EnvironmentRow,
	lulcByState map[string][]domain.LULCRow,
) []string {
	var orphans []string
	for key, row := range popByState {
		if !boundaryKeys[key] {
			orphans = append(orphans, fmt.Sprintf("population row for unknown state %q dropped", row.State))
		}
	}
	for key, row := range envByState {
		if !boundaryKeys[key] {
			orphans = append(orphans, fmt.Sprintf("environment row for unknown state %q dropped", row.State))
		}
	}
	for key, rows := range lulcByState {
		if !boundaryKeys[key] && len(rows) > 0 {
			orphans = append(orphans, fmt.Sprintf("land-cover rows for unknown state %q dropped", rows[0].State))
		}
	}
	sort.Strings(orphans)
	return orphans
}

// stateKey canonicalizes a state name for joining across datasets.
func stateKey(state string) string {
	return strings.ToLower(strings.TrimSpace(state))
}
