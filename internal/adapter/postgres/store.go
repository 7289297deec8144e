package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/euphoricking/malaria-incidence-nigeria/internal/dashboard"
	"github.com/euphoricking/malaria-incidence-nigeria/internal/domain"
)

// Store reads and writes the incidence store. It implements dashboard.Store
// and pipeline.Exporter.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a Store over an existing pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Export persists one allocation: boundary geometry upserts followed by the
// per-state allocation rows, in a single transaction so a failed run leaves
// no partial output.
func (s *Store) Export(ctx context.Context, alloc *domain.Allocation) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin allocation tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	boundaryUpsert := `
		INSERT INTO state_boundaries (state, geometry)
		VALUES ($1, $2)
		ON CONFLICT (state) DO UPDATE SET geometry = EXCLUDED.geometry
	`
	allocationInsert := `
		INSERT INTO state_allocations (
			run_id, state, population, avg_temperature, avg_rainfall,
			lulc_weight, temp_score, rain_score, env_risk,
			state_weight, allocated_cases, national_incidence, generated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (run_id, state) DO NOTHING
	`

	for _, st := range alloc.States {
		if len(st.Geometry) > 0 {
			if _, err := tx.Exec(ctx, boundaryUpsert, st.State, st.Geometry); err != nil {
				return fmt.Errorf("upsert boundary for %s: %w", st.State, err)
			}
		}
		_, err := tx.Exec(ctx, allocationInsert,
			alloc.RunID, st.State, st.Population, st.AvgTemperature, st.AvgRainfall,
			st.LULCWeight, st.TempScore, st.RainScore, st.EnvRisk,
			st.StateWeight, st.AllocatedCases, alloc.NationalIncidence, alloc.GeneratedAt,
		)
		if err != nil {
			return fmt.Errorf("insert allocation for %s: %w", st.State, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit allocation tx: %w", err)
	}
	return nil
}

// LatestAllocation returns the per-state rows of the most recent run, in
// state order.
func (s *Store) LatestAllocation(ctx context.Context) ([]domain.StateRecord, error) {
	query := `
		SELECT state, population, avg_temperature, avg_rainfall,
		       lulc_weight, temp_score, rain_score, env_risk,
		       state_weight, allocated_cases
		FROM state_allocations
		WHERE run_id = (
			SELECT run_id FROM state_allocations
			ORDER BY generated_at DESC LIMIT 1
		)
		ORDER BY state ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query latest allocation: %w", err)
	}
	defer rows.Close()

	var records []domain.StateRecord
	for rows.Next() {
		var r domain.StateRecord
		if err := rows.Scan(
			&r.State, &r.Population, &r.AvgTemperature, &r.AvgRainfall,
			&r.LULCWeight, &r.TempScore, &r.RainScore, &r.EnvRisk,
			&r.StateWeight, &r.AllocatedCases,
		); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// IndicatorTrend returns the filtered indicator summed per report date.
func (s *Store) IndicatorTrend(ctx context.Context, f dashboard.Filters) ([]dashboard.TrendPoint, error) {
	query, args, err := trendQuery(f)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query indicator trend: %w", err)
	}
	defer rows.Close()

	var points []dashboard.TrendPoint
	for rows.Next() {
		var p dashboard.TrendPoint
		if err := rows.Scan(&p.Date, &p.Value); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// StateComparison returns the filtered indicator summed per state.
func (s *Store) StateComparison(ctx context.Context, f dashboard.Filters) ([]dashboard.StateValue, error) {
	query, args, err := comparisonQuery(f)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query state comparison: %w", err)
	}
	defer rows.Close()

	var values []dashboard.StateValue
	for rows.Next() {
		var v dashboard.StateValue
		if err := rows.Scan(&v.State, &v.Value); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// RainfallCorrelation returns per-state mean rainfall against the indicator.
func (s *Store) RainfallCorrelation(ctx context.Context, f dashboard.Filters) ([]dashboard.CorrelationPoint, error) {
	query, args, err := correlationQuery(f)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query rainfall correlation: %w", err)
	}
	defer rows.Close()

	var points []dashboard.CorrelationPoint
	for rows.Next() {
		var p dashboard.CorrelationPoint
		if err := rows.Scan(&p.State, &p.Rainfall, &p.Value); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// KPIs returns the three aggregate figures for the filtered rows.
func (s *Store) KPIs(ctx context.Context, f dashboard.Filters) (dashboard.KPISet, error) {
	query, args, err := kpiQuery(f)
	if err != nil {
		return dashboard.KPISet{}, err
	}

	var k dashboard.KPISet
	err = s.pool.QueryRow(ctx, query, args...).Scan(
		&k.TotalIncidence, &k.TotalMortality, &k.MeanEffectiveTreatment,
	)
	if err != nil {
		return dashboard.KPISet{}, fmt.Errorf("query kpis: %w", err)
	}
	return k, nil
}

// StateBoundaries returns stored boundary geometry keyed by state. An empty
// states slice returns every boundary.
func (s *Store) StateBoundaries(ctx context.Context, states []string) (map[string]json.RawMessage, error) {
	query, args, err := boundariesQuery(states)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query state boundaries: %w", err)
	}
	defer rows.Close()

	geometries := make(map[string]json.RawMessage)
	for rows.Next() {
		var state string
		var geometry []byte
		if err := rows.Scan(&state, &geometry); err != nil {
			return nil, err
		}
		geometries[state] = json.RawMessage(geometry)
	}
	return geometries, rows.Err()
}
