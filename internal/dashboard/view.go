// Package dashboard assembles the map, chart, and KPI payloads served to the
// dashboard frontend. One synchronous Build call per request: filters in,
// fully computed view out.
package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"log/slog"

	"github.com/euphoricking/malaria-incidence-nigeria/internal/observability"
)

// Filters scope a dashboard view. Zero Year means all years; empty States
// means all states.
type Filters struct {
	Year      int
	Indicator Indicator
	States    []string
}

// TrendPoint is one point of the indicator-over-time chart.
type TrendPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// StateValue is one bar of the cross-state comparison chart.
type StateValue struct {
	State string  `json:"state"`
	Value float64 `json:"value"`
}

// CorrelationPoint is one point of the rainfall scatter chart.
type CorrelationPoint struct {
	State    string  `json:"state"`
	Rainfall float64 `json:"rainfall"`
	Value    float64 `json:"value"`
}

// KPISet holds the three aggregate figures shown above the charts.
type KPISet struct {
	TotalIncidence         float64 `json:"total_incidence"`
	TotalMortality         float64 `json:"total_mortality"`
	MeanEffectiveTreatment float64 `json:"mean_effective_treatment"`
}

// MapFeature is one state's overlay feature: real boundary geometry plus the
// filtered indicator value.
type MapFeature struct {
	Type       string                 `json:"type"`
	Properties map[string]interface{} `json:"properties"`
	Geometry   json.RawMessage        `json:"geometry"`
}

// MapLayer is the GeoJSON FeatureCollection rendered as the map overlay.
type MapLayer struct {
	Type     string       `json:"type"`
	Features []MapFeature `json:"features"`
}

// View is one fully computed dashboard payload.
type View struct {
	Indicator           string             `json:"indicator"`
	IndicatorLabel      string             `json:"indicator_label"`
	Year                int                `json:"year,omitempty"`
	MapLayer            MapLayer           `json:"map_layer"`
	Trend               []TrendPoint       `json:"trend"`
	StateComparison     []StateValue       `json:"state_comparison"`
	RainfallCorrelation []CorrelationPoint `json:"rainfall_correlation"`
	KPIs                KPISet             `json:"kpis"`
}

// Store is the read path into the incidence store.
type Store interface {
	IndicatorTrend(ctx context.Context, f Filters) ([]TrendPoint, error)
	StateComparison(ctx context.Context, f Filters) ([]StateValue, error)
	RainfallCorrelation(ctx context.Context, f Filters) ([]CorrelationPoint, error)
	KPIs(ctx context.Context, f Filters) (KPISet, error)
	StateBoundaries(ctx context.Context, states []string) (map[string]json.RawMessage, error)
}

// ViewBuilder computes a dashboard view for a set of filters.
type ViewBuilder interface {
	Build(ctx context.Context, f Filters) (*View, error)
}

// Builder assembles views directly from the store.
type Builder struct {
	store   Store
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewBuilder creates a Builder over the given store.
func NewBuilder(store Store, logger *slog.Logger, metrics *observability.Metrics) *Builder {
	return &Builder{store: store, logger: logger, metrics: metrics}
}

// Build runs the four store queries and attaches boundary geometry to the
// per-state values. States whose boundary row has no geometry are kept in the
// charts but reported, never silently rendered as empty features.
func (b *Builder) Build(ctx context.Context, f Filters) (*View, error) {
	start := time.Now()

	trend, err := b.store.IndicatorTrend(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("indicator trend: %w", err)
	}

	comparison, err := b.store.StateComparison(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("state comparison: %w", err)
	}

	correlation, err := b.store.RainfallCorrelation(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("rainfall correlation: %w", err)
	}

	kpis, err := b.store.KPIs(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("kpis: %w", err)
	}

	mapLayer, err := b.buildMapLayer(ctx, f, comparison)
	if err != nil {
		return nil, fmt.Errorf("map layer: %w", err)
	}

	b.metrics.ViewDuration.Observe(time.Since(start).Seconds())

	return &View{
		Indicator:           f.Indicator.String(),
		IndicatorLabel:      f.Indicator.Label(),
		Year:                f.Year,
		MapLayer:            mapLayer,
		Trend:               trend,
		StateComparison:     comparison,
		RainfallCorrelation: correlation,
		KPIs:                kpis,
	}, nil
}

func (b *Builder) buildMapLayer(ctx context.Context, f Filters, comparison []StateValue) (MapLayer, error) {
	states := make([]string, len(comparison))
	for i, sv := range comparison {
		states[i] = sv.State
	}

	geometries, err := b.store.StateBoundaries(ctx, states)
	if err != nil {
		return MapLayer{}, err
	}

	layer := MapLayer{Type: "FeatureCollection", Features: make([]MapFeature, 0, len(comparison))}
	for _, sv := range comparison {
		geometry, ok := geometries[sv.State]
		if !ok || len(geometry) == 0 {
			b.logger.Warn("state has no boundary geometry, omitted from map layer", "state", sv.State)
			continue
		}
		layer.Features = append(layer.Features, MapFeature{
			Type:     "Feature",
			Geometry: geometry,
			Properties: map[string]interface{}{
				"state":     sv.State,
				"indicator": f.Indicator.String(),
				"value":     sv.Value,
			},
		})
	}
	return layer, nil
}
