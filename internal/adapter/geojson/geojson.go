// Package geojson loads state boundary FeatureCollections and writes the
// geometry-preserving pipeline output. Geometry is never interpreted: it is
// carried as raw JSON from input to output.
package geojson

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/euphoricking/malaria-incidence-nigeria/internal/domain"
)

// FeatureCollection is the subset of the GeoJSON structure this pipeline
// touches. Unknown feature properties are preserved through a round trip.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is one GeoJSON feature with opaque geometry.
type Feature struct {
	Type       string                 `json:"type"`
	Properties map[string]interface{} `json:"properties"`
	Geometry   json.RawMessage        `json:"geometry"`
}

// BoundaryFile reads state boundaries from a GeoJSON file. StateProperty
// names the feature property carrying the state key.
type BoundaryFile struct {
	Path          string
	StateProperty string
}

// LoadBoundaries parses the FeatureCollection and extracts one boundary per
// feature. Features without the state property are a schema mismatch.
func (b *BoundaryFile) LoadBoundaries(_ context.Context) ([]domain.BoundaryFeature, error) {
	data, err := os.ReadFile(b.Path)
	if err != nil {
		return nil, &domain.MissingInputError{Dataset: "boundaries", Path: b.Path, Err: err}
	}

	var fc FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, &domain.SchemaMismatchError{Dataset: "boundaries", Detail: fmt.Sprintf("invalid GeoJSON: %v", err)}
	}
	if !strings.EqualFold(fc.Type, "FeatureCollection") {
		return nil, &domain.SchemaMismatchError{Dataset: "boundaries", Detail: fmt.Sprintf("expected FeatureCollection, got %q", fc.Type)}
	}

	boundaries := make([]domain.BoundaryFeature, 0, len(fc.Features))
	var missing []string
	for i, f := range fc.Features {
		state, ok := stateName(f.Properties, b.StateProperty)
		if !ok {
			missing = append(missing, fmt.Sprintf("feature %d", i))
			continue
		}
		boundaries = append(boundaries, domain.BoundaryFeature{State: state, Geometry: f.Geometry})
	}

	if len(missing) > 0 {
		return nil, &domain.SchemaMismatchError{
			Dataset: "boundaries",
			Detail:  fmt.Sprintf("features missing the %q property", b.StateProperty),
			Keys:    missing,
		}
	}
	return boundaries, nil
}

func stateName(properties map[string]interface{}, property string) (string, bool) {
	v, ok := properties[property]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return strings.TrimSpace(s), true
}

// Exporter writes the allocation as a FeatureCollection: one feature per
// state with its original geometry and all derived attributes as properties.
// It implements pipeline.Exporter.
type Exporter struct {
	Path          string
	StateProperty string
}

// Export writes the geometry-preserving output file.
func (e *Exporter) Export(_ context.Context, alloc *domain.Allocation) error {
	fc := FeatureCollection{
		Type:     "FeatureCollection",
		Features: make([]Feature, 0, len(alloc.States)),
	}

	for _, s := range alloc.States {
		fc.Features = append(fc.Features, Feature{
			Type:     "Feature",
			Geometry: s.Geometry,
			Properties: map[string]interface{}{
				e.StateProperty:   s.State,
				"Population":      s.Population,
				"Avg_Temperature": s.AvgTemperature,
				"Avg_Rainfall":    s.AvgRainfall,
				"LULC_Weight":     s.LULCWeight,
				"Temp_Score":      s.TempScore,
				"Rain_Score":      s.RainScore,
				"Env_Risk":        s.EnvRisk,
				"State_Weight":    s.StateWeight,
				"Allocated_Cases": s.AllocatedCases,
			},
		})
	}

	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal feature collection: %w", err)
	}
	if err := os.WriteFile(e.Path, data, 0o644); err != nil {
		return fmt.Errorf("write geojson output: %w", err)
	}
	return nil
}
