package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/euphoricking/malaria-incidence-nigeria/internal/domain"
)

// outputColumns is the export column order: the original state attributes
// followed by every derived field.
var outputColumns = []string{
	"State", "Population", "Avg_Temperature", "Avg_Rainfall",
	"LULC_Weight", "Temp_Score", "Rain_Score", "Env_Risk",
	"State_Weight", "Allocated_Cases",
}

// Exporter writes the final per-state table to a CSV file.
// It implements pipeline.Exporter.
type Exporter struct {
	Path string
}

// Export writes one row per state in allocation order. Values are written
// as-is; no rounding or transformation.
func (e *Exporter) Export(_ context.Context, alloc *domain.Allocation) error {
	file, err := os.Create(e.Path)
	if err != nil {
		return fmt.Errorf("create csv output: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(outputColumns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, s := range alloc.States {
		row := []string{
			s.State,
			strconv.FormatInt(s.Population, 10),
			formatFloat(s.AvgTemperature),
			formatFloat(s.AvgRainfall),
			formatFloat(s.LULCWeight),
			formatFloat(s.TempScore),
			formatFloat(s.RainScore),
			formatFloat(s.EnvRisk),
			formatFloat(s.StateWeight),
			formatFloat(s.AllocatedCases),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write csv row for %s: %w", s.State, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv output: %w", err)
	}
	return file.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
