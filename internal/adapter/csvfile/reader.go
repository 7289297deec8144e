// Package csvfile loads the tabular pipeline inputs and writes the tabular
// output. Column names are matched case-insensitively; each dataset needs its
// state key column plus the attribute columns listed per loader.
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/euphoricking/malaria-incidence-nigeria/internal/domain"
)

// Tables reads the population, environment, and land-cover CSV files.
type Tables struct {
	PopulationPath  string
	EnvironmentPath string
	LULCPath        string
}

// LoadPopulation reads rows of (state, population).
func (t *Tables) LoadPopulation(_ context.Context) ([]domain.PopulationRow, error) {
	records, header, err := readAll("population", t.PopulationPath, []string{"state", "population"})
	if err != nil {
		return nil, err
	}

	rows := make([]domain.PopulationRow, 0, len(records))
	for i, rec := range records {
		pop, err := strconv.ParseInt(strings.TrimSpace(field(rec, header, "population")), 10, 64)
		if err != nil {
			return nil, parseError("population", t.PopulationPath, i, "population", err)
		}
		if pop < 0 {
			return nil, parseError("population", t.PopulationPath, i, "population", fmt.Errorf("negative count %d", pop))
		}
		rows = append(rows, domain.PopulationRow{
			State:      strings.TrimSpace(field(rec, header, "state")),
			Population: pop,
		})
	}
	return rows, nil
}

// LoadEnvironment reads rows of (state, temperature, rainfall).
func (t *Tables) LoadEnvironment(_ context.Context) ([]domain.EnvironmentRow, error) {
	records, header, err := readAll("environment", t.EnvironmentPath, []string{"state", "temperature", "rainfall"})
	if err != nil {
		return nil, err
	}

	rows := make([]domain.EnvironmentRow, 0, len(records))
	for i, rec := range records {
		temp, err := strconv.ParseFloat(strings.TrimSpace(field(rec, header, "temperature")), 64)
		if err != nil {
			return nil, parseError("environment", t.EnvironmentPath, i, "temperature", err)
		}
		if math.IsNaN(temp) || math.IsInf(temp, 0) {
			return nil, parseError("environment", t.EnvironmentPath, i, "temperature", fmt.Errorf("non-finite value %v", temp))
		}
		rain, err := strconv.ParseFloat(strings.TrimSpace(field(rec, header, "rainfall")), 64)
		if err != nil {
			return nil, parseError("environment", t.EnvironmentPath, i, "rainfall", err)
		}
		if math.IsNaN(rain) || math.IsInf(rain, 0) {
			return nil, parseError("environment", t.EnvironmentPath, i, "rainfall", fmt.Errorf("non-finite value %v", rain))
		}
		if rain < 0 {
			return nil, parseError("environment", t.EnvironmentPath, i, "rainfall", fmt.Errorf("negative value %v", rain))
		}
		rows = append(rows, domain.EnvironmentRow{
			State:       strings.TrimSpace(field(rec, header, "state")),
			Temperature: temp,
			Rainfall:    rain,
		})
	}
	return rows, nil
}

// LoadLULC reads rows of (state, category, proportion). The proportion column
// is optional; when absent every row carries proportion 1 and states with
// multiple rows are averaged equally after renormalization.
func (t *Tables) LoadLULC(_ context.Context) ([]domain.LULCRow, error) {
	records, header, err := readAll("lulc", t.LULCPath, []string{"state", "category"})
	if err != nil {
		return nil, err
	}

	_, hasProportion := header["proportion"]

	rows := make([]domain.LULCRow, 0, len(records))
	for i, rec := range records {
		row := domain.LULCRow{
			State:      strings.TrimSpace(field(rec, header, "state")),
			Category:   strings.TrimSpace(field(rec, header, "category")),
			Proportion: 1,
		}
		if hasProportion {
			p, err := strconv.ParseFloat(strings.TrimSpace(field(rec, header, "proportion")), 64)
			if err != nil {
				return nil, parseError("lulc", t.LULCPath, i, "proportion", err)
			}
			row.Proportion = p
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// readAll opens a CSV, maps its header, checks required columns, and returns
// the data records with the header index.
func readAll(dataset, path string, required []string) ([][]string, map[string]int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, &domain.MissingInputError{Dataset: dataset, Path: path, Err: err}
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	all, err := reader.ReadAll()
	if err != nil {
		return nil, nil, &domain.SchemaMismatchError{Dataset: dataset, Detail: fmt.Sprintf("malformed CSV: %v", err)}
	}
	if len(all) == 0 {
		return nil, nil, &domain.SchemaMismatchError{Dataset: dataset, Detail: "empty file, header row required"}
	}

	header := mapHeader(all[0])
	if missing := missingColumns(required, header); len(missing) > 0 {
		return nil, nil, &domain.SchemaMismatchError{Dataset: dataset, Detail: "missing required columns", Keys: missing}
	}

	return all[1:], header, nil
}

func mapHeader(row []string) map[string]int {
	header := make(map[string]int, len(row))
	for i, name := range row {
		header[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return header
}

func missingColumns(required []string, header map[string]int) []string {
	var missing []string
	for _, col := range required {
		if _, ok := header[col]; !ok {
			missing = append(missing, col)
		}
	}
	return missing
}

func field(record []string, header map[string]int, column string) string {
	pos, ok := header[column]
	if !ok || pos >= len(record) {
		return ""
	}
	return record[pos]
}

func parseError(dataset, path string, row int, column string, err error) error {
	return &domain.SchemaMismatchError{
		Dataset: dataset,
		// +2: rows are 1-based and follow the header.
		Detail: fmt.Sprintf("%s row %d: invalid %s: %v", path, row+2, column, err),
	}
}
