// Command genfixtures generates synthetic input fixtures for the
// disaggregation pipeline: state boundaries as GeoJSON, plus population,
// environment, and land-cover CSVs. It also writes a SQL seed for the
// malaria_indicators table so the dashboard has data to serve.
//
// Values are drawn from a fixed seed, so repeated runs produce identical
// fixtures.
//
// Usage:
//
//	go run ./cmd/genfixtures -out-dir data/fixtures
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
)

var states = []string{
	"Abia", "Adamawa", "Akwa Ibom", "Anambra", "Bauchi", "Bayelsa", "Benue",
	"Borno", "Cross River", "Delta", "Ebonyi", "Edo", "Ekiti", "Enugu",
	"FCT", "Gombe", "Imo", "Jigawa", "Kaduna", "Kano", "Katsina", "Kebbi",
	"Kogi", "Kwara", "Lagos", "Nasarawa", "Niger", "Ogun", "Ondo", "Osun",
	"Oyo", "Plateau", "Rivers", "Sokoto", "Taraba", "Yobe", "Zamfara",
}

var categories = []string{"Urban", "Agricultural", "Forested", "Water"}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out-dir", "", "directory to write fixture files into")
	seed := flag.Int64("seed", 2024, "random seed")
	flag.Parse()

	if *outDir == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out-dir")
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	rng := rand.New(rand.NewSource(*seed))

	if err := writeBoundaries(filepath.Join(*outDir, "nigeria_states.geojson")); err != nil {
		return fmt.Errorf("writing boundaries: %w", err)
	}
	if err := writePopulation(filepath.Join(*outDir, "population.csv"), rng); err != nil {
		return fmt.Errorf("writing population: %w", err)
	}
	if err := writeEnvironment(filepath.Join(*outDir, "environment.csv"), rng); err != nil {
		return fmt.Errorf("writing environment: %w", err)
	}
	if err := writeLULC(filepath.Join(*outDir, "lulc.csv"), rng); err != nil {
		return fmt.Errorf("writing lulc: %w", err)
	}
	if err := writeIndicatorSeed(filepath.Join(*outDir, "seed_indicators.sql"), rng); err != nil {
		return fmt.Errorf("writing indicator seed: %w", err)
	}

	log.Printf("wrote fixtures for %d states to %s", len(states), *outDir)
	return nil
}

// writeBoundaries lays the states out on a grid of unit squares. The shapes
// are synthetic; only the feature structure and the state property matter to
// the pipeline.
func writeBoundaries(path string) error {
	type feature struct {
		Type       string                 `json:"type"`
		Properties map[string]interface{} `json:"properties"`
		Geometry   map[string]interface{} `json:"geometry"`
	}

	features := make([]feature, 0, len(states))
	for i, state := range states {
		x := float64(i % 7)
		y := float64(i / 7)
		features = append(features, feature{
			Type:       "Feature",
			Properties: map[string]interface{}{"state_name": state},
			Geometry: map[string]interface{}{
				"type": "Polygon",
				"coordinates": [][][2]float64{{
					{x, y}, {x + 1, y}, {x + 1, y + 1}, {x, y + 1}, {x, y},
				}},
			},
		})
	}

	collection := map[string]interface{}{
		"type":     "FeatureCollection",
		"features": features,
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(collection)
}

func writePopulation(path string, rng *rand.Rand) error {
	rows := [][]string{{"State", "Population"}}
	for _, state := range states {
		pop := 800_000 + rng.Int63n(12_000_000)
		rows = append(rows, []string{state, strconv.FormatInt(pop, 10)})
	}
	return writeCSV(path, rows)
}

func writeEnvironment(path string, rng *rand.Rand) error {
	rows := [][]string{{"State", "Temperature", "Rainfall"}}
	for _, state := range states {
		temp := 21 + rng.Float64()*12   // 21..33 C
		rain := 500 + rng.Float64()*2500 // 500..3000 mm
		rows = append(rows, []string{
			state,
			strconv.FormatFloat(temp, 'f', 1, 64),
			strconv.FormatFloat(rain, 'f', 0, 64),
		})
	}
	return writeCSV(path, rows)
}

func writeLULC(path string, rng *rand.Rand) error {
	rows := [][]string{{"State", "Category", "Proportion"}}
	for _, state := range states {
		weights := make([]float64, len(categories))
		var total float64
		for i := range weights {
			weights[i] = rng.Float64()
			total += weights[i]
		}
		for i, category := range categories {
			rows = append(rows, []string{
				state,
				category,
				strconv.FormatFloat(weights[i]/total, 'f', 3, 64),
			})
		}
	}
	return writeCSV(path, rows)
}

// writeIndicatorSeed emits monthly observations for two years per state.
func writeIndicatorSeed(path string, rng *rand.Rand) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	fmt.Fprintln(f, "-- Synthetic malaria_indicators seed. Generated by cmd/genfixtures.")
	fmt.Fprintln(f, "INSERT INTO malaria_indicators (state, year, report_date, rainfall, incidence, mortality, effective_treatment) VALUES")

	var lines []string
	for _, state := range states {
		for year := 2023; year <= 2024; year++ {
			for month := 1; month <= 12; month++ {
				rain := 20 + rng.Float64()*400
				incidence := 500 + rng.Float64()*20_000
				mortality := incidence * (0.001 + rng.Float64()*0.004)
				treatment := 0.3 + rng.Float64()*0.6
				lines = append(lines, fmt.Sprintf(
					"  ('%s', %d, '%d-%02d-01', %.1f, %.0f, %.1f, %.3f)",
					state, year, year, month, rain, incidence, mortality, treatment,
				))
			}
		}
	}

	for i, line := range lines {
		sep := ","
		if i == len(lines)-1 {
			sep = ";"
		}
		fmt.Fprintln(f, line+sep)
	}
	return nil
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}
