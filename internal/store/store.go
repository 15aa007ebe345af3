// Package store persists a solved resultassembler.SolutionData to disk
// and reloads it: one metadata.json plus one states.csv per run, under a
// run directory keyed by problem name and timestamp.
package store

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dae-go/daesolve/internal/resultassembler"
	"github.com/dae-go/daesolve/internal/status"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunMetadata is the JSON side-car recorded alongside a run's state CSV.
// Sensitivity tensors and Yp are not persisted here; a caller that needs
// them should keep the SolutionData in memory or serialize it directly
// with export.go's ExportJSON.
type RunMetadata struct {
	ID                string      `json:"id"`
	Problem           string      `json:"problem"`
	Timestamp         time.Time   `json:"timestamp"`
	Flag              status.Flag `json:"flag"`
	NumberOfTimesteps int         `json:"number_of_timesteps"`
	Sensitivities     bool        `json:"sensitivities"`
}

// Save writes one run's metadata and time/state CSV under a fresh run
// directory and returns its ID.
func (s *Store) Save(problem string, sd *resultassembler.SolutionData) (string, error) {
	runID := fmt.Sprintf("%s_%d", problem, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:                runID,
		Problem:           problem,
		Timestamp:         time.Now(),
		Flag:              sd.Flag,
		NumberOfTimesteps: sd.NumberOfTimesteps,
		Sensitivities:     sd.S != nil,
	}

	metaPath := filepath.Join(runDir, "metadata.json")
	metaFile, err := os.Create(metaPath)
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	if err := writeStatesCSV(filepath.Join(runDir, "states.csv"), sd); err != nil {
		return "", err
	}

	return runID, nil
}

func writeStatesCSV(path string, sd *resultassembler.SolutionData) error {
	csvFile, err := os.Create(path)
	if err != nil {
		return err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	if len(sd.Y) == 0 {
		return nil
	}

	header := []string{"time"}
	for i := range sd.Y[0] {
		header = append(header, fmt.Sprintf("y%d", i))
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for i := range sd.Y {
		row := []string{strconv.FormatFloat(sd.T[i], 'f', 6, 64)}
		for _, val := range sd.Y[i] {
			row = append(row, strconv.FormatFloat(val, 'f', 6, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		metaPath := filepath.Join(s.baseDir, entry.Name(), "metadata.json")
		data, err := os.ReadFile(metaPath)
		if err != nil {
			continue
		}

		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}

		runs = append(runs, meta)
	}

	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	metaPath := filepath.Join(s.baseDir, runID, "metadata.json")
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadStates reads back the (times, states) pairs written by Save. It
// does not reconstruct sensitivities or Yp.
func (s *Store) LoadStates(runID string) (times []float64, states [][]float64, err error) {
	csvPath := filepath.Join(s.baseDir, runID, "states.csv")
	file, err := os.Open(csvPath)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}

	if len(records) < 2 {
		return []float64{}, [][]float64{}, nil
	}

	times = make([]float64, 0, len(records)-1)
	states = make([][]float64, 0, len(records)-1)

	for i := 1; i < len(records); i++ {
		record := records[i]
		if len(record) == 0 {
			continue
		}

		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			continue
		}
		times = append(times, t)

		row := make([]float64, 0, len(record)-1)
		for j := 1; j < len(record); j++ {
			val, err := strconv.ParseFloat(record[j], 64)
			if err != nil {
				continue
			}
			row = append(row, val)
		}
		states = append(states, row)
	}

	return times, states, nil
}
