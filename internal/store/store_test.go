package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dae-go/daesolve/internal/resultassembler"
	"github.com/dae-go/daesolve/internal/status"
)

func sampleSolution() *resultassembler.SolutionData {
	return &resultassembler.SolutionData{
		Flag:                 status.Success,
		NumberOfTimesteps:    2,
		LengthOfReturnVector: 2,
		T:                    []float64{0.0, 0.01},
		Y: [][]float64{
			{1.0, 0.0},
			{0.9, -0.1},
		},
	}
}

func TestStoreSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save("decay", sampleSolution())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == "" {
		t.Error("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Problem != "decay" {
		t.Errorf("expected problem 'decay', got '%s'", meta.Problem)
	}
	if meta.Flag != status.Success {
		t.Errorf("expected flag Success, got %v", meta.Flag)
	}

	times, states, err := st.LoadStates(runID)
	if err != nil {
		t.Fatalf("load states failed: %v", err)
	}
	if len(states) != 2 {
		t.Errorf("expected 2 states, got %d", len(states))
	}
	if len(times) != 2 {
		t.Errorf("expected 2 times, got %d", len(times))
	}
}

func TestStoreList(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	if _, err := st.Save("decay", sampleSolution()); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("expected 1 run, got %d", len(runs))
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save("decay", sampleSolution())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runDir := filepath.Join(tmpDir, runID)
	if _, err := os.Stat(filepath.Join(runDir, "metadata.json")); os.IsNotExist(err) {
		t.Error("metadata.json not created")
	}
	if _, err := os.Stat(filepath.Join(runDir, "states.csv")); os.IsNotExist(err) {
		t.Error("states.csv not created")
	}
}

func TestExportJSONRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "run.json")

	if err := ExportJSON(path, "decay", sampleSolution()); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("export file not created")
	}
}
