package store

import (
	"encoding/json"
	"os"

	"github.com/dae-go/daesolve/internal/resultassembler"
)

// ExportData is the full-fidelity JSON rendering of a SolutionData,
// including sensitivities, for callers that need more than the CSV
// summary Save writes.
type ExportData struct {
	Problem              string                `json:"problem"`
	Flag                 int                   `json:"flag"`
	NumberOfTimesteps    int                   `json:"number_of_timesteps"`
	LengthOfReturnVector int                   `json:"length_of_return_vector"`
	SaveHermite          bool                  `json:"save_hermite"`
	T                    []float64             `json:"t"`
	Y                    [][]float64           `json:"y"`
	Yp                   [][]float64           `json:"yp,omitempty"`
	S                    [][][]float64         `json:"s,omitempty"`
	Sp                   [][][]float64         `json:"sp,omitempty"`
	SensAxisTriple       resultassembler.AxisTriple `json:"sens_axis_triple,omitempty"`
}

func toExportData(problem string, sd *resultassembler.SolutionData) ExportData {
	return ExportData{
		Problem:              problem,
		Flag:                 int(sd.Flag),
		NumberOfTimesteps:    sd.NumberOfTimesteps,
		LengthOfReturnVector: sd.LengthOfReturnVector,
		SaveHermite:          sd.SaveHermite,
		T:                    sd.T,
		Y:                    sd.Y,
		Yp:                   sd.Yp,
		S:                    sd.S,
		Sp:                   sd.Sp,
		SensAxisTriple:       sd.SensAxisTriple,
	}
}

// ExportJSON writes the full SolutionData, including sensitivities, to path.
func ExportJSON(path string, problem string, sd *resultassembler.SolutionData) error {
	data := toExportData(problem, sd)

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// ExportJSONStdout writes the same rendering to stdout.
func ExportJSONStdout(problem string, sd *resultassembler.SolutionData) error {
	data := toExportData(problem, sd)

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
