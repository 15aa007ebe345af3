package config

// Presets holds one named starting Config per registered problem, a
// two-level (problem, preset) lookup. Each entry corresponds to one of the worked
// scenarios: a scalar exponential decay ODE, an index-1 DAE with an
// algebraic constraint, and a harmonic oscillator with a root event.
var Presets = map[string]map[string]*Config{
	"decay": {
		"default": {
			Problem: "decay", Y0: []float64{1}, Yp0: []float64{-2}, Inputs: []float64{2.0},
			TEval: []float64{0, 0.5, 1.0},
			Solver: SolverConfig{RelTol: DefaultRelTol, AbsTol: DefaultAbsTol, InitStep: DefaultInitStep, MaxNumSteps: 500000, CalcIC: true},
		},
		"stiff": {
			Problem: "decay", Y0: []float64{1}, Yp0: []float64{-500}, Inputs: []float64{500.0},
			TEval: []float64{0, 0.01, 0.05, 0.1},
			Solver: SolverConfig{RelTol: DefaultRelTol, AbsTol: DefaultAbsTol, InitStep: 1e-6, MaxNumSteps: 500000, CalcIC: true},
		},
	},
	"dae2": {
		"default": {
			Problem: "dae2", Y0: []float64{1, 1}, Yp0: []float64{-1, 0}, Inputs: []float64{1.0},
			TEval: []float64{0, 1, 2, 3},
			Solver: SolverConfig{RelTol: DefaultRelTol, AbsTol: DefaultAbsTol, InitStep: DefaultInitStep, MaxNumSteps: 500000, CalcIC: true},
		},
	},
	"oscillator": {
		"root_event": {
			Problem: "oscillator", Y0: []float64{1, 0}, Yp0: []float64{0, -1}, Inputs: []float64{1.0},
			TEval: []float64{0, 10},
			Solver: SolverConfig{RelTol: DefaultRelTol, AbsTol: DefaultAbsTol, InitStep: DefaultInitStep, MaxNumSteps: 500000, CalcIC: true},
		},
	},
}

func GetPreset(problem, preset string) *Config {
	problemPresets, ok := Presets[problem]
	if !ok {
		return nil
	}
	cfg, ok := problemPresets[preset]
	if !ok {
		return nil
	}
	return cfg
}

func ListPresets(problem string) []string {
	problemPresets, ok := Presets[problem]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(problemPresets))
	for name := range problemPresets {
		names = append(names, name)
	}
	return names
}
