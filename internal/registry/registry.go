// Package registry maps the named problems and output requests a
// config.Config can reference to concrete backend.Backend and
// expr.Set constructors.
package registry

import (
	"fmt"
	"strings"

	"github.com/dae-go/daesolve/internal/backend/bdf"
	"github.com/dae-go/daesolve/internal/expr"
	"github.com/dae-go/daesolve/internal/expr/poly"
)

// Problem bundles the residual, state count and differential mask of
// one registered DAE/ODE test system, plus an optional event function.
type Problem struct {
	NumStates        int
	DifferentialMask []float64
	Residual         bdf.ResidualFunc
	Event            bdf.EventFunc
}

var problems = map[string]func() Problem{
	"decay": func() Problem {
		return Problem{
			NumStates:        1,
			DifferentialMask: []float64{1},
			// F = f(t,y) - y', f(t,y) = -k*y, so Residual(t,y,0) == yp.
			Residual: func(t float64, y, yp, inputs []float64) []float64 {
				return []float64{-inputs[0]*y[0] - yp[0]}
			},
		}
	},
	"dae2": func() Problem {
		return Problem{
			NumStates:        2,
			DifferentialMask: []float64{1, 0},
			Residual: func(t float64, y, yp, inputs []float64) []float64 {
				return []float64{
					-inputs[0]*y[0] - yp[0],
					y[1] - y[0],
				}
			},
		}
	},
	"oscillator": func() Problem {
		return Problem{
			NumStates:        2,
			DifferentialMask: []float64{1, 1},
			// F = f(t,y) - y' for f(t,y) = (y1, -k*y0), so Residual(t,y,0)
			// recovers yp component-wise.
			Residual: func(t float64, y, yp, inputs []float64) []float64 {
				return []float64{
					y[1] - yp[0],
					-inputs[0]*y[0] - yp[1],
				}
			},
			Event: func(t float64, y []float64) []float64 {
				return []float64{y[0]}
			},
		}
	},
}

// Get looks up a registered problem by name.
func Get(name string) (Problem, error) {
	fn, ok := problems[name]
	if !ok {
		return Problem{}, fmt.Errorf("registry: unknown problem %q", name)
	}
	return fn(), nil
}

// List returns the registered problem names.
func List() []string {
	names := make([]string, 0, len(problems))
	for name := range problems {
		names = append(names, name)
	}
	return names
}

// BuildBackend constructs a bdf.Backend for the named problem, wiring
// in the inputs vector and enabling sensitivities if requested.
func BuildBackend(name string, inputs []float64, sensitivities bool, tune func(*bdf.Config)) (*bdf.Backend, error) {
	p, err := Get(name)
	if err != nil {
		return nil, err
	}
	cfg := bdf.DefaultConfig()
	cfg.Residual = p.Residual
	cfg.NumStates = p.NumStates
	cfg.DifferentialMask = p.DifferentialMask
	cfg.Event = p.Event
	cfg.Inputs = append([]float64(nil), inputs...)
	cfg.SensitivitiesEnabled = sensitivities
	if tune != nil {
		tune(&cfg)
	}
	return bdf.New(cfg)
}

// BuildOutputs parses output-expression names of the form "y<idx>" or
// "y<idx>^2" into an expr.Set of poly.Monomial values.
func BuildOutputs(names []string) (expr.Set, error) {
	set := make(expr.Set, 0, len(names))
	for _, name := range names {
		squared := strings.HasSuffix(name, "^2")
		base := strings.TrimSuffix(name, "^2")
		base = strings.TrimPrefix(base, "y")
		idx := 0
		if _, err := fmt.Sscanf(base, "%d", &idx); err != nil {
			return nil, fmt.Errorf("registry: unrecognised output expression %q", name)
		}
		if squared {
			set = append(set, poly.NewSquare(idx))
		} else {
			set = append(set, poly.NewLinear(idx))
		}
	}
	return set, nil
}
