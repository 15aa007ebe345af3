// Package automation scripts multiple driver.Driver solves from one YAML
// description: a named sequence of steps, a
// parameter sweep, and a Monte Carlo batch, all built on top of
// internal/registry and internal/driver instead of dynamo.System /
// experiment.Registry.
package automation

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dae-go/daesolve/internal/options"
	"github.com/dae-go/daesolve/internal/outputs"
	"github.com/dae-go/daesolve/internal/registry"
	"github.com/dae-go/daesolve/internal/resultassembler"
	"github.com/dae-go/daesolve/internal/driver"
	"github.com/dae-go/daesolve/internal/status"
)

// Scenario defines a scripted sequence of solves.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is one solve request within a Scenario.
type ScenarioStep struct {
	Problem      string    `yaml:"problem"`
	Y0           []float64 `yaml:"y0"`
	Yp0          []float64 `yaml:"yp0"`
	Inputs       []float64 `yaml:"inputs"`
	TEval        []float64 `yaml:"t_eval"`
	TInterp      []float64 `yaml:"t_interp"`
	SaveAdaptive bool      `yaml:"save_adaptive"`
	SaveInterp   bool      `yaml:"save_interp"`
	SaveAs       string    `yaml:"save_as"`
}

// LoadScenario loads a scenario from a YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}

	return &scenario, nil
}

func buildStepDriver(problem string, inputs []float64) (*driver.Driver, error) {
	be, err := registry.BuildBackend(problem, inputs, false, nil)
	if err != nil {
		return nil, err
	}
	stager := outputs.NewFullState(be.NumStates(), 0)
	return driver.New(be, options.DefaultSetupOptions(), options.DefaultSolverOptions(), stager)
}

// RunScenario executes all steps in a scenario in order, stopping early
// if ctx is cancelled between steps or a step fails to configure.
func RunScenario(ctx context.Context, scenario *Scenario) ([]*resultassembler.SolutionData, error) {
	results := make([]*resultassembler.SolutionData, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		if err := ctx.Err(); err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		fmt.Printf("running step %d/%d: %s\n", i+1, len(scenario.Steps), step.Problem)

		d, err := buildStepDriver(step.Problem, step.Inputs)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		sd, err := d.Solve(step.TEval, step.TInterp, step.Y0, step.Yp0, step.Inputs, step.SaveAdaptive, step.SaveInterp)
		closeErr := d.Close()
		if err != nil {
			return results, fmt.Errorf("step %d solve: %w", i+1, err)
		}
		if closeErr != nil {
			return results, fmt.Errorf("step %d close: %w", i+1, closeErr)
		}

		results = append(results, sd)
	}

	return results, nil
}

// ParameterSweep runs solves across a range of values for one entry of
// the inputs vector.
type ParameterSweep struct {
	Problem    string
	ParamIndex int
	ParamMin   float64
	ParamMax   float64
	NumSteps   int
	Y0, Yp0    []float64
	BaseInputs []float64
	TEval      []float64
}

// SweepResult holds the outcome of one parameter value in a sweep.
type SweepResult struct {
	ParamValue float64
	FinalState []float64
	Flag       status.Flag
}

// RunSweep executes a parameter sweep, holding everything but
// sweep.ParamIndex fixed across runs.
func RunSweep(ctx context.Context, sweep *ParameterSweep) ([]SweepResult, error) {
	if sweep.NumSteps < 1 {
		return nil, fmt.Errorf("automation: sweep requires at least one step")
	}
	results := make([]SweepResult, 0, sweep.NumSteps)

	steps := sweep.NumSteps
	if steps == 1 {
		steps = 2
	}
	paramStep := (sweep.ParamMax - sweep.ParamMin) / float64(steps-1)

	for i := 0; i < sweep.NumSteps; i++ {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		paramVal := sweep.ParamMin + float64(i)*paramStep
		inputs := append([]float64(nil), sweep.BaseInputs...)
		if sweep.ParamIndex >= len(inputs) {
			return nil, fmt.Errorf("automation: param index %d out of range for %d inputs", sweep.ParamIndex, len(inputs))
		}
		inputs[sweep.ParamIndex] = paramVal

		d, err := buildStepDriver(sweep.Problem, inputs)
		if err != nil {
			return nil, err
		}

		sd, err := d.Solve(sweep.TEval, nil, sweep.Y0, sweep.Yp0, inputs, false, false)
		closeErr := d.Close()
		if err != nil {
			return nil, err
		}
		if closeErr != nil {
			return nil, closeErr
		}

		var final []float64
		if len(sd.Y) > 0 {
			final = sd.Y[len(sd.Y)-1]
		}

		results = append(results, SweepResult{ParamValue: paramVal, FinalState: final, Flag: sd.Flag})

		fmt.Printf("sweep %d/%d: param=%.6g\n", i+1, sweep.NumSteps, paramVal)
	}

	return results, nil
}

// MonteCarloConfig defines a batch of solves with randomly perturbed
// initial conditions.
type MonteCarloConfig struct {
	Problem      string
	BaseY0       []float64
	Yp0          []float64
	Inputs       []float64
	Perturbation float64
	NumTrials    int
	TEval        []float64
	Seed         int64
}

// MonteCarloResult holds the outcome of one Monte Carlo trial.
type MonteCarloResult struct {
	TrialID  int
	InitY0   []float64
	FinalY   []float64
	Stable   bool // final state stayed bounded
}

// RunMonteCarlo executes cfg.NumTrials solves, each perturbing BaseY0 by
// a uniform random offset in [-Perturbation, Perturbation] per
// component.
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig) ([]MonteCarloResult, error) {
	results := make([]MonteCarloResult, 0, cfg.NumTrials)

	rng := rand.New(rand.NewSource(cfg.Seed))
	if cfg.Seed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	for trial := 0; trial < cfg.NumTrials; trial++ {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		y0 := make([]float64, len(cfg.BaseY0))
		for i, v := range cfg.BaseY0 {
			y0[i] = v + (rng.Float64()-0.5)*2*cfg.Perturbation
		}

		d, err := buildStepDriver(cfg.Problem, cfg.Inputs)
		if err != nil {
			return nil, err
		}

		sd, err := d.Solve(cfg.TEval, nil, y0, cfg.Yp0, cfg.Inputs, false, false)
		closeErr := d.Close()
		if err != nil {
			return nil, err
		}
		if closeErr != nil {
			return nil, closeErr
		}

		stable := true
		var final []float64
		if len(sd.Y) > 0 {
			final = sd.Y[len(sd.Y)-1]
			for _, v := range final {
				if v > 1e6 || v < -1e6 {
					stable = false
					break
				}
			}
		}

		results = append(results, MonteCarloResult{
			TrialID: trial,
			InitY0:  y0,
			FinalY:  final,
			Stable:  stable,
		})

		if (trial+1)%10 == 0 {
			fmt.Printf("monte carlo: %d/%d trials complete\n", trial+1, cfg.NumTrials)
		}
	}

	return results, nil
}

// MonteCarloStats computes stable/unstable counts from a batch of trials.
func MonteCarloStats(results []MonteCarloResult) (stableCount, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}
