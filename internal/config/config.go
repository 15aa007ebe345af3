// Package config loads and saves a solve request as YAML: a plain
// struct with yaml tags, sensible defaults, and Load/Save helpers
// around gopkg.in/yaml.v3.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dae-go/daesolve/internal/options"
)

const (
	DefaultRelTol   = 1e-6
	DefaultAbsTol   = 1e-10
	DefaultInitStep = 1e-4
	DefaultWorkers  = 0
)

// Config is one YAML-describable DAE solve request: the schedule, the
// named problem (resolved to a residual by internal/registry), the
// initial state and parameter vector, and the tunables that flow into
// options.SetupOptions / options.SolverOptions.
type Config struct {
	Problem string    `yaml:"problem"`
	Y0      []float64 `yaml:"y0"`
	Yp0     []float64 `yaml:"yp0"`
	Inputs  []float64 `yaml:"inputs"`

	TEval   []float64 `yaml:"t_eval"`
	TInterp []float64 `yaml:"t_interp"`

	SaveAdaptive bool `yaml:"save_adaptive"`
	SaveInterp   bool `yaml:"save_interp"`

	OutputsOnly bool     `yaml:"outputs_only"`
	Outputs     []string `yaml:"outputs"`

	Sensitivities bool `yaml:"sensitivities"`

	Solver SolverConfig `yaml:"solver"`
	Setup  SetupConfig  `yaml:"setup"`
}

// SolverConfig mirrors the subset of options.SolverOptions a caller
// commonly wants to override from YAML.
type SolverConfig struct {
	RelTol      float64 `yaml:"rel_tol"`
	AbsTol      float64 `yaml:"abs_tol"`
	InitStep    float64 `yaml:"init_step"`
	MinStep     float64 `yaml:"min_step"`
	MaxStep     float64 `yaml:"max_step"`
	MaxNumSteps int     `yaml:"max_num_steps"`
	CalcIC      bool    `yaml:"calc_ic"`
	Hermite     bool    `yaml:"hermite"`
}

// SetupConfig mirrors the structural fields of options.SetupOptions.
type SetupConfig struct {
	Workers int `yaml:"workers"`
}

// DefaultConfig returns a value a caller overrides selectively rather
// than builds up field by field.
func DefaultConfig() *Config {
	return &Config{
		Problem:      "decay",
		SaveAdaptive: false,
		SaveInterp:   false,
		Solver: SolverConfig{
			RelTol:      DefaultRelTol,
			AbsTol:      DefaultAbsTol,
			InitStep:    DefaultInitStep,
			MaxNumSteps: 500000,
			CalcIC:      true,
		},
		Setup: SetupConfig{Workers: DefaultWorkers},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// SolverOptions translates the YAML solver block into an
// options.SolverOptions, layered over the library defaults.
func (c *Config) SolverOptions() options.SolverOptions {
	o := options.DefaultSolverOptions()
	if c.Solver.MaxNumSteps > 0 {
		o.MaxNumSteps = c.Solver.MaxNumSteps
	}
	o.CalcIC = c.Solver.CalcIC
	o.Hermite = c.Solver.Hermite
	return o
}

// SetupOptions translates the YAML setup block into an
// options.SetupOptions, layered over the library defaults.
func (c *Config) SetupOptions() options.SetupOptions {
	o := options.DefaultSetupOptions()
	o.Workers = c.Setup.Workers
	return o
}
