// Command daesolve is a CLI front-end over the StepDriver core: it loads
// a solve request (flags, a preset, or a YAML config file), runs it
// through internal/driver, and persists or plots the resulting
// resultassembler.SolutionData.
package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/dae-go/daesolve/internal/analysis"
	"github.com/dae-go/daesolve/internal/backend/bdf"
	"github.com/dae-go/daesolve/internal/config"
	"github.com/dae-go/daesolve/internal/dlog"
	"github.com/dae-go/daesolve/internal/driver"
	"github.com/dae-go/daesolve/internal/export"
	"github.com/dae-go/daesolve/internal/outputs"
	"github.com/dae-go/daesolve/internal/registry"
	"github.com/dae-go/daesolve/internal/resultassembler"
	"github.com/dae-go/daesolve/internal/store"
)

var (
	dataDir    string
	configFile string
	presetName string
	verbose    bool
	live       bool

	// solve overrides, also reused by bifurcation/lyapunov as the
	// base run configuration they vary
	y0     []float64
	yp0    []float64
	inputs []float64
	tEval  []float64

	svgXIndex, svgYIndex     int
	svgWidth, svgHeight      int
	svgStrokeColor           string
	phaseXIndex, phaseYIndex int

	sweepParamIndex          int
	sweepParamMin, sweepMax  float64
	sweepSteps, sweepStateIx int

	lyapPerturbIndex int
	lyapD0           float64
)

var logger = dlog.Default()

func main() {
	rootCmd := &cobra.Command{
		Use:   "daesolve",
		Short: "index-1 DAE integration CLI",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logger = dlog.New(os.Stderr, dlog.LevelDebug)
			}
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".daesolve", "run data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	solveCmd := &cobra.Command{
		Use:   "solve [problem]",
		Short: "solve a registered problem to completion",
		Args:  cobra.ExactArgs(1),
		RunE:  runSolve,
	}
	solveCmd.Flags().StringVar(&configFile, "config", "", "YAML config file (overrides preset)")
	solveCmd.Flags().StringVar(&presetName, "preset", "default", "named preset (see 'daesolve presets')")
	solveCmd.Flags().Float64SliceVar(&y0, "y0", nil, "initial state, overrides preset")
	solveCmd.Flags().Float64SliceVar(&yp0, "yp0", nil, "initial derivative, overrides preset")
	solveCmd.Flags().Float64SliceVar(&inputs, "inputs", nil, "parameter vector, overrides preset")
	solveCmd.Flags().Float64SliceVar(&tEval, "t-eval", nil, "evaluation times, overrides preset")
	solveCmd.Flags().BoolVar(&live, "live", false, "show a spinner while solving")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  runList,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a saved run's state components",
		Args:  cobra.ExactArgs(1),
		RunE:  runPlot,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "power spectrum of a saved run's first component",
		Args:  cobra.ExactArgs(1),
		RunE:  runAnalyze,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id] [path]",
		Short: "re-export a saved run's times and states as JSON (no sensitivities)",
		Args:  cobra.ExactArgs(2),
		RunE:  runExportJSON,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [problem]",
		Short: "list presets for a problem",
		Args:  cobra.ExactArgs(1),
		RunE:  runPresets,
	}

	problemsCmd := &cobra.Command{
		Use:   "problems",
		Short: "list registered problems",
		RunE:  runProblems,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id] [path]",
		Short: "render a saved run's trajectory as an SVG path",
		Args:  cobra.ExactArgs(2),
		RunE:  runExportSVG,
	}
	exportSVGCmd.Flags().IntVar(&svgXIndex, "x", 0, "state component on the x axis")
	exportSVGCmd.Flags().IntVar(&svgYIndex, "y", 1, "state component on the y axis")
	exportSVGCmd.Flags().IntVar(&svgWidth, "width", 640, "SVG width in pixels")
	exportSVGCmd.Flags().IntVar(&svgHeight, "height", 480, "SVG height in pixels")
	exportSVGCmd.Flags().StringVar(&svgStrokeColor, "stroke", "#2563eb", "stroke color")

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "ASCII phase portrait of two state components of a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  runPhase,
	}
	phaseCmd.Flags().IntVar(&phaseXIndex, "x", 0, "state component on the x axis")
	phaseCmd.Flags().IntVar(&phaseYIndex, "y", 1, "state component on the y axis")

	bifurcationCmd := &cobra.Command{
		Use:   "bifurcation [problem]",
		Short: "sweep an input parameter and plot the settled state values",
		Args:  cobra.ExactArgs(1),
		RunE:  runBifurcation,
	}
	bifurcationCmd.Flags().StringVar(&presetName, "preset", "default", "named preset (see 'daesolve presets')")
	bifurcationCmd.Flags().Float64SliceVar(&y0, "y0", nil, "initial state, overrides preset")
	bifurcationCmd.Flags().Float64SliceVar(&yp0, "yp0", nil, "initial derivative, overrides preset")
	bifurcationCmd.Flags().Float64SliceVar(&tEval, "t-eval", nil, "evaluation times, overrides preset")
	bifurcationCmd.Flags().IntVar(&sweepParamIndex, "param-index", 0, "index into the inputs vector being swept")
	bifurcationCmd.Flags().Float64Var(&sweepParamMin, "min", 0, "sweep start value")
	bifurcationCmd.Flags().Float64Var(&sweepMax, "max", 1, "sweep end value")
	bifurcationCmd.Flags().IntVar(&sweepSteps, "steps", 20, "number of sweep points")
	bifurcationCmd.Flags().IntVar(&sweepStateIx, "state-index", 0, "state component recorded per sweep point")

	lyapunovCmd := &cobra.Command{
		Use:   "lyapunov [problem]",
		Short: "estimate the largest Lyapunov exponent from a perturbed pair of runs",
		Args:  cobra.ExactArgs(1),
		RunE:  runLyapunov,
	}
	lyapunovCmd.Flags().StringVar(&presetName, "preset", "default", "named preset (see 'daesolve presets')")
	lyapunovCmd.Flags().Float64SliceVar(&y0, "y0", nil, "initial state, overrides preset")
	lyapunovCmd.Flags().Float64SliceVar(&yp0, "yp0", nil, "initial derivative, overrides preset")
	lyapunovCmd.Flags().Float64SliceVar(&tEval, "t-eval", nil, "evaluation times, overrides preset")
	lyapunovCmd.Flags().Float64SliceVar(&inputs, "inputs", nil, "parameter vector, overrides preset")
	lyapunovCmd.Flags().IntVar(&lyapPerturbIndex, "index", 0, "state component to perturb")
	lyapunovCmd.Flags().Float64Var(&lyapD0, "d0", 1e-6, "initial perturbation magnitude")

	rootCmd.AddCommand(solveCmd, listCmd, plotCmd, analyzeCmd, exportJSONCmd, presetsCmd, problemsCmd,
		exportSVGCmd, phaseCmd, bifurcationCmd, lyapunovCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadSolveConfig(problem string) (*config.Config, error) {
	var cfg *config.Config
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.GetPreset(problem, presetName)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset %q for problem %q (available: %v)", presetName, problem, config.ListPresets(problem))
		}
	}

	if len(y0) > 0 {
		cfg.Y0 = y0
	}
	if len(yp0) > 0 {
		cfg.Yp0 = yp0
	}
	if len(inputs) > 0 {
		cfg.Inputs = inputs
	}
	if len(tEval) > 0 {
		cfg.TEval = tEval
	}
	return cfg, nil
}

func buildDriver(cfg *config.Config) (*driver.Driver, error) {
	be, err := registry.BuildBackend(cfg.Problem, cfg.Inputs, cfg.Sensitivities, func(c *bdf.Config) {
		if cfg.Solver.RelTol > 0 {
			c.RelTol = cfg.Solver.RelTol
		}
		if cfg.Solver.AbsTol > 0 {
			c.AbsTol = cfg.Solver.AbsTol
		}
		if cfg.Solver.InitStep > 0 {
			c.InitStep = cfg.Solver.InitStep
		}
		if cfg.Solver.MinStep > 0 {
			c.MinStep = cfg.Solver.MinStep
		}
		if cfg.Solver.MaxStep > 0 {
			c.MaxStep = cfg.Solver.MaxStep
		}
		if cfg.Solver.MaxNumSteps > 0 {
			c.MaxNumSteps = cfg.Solver.MaxNumSteps
		}
		if cfg.Setup.Workers > 0 {
			c.Workers = cfg.Setup.Workers
		}
	})
	if err != nil {
		return nil, err
	}

	var stager *outputs.Stager
	if cfg.OutputsOnly && len(cfg.Outputs) > 0 {
		set, err := registry.BuildOutputs(cfg.Outputs)
		if err != nil {
			return nil, err
		}
		stager = outputs.NewOutputsOnly(be.NumStates(), be.NumParams(), set)
	} else {
		stager = outputs.NewFullState(be.NumStates(), be.NumParams())
	}

	setup := cfg.SetupOptions()
	solver := cfg.SolverOptions()
	return driver.New(be, setup, solver, stager)
}

func runSolve(cmd *cobra.Command, args []string) error {
	problem := args[0]
	cfg, err := loadSolveConfig(problem)
	if err != nil {
		return err
	}
	cfg.Problem = problem

	d, err := buildDriver(cfg)
	if err != nil {
		return err
	}
	defer d.Close()

	var sd *resultassembler.SolutionData
	var solveErr error

	solve := func() {
		sd, solveErr = d.Solve(cfg.TEval, cfg.TInterp, cfg.Y0, cfg.Yp0, cfg.Inputs, cfg.SaveAdaptive, cfg.SaveInterp)
	}

	if live {
		result := make(chan doneMsg, 1)
		go func() {
			solve()
			result <- doneMsg{err: solveErr}
		}()
		if _, err := tea.NewProgram(newSpinnerModel(fmt.Sprintf("solving %s", problem), result)).Run(); err != nil {
			return err
		}
	} else {
		solve()
	}

	if solveErr != nil {
		return fmt.Errorf("solve: %w", solveErr)
	}

	logger.Infof("solved %s: flag=%s steps=%d", problem, sd.Flag, sd.NumberOfTimesteps)

	st := store.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(problem, sd)
	if err != nil {
		return err
	}
	fmt.Printf("run: %s\n", runID)
	fmt.Printf("flag: %s\n", sd.Flag)
	fmt.Printf("timesteps: %d\n", sd.NumberOfTimesteps)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPROBLEM\tTIME\tFLAG\tSTEPS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n",
			run.ID, run.Problem, run.Timestamp.Format("2006-01-02 15:04:05"), run.Flag, run.NumberOfTimesteps)
	}
	return w.Flush()
}

func runPlot(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := store.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	_, states, err := st.LoadStates(runID)
	if err != nil {
		return err
	}
	if len(states) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("problem: %s\n", meta.Problem)
	fmt.Printf("samples: %d\n\n", len(states))

	numVars := len(states[0])
	if numVars > 6 {
		numVars = 6
	}
	for varIdx := 0; varIdx < numVars; varIdx++ {
		data := make([]float64, len(states))
		for i := range states {
			if varIdx < len(states[i]) {
				data[i] = states[i][varIdx]
			}
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("y%d vs time", varIdx)),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := store.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	_, states, err := st.LoadStates(runID)
	if err != nil {
		return err
	}
	if len(states) == 0 || len(states[0]) == 0 {
		return fmt.Errorf("no data")
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("problem: %s\n\n", meta.Problem)

	data := make([]float64, len(states))
	for i := range states {
		data[i] = states[i][0]
	}

	ps := analysis.PowerSpectrum(data)
	if len(ps) > 4 {
		ps = ps[:len(ps)/4+1]
	}

	graph := asciigraph.Plot(ps,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption("power spectrum (y0)"),
	)
	fmt.Println(graph)
	return nil
}

func runExportJSON(cmd *cobra.Command, args []string) error {
	runID, path := args[0], args[1]
	st := store.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	times, states, err := st.LoadStates(runID)
	if err != nil {
		return err
	}
	width := 0
	if len(states) > 0 {
		width = len(states[0])
	}

	sd := &resultassembler.SolutionData{
		Flag:                 meta.Flag,
		NumberOfTimesteps:    len(times),
		LengthOfReturnVector: width,
		T:                    times,
		Y:                    states,
	}
	return store.ExportJSON(path, meta.Problem, sd)
}

func runPresets(cmd *cobra.Command, args []string) error {
	problem := args[0]
	presets := config.ListPresets(problem)
	if len(presets) == 0 {
		return fmt.Errorf("no presets for problem %q", problem)
	}
	for _, p := range presets {
		fmt.Println(p)
	}
	return nil
}

func runProblems(cmd *cobra.Command, args []string) error {
	for _, name := range registry.List() {
		fmt.Println(name)
	}
	return nil
}

// solveWithOverrides loads problem's configuration the way solve does
// (the --config file, else the --preset named preset), applies the given
// input vector in place of whatever the preset carries, and solves it
// to completion. It is the shared entry point for the bifurcation and
// lyapunov subcommands, which each need to run the same problem
// repeatedly with only its parameters or initial state varied.
func solveWithOverrides(problem string, overrideInputs, overrideY0 []float64) (*resultassembler.SolutionData, error) {
	cfg, err := loadSolveConfig(problem)
	if err != nil {
		return nil, err
	}
	cfg.Problem = problem
	if overrideInputs != nil {
		cfg.Inputs = overrideInputs
	}
	if overrideY0 != nil {
		cfg.Y0 = overrideY0
	}

	d, err := buildDriver(cfg)
	if err != nil {
		return nil, err
	}
	defer d.Close()

	return d.Solve(cfg.TEval, cfg.TInterp, cfg.Y0, cfg.Yp0, cfg.Inputs, cfg.SaveAdaptive, cfg.SaveInterp)
}

func runExportSVG(cmd *cobra.Command, args []string) error {
	runID, path := args[0], args[1]
	st := store.New(dataDir)
	times, states, err := st.LoadStates(runID)
	if err != nil {
		return err
	}
	if len(states) == 0 {
		return fmt.Errorf("no data to export")
	}
	width := len(states[0])

	sd := &resultassembler.SolutionData{
		LengthOfReturnVector: width,
		T:                    times,
		Y:                    states,
	}

	svg := export.SolutionToSVG(sd, svgXIndex, svgYIndex, svgWidth, svgHeight, svgStrokeColor)
	if svg == "" {
		return fmt.Errorf("nothing to render: check --x/--y against the run's state width (%d)", width)
	}
	return os.WriteFile(path, []byte(svg), 0644)
}

func runPhase(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := store.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	times, states, err := st.LoadStates(runID)
	if err != nil {
		return err
	}
	if len(states) == 0 {
		return fmt.Errorf("no data to plot")
	}

	sd := &resultassembler.SolutionData{
		LengthOfReturnVector: len(states[0]),
		T:                    times,
		Y:                    states,
	}

	portrait := analysis.GeneratePhasePortrait(sd, phaseXIndex, phaseYIndex)
	if portrait == nil {
		return fmt.Errorf("component indices %d/%d out of range for state width %d", phaseXIndex, phaseYIndex, sd.LengthOfReturnVector)
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("problem: %s\n\n", meta.Problem)
	fmt.Println(analysis.PhasePortraitToASCII(portrait, 70, 25))
	return nil
}

func runBifurcation(cmd *cobra.Command, args []string) error {
	problem := args[0]
	runner := func(paramValue float64) (*resultassembler.SolutionData, error) {
		cfg, err := loadSolveConfig(problem)
		if err != nil {
			return nil, err
		}
		params := append([]float64(nil), cfg.Inputs...)
		for len(params) <= sweepParamIndex {
			params = append(params, 0)
		}
		params[sweepParamIndex] = paramValue
		return solveWithOverrides(problem, params, nil)
	}

	data := analysis.BifurcationDiagram(runner, sweepParamMin, sweepMax, sweepSteps, sweepStateIx)
	if len(data) == 0 {
		return fmt.Errorf("bifurcation sweep produced no settled points")
	}

	fmt.Printf("problem: %s, param index %d in [%g, %g], state y%d\n\n", problem, sweepParamIndex, sweepParamMin, sweepMax, sweepStateIx)
	fmt.Println(analysis.BifurcationToASCII(data, 70, 25))
	return nil
}

func runLyapunov(cmd *cobra.Command, args []string) error {
	problem := args[0]
	cfg, err := loadSolveConfig(problem)
	if err != nil {
		return err
	}
	cfg.Problem = problem

	base := append([]float64(nil), cfg.Y0...)
	perturbed := append([]float64(nil), cfg.Y0...)
	if lyapPerturbIndex >= len(perturbed) {
		return fmt.Errorf("--index %d out of range for initial state of length %d", lyapPerturbIndex, len(perturbed))
	}
	perturbed[lyapPerturbIndex] += lyapD0

	sdBase, err := solveWithOverrides(problem, cfg.Inputs, base)
	if err != nil {
		return fmt.Errorf("base solve: %w", err)
	}
	sdPerturbed, err := solveWithOverrides(problem, cfg.Inputs, perturbed)
	if err != nil {
		return fmt.Errorf("perturbed solve: %w", err)
	}

	exp := analysis.LyapunovExponent(sdBase.T, sdBase.Y, sdPerturbed.Y, lyapD0)
	fmt.Printf("problem: %s\n", problem)
	fmt.Printf("largest Lyapunov exponent estimate: %g\n", exp)
	if exp > 0 {
		fmt.Println("positive: nearby trajectories diverge (chaotic signature)")
	} else {
		fmt.Println("non-positive: nearby trajectories do not diverge")
	}
	return nil
}
