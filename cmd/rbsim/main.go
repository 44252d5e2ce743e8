package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/rbsim/internal/analysis"
	"github.com/san-kum/rbsim/internal/config"
	"github.com/san-kum/rbsim/internal/export"
	"github.com/san-kum/rbsim/internal/scenario"
	"github.com/san-kum/rbsim/internal/sim"
	"github.com/san-kum/rbsim/internal/storage"
	"github.com/san-kum/rbsim/internal/tui"
	"github.com/san-kum/rbsim/internal/viz"
)

var (
	dataDir    string
	dt         float64
	duration   float64
	theta      float64
	omega      float64
	posX       float64
	posY       float64
	velX       float64
	velY       float64
	method     string
	solver     string
	tau        float64
	configFile string
	preset     string
	xAxis      int
	yAxis      int
	svgOut     string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "rbsim",
		Short: "constrained rigid-body dynamics lab",
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".rbsim", "data directory")

	simFlags := func(cmd *cobra.Command) {
		cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
		cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
		cmd.Flags().Float64Var(&theta, "theta", 0.0, "initial angle")
		cmd.Flags().Float64Var(&omega, "omega", 0.0, "initial angular velocity")
		cmd.Flags().Float64Var(&posX, "x", 0.0, "initial x position")
		cmd.Flags().Float64Var(&posY, "y", 1.0, "initial height")
		cmd.Flags().Float64Var(&velX, "vx", 0.0, "initial x velocity")
		cmd.Flags().Float64Var(&velY, "vy", 0.0, "initial y velocity")
		cmd.Flags().StringVar(&method, "method", "direct", "forward dynamics method (direct|rangespace|nullspace|kokkevis)")
		cmd.Flags().StringVar(&solver, "solver", "lu", "linear solver (lu|qr|colpivqr)")
		cmd.Flags().Float64Var(&tau, "tau", config.DefaultTau, "stabilization time constant")
		cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
		cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	}

	runCmd := &cobra.Command{
		Use:   "run [scenario]",
		Short: "run a simulation and store the result",
		Args:  cobra.ExactArgs(1),
		RunE:  runSimulation,
	}
	simFlags(runCmd)

	liveCmd := &cobra.Command{
		Use:   "live [scenario]",
		Short: "run a simulation with a live terminal view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd, args[0])
			if err != nil {
				return err
			}
			return tui.Run(cfg)
		},
	}
	simFlags(liveCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "print run metadata as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "write the traced trajectory as an SVG file",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().IntVar(&xAxis, "x-axis", 0, "state column for x")
	exportSVGCmd.Flags().IntVar(&yAxis, "y-axis", 1, "state column for y")
	exportSVGCmd.Flags().StringVar(&svgOut, "out", "", "output path (default <run_id>.svg)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	benchCmd := &cobra.Command{
		Use:   "bench [scenario]",
		Short: "compare forward dynamics methods on one scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  benchScenario,
	}
	simFlags(benchCmd)

	sweepCmd := &cobra.Command{
		Use:   "sweep [scenario]",
		Short: "run every preset of a scenario concurrently",
		Args:  cobra.ExactArgs(1),
		RunE:  sweepScenario,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [scenario]",
		Short: "list available presets for a scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for scenario: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	scenariosCmd := &cobra.Command{
		Use:   "scenarios",
		Short: "list available scenarios",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range scenario.Names() {
				fmt.Println(name)
			}
		},
	}

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, exportCmd, exportSVGCmd, analyzeCmd, benchCmd, sweepCmd, presetsCmd, scenariosCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// buildConfig resolves preset, config file and flags into one config,
// with later sources overriding earlier ones.
func buildConfig(cmd *cobra.Command, scenarioName string) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		p := config.GetPreset(scenarioName, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(scenarioName))
		}
		*cfg = *p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	cfg.Scenario = scenarioName
	if cmd.Flags().Changed("dt") || cfg.Dt == 0 {
		cfg.Dt = dt
	}
	if cmd.Flags().Changed("time") || cfg.Duration == 0 {
		cfg.Duration = duration
	}
	if cmd.Flags().Changed("method") || cfg.Method == "" {
		cfg.Method = method
	}
	if cmd.Flags().Changed("solver") || cfg.Solver == "" {
		cfg.Solver = solver
	}
	if cmd.Flags().Changed("tau") {
		cfg.Stabilizer.Tau = tau
	}
	if cmd.Flags().Changed("theta") {
		cfg.InitState.Theta = theta
	}
	if cmd.Flags().Changed("omega") {
		cfg.InitState.Omega = omega
	}
	if cmd.Flags().Changed("x") {
		cfg.InitState.X = posX
	}
	if cmd.Flags().Changed("y") {
		cfg.InitState.Y = posY
	}
	if cmd.Flags().Changed("vx") {
		cfg.InitState.VX = velX
	}
	if cmd.Flags().Changed("vy") {
		cfg.InitState.VY = velY
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newSimulator(cfg *config.Config) (*sim.Simulator, *scenario.System, error) {
	sys, err := scenario.Build(cfg)
	if err != nil {
		return nil, nil, err
	}
	ls, err := cfg.LinearSolver()
	if err != nil {
		return nil, nil, err
	}
	sys.Set.Solver = ls
	m, err := sim.ParseMethod(cfg.Method)
	if err != nil {
		return nil, nil, err
	}
	return sim.New(sys, m), sys, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	simulator, sys, err := newSimulator(cfg)
	if err != nil {
		return err
	}
	simulator.AddMetric(sim.NewEnergyDrift(sys))
	simulator.AddMetric(sim.NewConstraintDrift(sys))

	fmt.Printf("running %s (%s, %s)...\n", cfg.Scenario, cfg.Method, cfg.Solver)
	start := time.Now()
	result, err := simulator.Run(context.Background(), sim.RunConfig{Dt: cfg.Dt, Duration: cfg.Duration})
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := st.Save(cfg.Scenario, cfg.Method, cfg.Solver, cfg.Dt, cfg.Duration, sys.DOFLabels, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	if result.ImpactTime >= 0 {
		fmt.Printf("impact at t=%.3fs\n", result.ImpactTime)
	}
	fmt.Println("\nmetrics:")
	for name, val := range result.Metrics {
		fmt.Printf("  %s: %.6g\n", name, val)
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tDURATION\tDT\tMETHOD\tSOLVER")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%s\t%s\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Method,
			run.Solver,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	states, _, err := st.LoadStates(args[0])
	if err != nil {
		return err
	}
	if len(states) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n", meta.Scenario)
	fmt.Printf("samples: %d\n\n", len(states))

	cols := len(states[0])
	maxPlots := 6
	if cols > maxPlots {
		cols = maxPlots
	}
	for c := 0; c < cols; c++ {
		data := make([]float64, len(states))
		for i := range states {
			if c < len(states[i]) {
				data[i] = states[i][c]
			}
		}
		caption := fmt.Sprintf("column %d", c)
		if c < len(meta.Labels) {
			caption = meta.Labels[c]
		}
		fmt.Println(viz.PlotSeries(data, caption, 80, 10))
		fmt.Println()
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	states, _, err := st.LoadStates(args[0])
	if err != nil {
		return err
	}
	svg := export.TrajectorySVG(states, xAxis, yAxis, 600)
	if svg == "" {
		return fmt.Errorf("no data to export")
	}

	out := svgOut
	if out == "" {
		out = args[0] + ".svg"
	}
	if err := os.WriteFile(out, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", out)
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	states, _, err := st.LoadStates(args[0])
	if err != nil {
		return err
	}
	if len(states) < 4 {
		return fmt.Errorf("not enough samples to analyze")
	}

	fmt.Printf("run: %s (dt=%.4fs, %d samples)\n\n", meta.ID, meta.Dt, len(states))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "COLUMN\tDOMINANT FREQ\tMAGNITUDE")
	for c := 0; c < len(states[0]); c++ {
		data := make([]float64, len(states))
		for i := range states {
			if c < len(states[i]) {
				data[i] = states[i][c]
			}
		}
		freq, mag := analysis.DominantFrequency(data, meta.Dt)
		label := fmt.Sprintf("column %d", c)
		if c < len(meta.Labels) {
			label = meta.Labels[c]
		}
		fmt.Fprintf(w, "%s\t%.3f Hz\t%.3g\n", label, freq, mag)
	}
	return w.Flush()
}

func benchScenario(cmd *cobra.Command, args []string) error {
	methods := []string{"direct", "rangespace", "nullspace"}
	base, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}
	if args[0] == "falling_rod" {
		methods = append(methods, "kokkevis")
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METHOD\tSTEPS\tELAPSED\tSTEPS/S\tENERGY DRIFT")
	for _, name := range methods {
		cfg := *base
		cfg.Method = name

		simulator, sys, err := newSimulator(&cfg)
		if err != nil {
			return err
		}
		drift := sim.NewEnergyDrift(sys)
		simulator.AddMetric(drift)

		start := time.Now()
		result, err := simulator.Run(context.Background(), sim.RunConfig{Dt: cfg.Dt, Duration: cfg.Duration})
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		elapsed := time.Since(start)
		rate := float64(result.StepsTaken) / elapsed.Seconds()
		fmt.Fprintf(w, "%s\t%d\t%v\t%.0f\t%.3g\n", name, result.StepsTaken, elapsed.Round(time.Millisecond), rate, drift.Value())
	}
	return w.Flush()
}

func sweepScenario(cmd *cobra.Command, args []string) error {
	names := config.ListPresets(args[0])
	if len(names) == 0 {
		return fmt.Errorf("no presets for scenario: %s", args[0])
	}

	configs := make([]*config.Config, 0, len(names))
	for _, name := range names {
		configs = append(configs, config.GetPreset(args[0], name))
	}

	results, err := sim.NewSweep(configs).Run(context.Background())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tMETHOD\tSTEPS\tENERGY DRIFT\tCONSTRAINT DRIFT")
	for i, res := range results {
		fmt.Fprintf(w, "%s\t%s\t%d\t%.3g\t%.3g\n",
			names[i],
			configs[i].Method,
			res.StepsTaken,
			res.Metrics["energy_drift"],
			res.Metrics["constraint_drift"],
		)
	}
	return w.Flush()
}
