package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/orbitsim/internal/config"
	"github.com/san-kum/orbitsim/internal/export"
	"github.com/san-kum/orbitsim/internal/metrics"
	"github.com/san-kum/orbitsim/internal/physics"
	"github.com/san-kum/orbitsim/internal/sim"
	"github.com/san-kum/orbitsim/internal/storage"
	"github.com/san-kum/orbitsim/internal/viz"
)

var (
	dataDir string
	verbose bool

	configFile  string
	preset      string
	dt          float64
	steps       int
	interval    time.Duration
	capacity    int
	softening   float64
	workers     int
	scale       float64
	sampleEvery int
	metricsAddr string

	theme string
	watch bool

	output     string
	svgWidth   int
	svgHeight  int
	plotBodies int
	plotHeight int
)

// main registers the commands and flags and exits with status 1 when a
// command fails.
func main() {
	rootCmd := &cobra.Command{
		Use:           "orbitsim",
		Short:         "newtonian n-body orbit simulator",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".orbitsim", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run [preset|scenario.yaml]",
		Short: "run a headless simulation and save it",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addScenarioFlags(runCmd)
	runCmd.Flags().IntVar(&sampleEvery, "sample-every", 1, "save every nth step")

	liveCmd := &cobra.Command{
		Use:   "live [preset|scenario.yaml]",
		Short: "run a simulation with live visualization",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addScenarioFlags(liveCmd)
	liveCmd.Flags().StringVar(&theme, "theme", viz.ThemeDeepSpace.Name, fmt.Sprintf("color theme %v", viz.ThemeNames()))
	liveCmd.Flags().BoolVar(&watch, "watch", false, "reload the scenario file when it changes")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot separation and orbital radii of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&plotBodies, "bodies", 6, "maximum number of per-body plots")
	plotCmd.Flags().IntVar(&plotHeight, "height", 10, "plot height in rows")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export run trajectories to SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default <run_id>.svg)")
	exportSVGCmd.Flags().IntVar(&svgWidth, "width", 800, "image width")
	exportSVGCmd.Flags().IntVar(&svgHeight, "height", 800, "image height")

	presetsCmd := &cobra.Command{
		Use:   "presets [name]",
		Short: "list presets, or write one out as a scenario file",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}
	presetsCmd.Flags().StringVarP(&output, "output", "o", "", "write the named preset to this yaml file")

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, exportJSONCmd, exportSVGCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addScenarioFlags(cmd *cobra.Command) {
	d := config.DefaultScenario()
	cmd.Flags().StringVar(&configFile, "config", "", "scenario file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", config.DefaultPreset, fmt.Sprintf("preset scenario %v", config.ListPresets()))
	cmd.Flags().Float64Var(&dt, "dt", d.Dt, "timestep in seconds")
	cmd.Flags().IntVar(&steps, "steps", d.Steps, "number of steps (run)")
	cmd.Flags().DurationVar(&interval, "interval", d.Interval, "wall-clock time between ticks (live)")
	cmd.Flags().IntVar(&capacity, "capacity", d.TrailCapacity, "trail points kept per body")
	cmd.Flags().Float64Var(&softening, "softening", d.Softening, "plummer softening length in metres")
	cmd.Flags().IntVar(&workers, "workers", d.Workers, "force workers (0 or 1 for serial)")
	cmd.Flags().Float64Var(&scale, "scale", 0, "metres per pixel (live, 0 fits the view)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")
}

func newLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// newFileLogger keeps log output off the terminal while the live view
// owns it.
func newFileLogger() (*zap.Logger, error) {
	if !verbose {
		return zap.NewNop(), nil
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, err
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{filepath.Join(dataDir, "live.log")}
	cfg.ErrorOutputPaths = cfg.OutputPaths
	return cfg.Build()
}

// loadScenario resolves the scenario from, in order: a positional preset
// name or file, --config, --preset. Flags set on the command line
// override the scenario's values.
func loadScenario(cmd *cobra.Command, args []string) (*config.Scenario, string, error) {
	var (
		sc   *config.Scenario
		path string
		err  error
	)

	switch {
	case len(args) > 0 && config.GetPreset(args[0]) != nil:
		sc = config.GetPreset(args[0])
	case len(args) > 0:
		path = args[0]
	case configFile != "":
		path = configFile
	default:
		sc = config.GetPreset(preset)
		if sc == nil {
			return nil, "", fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if path != "" {
		sc, err = config.Load(path)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load scenario: %w", err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		sc.Dt = dt
	}
	if flags.Changed("steps") {
		sc.Steps = steps
	}
	if flags.Changed("interval") {
		sc.Interval = interval
	}
	if flags.Changed("capacity") {
		sc.TrailCapacity = capacity
	}
	if flags.Changed("softening") {
		sc.Softening = softening
	}
	if flags.Changed("workers") {
		sc.Workers = workers
	}
	if flags.Changed("scale") && scale > 0 {
		sc.Scale = scale
	}

	if err := sc.Validate(); err != nil {
		return nil, "", err
	}
	return sc, path, nil
}

// serveMetrics starts a Prometheus endpoint when --metrics-addr is set.
// The returned function shuts it down.
func serveMetrics(c *metrics.Collector, logger *zap.Logger) func() {
	if metricsAddr == "" {
		return func() {}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.String("addr", metricsAddr), zap.Error(err))
		}
	}()
	logger.Info("serving metrics", zap.String("addr", metricsAddr))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}

func runSimulation(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	sc, _, err := loadScenario(cmd, args)
	if err != nil {
		return err
	}
	bodies, err := sc.ToBodies()
	if err != nil {
		return err
	}

	g := sc.Gravity()
	cfg := sc.SimConfig()
	cfg.SampleEvery = sampleEvery

	s, err := sim.New(g, bodies, cfg, logger)
	if err != nil {
		return err
	}
	s.AddMetric(metrics.NewEnergyDrift(g))
	s.AddMetric(metrics.NewMomentumDrift())
	if len(bodies) >= 2 {
		s.AddMetric(metrics.NewSeparation(0, 1))
	}

	collector := metrics.NewCollector("orbitsim", g)
	s.AddObserver(collector)
	defer serveMetrics(collector, logger)()

	st := storage.New(dataDir, logger)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Info("run started",
		zap.String("scenario", sc.Name),
		zap.Int("bodies", len(bodies)),
		zap.Int("steps", sc.Steps),
		zap.Float64("dt", sc.Dt),
	)
	start := time.Now()

	result, err := s.Run(ctx, sc.Steps)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	for range result.Errors {
		collector.StepFailed()
	}
	elapsed := time.Since(start)

	runID, err := st.Save(sc, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d (%.1f days)\n", result.StepsTaken, result.Final.Time/86400)
	fmt.Printf("energy drift: %.3e\n", result.EnergyDrift)
	fmt.Println("\nmetrics:")
	for name, val := range result.Metrics {
		fmt.Printf("  %s: %.6g\n", name, val)
	}
	for _, e := range result.Errors {
		fmt.Printf("\nstopped early: %v\n", e)
	}

	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	logger, err := newFileLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	pickArgs := args
	if len(args) == 0 && configFile == "" && !cmd.Flags().Changed("preset") {
		choices := make([]viz.Choice, 0)
		for _, name := range config.ListPresets() {
			choices = append(choices, viz.Choice{Name: name, Description: config.Describe(name)})
		}
		name, err := viz.Pick(choices)
		if err != nil {
			return err
		}
		if name == "" {
			return nil
		}
		pickArgs = []string{name}
	}

	sc, path, err := loadScenario(cmd, pickArgs)
	if err != nil {
		return err
	}
	bodies, err := sc.ToBodies()
	if err != nil {
		return err
	}

	g := sc.Gravity()
	s, err := sim.New(g, bodies, sc.SimConfig(), logger)
	if err != nil {
		return err
	}

	collector := metrics.NewCollector("orbitsim", g)
	s.AddObserver(collector)
	defer serveMetrics(collector, logger)()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts := viz.Options{Title: sc.Name, Theme: theme, Energy: g}
	if (cmd.Flags().Changed("scale") && scale > 0) || path != "" {
		opts.Scale = sc.Scale
	}
	p := viz.NewProgram(ctx, s, opts, tea.WithAltScreen())

	if watch && path != "" {
		go func() {
			err := config.Watch(ctx, path, logger, func(next *config.Scenario) {
				bodies, err := next.ToBodies()
				if err != nil {
					return
				}
				p.Send(viz.ResetMsg{Bodies: bodies})
			})
			if err != nil {
				logger.Error("scenario watch failed", zap.Error(err))
			}
		}()
	}

	final, err := p.Run()
	s.Stop()
	if err != nil {
		return err
	}
	if m, ok := final.(viz.Model); ok && m.Err() != nil {
		collector.StepFailed()
		return m.Err()
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir, nil)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tBODIES\tSTEPS\tDAYS\tDT\tDRIFT")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.1f\t%.0fs\t%.2e\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			len(run.Bodies),
			run.Steps,
			run.SimTime/86400,
			run.Dt,
			run.EnergyDrift,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir, nil)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	states, _, err := st.LoadTrajectories(runID)
	if err != nil {
		return err
	}

	if len(states) < 2 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n", meta.Scenario)
	fmt.Printf("samples: %d\n\n", len(states))

	if len(meta.Bodies) >= 2 {
		sep := make([]float64, len(states))
		for i, bodies := range states {
			sep[i] = physics.Separation(bodies, 0, 1) / 1e9
		}
		plot(sep, fmt.Sprintf("separation %s - %s (1e9 m)", meta.Bodies[0].Name, meta.Bodies[1].Name))
	}

	g := &physics.Gravity{G: meta.G, Softening: meta.Softening}
	energy := make([]float64, len(states))
	for i, bodies := range states {
		energy[i] = g.Energy(bodies)
	}
	plot(energy, "total energy (J)")

	n := len(meta.Bodies)
	if n > plotBodies {
		n = plotBodies
	}
	for b := 0; b < n; b++ {
		radius := make([]float64, len(states))
		for i, bodies := range states {
			radius[i] = bodies[b].Pos.Sub(physics.CenterOfMass(bodies)).Len() / 1e9
		}
		plot(radius, fmt.Sprintf("%s distance from centre of mass (1e9 m)", meta.Bodies[b].Name))
	}

	return nil
}

func plot(data []float64, caption string) {
	graph := asciigraph.Plot(data,
		asciigraph.Height(plotHeight),
		asciigraph.Width(80),
		asciigraph.Caption(caption),
	)
	fmt.Println(graph)
	fmt.Println()
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir, nil)

	if output == "" {
		return st.ExportJSON(os.Stdout, args[0])
	}

	f, err := os.Create(output)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := st.ExportJSON(f, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "exported to %s\n", output)
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir, nil)

	states, _, err := st.LoadTrajectories(runID)
	if err != nil {
		return err
	}
	if len(states) == 0 {
		return fmt.Errorf("no data to export")
	}

	path := output
	if path == "" {
		path = runID + ".svg"
	}

	svg := export.TrajectoriesToSVG(states[len(states)-1], storage.Trails(states), svgWidth, svgHeight)
	if err := os.WriteFile(path, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("exported to %s\n", path)
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		sc := config.GetPreset(args[0])
		if sc == nil {
			return fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
		}
		if output == "" {
			return describeScenario(sc)
		}
		if err := config.Save(output, sc); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", output)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tBODIES\tDT\tDESCRIPTION")
	for _, name := range config.ListPresets() {
		sc := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%d\t%.0fs\t%s\n", name, len(sc.Bodies), sc.Dt, config.Describe(name))
	}
	return w.Flush()
}

func describeScenario(sc *config.Scenario) error {
	bodies, err := sc.ToBodies()
	if err != nil {
		return err
	}

	fmt.Printf("%s: %s\n\n", sc.Name, config.Describe(sc.Name))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BODY\tMASS (kg)\tX (m)\tY (m)\tVX (m/s)\tVY (m/s)\tCOLOR")
	for _, b := range bodies {
		fmt.Fprintf(w, "%s\t%.4g\t%.4g\t%.4g\t%.4g\t%.4g\t%s\n",
			b.Name, b.Mass, b.Pos.X, b.Pos.Y, b.Vel.X, b.Vel.Y, b.Color)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	g := sc.Gravity()
	fmt.Printf("\nenergy: %.4e J\n", g.Energy(bodies))
	fmt.Printf("momentum: %.4e kg m/s\n", physics.Momentum(bodies).Len())
	fmt.Printf("centre of mass: %v\n", physics.CenterOfMass(bodies))
	return nil
}
