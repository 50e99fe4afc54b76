package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/velcmd/internal/analysis"
	"github.com/san-kum/velcmd/internal/automation"
	"github.com/san-kum/velcmd/internal/command"
	"github.com/san-kum/velcmd/internal/config"
	"github.com/san-kum/velcmd/internal/export"
	"github.com/san-kum/velcmd/internal/metrics"
	"github.com/san-kum/velcmd/internal/optim"
	"github.com/san-kum/velcmd/internal/sim"
	"github.com/san-kum/velcmd/internal/spatial"
	"github.com/san-kum/velcmd/internal/storage"
	"github.com/san-kum/velcmd/internal/tui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gonum.org/v1/gonum/floats"
	"gopkg.in/yaml.v3"
)

var (
	dataDir     string
	verbose     bool
	configFile  string
	preset      string
	agents      int
	steps       int
	seed        uint64
	runs        int
	noSave      bool
	metric      string
	dumpPreset  bool
	menuAgents  int
	menuSeed    uint64
	sweepArgs   []string
	sweepMetric string
	topN        int
	svgOut      string
	chartOut    string

	logger = zap.NewNop()
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "velcmd",
		Short: "batched velocity command generation and tracking lab",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// The terminal UIs own the screen.
			if cmd.Name() == "velcmd" || cmd.Name() == "live" {
				return nil
			}
			cfg := zap.NewProductionConfig()
			cfg.Encoding = "console"
			cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
			if verbose {
				cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			var err error
			logger, err = cfg.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.RunInteractive(menuAgents, menuSeed)
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".velcmd", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.Flags().IntVar(&menuAgents, "agents", 64, "agents per batch")
	rootCmd.Flags().Uint64Var(&menuSeed, "seed", config.DefaultSeed, "random seed")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a batch headless and store its metrics",
		RunE:  runBatch,
	}
	addConfigFlags(runCmd)
	runCmd.Flags().IntVar(&runs, "runs", 1, "independent batches with consecutive seeds")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run a batch with live terminal visualization",
		RunE:  runLive,
	}
	addConfigFlags(liveCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets [robot[/variant]]",
		Short: "list presets or print one as yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}
	presetsCmd.Flags().BoolVar(&dumpPreset, "dump", false, "print the preset as yaml")

	framesCmd := &cobra.Command{
		Use:   "frames",
		Short: "list reference-body frame corrections",
		RunE:  listFrames,
	}
	framesCmd.Flags().StringVar(&configFile, "config", "", "config file with extra frames")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run's tracking series",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&metric, "metric", "xy", "series to plot: xy, yaw, standing or heading")
	plotCmd.Flags().StringVar(&svgOut, "svg", "", "also write the plot to this svg file")
	plotCmd.Flags().StringVar(&chartOut, "chart", "", "write xy and yaw errors to a chart (.png, .svg or .pdf)")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a stored run as json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).Export(os.Stdout, args[0])
		},
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "grid search command and plant parameters against a tracking metric",
		RunE:  runSweep,
	}
	addConfigFlags(sweepCmd)
	sweepCmd.Flags().StringArrayVar(&sweepArgs, "param", nil, "name=v1,v2,... or name=lo:hi:n (repeatable)")
	sweepCmd.Flags().StringVar(&sweepMetric, "metric", metrics.ErrorVelXY, "metric to minimize")
	sweepCmd.Flags().IntVar(&topN, "top", 10, "trials to print")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "estimate the resample period of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&metric, "metric", "xy", "series to analyze: xy or yaw")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run every step of a yaml scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	scenarioCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the runs")

	rootCmd.AddCommand(runCmd, liveCmd, presetsCmd, framesCmd, listCmd, plotCmd, exportCmd, sweepCmd, analyzeCmd, scenarioCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "preset as robot[/variant]")
	cmd.Flags().IntVar(&agents, "agents", 0, "override number of agents")
	cmd.Flags().IntVar(&steps, "steps", 0, "override number of ticks")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "override random seed")
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	var err error
	switch {
	case configFile != "":
		cfg, err = config.Load(configFile)
	case preset != "":
		cfg, err = config.ParsePreset(preset)
	default:
		cfg = config.DefaultConfig()
	}
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("agents") {
		cfg.NumAgents = agents
	}
	if cmd.Flags().Changed("steps") {
		cfg.Steps = steps
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}
	return cfg, nil
}

func logDiagnostics(diags command.Diagnostics) {
	for _, d := range diags {
		logger.Warn("command configuration advisory", zap.String("code", d.Code), zap.String("message", d.Message))
	}
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	logger.Info("starting run",
		zap.String("name", cfg.Name),
		zap.Int("agents", cfg.NumAgents),
		zap.Int("steps", cfg.Steps),
		zap.Int("runs", runs),
		zap.Uint64("seed", cfg.Seed),
		zap.String("reference_body", cfg.Command.ReferenceBody),
	)

	start := time.Now()
	if runs <= 1 {
		simulator, diags, err := cfg.Build(cfg.Seed)
		if err != nil {
			return err
		}
		logDiagnostics(diags)
		res, err := simulator.Run(ctx, cfg.Steps)
		if err != nil {
			return err
		}
		return report(st, cfg, cfg.Seed, diags, res, time.Since(start))
	}

	var diags command.Diagnostics
	ensemble := sim.NewEnsemble(func(s uint64) (*sim.Simulator, error) {
		simulator, d, err := cfg.Build(s)
		if s == cfg.Seed {
			diags = d
		}
		return simulator, err
	}, runs, cfg.Seed)
	results, err := ensemble.Run(ctx, cfg.Steps)
	if err != nil {
		return err
	}
	logDiagnostics(diags)
	for i, res := range results {
		if err := report(st, cfg, cfg.Seed+uint64(i), diags, res, time.Since(start)); err != nil {
			return err
		}
	}
	return nil
}

func report(st *storage.Store, cfg *config.Config, runSeed uint64, diags command.Diagnostics, res *sim.Result, elapsed time.Duration) error {
	for _, ep := range res.Episodes {
		logger.Debug("episode timeout",
			zap.Int("tick", ep.Tick),
			zap.Int("agents", ep.Agents),
			zap.Float64(metrics.ErrorVelXY, ep.Means[metrics.ErrorVelXY]),
			zap.Float64(metrics.ErrorVelYaw, ep.Means[metrics.ErrorVelYaw]),
		)
	}

	fields := []zap.Field{
		zap.Uint64("seed", runSeed),
		zap.Int("ticks", res.Ticks),
		zap.Int("episodes", len(res.Episodes)),
		zap.Duration("elapsed", elapsed),
	}
	if !noSave {
		runID, err := st.Save(cfg, runSeed, diags, res)
		if err != nil {
			return fmt.Errorf("save run: %w", err)
		}
		fields = append(fields, zap.String("run_id", runID))
	}
	logger.Info("run complete", fields...)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tMEAN\tSTD\tMIN\tMAX")
	for _, name := range []string{metrics.ErrorVelXY, metrics.ErrorVelYaw} {
		s := res.Summaries[name]
		fmt.Fprintf(w, "%s\t%.5f\t%.5f\t%.5f\t%.5f\n", name, s.Mean, s.Std, s.Min, s.Max)
	}
	return w.Flush()
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("agents") && cfg.NumAgents > 256 {
		cfg.NumAgents = 256
	}
	simulator, diags, err := cfg.Build(cfg.Seed)
	if err != nil {
		return err
	}
	return tui.RunLive(simulator, cfg.Name, diags)
}

func listPresets(cmd *cobra.Command, args []string) error {
	if len(args) == 1 && (dumpPreset || strings.Contains(args[0], "/")) {
		cfg, err := config.ParsePreset(args[0])
		if err != nil {
			return err
		}
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(out)
		return err
	}

	robots := config.ListRobots()
	if len(args) == 1 {
		robots = []string{args[0]}
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ROBOT\tVARIANT\tBODY\tAGENTS\tHEADING")
	for _, robot := range robots {
		variants := config.ListPresets(robot)
		if variants == nil {
			return fmt.Errorf("unknown robot: %s (available: %v)", robot, config.ListRobots())
		}
		for _, v := range variants {
			cfg := config.GetPreset(robot, v)
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%v\n", robot, v, cfg.Command.ReferenceBody, cfg.NumAgents, cfg.Command.HeadingCommand)
		}
	}
	return w.Flush()
}

func listFrames(cmd *cobra.Command, args []string) error {
	table := spatial.DefaultFrameTable()
	if configFile != "" {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}
		if table, err = cfg.FrameTable(); err != nil {
			return err
		}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BODY\tW\tX\tY\tZ")
	for _, name := range table.Names() {
		q, _ := table.Lookup(name)
		fmt.Fprintf(w, "%s\t%.4f\t%.4f\t%.4f\t%.4f\n", name, q.Real, q.Imag, q.Jmag, q.Kmag)
	}
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tAGENTS\tTICKS\tSEED\tBODY\tXY\tYAW")
	for _, run := range runs {
		body := ""
		if run.Config != nil {
			body = run.Config.Command.ReferenceBody
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\t%.4f\t%.4f\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Agents,
			run.Ticks,
			run.Seed,
			body,
			run.Summaries[metrics.ErrorVelXY].Mean,
			run.Summaries[metrics.ErrorVelYaw].Mean,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	series, err := storage.New(dataDir).LoadSeries(runID)
	if err != nil {
		return err
	}
	if len(series) == 0 {
		return fmt.Errorf("run %s has no samples", runID)
	}

	pick := map[string]func(sim.Sample) float64{
		"xy":       func(s sim.Sample) float64 { return s.MeanXY },
		"yaw":      func(s sim.Sample) float64 { return s.MeanYaw },
		"standing": func(s sim.Sample) float64 { return s.Standing },
		"heading":  func(s sim.Sample) float64 { return s.Heading },
	}[metric]
	if pick == nil {
		return fmt.Errorf("unknown metric: %s", metric)
	}

	data := make([]float64, len(series))
	times := make([]float64, len(series))
	for i, s := range series {
		data[i] = pick(s)
		times[i] = s.Time
	}
	if svgOut != "" {
		f, err := os.Create(svgOut)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := export.WriteSeries(f, times, data, 800, 300, "#00ff00"); err != nil {
			return err
		}
		logger.Info("wrote svg", zap.String("path", svgOut))
	}
	if chartOut != "" {
		xy := make([]float64, len(series))
		yaw := make([]float64, len(series))
		for i, s := range series {
			xy[i], yaw[i] = s.MeanXY, s.MeanYaw
		}
		err := export.SaveChart(chartOut, runID, "time (s)", "mean tracking error",
			export.Line{Name: metrics.ErrorVelXY, X: times, Y: xy},
			export.Line{Name: metrics.ErrorVelYaw, X: times, Y: yaw},
		)
		if err != nil {
			return err
		}
		logger.Info("wrote chart", zap.String("path", chartOut))
	}
	graph := asciigraph.Plot(data,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("%s %s over %.1fs", runID, metric, series[len(series)-1].Time)),
	)
	fmt.Println(graph)
	return nil
}

func parseSweepParam(arg string) (string, []float64, error) {
	name, list, ok := strings.Cut(arg, "=")
	if !ok || name == "" || list == "" {
		return "", nil, fmt.Errorf("invalid --param %q: want name=v1,v2 or name=lo:hi:n", arg)
	}

	if parts := strings.Split(list, ":"); len(parts) == 3 {
		lo, errLo := strconv.ParseFloat(parts[0], 64)
		hi, errHi := strconv.ParseFloat(parts[1], 64)
		n, errN := strconv.Atoi(parts[2])
		if errLo != nil || errHi != nil || errN != nil || n < 2 {
			return "", nil, fmt.Errorf("invalid range in --param %q", arg)
		}
		return name, floats.Span(make([]float64, n), lo, hi), nil
	}

	var values []float64
	for _, f := range strings.Split(list, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return "", nil, fmt.Errorf("invalid value in --param %q: %w", arg, err)
		}
		values = append(values, v)
	}
	return name, values, nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if len(sweepArgs) == 0 {
		return fmt.Errorf("no --param given (available: %v)", config.ParamNames())
	}
	names := make([]string, 0, len(sweepArgs))
	ranges := make([][]float64, 0, len(sweepArgs))
	for _, arg := range sweepArgs {
		name, values, err := parseSweepParam(arg)
		if err != nil {
			return err
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}

	grid, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Info("starting sweep",
		zap.String("name", cfg.Name),
		zap.Strings("params", names),
		zap.Int("trials", len(grid.Points())),
		zap.String("metric", sweepMetric),
	)
	start := time.Now()
	trials, err := grid.Search(ctx, optim.SimulationObjective(cfg, sweepMetric))
	if err != nil {
		return err
	}
	logger.Info("sweep complete", zap.Duration("elapsed", time.Since(start)))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "RANK\t%s\t%s\n", strings.ToUpper(strings.Join(names, "\t")), sweepMetric)
	for i, t := range trials {
		if i >= topN {
			break
		}
		fmt.Fprintf(w, "%d", i+1)
		for _, name := range names {
			fmt.Fprintf(w, "\t%g", t.Params[name])
		}
		fmt.Fprintf(w, "\t%.5f\n", t.Score)
	}
	return w.Flush()
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	series, err := storage.New(dataDir).LoadSeries(runID)
	if err != nil {
		return err
	}
	if len(series) < 2 {
		return fmt.Errorf("run %s has too few samples", runID)
	}

	data := make([]float64, len(series))
	for i, s := range series {
		switch metric {
		case "xy":
			data[i] = s.MeanXY
		case "yaw":
			data[i] = s.MeanYaw
		default:
			return fmt.Errorf("unknown metric: %s", metric)
		}
	}
	sampleDt := series[1].Time - series[0].Time

	inc := analysis.Increments(data)
	period, err := analysis.DominantPeriod(inc, sampleDt)
	if err != nil {
		return err
	}
	logger.Debug("analyzed run", zap.String("run_id", runID), zap.Int("samples", len(series)))
	fmt.Printf("%s %s: dominant error period %.3fs (sample dt %.3fs)\n", runID, metric, period, sampleDt)
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var st *storage.Store
	if !noSave {
		st = storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
	}

	results, err := automation.RunScenario(ctx, scenario, st, logger)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tNAME\tRUN\tXY\tYAW")
	for i, r := range results {
		fmt.Fprintf(w, "%d\t%s\t%s\t%.5f\t%.5f\n", i+1, r.Name, r.RunID,
			r.Summaries[metrics.ErrorVelXY].Mean, r.Summaries[metrics.ErrorVelYaw].Mean)
	}
	if flushErr := w.Flush(); err == nil {
		err = flushErr
	}
	return err
}
