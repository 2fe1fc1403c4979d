package cmd

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/poorfish/maptoposter/internal/pipeline"
	"github.com/poorfish/maptoposter/internal/theme"
	"github.com/poorfish/maptoposter/internal/types"
	"github.com/poorfish/maptoposter/internal/worker"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Render many posters from a file",
	Long: `Render every poster listed in a YAML file.

All posters share one gateway state: the stage cache, the request spacing and
the endpoint health ranking. Entries may override theme, aspect, orientation
and radius; everything else comes from the flags.

  posters:
    - city: Paris
      country: France
      lat: 48.8566
      lon: 2.3522
      theme: warm_beige
    - city: Tokyo
      lat: 35.6762
      lon: 139.6503
      radius: 12000`,
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().StringP("file", "f", "posters.yaml", "YAML file listing the posters")
	batchCmd.Flags().IntP("workers", "w", 2, "Number of posters rendered in parallel (0: number of CPUs)")
	batchCmd.Flags().Float64("radius", 5000, "Default radius in meters")
	batchCmd.Flags().Bool("progress", true, "Show progress bar")
	batchCmd.Flags().Bool("allow-failures", false, "Exit successfully even if some posters fail")
	batchCmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address while running (e.g. 127.0.0.1:9090)")
	addPosterFlags(batchCmd)

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"batch.file", "file"},
		{"batch.workers", "workers"},
		{"batch.radius", "radius"},
		{"batch.progress", "progress"},
		{"batch.allow_failures", "allow-failures"},
		{"batch.metrics_addr", "metrics-addr"},
	}
	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, batchCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
	bindPosterFlags(batchCmd, "batch")
}

// batchEntry is one poster in the batch file.
type batchEntry struct {
	City        string  `mapstructure:"city"`
	Country     string  `mapstructure:"country"`
	Lat         float64 `mapstructure:"lat"`
	Lon         float64 `mapstructure:"lon"`
	Radius      float64 `mapstructure:"radius"`
	Theme       string  `mapstructure:"theme"`
	Aspect      string  `mapstructure:"aspect"`
	Orientation string  `mapstructure:"orientation"`
}

// loadBatchFile reads the posters list with its own viper instance so batch
// entries never mix with the global configuration.
func loadBatchFile(path string) ([]batchEntry, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}

	var entries []batchEntry
	if err := v.UnmarshalKey("posters", &entries); err != nil {
		return nil, fmt.Errorf("failed to parse batch file: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("batch file %s lists no posters", path)
	}
	return entries, nil
}

// batchTasks validates entries and turns them into worker tasks.
func batchTasks(entries []batchEntry, settings posterSettings, defaultRadius float64) ([]worker.Task, error) {
	var errs []error
	tasks := make([]worker.Task, 0, len(entries))

	for i, e := range entries {
		if e.City == "" {
			errs = append(errs, fmt.Errorf("entry %d: city is required", i+1))
			continue
		}
		radius := e.Radius
		if radius == 0 {
			radius = defaultRadius
		}
		req := pipeline.Request{Lat: e.Lat, Lon: e.Lon, Radius: radius}
		if err := validateRequest(req); err != nil {
			errs = append(errs, fmt.Errorf("entry %d (%s): %w", i+1, e.City, err))
			continue
		}

		s := settings
		if e.Theme != "" {
			s.Theme = e.Theme
		}
		if e.Aspect != "" {
			s.Aspect = e.Aspect
		}
		if e.Orientation != "" {
			o, err := types.ParseOrientation(e.Orientation)
			if err != nil {
				errs = append(errs, fmt.Errorf("entry %d (%s): %w", i+1, e.City, err))
				continue
			}
			s.Orientation = o
		}

		tasks = append(tasks, worker.Task{
			Name: e.City,
			Job:  s.job(e.City, e.Country, req),
		})
	}

	return tasks, errors.Join(errs...)
}

func runBatch(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	file := viper.GetString("batch.file")
	workers := viper.GetInt("batch.workers")
	showProgress := viper.GetBool("batch.progress")
	allowFailures := viper.GetBool("batch.allow_failures")
	metricsAddr := viper.GetString("batch.metrics_addr")
	outputDir := viper.GetString("output-dir")

	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	settings, err := readPosterSettings("batch")
	if err != nil {
		return err
	}
	entries, err := loadBatchFile(file)
	if err != nil {
		return err
	}
	tasks, err := batchTasks(entries, settings, viper.GetFloat64("batch.radius"))
	if err != nil {
		return fmt.Errorf("invalid batch file: %w", err)
	}

	logger.Info("Starting batch poster generation",
		"file", file,
		"posters", len(tasks),
		"workers", workers,
		"output_dir", outputDir,
	)

	if metricsAddr != "" {
		stop := serveMetrics(metricsAddr)
		defer stop()
	}

	themes, err := theme.Builtin()
	if err != nil {
		return err
	}

	state := newGatewayState()
	gen, err := pipeline.NewGenerator(newOrchestrator(state), themes, outputDir, settings.Export, settings.Force, logger)
	if err != nil {
		return fmt.Errorf("failed to init generator: %w", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	progress := worker.NewProgress(len(tasks), showProgress)
	pool := worker.New(worker.Config{
		Workers:    workers,
		Generator:  gen,
		OnProgress: progress.Callback(),
	})

	results := pool.Run(ctx, tasks)
	progress.Done()

	var failed, degraded int
	for _, r := range results {
		switch {
		case r.Err != nil:
			failed++
			logger.Error("Poster generation failed", "city", r.Task.Name, "error", r.Err)
		case r.Degraded():
			degraded++
			logger.Warn("Poster written from major features only", "city", r.Task.Name, "paths", r.Output.Paths)
		}
	}

	logger.Info(progress.Summary(degraded))
	hits, misses := state.Cache().Stats()
	expired := state.Cache().Prune()
	logger.Debug("Stage cache usage", "hits", hits, "misses", misses, "entries", state.Cache().Len(), "expired", expired)

	if failed > 0 {
		if allowFailures {
			logger.Warn("Some posters failed to generate, but continuing due to --allow-failures flag", "failed_count", failed)
			return nil
		}
		return fmt.Errorf("%d posters failed to generate", failed)
	}
	return nil
}
