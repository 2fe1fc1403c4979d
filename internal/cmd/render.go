package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/poorfish/maptoposter/internal/datasource"
	"github.com/poorfish/maptoposter/internal/export"
	"github.com/poorfish/maptoposter/internal/pipeline"
	"github.com/poorfish/maptoposter/internal/poster"
	"github.com/poorfish/maptoposter/internal/theme"
	"github.com/poorfish/maptoposter/internal/types"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a single poster",
	Long: `Render a map poster centred on a coordinate.

The first fetch stage brings in major roads, water and parks; the second adds
minor roads, rail and buildings. When the second stage fails the poster is
still written from the first stage and a warning is logged.`,
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().String("city", "", "City name shown on the poster (required)")
	renderCmd.Flags().String("country", "", "Country name shown on the poster")
	renderCmd.Flags().Float64("lat", 0, "Latitude of the poster centre")
	renderCmd.Flags().Float64("lon", 0, "Longitude of the poster centre")
	renderCmd.Flags().Float64("radius", 5000, "Radius around the centre in meters")
	addPosterFlags(renderCmd)

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"render.city", "city"},
		{"render.country", "country"},
		{"render.lat", "lat"},
		{"render.lon", "lon"},
		{"render.radius", "radius"},
	}
	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, renderCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
	bindPosterFlags(renderCmd, "render")
}

// addPosterFlags declares the look-and-output flags shared by render and batch.
func addPosterFlags(cmd *cobra.Command) {
	cmd.Flags().String("theme", theme.DefaultName, "Theme name (see maptoposter themes)")
	cmd.Flags().String("aspect", "3:4", "Aspect ratio preset ("+strings.Join(poster.AspectNames(), ", ")+")")
	cmd.Flags().String("orientation", string(types.Portrait), "portrait or landscape")
	cmd.Flags().Float64("short-side", poster.DefaultShortSide, "Canvas short side in poster units")
	cmd.Flags().String("font", "Roboto", "Font family for the label")
	cmd.Flags().String("formats", "svg,png", "Comma separated output formats (svg, png, geojson)")
	cmd.Flags().Float64("scale", export.DefaultOptions().Scale, "PNG pixels per poster unit")
	cmd.Flags().Int("preview-width", 0, "Also write a PNG thumbnail this wide (0 disables)")
	cmd.Flags().Float64("grain", 0, "Paper grain strength for PNG output (0 disables)")
	cmd.Flags().Int64("seed", 1, "Seed for the paper grain")
	cmd.Flags().Bool("preview-major", false, "Write an SVG of the first-stage data as soon as it arrives")
	cmd.Flags().Bool("force", false, "Overwrite posters that already exist")
}

func bindPosterFlags(cmd *cobra.Command, prefix string) {
	for key, flag := range map[string]string{
		"theme":         "theme",
		"aspect":        "aspect",
		"orientation":   "orientation",
		"short_side":    "short-side",
		"font":          "font",
		"formats":       "formats",
		"scale":         "scale",
		"preview_width": "preview-width",
		"grain":         "grain",
		"seed":          "seed",
		"preview_major": "preview-major",
		"force":         "force",
	} {
		if err := viper.BindPFlag(prefix+"."+key, cmd.Flags().Lookup(flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", flag, err))
		}
	}
}

// posterSettings is the poster look and output read from one viper prefix.
type posterSettings struct {
	Theme        string
	Aspect       string
	Orientation  types.Orientation
	ShortSide    float64
	Font         string
	Formats      []export.Format
	PreviewMajor bool
	Force        bool
	Export       export.Options
}

func readPosterSettings(prefix string) (posterSettings, error) {
	orientation, err := types.ParseOrientation(viper.GetString(prefix + ".orientation"))
	if err != nil {
		return posterSettings{}, err
	}
	formats, err := export.ParseFormats(viper.GetString(prefix + ".formats"))
	if err != nil {
		return posterSettings{}, err
	}

	opts := export.DefaultOptions()
	opts.Scale = viper.GetFloat64(prefix + ".scale")
	opts.PreviewWidth = viper.GetInt(prefix + ".preview_width")
	opts.Grain = viper.GetFloat64(prefix + ".grain")
	opts.Seed = viper.GetInt64(prefix + ".seed")

	return posterSettings{
		Theme:        viper.GetString(prefix + ".theme"),
		Aspect:       viper.GetString(prefix + ".aspect"),
		Orientation:  orientation,
		ShortSide:    viper.GetFloat64(prefix + ".short_side"),
		Font:         viper.GetString(prefix + ".font"),
		Formats:      formats,
		PreviewMajor: viper.GetBool(prefix + ".preview_major"),
		Force:        viper.GetBool(prefix + ".force"),
		Export:       opts,
	}, nil
}

func (s posterSettings) job(city, country string, req pipeline.Request) pipeline.Job {
	return pipeline.Job{
		City:         city,
		Country:      country,
		Request:      req,
		Theme:        s.Theme,
		Aspect:       s.Aspect,
		Orientation:  s.Orientation,
		ShortSide:    s.ShortSide,
		FontFamily:   s.Font,
		Formats:      s.Formats,
		PreviewMajor: s.PreviewMajor,
	}
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Info("Received interrupt signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

func runRender(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	city := viper.GetString("render.city")
	if city == "" {
		return fmt.Errorf("--city is required")
	}
	req := pipeline.Request{
		Lat:    viper.GetFloat64("render.lat"),
		Lon:    viper.GetFloat64("render.lon"),
		Radius: viper.GetFloat64("render.radius"),
	}
	if err := validateRequest(req); err != nil {
		return err
	}

	settings, err := readPosterSettings("render")
	if err != nil {
		return err
	}
	outputDir := viper.GetString("output-dir")

	logger.Info("Starting poster generation",
		"city", city,
		"lat", req.Lat,
		"lon", req.Lon,
		"radius", req.Radius,
		"theme", settings.Theme,
		"formats", settings.Formats,
		"output_dir", outputDir,
	)

	themes, err := theme.Builtin()
	if err != nil {
		return err
	}
	// The supervisor drops the session's events and cache writes once an
	// interrupt cancels it.
	sup := pipeline.NewSupervisor(newOrchestrator(nil))
	gen, err := pipeline.NewGenerator(sup, themes, outputDir, settings.Export, settings.Force, logger)
	if err != nil {
		return fmt.Errorf("failed to init generator: %w", err)
	}

	ctx, cancel := signalContext()
	defer cancel()
	go func() {
		<-ctx.Done()
		sup.Cancel()
	}()

	out, err := gen.Generate(ctx, settings.job(city, viper.GetString("render.country"), req))
	if err != nil {
		if datasource.IsGatewayError(err) {
			return fmt.Errorf("no Overpass endpoint answered the first stage, try again later: %w", err)
		}
		return fmt.Errorf("failed to generate poster: %w", err)
	}

	if out.Skipped {
		logger.Info("Poster already exists; use --force to regenerate", "paths", out.Paths)
		return nil
	}
	if out.Status == pipeline.StatusDegraded {
		logger.Warn("Poster written from major features only; rerun to retry refinement", "paths", out.Paths)
		return nil
	}
	logger.Info("Poster generated", "paths", out.Paths, "session_id", out.Result.SessionID)
	return nil
}
