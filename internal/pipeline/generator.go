package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/poorfish/maptoposter/internal/export"
	"github.com/poorfish/maptoposter/internal/geojson"
	"github.com/poorfish/maptoposter/internal/poster"
	"github.com/poorfish/maptoposter/internal/theme"
	"github.com/poorfish/maptoposter/internal/types"
)

// Runner runs a fetch session. *Orchestrator and *Supervisor implement it.
type Runner interface {
	Run(ctx context.Context, req Request, onProgress ProgressFunc) (*Result, error)
}

// Job describes one poster to generate.
type Job struct {
	City        string
	Country     string
	Request     Request
	Theme       string
	Aspect      string
	Orientation types.Orientation
	ShortSide   float64
	FontFamily  string
	Formats     []export.Format
	// PreviewMajor writes an SVG of the first-stage data as soon as it
	// arrives.
	PreviewMajor bool
}

// Output lists what Generate wrote.
type Output struct {
	Status  Status
	Paths   []string
	Preview string // first-stage SVG, when requested
	Poster  *poster.Poster
	Result  *Result
	Skipped bool
}

// Generator wires the fetch session, poster composition and export into a
// single step.
type Generator struct {
	runner    Runner
	themes    *theme.Registry
	outputDir string
	opts      export.Options
	force     bool
	logger    *slog.Logger
}

// NewGenerator prepares a generator writing into outputDir. Existing outputs
// are kept unless force is set.
func NewGenerator(runner Runner, themes *theme.Registry, outputDir string, opts export.Options, force bool, logger *slog.Logger) (*Generator, error) {
	if runner == nil {
		return nil, errors.New("runner is required")
	}
	if themes == nil {
		builtin, err := theme.Builtin()
		if err != nil {
			return nil, err
		}
		themes = builtin
	}
	if outputDir == "" {
		outputDir = "."
	}
	return &Generator{
		runner:    runner,
		themes:    themes,
		outputDir: outputDir,
		opts:      opts,
		force:     force,
		logger:    logger,
	}, nil
}

// Generate fetches data for job, composes the poster and writes every
// requested format. A degraded session still writes its outputs; the status
// tells the caller refinement failed.
func (g *Generator) Generate(ctx context.Context, job Job) (*Output, error) {
	th, err := g.themes.Get(job.Theme)
	if err != nil {
		return nil, err
	}
	if job.ShortSide <= 0 {
		job.ShortSide = poster.DefaultShortSide
	}
	spec, err := poster.NewRenderSpec(job.Aspect, job.Orientation, job.ShortSide, th, job.FontFamily)
	if err != nil {
		return nil, err
	}
	if len(job.Formats) == 0 {
		job.Formats = []export.Format{export.FormatSVG}
	}

	exporters := make([]*export.Exporter, 0, len(job.Formats))
	paths := make([]string, 0, len(job.Formats))
	for _, f := range job.Formats {
		e, err := export.NewExporter(f, g.opts)
		if err != nil {
			return nil, err
		}
		exporters = append(exporters, e)
		paths = append(paths, filepath.Join(g.outputDir, export.FileName(job.City, th.ID, f)))
	}

	if !g.force && allExist(paths) {
		g.log().Info("Poster already exists; skipping", "city", job.City, "theme", th.ID)
		return &Output{Paths: paths, Skipped: true}, nil
	}

	if err := os.MkdirAll(g.outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	loc := poster.Location{
		City:    job.City,
		Country: job.Country,
		Center:  types.NewGeoPoint(job.Request.Lat, job.Request.Lon),
	}
	bounds := job.Request.Bounds()
	out := &Output{}

	onProgress := func(e Event) {
		major, ok := e.(MajorStage)
		if !ok || !job.PreviewMajor {
			return
		}
		path, err := g.writePreview(spec, loc, bounds, major.Data, job.City, th.ID)
		if err != nil {
			g.log().Warn("Failed to write first-stage preview", "city", job.City, "error", err)
			return
		}
		out.Preview = path
	}

	g.log().Info("Fetching poster data", "city", job.City, "lat", job.Request.Lat, "lon", job.Request.Lon, "radius", job.Request.Radius)
	res, err := g.runner.Run(ctx, job.Request, onProgress)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch map data: %w", err)
	}
	out.Result = res
	out.Status = res.Status

	if res.Degraded() {
		g.log().Warn("Refinement failed; poster shows major features only", "city", job.City, "error", res.Err)
	}
	if res.Data != nil {
		g.log().Debug("Poster features", "city", job.City, "summary", geojson.LayerSummary(*res.Data))
	}

	p, err := poster.Compose(spec, loc, res.Bounds, res.Data, string(res.Status))
	if err != nil {
		return nil, fmt.Errorf("failed to compose poster: %w", err)
	}
	out.Poster = p

	for i, e := range exporters {
		g.log().Info("Writing poster", "city", job.City, "format", e.Format(), "path", paths[i])
		if err := writeFile(paths[i], func(w io.Writer) error { return e.Export(w, p) }); err != nil {
			return nil, err
		}
		out.Paths = append(out.Paths, paths[i])

		if e.Format() == export.FormatPNG && g.opts.PreviewWidth > 0 {
			thumb := strings.TrimSuffix(paths[i], ".png") + "_thumb.png"
			if err := writeFile(thumb, func(w io.Writer) error { return e.Preview(w, p) }); err != nil {
				return nil, err
			}
			out.Paths = append(out.Paths, thumb)
		}
	}

	return out, nil
}

func (g *Generator) writePreview(spec poster.RenderSpec, loc poster.Location, bounds types.BoundingBox, data *types.FeatureCollection, city, themeID string) (string, error) {
	p, err := poster.Compose(spec, loc, bounds, data, string(EventMajor))
	if err != nil {
		return "", err
	}
	e, err := export.NewExporter(export.FormatSVG, g.opts)
	if err != nil {
		return "", err
	}
	name := strings.TrimSuffix(export.FileName(city, themeID, export.FormatSVG), ".svg") + "_major.svg"
	path := filepath.Join(g.outputDir, name)
	if err := writeFile(path, func(w io.Writer) error { return e.Export(w, p) }); err != nil {
		return "", err
	}
	g.log().Info("Wrote first-stage preview", "city", city, "path", path)
	return path, nil
}

// writeFile writes through fn and removes the file if fn fails.
func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		f.Close()       // nolint:errcheck
		os.Remove(path) // nolint:errcheck // best effort cleanup
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}

func allExist(paths []string) bool {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			return false
		}
	}
	return len(paths) > 0
}

func (g *Generator) log() *slog.Logger {
	if g.logger != nil {
		return g.logger
	}
	return slog.Default()
}
