// Package bridge serves the browser build: the page fetches Overpass data
// itself and hands the raw responses over for classification, layout and
// SVG rendering.
package bridge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poorfish/maptoposter/internal/datasource"
	"github.com/poorfish/maptoposter/internal/export"
	"github.com/poorfish/maptoposter/internal/pipeline"
	"github.com/poorfish/maptoposter/internal/poster"
	"github.com/poorfish/maptoposter/internal/theme"
	"github.com/poorfish/maptoposter/internal/types"
	"github.com/poorfish/maptoposter/internal/typography"
)

// ErrNoRefinement is reported as the refinement failure when the page has
// no second-stage response.
var ErrNoRefinement = errors.New("no refinement response supplied")

// QueryRequest asks for the stage queries of a location.
type QueryRequest struct {
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Radius float64 `json:"radius"`
	// MajorElements is the first-stage element count, used to pick the
	// refinement profile. Zero yields the full profile.
	MajorElements int `json:"major_elements"`
}

// QueryResponse holds Overpass QL for both stages.
type QueryResponse struct {
	Major      string `json:"major"`
	Refinement string `json:"refinement"`
	Aggressive bool   `json:"aggressive"`
}

// Queries returns the stage queries the page should POST to Overpass.
func Queries(req QueryRequest) (QueryResponse, error) {
	r := pipeline.Request{Lat: req.Lat, Lon: req.Lon, Radius: req.Radius}
	if err := r.Validate(); err != nil {
		return QueryResponse{}, err
	}
	aggressive := req.MajorElements > pipeline.DefaultConfig().AggressiveThreshold
	return QueryResponse{
		Major:      datasource.MajorQuery(req.Lat, req.Lon, req.Radius),
		Refinement: datasource.RefinementQuery(req.Lat, req.Lon, req.Radius, aggressive),
		Aggressive: aggressive,
	}, nil
}

// RenderRequest carries raw Overpass responses and the poster settings.
type RenderRequest struct {
	City        string  `json:"city"`
	Country     string  `json:"country"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Radius      float64 `json:"radius"`
	Theme       string  `json:"theme"`
	Aspect      string  `json:"aspect"`
	Orientation string  `json:"orientation"`
	Font        string  `json:"font"`
	// Major is the first-stage Overpass JSON; required.
	Major string `json:"major"`
	// Refinement is the second-stage Overpass JSON; empty renders a
	// degraded poster.
	Refinement string `json:"refinement"`
}

// RenderResponse is the rendered poster.
type RenderResponse struct {
	SVG    string            `json:"svg"`
	Status string            `json:"status"`
	Error  string            `json:"error,omitempty"` // refinement failure when degraded
	Counts map[string]int    `json:"counts"`
	Label  typography.Layout `json:"label"`
}

// payloadFetcher answers stage queries from responses the page already has.
type payloadFetcher struct {
	majorQuery string
	major      []datasource.Element
	refinement []datasource.Element
	refineErr  error
}

func (f *payloadFetcher) FetchStage(_ context.Context, query string) ([]datasource.Element, error) {
	if query == f.majorQuery {
		return f.major, nil
	}
	return f.refinement, f.refineErr
}

func noSleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

// Render classifies the supplied responses, merges the stages and renders
// an SVG poster.
func Render(ctx context.Context, req RenderRequest, logger *slog.Logger) (*RenderResponse, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if req.Major == "" {
		return nil, &export.ExportError{Format: export.FormatSVG, Err: export.ErrNoPoster}
	}

	fetchReq := pipeline.Request{Lat: req.Lat, Lon: req.Lon, Radius: req.Radius}
	if err := fetchReq.Validate(); err != nil {
		return nil, err
	}

	major, err := datasource.DecodeOverpassJSON([]byte(req.Major))
	if err != nil {
		return nil, fmt.Errorf("major stage: %w", err)
	}
	fetcher := &payloadFetcher{
		majorQuery: datasource.MajorQuery(req.Lat, req.Lon, req.Radius),
		major:      major,
		refineErr:  ErrNoRefinement,
	}
	if req.Refinement != "" {
		fetcher.refinement, fetcher.refineErr = datasource.DecodeOverpassJSON([]byte(req.Refinement))
	}

	spec, err := renderSpec(req)
	if err != nil {
		return nil, err
	}

	cfg := pipeline.DefaultConfig()
	cfg.Sleep = noSleep
	cfg.Logger = logger
	// Each render gets its own cache: the payloads, not the location,
	// determine the result.
	orch := pipeline.NewOrchestrator(fetcher, datasource.NewCache[*types.FeatureCollection](time.Minute), cfg)
	res, err := orch.Run(ctx, fetchReq, nil)
	if err != nil {
		return nil, err
	}

	loc := poster.Location{City: req.City, Country: req.Country, Center: types.NewGeoPoint(req.Lat, req.Lon)}
	p, err := poster.Compose(spec, loc, res.Bounds, res.Data, string(res.Status))
	if err != nil {
		return nil, err
	}

	e, err := export.NewExporter(export.FormatSVG, export.DefaultOptions())
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := e.Export(&buf, p); err != nil {
		return nil, err
	}

	out := &RenderResponse{
		SVG:    buf.String(),
		Status: string(res.Status),
		Counts: res.Data.FeatureCounts(),
		Label:  p.Label,
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	return out, nil
}

func renderSpec(req RenderRequest) (poster.RenderSpec, error) {
	themeID := req.Theme
	if themeID == "" {
		themeID = theme.DefaultName
	}
	th, err := theme.Get(themeID)
	if err != nil {
		return poster.RenderSpec{}, err
	}
	aspect := req.Aspect
	if aspect == "" {
		aspect = "3:4"
	}
	orientation := types.Portrait
	if req.Orientation != "" {
		if orientation, err = types.ParseOrientation(req.Orientation); err != nil {
			return poster.RenderSpec{}, err
		}
	}
	font := req.Font
	if font == "" {
		font = "Roboto"
	}
	return poster.NewRenderSpec(aspect, orientation, poster.DefaultShortSide, th, font)
}

// ThemeInfo describes a theme for the settings UI.
type ThemeInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Background  string `json:"bg"`
	Text        string `json:"text"`
}

// Themes lists the built-in themes.
func Themes() ([]ThemeInfo, error) {
	registry, err := theme.Builtin()
	if err != nil {
		return nil, err
	}
	var out []ThemeInfo
	for _, t := range registry.All() {
		out = append(out, ThemeInfo{ID: t.ID, Name: t.Name, Description: t.Description, Background: t.Background, Text: t.Text})
	}
	return out, nil
}
