// Package pipeline drives the progressive fetch of map data and turns the
// result into finished posters.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/poorfish/maptoposter/internal/classify"
	"github.com/poorfish/maptoposter/internal/datasource"
	"github.com/poorfish/maptoposter/internal/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("github.com/poorfish/maptoposter/internal/pipeline")

// Fetcher runs one stage query. *datasource.Gateway implements it.
type Fetcher interface {
	FetchStage(ctx context.Context, query string) ([]datasource.Element, error)
}

// Request is the centre and radius of a poster.
type Request struct {
	Lat    float64
	Lon    float64
	Radius float64 // meters
}

// Validate checks coordinate ranges and radius.
func (r Request) Validate() error {
	if r.Lat < -90 || r.Lat > 90 {
		return fmt.Errorf("latitude %.6f out of range [-90, 90]", r.Lat)
	}
	if r.Lon < -180 || r.Lon > 180 {
		return fmt.Errorf("longitude %.6f out of range [-180, 180]", r.Lon)
	}
	if r.Radius <= 0 {
		return fmt.Errorf("radius must be positive, got %g", r.Radius)
	}
	return nil
}

// Bounds returns the framing box of the request.
func (r Request) Bounds() types.BoundingBox {
	return types.RequestBounds(r.Lat, r.Lon, r.Radius)
}

// Status is the terminal state of a successful session.
type Status string

const (
	StatusComplete Status = "complete"
	StatusDegraded Status = "degraded"
)

// Result is the outcome of a session that produced at least coarse data.
type Result struct {
	SessionID string
	Request   Request
	Bounds    types.BoundingBox
	Data      *types.FeatureCollection // final data; equals Major when degraded
	Major     *types.FeatureCollection // nil when served from the complete cache
	Status    Status
	Cached    bool
	Err       error // *StageRefinementError when degraded
}

// Degraded reports whether refinement failed.
func (r *Result) Degraded() bool {
	return r.Status == StatusDegraded
}

// Config configures an Orchestrator.
type Config struct {
	// CourtesyDelay separates the two stages.
	CourtesyDelay time.Duration
	// AggressiveThreshold is the first-stage element count above which the
	// refinement query is narrowed.
	AggressiveThreshold int
	Classifier          *classify.Classifier
	Logger              *slog.Logger
	// Sleep waits between stages; tests replace it.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultConfig returns the default staging profile.
func DefaultConfig() Config {
	return Config{
		CourtesyDelay:       time.Second,
		AggressiveThreshold: 8000,
		Classifier:          classify.New(classify.DefaultConfig()),
		Logger:              slog.Default(),
		Sleep:               sleepContext,
	}
}

// Orchestrator sequences the coarse and refinement stages of a fetch
// session, caching both results.
type Orchestrator struct {
	fetcher Fetcher
	cache   *datasource.Cache[*types.FeatureCollection]
	config  Config
	logger  *slog.Logger
}

// NewOrchestrator creates an orchestrator. cache is usually the gateway
// state's cache so every session in the process shares it.
func NewOrchestrator(fetcher Fetcher, cache *datasource.Cache[*types.FeatureCollection], config Config) *Orchestrator {
	defaults := DefaultConfig()
	if config.AggressiveThreshold <= 0 {
		config.AggressiveThreshold = defaults.AggressiveThreshold
	}
	if config.Classifier == nil {
		config.Classifier = defaults.Classifier
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Sleep == nil {
		config.Sleep = sleepContext
	}
	if cache == nil {
		cache = datasource.NewCache[*types.FeatureCollection](datasource.DefaultCacheTTL)
	}

	return &Orchestrator{
		fetcher: fetcher,
		cache:   cache,
		config:  config,
		logger:  config.Logger,
	}
}

// Run executes one session. A first-stage failure is returned as the error.
// A refinement failure is not: the session ends degraded, reporting the
// first-stage data through a DegradedStage event and Result.Err.
//
// When the context is cancelled the session stops, emits nothing further and
// writes nothing to the cache.
func (o *Orchestrator) Run(ctx context.Context, req Request, onProgress ProgressFunc) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if onProgress == nil {
		onProgress = func(Event) {}
	}

	sessionID := uuid.NewString()
	logger := o.logger.With("session_id", sessionID)

	ctx, span := tracer.Start(ctx, "pipeline.session")
	defer span.End()
	span.SetAttributes(
		attribute.String("session_id", sessionID),
		attribute.Float64("lat", req.Lat),
		attribute.Float64("lon", req.Lon),
		attribute.Float64("radius", req.Radius),
	)

	res := &Result{
		SessionID: sessionID,
		Request:   req,
		Bounds:    req.Bounds(),
	}

	completeKey := datasource.NewCacheKey(req.Lat, req.Lon, req.Radius, datasource.StageComplete)
	if data, ok := o.cache.Get(completeKey); ok {
		logger.Info("Serving complete result from cache", "key", completeKey.String())
		res.Data = data
		res.Status = StatusComplete
		res.Cached = true
		onProgress(CompleteStage{Data: data, Cached: true})
		sessionsTotal.WithLabelValues("cached").Inc()
		return res, nil
	}

	major, majorCount, err := o.majorStage(ctx, req, logger)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		sessionsTotal.WithLabelValues(failureLabel(ctx)).Inc()
		return nil, err
	}
	res.Major = major
	onProgress(MajorStage{Data: major})

	if err := o.config.Sleep(ctx, o.config.CourtesyDelay); err != nil {
		sessionsTotal.WithLabelValues(failureLabel(ctx)).Inc()
		return nil, err
	}

	aggressive := majorCount > o.config.AggressiveThreshold
	refined, err := o.refinementStage(ctx, req, aggressive, logger)
	if err != nil {
		if ctx.Err() != nil {
			sessionsTotal.WithLabelValues(failureLabel(ctx)).Inc()
			return nil, ctx.Err()
		}

		refErr := &StageRefinementError{Aggressive: aggressive, Err: err}
		logger.Warn("Refinement stage failed; keeping major roads only", "error", err)
		span.RecordError(refErr)

		res.Data = major
		res.Status = StatusDegraded
		res.Err = refErr
		onProgress(DegradedStage{Data: major, Err: refErr})
		sessionsTotal.WithLabelValues(string(StatusDegraded)).Inc()
		return res, nil
	}

	merged := mergeStages(major, refined, logger)
	if err := ctx.Err(); err != nil {
		sessionsTotal.WithLabelValues(failureLabel(ctx)).Inc()
		return nil, err
	}
	o.cache.Put(completeKey, merged)

	res.Data = merged
	res.Status = StatusComplete
	onProgress(CompleteStage{Data: merged})
	sessionsTotal.WithLabelValues(string(StatusComplete)).Inc()

	logger.Info("Fetch session complete",
		"roads", len(merged.Roads),
		"water", len(merged.Water),
		"parks", len(merged.Parks),
		"rails", len(merged.Rails),
		"buildings", len(merged.Buildings))
	return res, nil
}

// majorStage returns the coarse data and the element count that drives the
// aggressive-mode decision. A cached major result skips the network; its
// feature count stands in for the raw element count.
func (o *Orchestrator) majorStage(ctx context.Context, req Request, logger *slog.Logger) (*types.FeatureCollection, int, error) {
	key := datasource.NewCacheKey(req.Lat, req.Lon, req.Radius, datasource.StageMajor)
	if data, ok := o.cache.Get(key); ok {
		logger.Info("Serving major stage from cache", "key", key.String())
		return data, data.Count(), nil
	}

	ctx, span := tracer.Start(ctx, "pipeline.stage")
	defer span.End()
	span.SetAttributes(attribute.String("stage", string(EventMajor)))

	start := time.Now()
	elements, err := o.fetcher.FetchStage(ctx, datasource.MajorQuery(req.Lat, req.Lon, req.Radius))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if ctx.Err() != nil {
			return nil, 0, ctx.Err()
		}
		return nil, 0, fmt.Errorf("major stage: %w", err)
	}

	data, _ := o.config.Classifier.Classify(elements)
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	o.cache.Put(key, data)

	logger.Info("Major stage fetched",
		"element_count", len(elements),
		"feature_count", data.Count(),
		"duration_ms", time.Since(start).Milliseconds())
	return data, len(elements), nil
}

func (o *Orchestrator) refinementStage(ctx context.Context, req Request, aggressive bool, logger *slog.Logger) (*types.FeatureCollection, error) {
	ctx, span := tracer.Start(ctx, "pipeline.stage")
	defer span.End()
	span.SetAttributes(
		attribute.String("stage", string(EventComplete)),
		attribute.Bool("aggressive", aggressive),
	)

	if aggressive {
		logger.Info("Dense area: narrowing refinement query")
	}

	start := time.Now()
	elements, err := o.fetcher.FetchStage(ctx, datasource.RefinementQuery(req.Lat, req.Lon, req.Radius, aggressive))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	data, _ := o.config.Classifier.Classify(elements)
	logger.Info("Refinement stage fetched",
		"element_count", len(elements),
		"feature_count", data.Count(),
		"aggressive", aggressive,
		"duration_ms", time.Since(start).Milliseconds())
	return data, nil
}

// mergeStages appends refined roads to the major roads and takes rail and
// buildings from the refinement. Water and parks are final after the major
// stage; refined water and parks are discarded.
func mergeStages(major, refined *types.FeatureCollection, logger *slog.Logger) *types.FeatureCollection {
	merged := major.Clone()
	merged.Roads = append(merged.Roads, refined.Roads...)
	merged.Rails = append(merged.Rails, refined.Rails...)
	merged.Buildings = append(merged.Buildings, refined.Buildings...)

	if len(refined.Water) > 0 || len(refined.Parks) > 0 {
		logger.Debug("Discarding refined water and parks",
			"water", len(refined.Water),
			"parks", len(refined.Parks))
	}
	return merged
}

func failureLabel(ctx context.Context) string {
	if errors.Is(ctx.Err(), context.Canceled) {
		return "cancelled"
	}
	return "failed"
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
