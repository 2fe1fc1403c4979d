package datasource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/MeKo-Christian/go-overpass"
	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("github.com/poorfish/maptoposter/internal/datasource")

// GatewayConfig configures a Gateway.
type GatewayConfig struct {
	Endpoints          []string
	MaxRetries         int           // total attempts per stage
	InitialBackoff     time.Duration // sleep after the first failed attempt
	BackoffMultiplier  float64
	MinRequestInterval time.Duration // spacing between any two outbound requests
	CacheTTL           time.Duration
	RequestTimeout     time.Duration // per attempt; 0 leaves it to the query's server-side timeout
	HTTPClient         *http.Client
	Logger             *slog.Logger
}

// DefaultGatewayConfig returns the public-instance defaults.
func DefaultGatewayConfig() GatewayConfig {
	return GatewayConfig{
		Endpoints:          append([]string(nil), DefaultEndpoints...),
		MaxRetries:         3,
		InitialBackoff:     2 * time.Second,
		BackoffMultiplier:  1.5,
		MinRequestInterval: time.Second,
		CacheTTL:           DefaultCacheTTL,
		RequestTimeout:     90 * time.Second,
		HTTPClient:         http.DefaultClient,
		Logger:             slog.Default(),
	}
}

// Gateway issues stage queries against the endpoint pool with health-ranked
// selection, retry with exponential backoff and global request spacing.
type Gateway struct {
	config GatewayConfig
	state  *GatewayState
	logger *slog.Logger
}

// NewGateway creates a gateway. When state is nil a fresh GatewayState is
// built from the config; pass a shared state to pool health, spacing and
// cache across gateways.
func NewGateway(config GatewayConfig, state *GatewayState) *Gateway {
	defaults := DefaultGatewayConfig()
	if config.MaxRetries <= 0 {
		config.MaxRetries = defaults.MaxRetries
	}
	if config.BackoffMultiplier < 1 {
		config.BackoffMultiplier = defaults.BackoffMultiplier
	}
	if config.HTTPClient == nil {
		config.HTTPClient = defaults.HTTPClient
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if state == nil {
		state = NewGatewayState(config.Endpoints, config.MinRequestInterval, config.CacheTTL)
	}

	return &Gateway{
		config: config,
		state:  state,
		logger: config.Logger,
	}
}

// State returns the gateway's shared state.
func (g *Gateway) State() *GatewayState {
	return g.state
}

// FetchStage runs query against the healthiest endpoint, retrying transient
// failures up to MaxRetries attempts in total. Every attempt re-selects the
// endpoint, so a failing endpoint is rotated out. Exhausted retries yield a
// *GatewayError wrapping the last *ProviderError.
func (g *Gateway) FetchStage(ctx context.Context, query string) ([]Element, error) {
	ctx, span := tracer.Start(ctx, "gateway.fetch_stage")
	defer span.End()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = g.config.InitialBackoff
	b.Multiplier = g.config.BackoffMultiplier
	b.RandomizationFactor = 0
	b.MaxInterval = time.Minute
	b.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(g.config.MaxRetries-1)), ctx)

	var (
		elements []Element
		attempts int
	)

	op := func() error {
		attempts++
		els, err := g.attempt(ctx, query, attempts)
		if err != nil {
			return err
		}
		elements = els
		return nil
	}

	notify := func(err error, wait time.Duration) {
		g.logger.Warn("Overpass attempt failed, backing off",
			"attempt", attempts,
			"max_attempts", g.config.MaxRetries,
			"backoff_ms", wait.Milliseconds(),
			"error", err)
	}

	err := backoff.RetryNotify(op, policy, notify)
	span.SetAttributes(attribute.Int("attempts", attempts))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		// Spacing refused before the deadline: the caller ran out of time,
		// no provider failed.
		var pErr *ProviderError
		if !errors.As(err, &pErr) && errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, &GatewayError{Attempts: attempts, Last: err}
	}

	span.SetAttributes(attribute.Int("element_count", len(elements)))
	return elements, nil
}

// attempt performs one request. Errors that must not be retried are wrapped
// with backoff.Permanent.
func (g *Gateway) attempt(ctx context.Context, query string, n int) ([]Element, error) {
	if err := g.state.Wait(ctx); err != nil {
		return nil, backoff.Permanent(err)
	}

	endpoint, err := g.state.SelectEndpoint()
	if err != nil {
		return nil, backoff.Permanent(err)
	}

	reqCtx := ctx
	if g.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, g.config.RequestTimeout)
		defer cancel()
	}

	rec := &recordingTransport{base: g.config.HTTPClient.Transport}
	if rec.base == nil {
		rec.base = http.DefaultTransport
	}
	// One attempt is one request: the client's own retry loop would bypass
	// the shared spacing and the endpoint health bookkeeping.
	client := overpass.NewWithRetry(endpoint, 1, &http.Client{Transport: rec}, overpass.RetryConfig{})
	defer client.Close()

	g.logger.Debug("Querying Overpass", "endpoint", endpoint, "attempt", n)
	start := time.Now()
	result, qerr := client.QueryContext(reqCtx, query)
	elapsed := time.Since(start)
	gatewayRequestDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())

	if ctx.Err() != nil {
		gatewayRequests.WithLabelValues(endpoint, "cancelled").Inc()
		return nil, backoff.Permanent(ctx.Err())
	}

	status, contentType := rec.response()
	perr := classifyResponse(endpoint, status, contentType, qerr)
	if perr == nil {
		g.state.RecordSuccess(endpoint)
		gatewayRequests.WithLabelValues(endpoint, "success").Inc()
		elements := ElementsFromResult(&result)
		g.logger.Debug("Overpass query succeeded",
			"endpoint", endpoint,
			"attempt", n,
			"duration_ms", elapsed.Milliseconds(),
			"element_count", len(elements))
		return elements, nil
	}

	// A rejected query says nothing about the endpoint's health.
	if status != http.StatusBadRequest {
		g.state.RecordFailure(endpoint)
	}
	gatewayRequests.WithLabelValues(endpoint, outcomeLabel(perr)).Inc()

	if !perr.IsTransient() {
		return nil, backoff.Permanent(perr)
	}
	return nil, perr
}

// classifyResponse turns the outcome of one request into a *ProviderError,
// or nil on success. A successful parse without a JSON content type still
// counts as malformed.
func classifyResponse(endpoint string, status int, contentType string, qerr error) *ProviderError {
	if qerr == nil && status != 0 && status != http.StatusOK {
		qerr = errors.New(http.StatusText(status))
	}

	switch {
	case qerr == nil && isJSONContentType(contentType):
		return nil
	case qerr == nil:
		return &ProviderError{
			Endpoint:   endpoint,
			StatusCode: status,
			Malformed:  true,
			Err:        fmt.Errorf("unexpected content type %q", contentType),
		}
	case status == 0:
		return &ProviderError{Endpoint: endpoint, Err: qerr}
	case status == http.StatusOK:
		return &ProviderError{Endpoint: endpoint, StatusCode: status, Malformed: true, Err: qerr}
	default:
		return &ProviderError{Endpoint: endpoint, StatusCode: status, Err: qerr}
	}
}

func isJSONContentType(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "json")
}

func outcomeLabel(err *ProviderError) string {
	switch {
	case err.Malformed:
		return "malformed"
	case err.StatusCode == 0:
		return "network_error"
	case err.StatusCode == http.StatusTooManyRequests:
		return "rate_limited"
	default:
		return fmt.Sprintf("http_%d", err.StatusCode)
	}
}

// recordingTransport records the response status and content type, which the
// overpass client does not expose.
type recordingTransport struct {
	base http.RoundTripper

	mu          sync.Mutex
	status      int
	contentType string
}

func (t *recordingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	t.status = resp.StatusCode
	t.contentType = resp.Header.Get("Content-Type")
	t.mu.Unlock()

	return resp, nil
}

func (t *recordingTransport) response() (int, string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status, t.contentType
}

// IsGatewayError reports whether err is, or wraps, a *GatewayError.
func IsGatewayError(err error) bool {
	var ge *GatewayError
	return errors.As(err, &ge)
}
