package datasource

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/poorfish/maptoposter/internal/types"
	"golang.org/x/time/rate"
)

// DefaultEndpoints is the pool of interchangeable public Overpass instances.
var DefaultEndpoints = []string{
	"https://overpass-api.de/api/interpreter",
	"https://overpass.kumi.systems/api/interpreter",
	"https://overpass.private.coffee/api/interpreter",
}

// EndpointHealth is the failure bookkeeping for a single endpoint.
type EndpointHealth struct {
	FailureCount int
	LastFailure  time.Time
	LastSuccess  time.Time
}

// GatewayState is the mutable state shared by every fetch session in a
// process: endpoint health, the request spacing limiter and the stage cache.
// All methods are safe for concurrent use.
type GatewayState struct {
	mu        sync.Mutex
	endpoints []string
	health    map[string]*EndpointHealth
	limiter   *rate.Limiter
	cache     *Cache[*types.FeatureCollection]
	now       func() time.Time
}

// NewGatewayState creates fresh state for the given endpoint pool. A
// non-positive minInterval disables request spacing.
func NewGatewayState(endpoints []string, minInterval, cacheTTL time.Duration) *GatewayState {
	limit := rate.Inf
	if minInterval > 0 {
		limit = rate.Every(minInterval)
	}

	s := &GatewayState{
		endpoints: append([]string(nil), endpoints...),
		health:    make(map[string]*EndpointHealth, len(endpoints)),
		limiter:   rate.NewLimiter(limit, 1),
		cache:     NewCache[*types.FeatureCollection](cacheTTL),
		now:       time.Now,
	}
	for _, ep := range s.endpoints {
		s.health[ep] = &EndpointHealth{}
	}
	return s
}

// Endpoints returns the pool in configured order.
func (s *GatewayState) Endpoints() []string {
	return append([]string(nil), s.endpoints...)
}

// Cache returns the shared stage-result cache.
func (s *GatewayState) Cache() *Cache[*types.FeatureCollection] {
	return s.cache
}

// Wait blocks until the next outbound request is allowed. When ctx's deadline
// falls before the next slot it fails at once with an error wrapping
// context.DeadlineExceeded.
func (s *GatewayState) Wait(ctx context.Context) error {
	if err := s.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
	}
	return nil
}

// SelectEndpoint picks the endpoint with the fewest recorded failures. Ties go
// to the endpoint whose last failure is oldest (never failed counts as
// oldest), then to pool order.
func (s *GatewayState) SelectEndpoint() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.endpoints) == 0 {
		return "", ErrNoEndpoints
	}

	best := s.endpoints[0]
	for _, ep := range s.endpoints[1:] {
		cur, cand := s.health[best], s.health[ep]
		switch {
		case cand.FailureCount < cur.FailureCount:
			best = ep
		case cand.FailureCount == cur.FailureCount && cand.LastFailure.Before(cur.LastFailure):
			best = ep
		}
	}
	return best, nil
}

// RecordFailure increments the endpoint's failure count.
func (s *GatewayState) RecordFailure(endpoint string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := s.entry(endpoint)
	h.FailureCount++
	h.LastFailure = s.now()
	endpointFailures.WithLabelValues(endpoint).Set(float64(h.FailureCount))
}

// RecordSuccess resets the endpoint's failure count.
func (s *GatewayState) RecordSuccess(endpoint string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := s.entry(endpoint)
	h.FailureCount = 0
	h.LastSuccess = s.now()
	endpointFailures.WithLabelValues(endpoint).Set(0)
}

// Health returns a snapshot of the endpoint's bookkeeping.
func (s *GatewayState) Health(endpoint string) EndpointHealth {
	s.mu.Lock()
	defer s.mu.Unlock()

	if h, ok := s.health[endpoint]; ok {
		return *h
	}
	return EndpointHealth{}
}

func (s *GatewayState) entry(endpoint string) *EndpointHealth {
	h, ok := s.health[endpoint]
	if !ok {
		h = &EndpointHealth{}
		s.health[endpoint] = h
	}
	return h
}
