package datasource

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNoEndpoints is returned when the gateway has no endpoint to talk to.
var ErrNoEndpoints = errors.New("no overpass endpoints configured")

// ProviderError describes one failed request against one endpoint.
type ProviderError struct {
	Endpoint   string
	StatusCode int  // 0 when no HTTP response was received
	Malformed  bool // response was not JSON or lacked a JSON content type
	Err        error
}

func (e *ProviderError) Error() string {
	switch {
	case e.Malformed:
		return fmt.Sprintf("malformed response from %s: %v", e.Endpoint, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("overpass %s returned HTTP %d: %v", e.Endpoint, e.StatusCode, e.Err)
	default:
		return fmt.Sprintf("request to %s failed: %v", e.Endpoint, e.Err)
	}
}

func (e *ProviderError) Unwrap() error { return e.Err }

// IsTransient reports whether the failure is worth retrying: rate limiting,
// gateway errors, network errors and malformed responses.
func (e *ProviderError) IsTransient() bool {
	if e.Malformed || e.StatusCode == 0 {
		return true
	}
	switch e.StatusCode {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// GatewayError is returned by FetchStage once retries are exhausted or a
// non-retryable provider error occurred.
type GatewayError struct {
	Attempts int
	Last     error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("overpass fetch failed after %d attempt(s): %v", e.Attempts, e.Last)
}

func (e *GatewayError) Unwrap() error { return e.Last }
