package datasource

import (
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"
)

// overpassFixture is a minimal Overpass API response: a motorway, a park and a
// water relation whose outer member way is included via way(r).
const overpassFixture = `{
  "version": 0.6,
  "generator": "Overpass API 0.7.62",
  "osm3s": {
    "timestamp_osm_base": "2024-05-01T12:00:00Z",
    "copyright": "The data included in this document is from www.openstreetmap.org."
  },
  "elements": [
    {
      "type": "way",
      "id": 200,
      "nodes": [1, 2, 3],
      "geometry": [
        {"lat": 51.500, "lon": -0.100},
        {"lat": 51.505, "lon": -0.090},
        {"lat": 51.510, "lon": -0.080}
      ],
      "tags": {"highway": "motorway", "name": "A1"}
    },
    {
      "type": "way",
      "id": 100,
      "nodes": [4, 5, 6, 4],
      "geometry": [
        {"lat": 51.501, "lon": -0.095},
        {"lat": 51.502, "lon": -0.095},
        {"lat": 51.502, "lon": -0.094},
        {"lat": 51.501, "lon": -0.095}
      ],
      "tags": {"leisure": "park"}
    },
    {
      "type": "way",
      "id": 300,
      "nodes": [7, 8, 9, 7],
      "geometry": [
        {"lat": 51.490, "lon": -0.110},
        {"lat": 51.491, "lon": -0.110},
        {"lat": 51.491, "lon": -0.109},
        {"lat": 51.490, "lon": -0.110}
      ]
    },
    {
      "type": "relation",
      "id": 900,
      "members": [
        {"type": "way", "ref": 300, "role": "outer"}
      ],
      "tags": {"type": "multipolygon", "natural": "water"}
    }
  ]
}`

// overpassServer counts requests and answers each with the next scripted
// handler; the last handler repeats.
type overpassServer struct {
	*httptest.Server
	calls atomic.Int32
}

func newOverpassServer(t *testing.T, handlers ...http.HandlerFunc) *overpassServer {
	t.Helper()

	s := &overpassServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(s.calls.Add(1)) - 1
		if n >= len(handlers) {
			n = len(handlers) - 1
		}
		handlers[n](w, r)
	}))
	t.Cleanup(s.Close)
	return s
}

func respondJSON(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func respondStatus(code int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(code)
		_, _ = w.Write([]byte("<html><body>busy</body></html>"))
	}
}

// testGatewayConfig keeps backoff and spacing tiny so tests stay fast.
func testGatewayConfig(endpoints ...string) GatewayConfig {
	cfg := DefaultGatewayConfig()
	cfg.Endpoints = endpoints
	cfg.InitialBackoff = time.Millisecond
	cfg.MinRequestInterval = 0
	cfg.RequestTimeout = 5 * time.Second
	return cfg
}

func requireIntegration(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	if os.Getenv("MAPTOPOSTER_INTEGRATION") != "1" {
		t.Skip("Skipping integration test (set MAPTOPOSTER_INTEGRATION=1 to run)")
	}
}
