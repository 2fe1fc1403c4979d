package cmd

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poorfish/maptoposter/internal/export"
	"github.com/poorfish/maptoposter/internal/pipeline"
	"github.com/poorfish/maptoposter/internal/theme"
	"github.com/poorfish/maptoposter/internal/types"
)

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     pipeline.Request
		wantErr bool
	}{
		{"valid", pipeline.Request{Lat: 48.85, Lon: 2.35, Radius: 5000}, false},
		{"min radius", pipeline.Request{Lat: 0, Lon: 0, Radius: 2000}, false},
		{"max radius", pipeline.Request{Lat: 0, Lon: 0, Radius: 30000}, false},
		{"radius too small", pipeline.Request{Lat: 0, Lon: 0, Radius: 1999}, true},
		{"radius too large", pipeline.Request{Lat: 0, Lon: 0, Radius: 30001}, true},
		{"latitude out of range", pipeline.Request{Lat: 91, Lon: 0, Radius: 5000}, true},
		{"longitude out of range", pipeline.Request{Lat: 0, Lon: -181, Radius: 5000}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateRequest(tt.req)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func writeBatchFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "posters.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadBatchFile(t *testing.T) {
	path := writeBatchFile(t, `
posters:
  - city: Paris
    country: France
    lat: 48.8566
    lon: 2.3522
    theme: warm_beige
  - city: Tokyo
    lat: 35.6762
    lon: 139.6503
    radius: 12000
    orientation: landscape
`)

	entries, err := loadBatchFile(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, batchEntry{City: "Paris", Country: "France", Lat: 48.8566, Lon: 2.3522, Theme: "warm_beige"}, entries[0])
	assert.Equal(t, 12000.0, entries[1].Radius)
	assert.Equal(t, "landscape", entries[1].Orientation)

	_, err = loadBatchFile(writeBatchFile(t, "posters: []\n"))
	assert.Error(t, err)

	_, err = loadBatchFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestBatchTasks(t *testing.T) {
	settings := posterSettings{
		Theme:       "noir",
		Aspect:      "3:4",
		Orientation: types.Portrait,
		Font:        "Roboto",
		Formats:     []export.Format{export.FormatSVG},
	}

	entries := []batchEntry{
		{City: "Paris", Lat: 48.8566, Lon: 2.3522, Theme: "warm_beige"},
		{City: "Tokyo", Lat: 35.6762, Lon: 139.6503, Radius: 12000, Orientation: "landscape"},
	}
	tasks, err := batchTasks(entries, settings, 5000)
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	assert.Equal(t, "warm_beige", tasks[0].Job.Theme)
	assert.Equal(t, 5000.0, tasks[0].Job.Request.Radius)
	assert.Equal(t, types.Portrait, tasks[0].Job.Orientation)
	assert.Equal(t, "noir", tasks[1].Job.Theme)
	assert.Equal(t, 12000.0, tasks[1].Job.Request.Radius)
	assert.Equal(t, types.Landscape, tasks[1].Job.Orientation)

	_, err = batchTasks([]batchEntry{
		{Lat: 1, Lon: 1},
		{City: "Nowhere", Lat: 100, Lon: 0},
		{City: "Sideways", Lat: 0, Lon: 0, Orientation: "diagonal"},
	}, settings, 5000)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entry 1: city is required")
	assert.Contains(t, err.Error(), "entry 2 (Nowhere)")
	assert.Contains(t, err.Error(), "entry 3 (Sideways)")
}

func TestPrintThemes(t *testing.T) {
	registry, err := theme.Builtin()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, printThemes(&buf, registry.All()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, len(registry.IDs()))
	assert.Contains(t, buf.String(), "noir")
	assert.Contains(t, buf.String(), "Pure black background with white roads")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("bogus"))
}

func TestMetricsMux(t *testing.T) {
	srv := httptest.NewServer(metricsMux())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
