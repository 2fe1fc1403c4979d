// Package export writes composed posters as SVG, PNG or GeoJSON.
package export

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/poorfish/maptoposter/internal/poster"
	"github.com/poorfish/maptoposter/internal/raster"
)

// Format is an output encoding.
type Format string

const (
	FormatSVG     Format = "svg"
	FormatPNG     Format = "png"
	FormatGeoJSON Format = "geojson"
)

// Formats lists the supported formats.
var Formats = []Format{FormatSVG, FormatPNG, FormatGeoJSON}

// ParseFormat accepts a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// ParseFormats parses a comma separated list, dropping duplicates.
func ParseFormats(s string) ([]Format, error) {
	var out []Format
	seen := map[Format]bool{}
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		f, err := ParseFormat(part)
		if err != nil {
			return nil, err
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return nil, errors.New("no export format given")
	}
	return out, nil
}

// Extension returns the file extension, without the dot.
func (f Format) Extension() string {
	return string(f)
}

// ErrNoPoster means there is nothing drawable yet, typically because no fetch
// stage has completed.
var ErrNoPoster = errors.New("no drawable poster")

// ExportError wraps a failed export.
type ExportError struct {
	Format Format
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export %s: %v", e.Format, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// Options controls export output.
type Options struct {
	// Scale is the PNG pixels per poster unit.
	Scale float64
	// PreviewWidth is the width of PNG thumbnails written by Preview.
	PreviewWidth int
	// Grain adds paper grain to PNG output; 0 disables it.
	Grain float64
	// Seed fixes the grain pattern.
	Seed int64
}

// DefaultOptions returns 3x PNG output with 400px previews and no grain.
func DefaultOptions() Options {
	return Options{
		Scale:        3,
		PreviewWidth: 400,
		Seed:         1,
	}
}

func (o Options) raster() raster.Options {
	return raster.Options{Scale: o.Scale, Grain: o.Grain, Seed: o.Seed}
}

// Exporter encodes posters in one format.
type Exporter struct {
	format Format
	opts   Options
}

// NewExporter returns an exporter for format. A non-positive scale falls back
// to the default.
func NewExporter(format Format, opts Options) (*Exporter, error) {
	if _, err := ParseFormat(string(format)); err != nil {
		return nil, err
	}
	if opts.Scale <= 0 {
		opts.Scale = DefaultOptions().Scale
	}
	return &Exporter{format: format, opts: opts}, nil
}

// Format returns the exporter's format.
func (e *Exporter) Format() Format {
	return e.format
}

// Export writes p to w.
func (e *Exporter) Export(w io.Writer, p *poster.Poster) error {
	if p == nil || p.Layers == nil {
		return &ExportError{Format: e.format, Err: ErrNoPoster}
	}

	var err error
	switch e.format {
	case FormatSVG:
		err = writeSVG(w, p)
	case FormatPNG:
		err = writePNG(w, p, e.opts.raster(), 0)
	case FormatGeoJSON:
		err = writeGeoJSON(w, p)
	}
	if err != nil {
		return &ExportError{Format: e.format, Err: err}
	}
	return nil
}

// Preview writes a PNG thumbnail of p, PreviewWidth pixels wide.
func (e *Exporter) Preview(w io.Writer, p *poster.Poster) error {
	if p == nil || p.Layers == nil {
		return &ExportError{Format: FormatPNG, Err: ErrNoPoster}
	}
	opts := e.opts.raster()
	opts.Scale = 1
	if err := writePNG(w, p, opts, e.opts.PreviewWidth); err != nil {
		return &ExportError{Format: FormatPNG, Err: err}
	}
	return nil
}

// FileName returns "<city>_<theme>.<ext>" with the city lowercased and
// reduced to letters, digits and underscores.
func FileName(city, themeID string, f Format) string {
	return fmt.Sprintf("%s_%s.%s", slug(city), themeID, f.Extension())
}

func slug(s string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r > 127 && !strings.ContainsRune("/\\:*?\"<>|", r):
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	out := strings.TrimSuffix(b.String(), "_")
	if out == "" {
		return "poster"
	}
	return out
}
