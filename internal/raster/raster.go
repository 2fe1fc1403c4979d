// Package raster paints a composed poster into a bitmap.
package raster

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"math"

	"golang.org/x/image/vector"

	"github.com/poorfish/maptoposter/internal/poster"
	"github.com/poorfish/maptoposter/internal/renderer"
	"github.com/poorfish/maptoposter/internal/theme"
	"github.com/poorfish/maptoposter/internal/typography"
)

// ErrEmptyPoster is returned for a nil poster or one without layers.
var ErrEmptyPoster = errors.New("poster has no layers")

// Options controls bitmap output.
type Options struct {
	// Scale multiplies poster units into pixels.
	Scale float64
	// Grain is the strength of the paper grain in 8-bit units; 0 disables it.
	Grain float64
	// Seed fixes the grain pattern.
	Seed int64
}

// DefaultOptions returns the settings used for PNG export.
func DefaultOptions() Options {
	return Options{
		Scale: 3,
		Grain: 0,
		Seed:  1,
	}
}

// Render paints p at opts.Scale pixels per poster unit.
func Render(p *poster.Poster, opts Options) (*image.NRGBA, error) {
	if p == nil || p.Layers == nil {
		return nil, ErrEmptyPoster
	}
	if opts.Scale <= 0 {
		opts.Scale = 1
	}

	w := int(math.Round(p.Spec.Width * opts.Scale))
	h := int(math.Round(p.Spec.Height * opts.Scale))
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid canvas %dx%d", w, h)
	}

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	fillRect(img, theme.NRGBA(p.Background(), 1))

	if err := drawLayers(img, p.Layers, opts.Scale); err != nil {
		return nil, err
	}

	for _, f := range p.Fades {
		verticalFade(img, theme.NRGBA(f.Color, 1), f.Y*opts.Scale, f.Height*opts.Scale, f.FromOpacity, f.ToOpacity)
	}

	if err := drawLabel(img, p.Label, p.Spec.Theme.Text, opts.Scale); err != nil {
		return nil, err
	}

	applyGrain(img, opts.Grain, opts.Seed)
	return img, nil
}

// paint identifies primitives that can share one rasterizer pass.
type paint struct {
	colour  string
	opacity float64
}

func paintOf(prim renderer.Primitive) paint {
	if prim.Kind == renderer.KindPolygon {
		return paint{prim.Fill, prim.Opacity}
	}
	return paint{prim.Stroke, prim.Opacity}
}

// drawLayers paints every layer bottom to top. Consecutive primitives with
// the same colour and opacity are accumulated into one coverage pass, so
// overlaps within a run do not darken.
func drawLayers(img *image.NRGBA, layers *renderer.Layers, scale float64) error {
	b := img.Bounds()
	ras := vector.NewRasterizer(b.Dx(), b.Dy())
	ras.DrawOp = draw.Over

	var (
		current paint
		pending bool
	)
	flush := func() {
		if pending && current.colour != "" {
			ras.Draw(img, b, image.NewUniform(theme.NRGBA(current.colour, current.opacity)), image.Point{})
		}
		ras.Reset(b.Dx(), b.Dy())
		ras.DrawOp = draw.Over
		pending = false
	}

	err := layers.Each(func(_ renderer.LayerName, prim renderer.Primitive) error {
		if pt := paintOf(prim); !pending || pt != current {
			flush()
			current = pt
		}
		switch prim.Kind {
		case renderer.KindPolygon:
			addPolygon(ras, prim.Points, scale)
		case renderer.KindPath:
			for _, run := range dashes(prim.Points, prim.Dash) {
				addStroke(ras, run, prim.StrokeWidth, scale)
			}
		default:
			return fmt.Errorf("unknown primitive kind %q", prim.Kind)
		}
		pending = true
		return nil
	})
	if err != nil {
		return err
	}
	flush()
	return nil
}

func drawLabel(img *image.NRGBA, label typography.Layout, colour string, scale float64) error {
	c := theme.NRGBA(colour, 1)

	lines := append([]typography.Line(nil), label.CityLines...)
	lines = append(lines, label.Country, label.Coords)
	for _, line := range lines {
		if line.Text == "" {
			continue
		}
		face, err := fontFace(line.Weight, line.FontSize*scale)
		if err != nil {
			return err
		}
		drawCentered(img, face, line.Text, line.X*scale, line.Y*scale, line.LetterSpacing*scale, c)
	}

	d := label.Divider
	if d.X2 > d.X1 && d.Width > 0 {
		b := img.Bounds()
		ras := vector.NewRasterizer(b.Dx(), b.Dy())
		ras.DrawOp = draw.Over
		half := d.Width * scale / 2
		ras.MoveTo(float32(d.X1*scale), float32(d.Y*scale-half))
		ras.LineTo(float32(d.X2*scale), float32(d.Y*scale-half))
		ras.LineTo(float32(d.X2*scale), float32(d.Y*scale+half))
		ras.LineTo(float32(d.X1*scale), float32(d.Y*scale+half))
		ras.ClosePath()
		ras.Draw(img, b, image.NewUniform(c), image.Point{})
	}
	return nil
}
