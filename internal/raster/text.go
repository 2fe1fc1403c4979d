package raster

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// The raster export cannot load web fonts, so label weights map onto the Go
// font family.
var (
	fontOnce  sync.Once
	fontErr   error
	fontFiles = map[int]*opentype.Font{}

	faceMu    sync.Mutex
	faceCache = map[faceKey]font.Face{}
)

type faceKey struct {
	weight int
	size   float64
}

func loadFonts() error {
	fontOnce.Do(func() {
		for weight, ttf := range map[int][]byte{
			400: goregular.TTF,
			500: gomedium.TTF,
			700: gobold.TTF,
		} {
			f, err := opentype.Parse(ttf)
			if err != nil {
				fontErr = fmt.Errorf("failed to parse go font (weight %d): %w", weight, err)
				return
			}
			fontFiles[weight] = f
		}
	})
	return fontErr
}

func fontFace(weight int, size float64) (font.Face, error) {
	if err := loadFonts(); err != nil {
		return nil, err
	}
	switch {
	case weight >= 700:
		weight = 700
	case weight >= 500:
		weight = 500
	default:
		weight = 400
	}

	faceMu.Lock()
	defer faceMu.Unlock()

	key := faceKey{weight, size}
	if face, ok := faceCache[key]; ok {
		return face, nil
	}
	face, err := opentype.NewFace(fontFiles[weight], &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}
	faceCache[key] = face
	return face, nil
}

// textWidth measures text with extra spacing between glyphs, in pixels.
func textWidth(face font.Face, text string, spacing float64) float64 {
	w := 0.0
	n := 0
	for _, r := range text {
		adv, ok := face.GlyphAdvance(r)
		if !ok {
			adv, _ = face.GlyphAdvance('?')
		}
		w += fixedToFloat(adv)
		n++
	}
	if n > 1 {
		w += float64(n-1) * spacing
	}
	return w
}

// drawCentered draws text centred on cx with its baseline at y, inserting
// spacing pixels between glyphs.
func drawCentered(dst *image.NRGBA, face font.Face, text string, cx, y, spacing float64, c color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
	}
	x := cx - textWidth(face, text, spacing)/2
	for _, r := range text {
		d.Dot = fixed.Point26_6{X: floatToFixed(x), Y: floatToFixed(y)}
		d.DrawString(string(r))
		adv, ok := face.GlyphAdvance(r)
		if !ok {
			adv, _ = face.GlyphAdvance('?')
		}
		x += fixedToFloat(adv) + spacing
	}
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

func floatToFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(v * 64)
}
