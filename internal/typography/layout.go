// Package typography lays out the poster's label block: city name, divider,
// country and coordinates, stacked upward from the bottom of the canvas.
package typography

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"github.com/poorfish/maptoposter/internal/types"
)

const (
	portraitFontSize  = 48.0
	landscapeFontSize = 36.0
	baseSpacing       = 12.0
	minFontSize       = 20.0
	minSpacing        = 3.0

	marginRatio = 0.08
	minMargin   = 40.0

	// splitThreshold is the city length above which multi-word names wrap.
	splitThreshold = 12

	charWidthFactor = 0.6 // average advance as a fraction of font size
	safetyBuffer    = 1.1

	countryScale = 0.4
	coordsScale  = 0.28
	minSmallFont = 10.0
)

// Line is one run of centred text. X is the centre, Y the baseline.
type Line struct {
	Text          string  `json:"text"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	FontSize      float64 `json:"font_size"`
	LetterSpacing float64 `json:"letter_spacing"`
	Weight        int     `json:"weight"` // 700 bold, 400 regular, 300 light
	Width         float64 `json:"width"`  // estimated rendered width
}

// Divider is the horizontal rule between city and country.
type Divider struct {
	X1    float64 `json:"x1"`
	X2    float64 `json:"x2"`
	Y     float64 `json:"y"`
	Width float64 `json:"width"` // stroke width
}

// Layout is the computed label block.
type Layout struct {
	FontFamily  string            `json:"font_family"`
	Orientation types.Orientation `json:"orientation"`
	CityLines   []Line            `json:"city_lines"`
	Divider     Divider           `json:"divider"`
	Country     Line              `json:"country"`
	Coords      Line              `json:"coords"`
	// Scale is the factor applied to the base font size, 1 when the city fits.
	Scale float64 `json:"scale"`
}

// Top returns the y of the highest baseline in the block.
func (l Layout) Top() float64 {
	if len(l.CityLines) > 0 {
		return l.CityLines[0].Y - l.CityLines[0].FontSize
	}
	return l.Country.Y - l.Country.FontSize
}

// ComputeLabelLayout sizes and stacks the label for a width×height canvas.
//
// A city name longer than 12 characters with more than one word is split one
// word per line. Font size starts at 48 (portrait) or 36 (landscape) with 12
// units of letter spacing and scales down, to no less than 20 and 3, until
// the widest city line fits inside the side margins. Widths are estimated
// from character counts since glyph metrics are not known before rendering.
func ComputeLabelLayout(city, country string, coords types.GeoPoint, width, height float64, orientation types.Orientation, fontFamily string) Layout {
	city = strings.ToUpper(strings.TrimSpace(city))
	country = strings.ToUpper(strings.TrimSpace(country))

	lines := SplitCity(city)

	fontSize := portraitFontSize
	if orientation == types.Landscape {
		fontSize = landscapeFontSize
	}
	spacing := baseSpacing

	margin := math.Max(minMargin, width*marginRatio)
	available := width - 2*margin

	widest := 0.0
	for _, l := range lines {
		widest = math.Max(widest, EstimateWidth(l, fontSize, spacing))
	}

	scale := 1.0
	if widest > available && widest > 0 {
		scale = available / widest
		fontSize = math.Max(minFontSize, fontSize*scale)
		spacing = math.Max(minSpacing, spacing*scale)
	}

	countrySize := math.Max(minSmallFont, fontSize*countryScale)
	countrySpacing := spacing * 0.5
	coordsSize := math.Max(minSmallFont, fontSize*coordsScale)
	coordsSpacing := spacing * 0.25

	cx := width / 2
	bottom := math.Max(minMargin, height*0.06)

	layout := Layout{
		FontFamily:  fontFamily,
		Orientation: orientation,
		Scale:       scale,
	}

	// Stack from the bottom: coordinates, country, divider, city lines.
	y := height - bottom
	coordsText := FormatCoordinates(coords)
	layout.Coords = Line{
		Text:          coordsText,
		X:             cx,
		Y:             y,
		FontSize:      coordsSize,
		LetterSpacing: coordsSpacing,
		Weight:        300,
		Width:         EstimateWidth(coordsText, coordsSize, coordsSpacing),
	}

	y -= coordsSize * 2
	countryWidth := EstimateWidth(country, countrySize, countrySpacing)
	layout.Country = Line{
		Text:          country,
		X:             cx,
		Y:             y,
		FontSize:      countrySize,
		LetterSpacing: countrySpacing,
		Weight:        400,
		Width:         countryWidth,
	}

	y -= countrySize * 1.6
	layout.Divider = Divider{
		X1:    cx - countryWidth/2,
		X2:    cx + countryWidth/2,
		Y:     y,
		Width: math.Max(1, fontSize/24),
	}

	y -= fontSize * 0.6
	cityLines := make([]Line, len(lines))
	for i := len(lines) - 1; i >= 0; i-- {
		cityLines[i] = Line{
			Text:          lines[i],
			X:             cx,
			Y:             y,
			FontSize:      fontSize,
			LetterSpacing: spacing,
			Weight:        700,
			Width:         EstimateWidth(lines[i], fontSize, spacing),
		}
		y -= fontSize * 1.15
	}
	layout.CityLines = cityLines

	return layout
}

// SplitCity returns the display lines of a city name: one line per word when
// the name is longer than 12 characters and has several words, else the name
// on a single line.
func SplitCity(city string) []string {
	words := strings.Fields(city)
	if utf8.RuneCountInString(city) > splitThreshold && len(words) > 1 {
		return words
	}
	if len(words) == 0 {
		return []string{""}
	}
	return []string{strings.Join(words, " ")}
}

// EstimateWidth approximates the rendered width of text with a character
// count heuristic plus a 10% buffer. East Asian wide runes count double.
func EstimateWidth(text string, fontSize, letterSpacing float64) float64 {
	chars := float64(runewidth.StringWidth(text))
	if chars == 0 {
		return 0
	}
	return (chars*fontSize*charWidthFactor + (chars-1)*letterSpacing) * safetyBuffer
}

// FormatCoordinates renders a point as "51.5050° N / 0.0900° W".
func FormatCoordinates(p types.GeoPoint) string {
	lat, lon := p.Lat(), p.Lon()

	ns := "N"
	if lat < 0 {
		ns = "S"
	}
	ew := "E"
	if lon < 0 {
		ew = "W"
	}
	return fmt.Sprintf("%.4f° %s / %.4f° %s", math.Abs(lat), ns, math.Abs(lon), ew)
}
