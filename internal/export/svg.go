package export

import (
	"bufio"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	svg "github.com/ajstarks/svgo"

	"github.com/poorfish/maptoposter/internal/geometry"
	"github.com/poorfish/maptoposter/internal/poster"
	"github.com/poorfish/maptoposter/internal/renderer"
	"github.com/poorfish/maptoposter/internal/typography"
)

// fallbackFonts follows the requested family in font-family lists.
const fallbackFonts = `"Helvetica Neue", Helvetica, Arial, sans-serif`

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// fontImport returns the Google Fonts stylesheet import for family.
func fontImport(family string) string {
	q := url.Values{}
	q.Set("family", family+":wght@300;400;700")
	q.Set("display", "swap")
	return fmt.Sprintf("@import url('https://fonts.googleapis.com/css2?%s');", q.Encode())
}

// fontStack returns a font-family value safe for an attribute.
func fontStack(family string) string {
	clean := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`"'<>&;`, r) {
			return -1
		}
		return r
	}, family)
	return fmt.Sprintf("'%s', %s", clean, strings.ReplaceAll(fallbackFonts, `"`, "'"))
}

// pathData converts points to SVG path data, closing polygons.
func pathData(pts []geometry.Point, closed bool) string {
	var b strings.Builder
	for i, p := range pts {
		if i == 0 {
			b.WriteString("M")
		} else {
			b.WriteString(" L")
		}
		b.WriteString(num(p.X))
		b.WriteByte(' ')
		b.WriteString(num(p.Y))
	}
	if closed {
		b.WriteString(" Z")
	}
	return b.String()
}

func rectData(x, y, w, h float64) string {
	return fmt.Sprintf("M%s %s H%s V%s H%s Z", num(x), num(y), num(x+w), num(y+h), num(x))
}

func primitiveAttrs(p renderer.Primitive) []string {
	attrs := []string{fmt.Sprintf(`opacity="%s"`, num(p.Opacity))}
	switch p.Kind {
	case renderer.KindPolygon:
		attrs = append(attrs, fmt.Sprintf(`fill="%s"`, p.Fill), `stroke="none"`)
	default:
		attrs = append(attrs,
			`fill="none"`,
			fmt.Sprintf(`stroke="%s"`, p.Stroke),
			fmt.Sprintf(`stroke-width="%s"`, num(p.StrokeWidth)),
			`stroke-linecap="round"`,
			`stroke-linejoin="round"`,
		)
		if len(p.Dash) > 0 {
			dash := make([]string, len(p.Dash))
			for i, d := range p.Dash {
				dash[i] = num(d)
			}
			attrs = append(attrs, fmt.Sprintf(`stroke-dasharray="%s"`, strings.Join(dash, " ")))
		}
	}
	return attrs
}

func writeSVG(w io.Writer, p *poster.Poster) error {
	bw := bufio.NewWriter(w)
	canvas := svg.New(bw)
	width, height := p.Spec.Width, p.Spec.Height

	canvas.Startraw(
		fmt.Sprintf(`width="%s"`, num(width)),
		fmt.Sprintf(`height="%s"`, num(height)),
		fmt.Sprintf(`viewBox="0 0 %s %s"`, num(width), num(height)),
	)
	if p.Location.City != "" {
		canvas.Title(p.Location.City)
	}
	canvas.Style("text/css", fontImport(p.Spec.FontFamily))

	canvas.Def()
	for i, f := range p.Fades {
		canvas.LinearGradient(fmt.Sprintf("fade-%d", i), 0, 0, 0, 100, []svg.Offcolor{
			{Offset: 0, Color: f.Color, Opacity: f.FromOpacity},
			{Offset: 100, Color: f.Color, Opacity: f.ToOpacity},
		})
	}
	canvas.DefEnd()

	canvas.Path(rectData(0, 0, width, height), fmt.Sprintf(`fill="%s"`, p.Background()))

	for _, name := range renderer.DrawOrder {
		prims := p.Layers.Layer(name)
		if len(prims) == 0 {
			continue
		}
		canvas.Gid(string(name))
		for _, prim := range prims {
			canvas.Path(pathData(prim.Points, prim.Kind == renderer.KindPolygon), primitiveAttrs(prim)...)
		}
		canvas.Gend()
	}

	for i, f := range p.Fades {
		canvas.Path(rectData(0, f.Y, width, f.Height), fmt.Sprintf(`fill="url(#fade-%d)"`, i))
	}

	writeLabel(canvas, p.Label, p.Spec.Theme.Text)

	canvas.End()
	return bw.Flush()
}

func writeLabel(canvas *svg.SVG, label typography.Layout, colour string) {
	canvas.Gid("label")
	canvas.Group(
		fmt.Sprintf(`font-family="%s"`, fontStack(label.FontFamily)),
		fmt.Sprintf(`fill="%s"`, colour),
		`text-anchor="middle"`,
	)

	lines := append([]typography.Line(nil), label.CityLines...)
	lines = append(lines, label.Country, label.Coords)
	for _, line := range lines {
		if line.Text == "" {
			continue
		}
		canvas.Gtransform(fmt.Sprintf("translate(%s,%s)", num(line.X), num(line.Y)))
		canvas.Text(0, 0, line.Text,
			fmt.Sprintf(`font-size="%s"`, num(line.FontSize)),
			fmt.Sprintf(`font-weight="%d"`, line.Weight),
			fmt.Sprintf(`letter-spacing="%s"`, num(line.LetterSpacing)),
		)
		canvas.Gend()
	}

	d := label.Divider
	if d.X2 > d.X1 && d.Width > 0 {
		canvas.Path(
			fmt.Sprintf("M%s %s H%s", num(d.X1), num(d.Y), num(d.X2)),
			fmt.Sprintf(`stroke="%s"`, colour),
			fmt.Sprintf(`stroke-width="%s"`, num(d.Width)),
		)
	}

	canvas.Gend()
	canvas.Gend()
}
