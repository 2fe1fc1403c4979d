package export

import (
	"fmt"
	"image/png"
	"io"

	"github.com/poorfish/maptoposter/internal/poster"
	"github.com/poorfish/maptoposter/internal/raster"
)

func writePNG(w io.Writer, p *poster.Poster, opts raster.Options, thumbWidth int) error {
	img, err := raster.Render(p, opts)
	if err != nil {
		return fmt.Errorf("failed to rasterise poster: %w", err)
	}
	if thumbWidth > 0 {
		img = raster.Thumbnail(img, thumbWidth)
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}
