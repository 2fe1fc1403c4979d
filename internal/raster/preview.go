package raster

import (
	"image"

	"github.com/disintegration/gift"
)

// Thumbnail scales img down to width pixels wide, keeping the aspect ratio.
// Images already narrower than width are returned unchanged.
func Thumbnail(img *image.NRGBA, width int) *image.NRGBA {
	if width <= 0 || img.Bounds().Dx() <= width {
		return img
	}
	g := gift.New(gift.Resize(width, 0, gift.LanczosResampling))
	dst := image.NewNRGBA(g.Bounds(img.Bounds()))
	g.Draw(dst, img)
	return dst
}
