package raster

import (
	"image"
	"image/color"
	"math"
)

// alphaOver blends a single colour with alpha sa (0..1) over the NRGBA pixel
// at offset i.
func alphaOver(dst *image.NRGBA, i int, s color.NRGBA, sa float64) {
	if sa <= 0 {
		return
	}
	da := float64(dst.Pix[i+3]) / 255.0

	outA := sa + da*(1.0-sa)
	if outA == 0 {
		dst.Pix[i+0], dst.Pix[i+1], dst.Pix[i+2], dst.Pix[i+3] = 0, 0, 0, 0
		return
	}

	blend := func(srcVal, dstVal uint8) uint8 {
		srcPremult := float64(srcVal) * sa
		dstPremult := float64(dstVal) * da
		outPremult := srcPremult + dstPremult*(1.0-sa)
		return uint8(math.Round(outPremult / outA))
	}

	dst.Pix[i+0] = blend(s.R, dst.Pix[i+0])
	dst.Pix[i+1] = blend(s.G, dst.Pix[i+1])
	dst.Pix[i+2] = blend(s.B, dst.Pix[i+2])
	dst.Pix[i+3] = uint8(math.Round(outA * 255.0))
}

// fillRect paints the whole image with c.
func fillRect(dst *image.NRGBA, c color.NRGBA) {
	b := dst.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.SetNRGBA(x, y, c)
		}
	}
}

// verticalFade blends c over rows [y0, y0+h) with opacity running linearly
// from `from` at the top edge to `to` at the bottom edge.
func verticalFade(dst *image.NRGBA, c color.NRGBA, y0, h, from, to float64) {
	if h <= 0 {
		return
	}
	b := dst.Bounds()
	start := int(math.Max(math.Floor(y0), float64(b.Min.Y)))
	end := int(math.Min(math.Ceil(y0+h), float64(b.Max.Y)))

	for y := start; y < end; y++ {
		t := (float64(y) + 0.5 - y0) / h
		t = math.Max(0, math.Min(1, t))
		a := from + (to-from)*t
		for x := b.Min.X; x < b.Max.X; x++ {
			alphaOver(dst, dst.PixOffset(x, y), c, a)
		}
	}
}
