package raster

import (
	"image"
	"math"

	"github.com/aquilax/go-perlin"
)

// grainScale is the noise period in pixels.
const grainScale = 3.0

// applyGrain perturbs pixel brightness with Perlin noise to imitate paper
// grain. strength is the maximum change in 8-bit channel units. The same seed
// always yields the same grain.
func applyGrain(img *image.NRGBA, strength float64, seed int64) {
	if strength <= 0 {
		return
	}
	// alpha: persistence, beta: lacunarity, n: octaves
	p := perlin.NewPerlin(2.0, 2.0, 3, seed)

	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			delta := p.Noise2D(float64(x)/grainScale, float64(y)/grainScale) * strength
			i := img.PixOffset(x, y)
			for c := 0; c < 3; c++ {
				v := float64(img.Pix[i+c]) + delta
				img.Pix[i+c] = uint8(math.Max(0, math.Min(255, math.Round(v))))
			}
		}
	}
}
