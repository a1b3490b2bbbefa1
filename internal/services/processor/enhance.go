package processor

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

const (
	SharpnessFactor  = 1.2
	ContrastFactor   = 1.1
	SaturationFactor = 1.1
)

// smoothKernel is the 3x3 blur that sharpening interpolates away from.
var smoothKernel = [9]float64{
	1, 1, 1,
	1, 5, 1,
	1, 1, 1,
}

// enhance applies sharpness, contrast and saturation in that order. Each
// step extrapolates from a degenerate image: blurred, flat mean gray and
// per-pixel grayscale respectively.
func (p *ImageProcessor) enhance(img *image.NRGBA) *image.NRGBA {
	img = sharpen(img, SharpnessFactor)
	img = adjustContrast(img, ContrastFactor)
	return adjustSaturation(img, SaturationFactor)
}

// sharpen leaves the outermost pixel ring untouched; only pixels with a full
// 3x3 neighbourhood are pushed away from their smoothed value.
func sharpen(img *image.NRGBA, factor float64) *image.NRGBA {
	smooth := imaging.Convolve3x3(img, smoothKernel, &imaging.ConvolveOptions{Normalize: true})

	dst := imaging.Clone(img)
	w, h := dst.Bounds().Dx(), dst.Bounds().Dy()
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			i := y*dst.Stride + x*4
			for c := 0; c < 3; c++ {
				dst.Pix[i+c] = extrapolate(float64(smooth.Pix[i+c]), float64(img.Pix[i+c]), factor)
			}
		}
	}
	return dst
}

func adjustContrast(img *image.NRGBA, factor float64) *image.NRGBA {
	mean := meanLuminance(img)
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{
			R: extrapolate(mean, float64(c.R), factor),
			G: extrapolate(mean, float64(c.G), factor),
			B: extrapolate(mean, float64(c.B), factor),
			A: c.A,
		}
	})
}

func adjustSaturation(img *image.NRGBA, factor float64) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		gray := float64(luminance(c.R, c.G, c.B))
		return color.NRGBA{
			R: extrapolate(gray, float64(c.R), factor),
			G: extrapolate(gray, float64(c.G), factor),
			B: extrapolate(gray, float64(c.B), factor),
			A: c.A,
		}
	})
}

// luminance is the ITU-R 601-2 luma transform.
func luminance(r, g, b uint8) uint8 {
	return uint8((299*int(r) + 587*int(g) + 114*int(b)) / 1000)
}

func meanLuminance(img *image.NRGBA) float64 {
	var sum, n int
	for i := 0; i+3 < len(img.Pix); i += 4 {
		sum += int(luminance(img.Pix[i], img.Pix[i+1], img.Pix[i+2]))
		n++
	}
	if n == 0 {
		return 0
	}
	return float64(int(float64(sum)/float64(n) + 0.5))
}

// extrapolate returns base + factor*(v-base) clamped to a byte.
func extrapolate(base, v, factor float64) uint8 {
	out := base + factor*(v-base)
	switch {
	case out <= 0:
		return 0
	case out >= 255:
		return 255
	}
	return uint8(out + 0.5)
}
