package processor

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// fitToCanvas scales img down (never up) to fit within width x height using
// Lanczos resampling and centers it on an opaque white canvas of exactly that
// size.
func (p *ImageProcessor) fitToCanvas(img image.Image, width, height int) *image.NRGBA {
	fitted := imaging.Fit(img, width, height, imaging.Lanczos)

	canvas := imaging.New(width, height, color.White)
	size := fitted.Bounds().Size()
	offset := image.Pt((width-size.X)/2, (height-size.Y)/2)

	return imaging.Paste(canvas, fitted, offset)
}
