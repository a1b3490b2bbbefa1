package processor

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/phambaophuc/image-optimizer/internal/models"
)

var supportedFormats = map[string]bool{
	"jpeg": true,
	"png":  true,
}

// DecodeError reports input bytes that are not a supported image.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode image: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == models.ErrDecode }

// decode reads a JPEG or PNG, applies its EXIF orientation and flattens any
// alpha onto opaque white.
func (p *ImageProcessor) decode(data []byte) (*image.NRGBA, error) {
	if len(data) == 0 {
		return nil, &DecodeError{Err: fmt.Errorf("empty input")}
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	if !supportedFormats[format] {
		return nil, &DecodeError{Err: fmt.Errorf("unsupported format %q", format)}
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, &DecodeError{Err: err}
	}

	return flatten(img), nil
}

// flatten composites img over a white background so every pixel is opaque.
// The result always starts at the origin with a tight stride.
func flatten(img image.Image) *image.NRGBA {
	b := img.Bounds()
	background := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(background, img, image.Pt(0, 0), 1.0)
}
