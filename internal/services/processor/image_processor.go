package processor

import (
	"fmt"
)

const (
	DefaultWidth    = 2000
	DefaultHeight   = 2000
	DefaultMaxBytes = 10 << 20 // 10MB
)

// Options bounds the output of Normalize.
type Options struct {
	Width    int
	Height   int
	MaxBytes int64
}

func DefaultOptions() Options {
	return Options{
		Width:    DefaultWidth,
		Height:   DefaultHeight,
		MaxBytes: DefaultMaxBytes,
	}
}

// Result is a normalized JPEG together with how it was encoded.
type Result struct {
	Data    []byte
	Quality int
	Width   int
	Height  int
	// Oversize is set when even the lowest quality step exceeds MaxBytes.
	Oversize bool
}

// ImageProcessor turns raw product photos into square, size-bounded JPEGs.
// It holds no state and is safe for concurrent use.
type ImageProcessor struct{}

func NewImageProcessor() *ImageProcessor {
	return &ImageProcessor{}
}

// Normalize decodes data, enhances it, letterboxes it onto a white canvas of
// exactly opts.Width x opts.Height and re-encodes it as JPEG under opts.MaxBytes
// when possible. Only undecodable input is an error.
func (p *ImageProcessor) Normalize(data []byte, opts Options) (*Result, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("invalid target dimensions %dx%d", opts.Width, opts.Height)
	}

	img, err := p.decode(data)
	if err != nil {
		return nil, err
	}

	enhanced := p.enhance(img)
	canvas := p.fitToCanvas(enhanced, opts.Width, opts.Height)

	encoded, quality, oversize, err := p.encodeWithinLimit(canvas, opts.MaxBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return &Result{
		Data:     encoded,
		Quality:  quality,
		Width:    opts.Width,
		Height:   opts.Height,
		Oversize: oversize,
	}, nil
}
