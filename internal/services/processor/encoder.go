package processor

import (
	"bytes"
	"fmt"
	"image"
	"io"

	"github.com/gen2brain/jpegli"
)

const (
	MaxQuality  = 95
	MinQuality  = 70
	QualityStep = 5
)

// progressiveLevel 2 is jpegli's full progressive scan script.
const progressiveLevel = 2

// encodeJPEG writes img as a progressive JPEG with optimized Huffman tables.
func encodeJPEG(w io.Writer, img image.Image, quality int) error {
	return jpegli.Encode(w, img, &jpegli.EncodingOptions{
		Quality:           quality,
		ProgressiveLevel:  progressiveLevel,
		OptimizeCoding:    true,
		ChromaSubsampling: image.YCbCrSubsampleRatio420,
	})
}

// encodeWithinLimit encodes img stepping quality down from MaxQuality and
// returns the first encoding that fits in maxBytes. If none fits, the
// MinQuality encoding is returned with oversize set.
func (p *ImageProcessor) encodeWithinLimit(img image.Image, maxBytes int64) ([]byte, int, bool, error) {
	buffer := &bytes.Buffer{}

	for quality := MaxQuality; quality > MinQuality; quality -= QualityStep {
		buffer.Reset()
		if err := encodeJPEG(buffer, img, quality); err != nil {
			return nil, 0, false, fmt.Errorf("encode at quality %d: %w", quality, err)
		}
		if int64(buffer.Len()) <= maxBytes {
			return cloneBytes(buffer.Bytes()), quality, false, nil
		}
	}

	buffer.Reset()
	if err := encodeJPEG(buffer, img, MinQuality); err != nil {
		return nil, 0, false, fmt.Errorf("encode at quality %d: %w", MinQuality, err)
	}
	return cloneBytes(buffer.Bytes()), MinQuality, int64(buffer.Len()) > maxBytes, nil
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
