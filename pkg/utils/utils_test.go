package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidImageType(t *testing.T) {
	tests := []struct {
		contentType string
		want        bool
	}{
		{"image/jpeg", true},
		{"image/jpg", true},
		{"image/png", true},
		{"IMAGE/PNG", true},
		{"image/jpeg; charset=binary", true},
		{"image/gif", false},
		{"image/webp", false},
		{"application/octet-stream", false},
		{"", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsValidImageType(tt.contentType), tt.contentType)
	}
}

func TestIsJPEGKey(t *testing.T) {
	assert.True(t, IsJPEGKey("batches/a/00_optimized.jpg"))
	assert.True(t, IsJPEGKey("batches/a/photo.JPEG"))
	assert.False(t, IsJPEGKey("batches/a/batch_info.json"))
	assert.False(t, IsJPEGKey("batches/a/photo.png"))
}

func TestKeyLayout(t *testing.T) {
	assert.Equal(t, "batches/abc/", BatchPrefix("abc"))
	assert.Equal(t, "batches/abc/00_optimized.jpg", ImageKey("abc", 0))
	assert.Equal(t, "batches/abc/07_optimized.jpg", ImageKey("abc", 7))
	assert.Equal(t, "batches/abc/batch_info.json", ManifestKey("abc"))
	assert.Equal(t, "downloads/abc.zip", ArchiveKey("abc"))
}
