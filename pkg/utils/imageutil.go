package utils

import (
	"mime"
	"strings"
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
}

// IsValidImageType reports whether a declared content type is an accepted
// upload type. Parameters such as charset are ignored.
func IsValidImageType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = contentType
	}
	return allowedImageTypes[strings.ToLower(strings.TrimSpace(mediaType))]
}

// IsJPEGKey reports whether a storage key names a JPEG object.
func IsJPEGKey(key string) bool {
	lower := strings.ToLower(key)
	return strings.HasSuffix(lower, ".jpg") || strings.HasSuffix(lower, ".jpeg")
}
