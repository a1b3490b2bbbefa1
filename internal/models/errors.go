package models

import "errors"

var (
	// ErrValidation marks input that violates count or content-type constraints.
	ErrValidation = errors.New("validation failed")
	// ErrDecode marks bytes that are not a supported image.
	ErrDecode = errors.New("image decode failed")
	// ErrStorage marks any failure of the backing object store.
	ErrStorage = errors.New("storage failure")
	// ErrNotFound marks a missing manifest or missing archive sources.
	ErrNotFound = errors.New("not found")
)
