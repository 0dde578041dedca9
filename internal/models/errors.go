package models

import (
	"errors"
	"fmt"
)

// Error kinds surfaced to the caller. Match with errors.Is.
var (
	// ErrFormat: the archive lacks its package pointer, or the manifest/spine is empty or malformed.
	ErrFormat = errors.New("invalid epub format")
	// ErrResourceNotFound: a manifest or spine reference points to a missing archive entry.
	ErrResourceNotFound = errors.New("resource not found")
)

// FormatErrorf wraps ErrFormat with a formatted description.
func FormatErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrFormat, fmt.Sprintf(format, args...))
}

// NotFoundErrorf wraps ErrResourceNotFound with a formatted description.
func NotFoundErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrResourceNotFound, fmt.Sprintf(format, args...))
}
