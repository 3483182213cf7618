// Package apperr defines sentinel errors shared across layers.
package apperr

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrVersionNotFound = errors.New("version not found")
	ErrNoAPIKey        = errors.New("no API key configured")
	ErrEmptyCompletion = errors.New("empty completion")
)
