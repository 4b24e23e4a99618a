// Package common defines shared constants and sentinel errors used across
// the application layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Credential errors (missing or undecryptable Discogs token).
	ErrNoCredentials = errors.New("no discogs credentials")

	// Validation errors.
	ErrorIncorrectMetadata = errors.New("incorrect metadata")
)
