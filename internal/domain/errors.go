package domain

import "errors"

var (
	// ErrNotFound is returned by singular lookups that match nothing.
	ErrNotFound = errors.New("not found")
	// ErrValidation marks requests rejected before touching the store.
	ErrValidation = errors.New("validation failed")
	// ErrUpstreamUnavailable marks a fact store failure. Callers may retry.
	ErrUpstreamUnavailable = errors.New("fact store unavailable")
)
