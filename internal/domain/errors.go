package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrPaymentRequired = errors.New("payment required")
	ErrUnauthorized    = errors.New("unauthorized")

	// ErrCacheCorrupt marks a cached value that no longer decodes.
	ErrCacheCorrupt = errors.New("cache entry corrupt")
)
