package cache

import "errors"

var (
	ErrNotFound  = errors.New("cache: entry not found")
	ErrClosed    = errors.New("cache: closed")
	ErrMarshal   = errors.New("cache: failed to marshal value")
	ErrUnmarshal = errors.New("cache: failed to unmarshal value")

	ErrEmptyRedisURL    = errors.New("cache: empty redis URL")
	ErrInvalidRedisURL  = errors.New("cache: invalid redis URL")
	ErrRedisUnavailable = errors.New("cache: redis unavailable")
)
