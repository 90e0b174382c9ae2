package cache

import "errors"

// ErrInvalidCapacity is returned when a cache is created with a non-positive capacity.
var ErrInvalidCapacity = errors.New("cache capacity must be positive")
