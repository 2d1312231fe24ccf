package config

import "errors"

// ErrInvalidConfig is returned for unreadable or inconsistent settings.
var ErrInvalidConfig = errors.New("invalid configuration")
