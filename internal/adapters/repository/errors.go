package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound = errors.New("player performance not found")
	ErrClosed   = errors.New("store closed")
)
