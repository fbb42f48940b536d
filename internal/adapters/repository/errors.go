package repository

import "errors"

// Sentinel kinds for result store errors.
var (
	ErrDuplicateYear = errors.New("year already stored")
)
