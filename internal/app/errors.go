package app

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrEnqueue = errors.New("enqueue year job failed")
)
