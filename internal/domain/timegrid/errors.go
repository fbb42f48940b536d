package timegrid

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrInvalidGrid = errors.New("invalid time grid")
)
