package mapping

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrInvalidBounds = errors.New("invalid voice bounds")
)
