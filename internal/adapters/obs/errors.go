package obs

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrOpenInput = errors.New("open input failed")
	ErrBadInput  = errors.New("bad input table")
)
