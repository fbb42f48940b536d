package hashing

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrInvalidModulus reports a non-positive modulus, which is an
	// input-contract violation rather than a recoverable condition.
	ErrInvalidModulus = errors.New("modulus must be positive")
)
