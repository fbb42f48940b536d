package export

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrEncode        = errors.New("encode artifact failed")
	ErrWriteArtifact = errors.New("write artifact failed")
)
