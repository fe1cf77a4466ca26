package signal

import "errors"

// Structural validation errors. These are never raised past the quality
// gate (C2) — they are converted into rejection counts, per §7.
var (
	ErrInvalidPlatform = errors.New("signal: unrecognized platform")
	ErrEmptySignal     = errors.New("signal: both title and body are empty")
	ErrClockSkew       = errors.New("signal: ingested_at precedes created_at beyond tolerance")
)
