package summarize

import "errors"

// ErrInvalidChunking indicates chunk size or overlap parameters are out of range.
var ErrInvalidChunking = errors.New("invalid chunking parameters")

// ErrInvalidCeiling indicates a non-positive model token ceiling.
var ErrInvalidCeiling = errors.New("token ceiling must be positive")

// ErrMalformedResponse indicates a map-phase response without usable text.
// It is fatal for the run; no placeholder extract is substituted.
var ErrMalformedResponse = errors.New("malformed completion response")

// ErrParse indicates the reduce-phase payload does not match the minutes shape.
// It is logged and degrades to a nil summary; it is never returned by Reduce.
var ErrParse = errors.New("cannot parse structured summary")
