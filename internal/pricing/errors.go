package pricing

import "errors"

// ErrUnknownModel indicates the model has no entry in the rate table.
// Cost for an unknown model is undefined, never zero.
var ErrUnknownModel = errors.New("unknown model")

// ErrInvalidUsage indicates negative token counts.
var ErrInvalidUsage = errors.New("invalid token usage")

// ErrInvalidRates indicates a rate table file could not be parsed or holds negative rates.
var ErrInvalidRates = errors.New("invalid rate table")
