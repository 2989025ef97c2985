package model

import "errors"

// Sentinel errors for domain validation
var (
	ErrInvalidDraft   = errors.New("invalid case draft")
	ErrInvalidVerdict = errors.New("invalid verdict")
)
