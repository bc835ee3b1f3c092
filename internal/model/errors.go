package model

import "errors"

// Model-level validation errors.
var (
	ErrInvalidTemplate   = errors.New("invalid template")
	ErrInvalidTolerances = errors.New("invalid matching tolerances")
)
