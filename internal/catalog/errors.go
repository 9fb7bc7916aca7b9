package catalog

import "errors"

var (
	ErrUnknownDefinition = errors.New("unknown item definition")
	ErrInvalidAmount     = errors.New("invalid item amount")
	ErrNotLoaded         = errors.New("catalog not loaded")
)
