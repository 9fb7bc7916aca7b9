package grant

import "errors"

var (
	ErrValidationFailed = errors.New("grant validation failed")
	ErrUnknownMessage   = errors.New("unknown message type")
)
