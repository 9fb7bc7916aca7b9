package inventory

import "errors"

var (
	ErrNotFound       = errors.New("item not in inventory")
	ErrNoSuchFragment = errors.New("item lacks required state")
	ErrDepleted       = errors.New("item is depleted")
	ErrWrongMode      = errors.New("operation not allowed in this inventory mode")
)
