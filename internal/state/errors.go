package state

import "errors"

var (
	ErrRegistryConflict = errors.New("state codec registry conflict")
	ErrRegistrySealed   = errors.New("state codec registry is sealed")
	ErrUnknownKind      = errors.New("unknown state kind")
	ErrUnknownID        = errors.New("unknown state id")
	ErrCorrupt          = errors.New("corrupt state blob")
)
