package persist

import (
	"context"

	"github.com/google/uuid"

	"github.com/pixil98/go-tacklebox/internal/item"
)

type Op int

const (
	OpUpsert Op = iota + 1
	OpDestroy
)

func (o Op) String() string {
	switch o {
	case OpUpsert:
		return "upsert"
	case OpDestroy:
		return "destroy"
	default:
		return "unknown"
	}
}

// Change is one inventory mutation to mirror into external storage.
type Change struct {
	Op           Op
	OwnerID      uuid.UUID
	InstanceID   uuid.UUID
	DefinitionID int
	StateBlob    []byte
}

func NewUpsert(owner uuid.UUID, rec item.Record) Change {
	return Change{
		Op:           OpUpsert,
		OwnerID:      owner,
		InstanceID:   rec.InstanceID,
		DefinitionID: rec.DefinitionID,
		StateBlob:    rec.StateBlob,
	}
}

func NewDestroy(owner, instance uuid.UUID) Change {
	return Change{
		Op:         OpDestroy,
		OwnerID:    owner,
		InstanceID: instance,
	}
}

// Sink applies changes to some external store.
type Sink interface {
	Apply(ctx context.Context, c Change) error
}

// DiscardSink drops every change.
type DiscardSink struct{}

func (DiscardSink) Apply(context.Context, Change) error { return nil }

// Loader reads back what a sink stored for one owner.
type Loader interface {
	LoadInventory(ctx context.Context, owner uuid.UUID) ([]item.Record, error)
}
