package item

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/pixil98/go-tacklebox/internal/state"
)

// Record is the flat form of an instance used on the wire and in persistence.
// StateBlob is the packed state and travels as base64 in JSON.
type Record struct {
	InstanceID   uuid.UUID `json:"instance_id"`
	DefinitionID int       `json:"definition_id"`
	StateBlob    []byte    `json:"state_blob"`
}

// Record packs the instance state with reg.
func (i *Instance) Record(reg *state.Registry) (Record, error) {
	blob, err := reg.Pack(i.State)
	if err != nil {
		return Record{}, fmt.Errorf("packing %s: %w", i.ID, err)
	}
	return Record{
		InstanceID:   i.ID,
		DefinitionID: i.DefinitionID(),
		StateBlob:    blob,
	}, nil
}
