package item

import (
	"github.com/google/uuid"
	"github.com/pixil98/go-tacklebox/internal/state"
)

// Instance is one owned item: a definition plus its own runtime state.
// The ID is assigned once and never changes.
type Instance struct {
	ID    uuid.UUID
	Def   *Definition
	State state.Bag
}

func (i *Instance) DefinitionID() int {
	return i.Def.ID
}

// Amount returns the units held. Instances without a stack fragment hold 1.
func (i *Instance) Amount() int {
	if s := i.State.Stack(); s != nil {
		return s.CurrentAmount
	}
	return 1
}

// Clone copies the instance. The definition is shared.
func (i *Instance) Clone() *Instance {
	return &Instance{
		ID:    i.ID,
		Def:   i.Def,
		State: i.State.Clone(),
	}
}
