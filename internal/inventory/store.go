package inventory

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/pixil98/go-tacklebox/internal/item"
	"github.com/pixil98/go-tacklebox/internal/state"
)

// Mode selects which side of the grant protocol owns a store.
type Mode int

const (
	// Authoritative stores live on the server and are the source of truth.
	Authoritative Mode = iota
	// Speculative stores live on the client and may be rolled back.
	Speculative
)

func (m Mode) String() string {
	switch m {
	case Authoritative:
		return "authoritative"
	case Speculative:
		return "speculative"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Store is the ordered item collection of one owner. It performs no I/O and
// holds no locks; a single control loop owns each store.
type Store struct {
	owner uuid.UUID
	mode  Mode
	items []*item.Instance
}

func NewStore(owner uuid.UUID, mode Mode) *Store {
	return &Store{
		owner: owner,
		mode:  mode,
	}
}

func (s *Store) Owner() uuid.UUID {
	return s.owner
}

func (s *Store) Mode() Mode {
	return s.mode
}

func (s *Store) Len() int {
	return len(s.items)
}

// Items returns the instances in inventory order. The slice is a copy; the
// instances are not.
func (s *Store) Items() []*item.Instance {
	out := make([]*item.Instance, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) Get(id uuid.UUID) *item.Instance {
	if i := s.index(id); i >= 0 {
		return s.items[i]
	}
	return nil
}

// FirstWith returns the first instance of definition defID whose definition
// has capability c.
func (s *Store) FirstWith(defID int, c item.Capability) *item.Instance {
	for _, inst := range s.items {
		if inst.DefinitionID() == defID && inst.Def.Has(c) {
			return inst
		}
	}
	return nil
}

// FirstOf returns the first instance of any definition with capability c.
func (s *Store) FirstOf(c item.Capability) *item.Instance {
	for _, inst := range s.items {
		if inst.Def.Has(c) {
			return inst
		}
	}
	return nil
}

// SelectedRod returns the owned rod of definition defID.
func (s *Store) SelectedRod(defID int) *item.Instance {
	return s.FirstWith(defID, item.CapRod)
}

// SelectedBait returns the owned bait of definition defID.
func (s *Store) SelectedBait(defID int) *item.Instance {
	return s.FirstWith(defID, item.CapBait)
}

// MergeOrAdd adds inst to the store. Stackable items without durability
// merge into the first non-full stack of the same definition when the sum
// fits; otherwise inst is appended as its own entry. The returned instance is
// the one now holding the units.
func (s *Store) MergeOrAdd(inst *item.Instance) *item.Instance {
	if target := s.mergeTarget(inst); target != nil {
		stack := target.State.Stack()
		if stack.CurrentAmount+inst.Amount() <= target.Def.MaxStack {
			stack.CurrentAmount += inst.Amount()
			return target
		}
	}
	s.items = append(s.items, inst)
	return inst
}

func (s *Store) mergeTarget(inst *item.Instance) *item.Instance {
	if inst.State.Stack() == nil || inst.Def.Has(item.CapDurable) || inst.State.Has(state.KindDurability) {
		return nil
	}
	for _, cur := range s.items {
		if cur == inst || cur.DefinitionID() != inst.DefinitionID() {
			continue
		}
		stack := cur.State.Stack()
		if stack == nil || stack.CurrentAmount >= cur.Def.MaxStack {
			continue
		}
		return cur
	}
	return nil
}

// Append adds inst as its own entry without merging.
func (s *Store) Append(inst *item.Instance) {
	s.items = append(s.items, inst)
}

// Remove deletes the instance with id and returns it. Removing an absent id
// is a no-op returning nil.
func (s *Store) Remove(id uuid.UUID) *item.Instance {
	i := s.index(id)
	if i < 0 {
		return nil
	}
	inst := s.items[i]
	s.items = append(s.items[:i], s.items[i+1:]...)
	return inst
}

// ConsumeOne takes one unit from the stack of id. The returned instance has
// an amount of 0 when the last unit was taken; removing it is up to the
// caller.
func (s *Store) ConsumeOne(id uuid.UUID) (*item.Instance, error) {
	inst, err := s.authoritative(id)
	if err != nil {
		return nil, err
	}
	if !inst.Def.Consumable() {
		return inst, nil
	}

	stack := inst.State.Stack()
	if stack == nil {
		return nil, fmt.Errorf("%w: %s has no stack", ErrNoSuchFragment, inst.ID)
	}
	if stack.CurrentAmount <= 0 {
		return nil, fmt.Errorf("%w: %s has no units left", ErrDepleted, inst.ID)
	}
	stack.CurrentAmount--
	return inst, nil
}

// UseOnce wears the instance down by one use.
func (s *Store) UseOnce(id uuid.UUID) (*item.Instance, error) {
	inst, err := s.authoritative(id)
	if err != nil {
		return nil, err
	}
	if !inst.Def.Consumable() {
		return inst, nil
	}

	dur := inst.State.Durability()
	if dur == nil {
		return nil, fmt.Errorf("%w: %s has no durability", ErrNoSuchFragment, inst.ID)
	}
	if dur.Remaining <= 0 {
		return nil, fmt.Errorf("%w: %s is worn out", ErrDepleted, inst.ID)
	}
	dur.Remaining--
	return inst, nil
}

func (s *Store) authoritative(id uuid.UUID) (*item.Instance, error) {
	if s.mode != Authoritative {
		return nil, fmt.Errorf("%w: %s store", ErrWrongMode, s.mode)
	}
	inst := s.Get(id)
	if inst == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return inst, nil
}

// Records snapshots every instance in inventory order.
func (s *Store) Records(reg *state.Registry) ([]item.Record, error) {
	out := make([]item.Record, 0, len(s.items))
	for _, inst := range s.items {
		rec, err := inst.Record(reg)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *Store) index(id uuid.UUID) int {
	for i, inst := range s.items {
		if inst.ID == id {
			return i
		}
	}
	return -1
}
