package inventory

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/pixil98/go-tacklebox/internal/item"
)

// RollbackOptimisticAdd undoes a speculative MergeOrAdd of amount units into
// the instance id. Instances without a stack, or whose stack would drop to
// zero or below, are removed. The returned instance is the one affected,
// whether or not it is still in the store; nil when id is unknown.
func (s *Store) RollbackOptimisticAdd(id uuid.UUID, amount int) (*item.Instance, error) {
	if s.mode != Speculative {
		return nil, fmt.Errorf("%w: rollback on %s store", ErrWrongMode, s.mode)
	}

	inst := s.Get(id)
	if inst == nil {
		return nil, nil
	}

	stack := inst.State.Stack()
	if stack == nil || stack.CurrentAmount-amount <= 0 {
		return s.Remove(id), nil
	}
	stack.CurrentAmount -= amount
	return inst, nil
}

// ApplyUpdate overwrites the state of a local instance with the server's
// copy, or appends it when the store does not hold it yet.
func (s *Store) ApplyUpdate(inst *item.Instance) error {
	if s.mode != Speculative {
		return fmt.Errorf("%w: update on %s store", ErrWrongMode, s.mode)
	}

	cur := s.Get(inst.ID)
	if cur == nil {
		s.items = append(s.items, inst.Clone())
		return nil
	}
	cur.State = inst.State.Clone()
	return nil
}

// Replace swaps the whole collection for a server snapshot.
func (s *Store) Replace(items []*item.Instance) error {
	if s.mode != Speculative {
		return fmt.Errorf("%w: replace on %s store", ErrWrongMode, s.mode)
	}
	s.items = make([]*item.Instance, 0, len(items))
	for _, inst := range items {
		s.items = append(s.items, inst.Clone())
	}
	return nil
}
