package grant

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pixil98/go-tacklebox/internal/item"
)

// Act applies an ItemAction from a client.
func (s *Server) Act(ctx context.Context, a *ItemAction) error {
	var err error
	switch a.Action {
	case ActionUse:
		_, err = s.Use(ctx, a.OwnerID, a.InstanceID)
	case ActionConsume:
		_, err = s.Consume(ctx, a.OwnerID, a.InstanceID)
	case ActionDiscard:
		err = s.Remove(ctx, a.OwnerID, a.InstanceID)
	default:
		err = fmt.Errorf("unknown item action %q", a.Action)
	}
	if err != nil {
		slog.InfoContext(ctx, "item action rejected",
			"owner", a.OwnerID,
			"instance", a.InstanceID,
			"action", a.Action,
			"error", err)
	}
	return err
}

// Use wears an owned item down by one use. An item whose durability reaches
// zero is removed. The owner is told about the result either way.
func (s *Server) Use(ctx context.Context, owner, id uuid.UUID) (*item.Instance, error) {
	sess, err := s.session(ctx, owner)
	if err != nil {
		return nil, err
	}
	inst, err := sess.inv.UseOnce(id)
	if err != nil {
		return nil, err
	}

	if d := inst.State.Durability(); d != nil && d.Remaining <= 0 {
		s.drop(ctx, owner, inst)
		return inst, nil
	}
	s.update(ctx, owner, inst)
	return inst, nil
}

// Consume takes one unit of an owned stack. The last unit removes the item.
func (s *Server) Consume(ctx context.Context, owner, id uuid.UUID) (*item.Instance, error) {
	sess, err := s.session(ctx, owner)
	if err != nil {
		return nil, err
	}
	inst, err := sess.inv.ConsumeOne(id)
	if err != nil {
		return nil, err
	}

	if st := inst.State.Stack(); st != nil && st.CurrentAmount <= 0 {
		s.drop(ctx, owner, inst)
		return inst, nil
	}
	s.update(ctx, owner, inst)
	return inst, nil
}

// Remove discards an owned item. Removing an unknown item is a no-op.
func (s *Server) Remove(ctx context.Context, owner, id uuid.UUID) error {
	sess, err := s.session(ctx, owner)
	if err != nil {
		return err
	}
	inst := sess.inv.Get(id)
	if inst == nil {
		return nil
	}
	s.drop(ctx, owner, inst)
	return nil
}

func (s *Server) drop(ctx context.Context, owner uuid.UUID, inst *item.Instance) {
	s.sessions[owner].inv.Remove(inst.ID)
	s.destroy(owner, inst.ID)
	s.push(ctx, owner, &ItemRemoved{InstanceID: inst.ID})
}

func (s *Server) update(ctx context.Context, owner uuid.UUID, inst *item.Instance) {
	s.persist(ctx, owner, inst)

	rec, err := inst.Record(s.reg)
	if err != nil {
		slog.ErrorContext(ctx, "packing item update", "owner", owner, "instance", inst.ID, "error", err)
		return
	}
	s.push(ctx, owner, &ItemUpdate{Item: rec})
}
