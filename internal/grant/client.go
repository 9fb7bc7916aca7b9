package grant

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"github.com/pixil98/go-tacklebox/internal/catalog"
	"github.com/pixil98/go-tacklebox/internal/inventory"
	"github.com/pixil98/go-tacklebox/internal/item"
	"github.com/pixil98/go-tacklebox/internal/state"
)

// Sender delivers an encoded request to the server.
type Sender interface {
	Send(ctx context.Context, data []byte) error
}

type SenderFunc func(ctx context.Context, data []byte) error

func (f SenderFunc) Send(ctx context.Context, data []byte) error {
	return f(ctx, data)
}

// pendingGrant is a speculative grant waiting for the server's verdict.
type pendingGrant struct {
	instanceID   uuid.UUID
	definitionID int
	amount       int
	seq          uint64
}

// Client is the speculative side of the grant protocol. It applies grants to
// its own inventory immediately and reconciles when the server answers. All
// methods must be called from one goroutine.
type Client struct {
	owner  uuid.UUID
	cat    *catalog.Catalog
	reg    *state.Registry
	sender Sender
	inv    *inventory.Store

	pending map[uuid.UUID]pendingGrant
	seq     uint64
	synced  bool
	newOpID func() uuid.UUID
}

func NewClient(owner uuid.UUID, cat *catalog.Catalog, reg *state.Registry, sender Sender, opts ...ClientOpt) *Client {
	c := &Client{
		owner:   owner,
		cat:     cat,
		reg:     reg,
		sender:  sender,
		inv:     inventory.NewStore(owner, inventory.Speculative),
		pending: map[uuid.UUID]pendingGrant{},
		newOpID: uuid.New,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Owner() uuid.UUID {
	return c.owner
}

// Inventory is the client's speculative view.
func (c *Client) Inventory() *inventory.Store {
	return c.inv
}

// Synced reports whether a full inventory from the server has been applied.
func (c *Client) Synced() bool {
	return c.synced
}

// Pending reports how many grants await a verdict.
func (c *Client) Pending() int {
	return len(c.pending)
}

// Register speculatively grants amount units of a definition and asks the
// server to confirm. When the request cannot be sent the speculative change
// is undone and the error returned.
func (c *Client) Register(ctx context.Context, definitionID, amount int, params map[string]string) (uuid.UUID, error) {
	inst, err := c.cat.Instantiate(definitionID, amount)
	if err != nil {
		return uuid.Nil, err
	}

	op := c.newOpID()
	data, err := Encode(&GrantRequest{
		OperationID:  op,
		OwnerID:      c.owner,
		DefinitionID: definitionID,
		Amount:       amount,
		Params:       params,
	})
	if err != nil {
		return uuid.Nil, err
	}

	ref := c.inv.MergeOrAdd(inst)
	c.seq++
	c.pending[op] = pendingGrant{
		instanceID:   ref.ID,
		definitionID: definitionID,
		amount:       amount,
		seq:          c.seq,
	}

	if err := c.sender.Send(ctx, data); err != nil {
		delete(c.pending, op)
		if _, rbErr := c.inv.RollbackOptimisticAdd(ref.ID, amount); rbErr != nil {
			slog.ErrorContext(ctx, "rolling back unsent grant", "operation", op, "error", rbErr)
		}
		return uuid.Nil, fmt.Errorf("sending grant request: %w", err)
	}
	return op, nil
}

// Handle applies one server message.
func (c *Client) Handle(ctx context.Context, data []byte) error {
	msg, err := Decode(data)
	if err != nil {
		return err
	}

	switch m := msg.(type) {
	case *GrantConfirm:
		return c.HandleConfirm(m)
	case *GrantDeny:
		return c.HandleDeny(m)
	case *InventorySync:
		return c.HandleSync(ctx, m)
	case *ItemUpdate:
		return c.HandleUpdate(m)
	case *ItemRemoved:
		return c.HandleRemoved(m)
	default:
		return fmt.Errorf("%w: client does not accept %T", ErrUnknownMessage, msg)
	}
}

// HandleConfirm makes a speculative grant real under the server's instance
// id: the speculative units are rolled back and re-added to the instance the
// server named. Unknown operations are ignored, so a repeated confirm changes
// nothing.
func (c *Client) HandleConfirm(m *GrantConfirm) error {
	p, ok := c.pending[m.OperationID]
	if !ok {
		return nil
	}
	delete(c.pending, m.OperationID)

	if p.instanceID == m.InstanceID {
		return nil
	}

	if _, err := c.inv.RollbackOptimisticAdd(p.instanceID, p.amount); err != nil {
		return err
	}

	if held := c.inv.Get(m.InstanceID); held != nil {
		if st := held.State.Stack(); st != nil {
			st.CurrentAmount += p.amount
		}
		return nil
	}

	// Appended rather than merged: a merge could fold the units into a
	// stack that is itself still speculative and lose the server's id.
	inst, err := c.cat.InstantiateAs(m.InstanceID, p.definitionID, p.amount)
	if err != nil {
		return err
	}
	c.inv.Append(inst)
	return nil
}

// HandleDeny undoes a speculative grant. Unknown operations are ignored.
func (c *Client) HandleDeny(m *GrantDeny) error {
	p, ok := c.pending[m.OperationID]
	if !ok {
		return nil
	}
	delete(c.pending, m.OperationID)

	amount := m.Amount
	if amount <= 0 {
		amount = p.amount
	}
	_, err := c.inv.RollbackOptimisticAdd(p.instanceID, amount)
	return err
}

// HandleSync replaces the local view with the server's, then re-applies the
// grants still waiting for a verdict so they stay visible.
func (c *Client) HandleSync(ctx context.Context, m *InventorySync) error {
	if m.OwnerID != c.owner {
		return fmt.Errorf("sync for %s sent to client of %s", m.OwnerID, c.owner)
	}
	if m.CatalogDigest != "" && c.cat.Digest() != "" && m.CatalogDigest != c.cat.Digest() {
		slog.WarnContext(ctx, "server catalog differs from local catalog",
			"server", m.CatalogDigest,
			"local", c.cat.Digest())
	}

	items := make([]*item.Instance, 0, len(m.Items))
	for _, rec := range m.Items {
		inst, err := c.cat.Restore(rec, c.reg)
		if err != nil {
			slog.WarnContext(ctx, "skipping synced item", "instance", rec.InstanceID, "error", err)
			continue
		}
		items = append(items, inst)
	}
	if err := c.inv.Replace(items); err != nil {
		return err
	}
	c.synced = true

	for _, op := range c.pendingOps() {
		if err := c.reapply(op); err != nil {
			return err
		}
	}
	return nil
}

// HandleUpdate copies server state for one instance into the local view.
// Server state does not yet count grants still pending against that
// instance, so their units are added back on top.
func (c *Client) HandleUpdate(m *ItemUpdate) error {
	inst, err := c.cat.Restore(m.Item, c.reg)
	if err != nil {
		return err
	}
	if err := c.inv.ApplyUpdate(inst); err != nil {
		return err
	}

	local := c.inv.Get(inst.ID)
	st := local.State.Stack()
	for _, op := range c.pendingOps() {
		p := c.pending[op]
		if p.instanceID != inst.ID {
			continue
		}
		if st == nil {
			if err := c.reapply(op); err != nil {
				return err
			}
			continue
		}
		st.CurrentAmount += p.amount
	}
	return nil
}

// HandleRemoved drops an instance the server no longer holds. Pending grants
// that had merged into it are granted again so their units stay visible.
func (c *Client) HandleRemoved(m *ItemRemoved) error {
	if c.inv.Remove(m.InstanceID) == nil {
		return nil
	}
	for _, op := range c.pendingOps() {
		if c.pending[op].instanceID != m.InstanceID {
			continue
		}
		if err := c.reapply(op); err != nil {
			return err
		}
	}
	return nil
}

// pendingOps lists the waiting operations in the order they were registered.
func (c *Client) pendingOps() []uuid.UUID {
	ops := make([]uuid.UUID, 0, len(c.pending))
	for op := range c.pending {
		ops = append(ops, op)
	}
	slices.SortFunc(ops, func(a, b uuid.UUID) int {
		return cmp.Compare(c.pending[a].seq, c.pending[b].seq)
	})
	return ops
}

// reapply grants a pending operation's units again and records where they
// landed.
func (c *Client) reapply(op uuid.UUID) error {
	p := c.pending[op]
	inst, err := c.cat.Instantiate(p.definitionID, p.amount)
	if err != nil {
		return err
	}
	p.instanceID = c.inv.MergeOrAdd(inst).ID
	c.pending[op] = p
	return nil
}

// RequestSync asks the server for the full inventory.
func (c *Client) RequestSync(ctx context.Context) error {
	data, err := Encode(&SyncRequest{OwnerID: c.owner})
	if err != nil {
		return err
	}
	return c.sender.Send(ctx, data)
}

// Act asks the server to use, consume or discard an owned instance.
func (c *Client) Act(ctx context.Context, id uuid.UUID, action Action) error {
	if c.inv.Get(id) == nil {
		return fmt.Errorf("%w: %s", inventory.ErrNotFound, id)
	}
	data, err := Encode(&ItemAction{OwnerID: c.owner, InstanceID: id, Action: action})
	if err != nil {
		return err
	}
	return c.sender.Send(ctx, data)
}
