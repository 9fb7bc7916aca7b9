package grant

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pixil98/go-tacklebox/internal/catalog"
	"github.com/pixil98/go-tacklebox/internal/inventory"
	"github.com/pixil98/go-tacklebox/internal/item"
	"github.com/pixil98/go-tacklebox/internal/persist"
	"github.com/pixil98/go-tacklebox/internal/state"
)

const DefaultMaxAmount = 999

// Reply sends a message back to the connection a request came from.
type Reply func(data []byte) error

// Pusher delivers unsolicited messages to an owner's client.
type Pusher interface {
	PublishToPlayer(owner uuid.UUID, data []byte) error
}

// Recorder accepts inventory changes for persistence.
type Recorder interface {
	Enqueue(c persist.Change) bool
}

// outcome is what the server remembers about a processed operation so a
// resent request gets the same answer.
type outcome struct {
	confirmed  bool
	instanceID uuid.UUID
	amount     int
	reason     string
}

func (o outcome) message(op uuid.UUID) any {
	if o.confirmed {
		return &GrantConfirm{OperationID: op, InstanceID: o.instanceID}
	}
	return &GrantDeny{OperationID: op, Amount: o.amount, Reason: o.reason}
}

type session struct {
	inv       *inventory.Store
	processed map[uuid.UUID]outcome
}

// Server is the authoritative side of the grant protocol. It holds one
// inventory and one processed-operation table per owner. All methods must be
// called from the driver loop.
type Server struct {
	cat *catalog.Catalog
	reg *state.Registry

	sessions   map[uuid.UUID]*session
	validators []Validator
	loader     persist.Loader
	recorder   Recorder
	pusher     Pusher
	maxAmount  int

	confirmed int
	denied    int
	replayed  int
}

func NewServer(cat *catalog.Catalog, reg *state.Registry, opts ...ServerOpt) *Server {
	s := &Server{
		cat:       cat,
		reg:       reg,
		sessions:  map[uuid.UUID]*session{},
		maxAmount: DefaultMaxAmount,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handle decodes one client message and answers it through reply.
func (s *Server) Handle(ctx context.Context, data []byte, reply Reply) error {
	msg, err := Decode(data)
	if err != nil {
		return err
	}

	switch m := msg.(type) {
	case *GrantRequest:
		return s.Grant(ctx, m, reply)
	case *SyncRequest:
		return s.Sync(ctx, m, reply)
	case *ItemAction:
		return s.Act(ctx, m)
	default:
		return fmt.Errorf("%w: server does not accept %T", ErrUnknownMessage, msg)
	}
}

// Grant processes a grant request and replies with a confirm or deny. A
// request whose operation id was already processed gets the stored answer
// and changes nothing.
func (s *Server) Grant(ctx context.Context, req *GrantRequest, reply Reply) error {
	resp := s.grant(ctx, req)
	data, err := Encode(resp)
	if err != nil {
		return err
	}
	return reply(data)
}

func (s *Server) grant(ctx context.Context, req *GrantRequest) any {
	sess, err := s.session(ctx, req.OwnerID)
	if err != nil {
		// Not recorded: the request can succeed once the inventory loads.
		slog.ErrorContext(ctx, "loading inventory for grant", "owner", req.OwnerID, "error", err)
		s.denied++
		return &GrantDeny{OperationID: req.OperationID, Amount: req.Amount, Reason: "inventory unavailable"}
	}

	if prev, ok := sess.processed[req.OperationID]; ok {
		s.replayed++
		slog.DebugContext(ctx, "replaying grant outcome", "operation", req.OperationID, "confirmed", prev.confirmed)
		return prev.message(req.OperationID)
	}

	def, err := s.validate(ctx, req, sess.inv)
	if err != nil {
		out := outcome{amount: req.Amount, reason: err.Error()}
		sess.processed[req.OperationID] = out
		s.denied++
		slog.InfoContext(ctx, "grant denied",
			"operation", req.OperationID,
			"owner", req.OwnerID,
			"definition_id", req.DefinitionID,
			"amount", req.Amount,
			"error", err)
		return out.message(req.OperationID)
	}

	inst, err := s.cat.Instantiate(def.ID, req.Amount)
	if err != nil {
		out := outcome{amount: req.Amount, reason: err.Error()}
		sess.processed[req.OperationID] = out
		s.denied++
		return out.message(req.OperationID)
	}
	ref := sess.inv.MergeOrAdd(inst)
	s.persist(ctx, req.OwnerID, ref)

	out := outcome{confirmed: true, instanceID: ref.ID, amount: req.Amount}
	sess.processed[req.OperationID] = out
	s.confirmed++
	slog.InfoContext(ctx, "grant confirmed",
		"operation", req.OperationID,
		"owner", req.OwnerID,
		"definition_id", def.ID,
		"amount", req.Amount,
		"instance", ref.ID)
	return out.message(req.OperationID)
}

func (s *Server) validate(ctx context.Context, req *GrantRequest, inv *inventory.Store) (*item.Definition, error) {
	if req.OperationID == uuid.Nil {
		return nil, fmt.Errorf("%w: operation id is required", ErrValidationFailed)
	}
	if req.Amount < 1 || req.Amount > s.maxAmount {
		return nil, fmt.Errorf("%w: amount %d outside 1-%d", ErrValidationFailed, req.Amount, s.maxAmount)
	}
	def, err := s.cat.Get(req.DefinitionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}
	if err := catalog.CheckAmount(def, req.Amount); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}
	for _, v := range s.validators {
		if err := v.ValidateGrant(ctx, req, def, inv); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
		}
	}
	return def, nil
}

// Sync replies with the owner's whole inventory.
func (s *Server) Sync(ctx context.Context, req *SyncRequest, reply Reply) error {
	sess, err := s.session(ctx, req.OwnerID)
	if err != nil {
		return err
	}
	recs, err := sess.inv.Records(s.reg)
	if err != nil {
		return err
	}
	data, err := Encode(&InventorySync{
		OwnerID:       req.OwnerID,
		CatalogDigest: s.cat.Digest(),
		Items:         recs,
	})
	if err != nil {
		return err
	}
	return reply(data)
}

// Inventory returns the owner's authoritative store, loading it if needed.
func (s *Server) Inventory(ctx context.Context, owner uuid.UUID) (*inventory.Store, error) {
	sess, err := s.session(ctx, owner)
	if err != nil {
		return nil, err
	}
	return sess.inv, nil
}

func (s *Server) session(ctx context.Context, owner uuid.UUID) (*session, error) {
	if sess, ok := s.sessions[owner]; ok {
		return sess, nil
	}
	if owner == uuid.Nil {
		return nil, fmt.Errorf("owner id is required")
	}

	inv := inventory.NewStore(owner, inventory.Authoritative)
	if s.loader != nil {
		recs, err := s.loader.LoadInventory(ctx, owner)
		if err != nil {
			return nil, fmt.Errorf("loading inventory of %s: %w", owner, err)
		}
		for _, rec := range recs {
			inst, err := s.cat.Restore(rec, s.reg)
			if err != nil {
				slog.WarnContext(ctx, "skipping stored item", "owner", owner, "instance", rec.InstanceID, "error", err)
				continue
			}
			inv.Append(inst)
		}
	}

	sess := &session{inv: inv, processed: map[uuid.UUID]outcome{}}
	s.sessions[owner] = sess
	return sess, nil
}

func (s *Server) persist(ctx context.Context, owner uuid.UUID, inst *item.Instance) {
	if s.recorder == nil {
		return
	}
	rec, err := inst.Record(s.reg)
	if err != nil {
		slog.ErrorContext(ctx, "packing item for persistence", "owner", owner, "instance", inst.ID, "error", err)
		return
	}
	s.recorder.Enqueue(persist.NewUpsert(owner, rec))
}

func (s *Server) destroy(owner uuid.UUID, id uuid.UUID) {
	if s.recorder == nil {
		return
	}
	s.recorder.Enqueue(persist.NewDestroy(owner, id))
}

func (s *Server) push(ctx context.Context, owner uuid.UUID, msg any) {
	if s.pusher == nil {
		return
	}
	data, err := Encode(msg)
	if err == nil {
		err = s.pusher.PublishToPlayer(owner, data)
	}
	if err != nil {
		slog.WarnContext(ctx, "pushing to player", "owner", owner, "error", err)
	}
}

// Tick reports protocol counters. It satisfies driver.Manager.
func (s *Server) Tick(ctx context.Context) error {
	slog.DebugContext(ctx, "grant server stats",
		"owners", len(s.sessions),
		"confirmed", s.confirmed,
		"denied", s.denied,
		"replayed", s.replayed)
	return nil
}
