package grant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/pixil98/go-tacklebox/internal/catalog"
	"github.com/pixil98/go-tacklebox/internal/inventory"
	"github.com/pixil98/go-tacklebox/internal/item"
	"github.com/pixil98/go-tacklebox/internal/persist"
	"github.com/pixil98/go-tacklebox/internal/state"
)

const (
	defHook  = 1
	defRod   = 2
	defWorm  = 3
	defLure  = 4
	defShell = 5
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.FromDefinitions([]*item.Definition{
		{ID: defHook, Name: "Hook", MaxStack: 99},
		{ID: defRod, Name: "Rod", MaxStack: 1, Behaviors: item.Behaviors{
			&item.RodBehavior{Strength: 2},
			&item.DurableBehavior{MaxDurability: 2},
		}},
		{ID: defWorm, Name: "Worm", MaxStack: 20, Behaviors: item.Behaviors{&item.BaitBehavior{BaitType: "worm"}}},
		{ID: defLure, Name: "Lure", MaxStack: 10, Behaviors: item.Behaviors{
			&item.BaitBehavior{BaitType: "lure"},
			&item.ShopBehavior{PriceCoins: 40, Amount: 1},
		}},
		{ID: defShell, Name: "Shell", MaxStack: 1, Behaviors: item.Behaviors{&item.ShellBehavior{}}},
	})
	if err != nil {
		t.Fatalf("building catalog: %v", err)
	}
	return c
}

type fakeRecorder struct {
	changes []persist.Change
}

func (r *fakeRecorder) Enqueue(c persist.Change) bool {
	r.changes = append(r.changes, c)
	return true
}

type fakePusher struct {
	pushed map[uuid.UUID][][]byte
}

func (p *fakePusher) PublishToPlayer(owner uuid.UUID, data []byte) error {
	if p.pushed == nil {
		p.pushed = map[uuid.UUID][][]byte{}
	}
	p.pushed[owner] = append(p.pushed[owner], data)
	return nil
}

type fakeLoader struct {
	records map[uuid.UUID][]item.Record
	err     error
	calls   int
}

func (l *fakeLoader) LoadInventory(_ context.Context, owner uuid.UUID) ([]item.Record, error) {
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	return l.records[owner], nil
}

// harness wires a client to a server in memory. Requests and replies queue
// up until the test delivers them, so tests control interleaving.
type harness struct {
	t        *testing.T
	ctx      context.Context
	owner    uuid.UUID
	cat      *catalog.Catalog
	server   *Server
	client   *Client
	recorder *fakeRecorder
	pusher   *fakePusher

	requests [][]byte
	replies  [][]byte
	sendErr  error
}

func newHarness(t *testing.T, opts ...ServerOpt) *harness {
	t.Helper()
	h := &harness{
		t:        t,
		ctx:      context.Background(),
		owner:    uuid.New(),
		cat:      testCatalog(t),
		recorder: &fakeRecorder{},
		pusher:   &fakePusher{},
	}
	opts = append([]ServerOpt{WithRecorder(h.recorder), WithPusher(h.pusher)}, opts...)
	h.server = NewServer(h.cat, state.Default, opts...)
	h.client = NewClient(h.owner, h.cat, state.Default, SenderFunc(func(_ context.Context, data []byte) error {
		if h.sendErr != nil {
			return h.sendErr
		}
		h.requests = append(h.requests, data)
		return nil
	}))
	return h
}

func (h *harness) register(defID, amount int) uuid.UUID {
	h.t.Helper()
	op, err := h.client.Register(h.ctx, defID, amount, map[string]string{SourceParam: "shop"})
	if err != nil {
		h.t.Fatalf("register: %v", err)
	}
	return op
}

// serve lets the server answer every queued request.
func (h *harness) serve() {
	h.t.Helper()
	reqs := h.requests
	h.requests = nil
	for _, data := range reqs {
		err := h.server.Handle(h.ctx, data, func(resp []byte) error {
			h.replies = append(h.replies, resp)
			return nil
		})
		if err != nil {
			h.t.Fatalf("server handle: %v", err)
		}
	}
}

// deliver hands every queued reply to the client.
func (h *harness) deliver() {
	h.t.Helper()
	reps := h.replies
	h.replies = nil
	for _, data := range reps {
		if err := h.client.Handle(h.ctx, data); err != nil {
			h.t.Fatalf("client handle: %v", err)
		}
	}
}

func (h *harness) sync() {
	h.t.Helper()
	if err := h.client.RequestSync(h.ctx); err != nil {
		h.t.Fatalf("request sync: %v", err)
	}
	h.serve()
	h.deliver()
}

func (h *harness) serverInventory() *inventory.Store {
	h.t.Helper()
	inv, err := h.server.Inventory(h.ctx, h.owner)
	if err != nil {
		h.t.Fatalf("server inventory: %v", err)
	}
	return inv
}

// snapshot renders a store as "id:def:amount" entries.
func snapshot(s *inventory.Store) string {
	parts := make([]string, 0, s.Len())
	for _, inst := range s.Items() {
		parts = append(parts, fmt.Sprintf("%s:%d:%d", inst.ID, inst.DefinitionID(), inst.Amount()))
	}
	return strings.Join(parts, ",")
}

// denyAll is a validator standing in for a failed funds check.
var denyAll = ValidatorFunc(func(context.Context, *GrantRequest, *item.Definition, *inventory.Store) error {
	return errors.New("insufficient funds")
})

func decodeAs[T any](t *testing.T, data []byte) T {
	t.Helper()
	msg, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	m, ok := msg.(T)
	if !ok {
		t.Fatalf("message is %T", msg)
	}
	return m
}
