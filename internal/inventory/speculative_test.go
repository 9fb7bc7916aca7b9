package inventory

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/pixil98/go-testutil"

	"github.com/pixil98/go-tacklebox/internal/item"
	"github.com/pixil98/go-tacklebox/internal/state"
)

func TestStore_RollbackInverse(t *testing.T) {
	tests := map[string]struct {
		setup  []int
		defID  int
		amount int
	}{
		"new stack":          {defID: defHook, amount: 3},
		"merged stack":       {setup: []int{10}, defID: defHook, amount: 5},
		"overflow new stack": {setup: []int{95}, defID: defHook, amount: 10},
		"behind a full one":  {setup: []int{99, 40}, defID: defHook, amount: 50},
		"non-stackable":      {defID: defShell, amount: 1},
		"durable":            {defID: defRod, amount: 1},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			c := testCatalog(t)
			s := NewStore(uuid.New(), Speculative)
			for _, amt := range tt.setup {
				s.Append(mustInstance(t, c, tt.defID, amt))
			}
			before := snapshot(s)

			ref := s.MergeOrAdd(mustInstance(t, c, tt.defID, tt.amount))
			if snapshot(s) == before {
				t.Fatal("merge did not change the store")
			}

			if _, err := s.RollbackOptimisticAdd(ref.ID, tt.amount); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			testutil.AssertEqual(t, "store", snapshot(s), before)
		})
	}
}

func TestStore_RollbackReturnsAffected(t *testing.T) {
	c := testCatalog(t)
	s := NewStore(uuid.New(), Speculative)
	inst := s.MergeOrAdd(mustInstance(t, c, defHook, 4))

	got, err := s.RollbackOptimisticAdd(inst.ID, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "same", got == inst, true)
	testutil.AssertEqual(t, "amount", got.Amount(), 3)

	got, err = s.RollbackOptimisticAdd(inst.ID, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "removed instance", got == inst, true)
	testutil.AssertEqual(t, "len", s.Len(), 0)

	got, err = s.RollbackOptimisticAdd(inst.ID, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "unknown", got == nil, true)
}

func TestStore_SpeculativeOnly(t *testing.T) {
	s := NewStore(uuid.New(), Authoritative)

	if _, err := s.RollbackOptimisticAdd(uuid.New(), 1); !errors.Is(err, ErrWrongMode) {
		t.Errorf("rollback error = %v, expected %v", err, ErrWrongMode)
	}
	if err := s.ApplyUpdate(&item.Instance{}); !errors.Is(err, ErrWrongMode) {
		t.Errorf("update error = %v, expected %v", err, ErrWrongMode)
	}
	if err := s.Replace(nil); !errors.Is(err, ErrWrongMode) {
		t.Errorf("replace error = %v, expected %v", err, ErrWrongMode)
	}
}

func TestStore_ApplyUpdate(t *testing.T) {
	c := testCatalog(t)
	s := NewStore(uuid.New(), Speculative)
	rod := s.MergeOrAdd(mustInstance(t, c, defRod, 1))

	server := rod.Clone()
	server.State.Set(&state.DurabilityState{Remaining: 1})
	if err := s.ApplyUpdate(server); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "remaining", rod.State.Durability().Remaining, 1)

	// Later server mutations must not leak into the local copy.
	server.State.Durability().Remaining = 0
	testutil.AssertEqual(t, "isolated", rod.State.Durability().Remaining, 1)

	fresh := mustInstance(t, c, defWorm, 6)
	if err := s.ApplyUpdate(fresh); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "len", s.Len(), 2)
	testutil.AssertEqual(t, "appended", s.Get(fresh.ID).Amount(), 6)
}

func TestStore_Replace(t *testing.T) {
	c := testCatalog(t)
	s := NewStore(uuid.New(), Speculative)
	s.MergeOrAdd(mustInstance(t, c, defHook, 4))

	a := mustInstance(t, c, defWorm, 2)
	b := mustInstance(t, c, defShell, 1)
	if err := s.Replace([]*item.Instance{a, b}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	testutil.AssertEqual(t, "len", s.Len(), 2)
	testutil.AssertEqual(t, "first", s.Items()[0].ID, a.ID)
	testutil.AssertEqual(t, "second", s.Items()[1].ID, b.ID)
}
