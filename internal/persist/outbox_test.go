package persist

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pixil98/go-testutil"
)

type recordingSink struct {
	mu      sync.Mutex
	changes []Change
	fail    map[uuid.UUID]bool
	applied chan struct{}
}

func newRecordingSink() *recordingSink {
	return &recordingSink{fail: map[uuid.UUID]bool{}, applied: make(chan struct{}, 64)}
}

func (s *recordingSink) Apply(_ context.Context, c Change) error {
	defer func() { s.applied <- struct{}{} }()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail[c.InstanceID] {
		return errors.New("remote unavailable")
	}
	s.changes = append(s.changes, c)
	return nil
}

func (s *recordingSink) got() []Change {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Change(nil), s.changes...)
}

func waitApplied(t *testing.T, s *recordingSink, n int) {
	t.Helper()
	for range n {
		select {
		case <-s.applied:
		case <-time.After(5 * time.Second):
			t.Fatal("sink was not called")
		}
	}
}

func TestOutbox_DeliversInOrder(t *testing.T) {
	sink := newRecordingSink()
	o := NewOutbox(sink)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = o.Start(ctx) }()

	owner := uuid.New()
	a, b := uuid.New(), uuid.New()
	o.Enqueue(Change{Op: OpUpsert, OwnerID: owner, InstanceID: a, DefinitionID: 1})
	o.Enqueue(NewDestroy(owner, b))
	waitApplied(t, sink, 2)

	got := sink.got()
	testutil.AssertEqual(t, "count", len(got), 2)
	testutil.AssertEqual(t, "first", got[0].InstanceID, a)
	testutil.AssertEqual(t, "second op", got[1].Op, OpDestroy)
	testutil.AssertEqual(t, "delivered", o.Stats().Delivered, uint64(2))
}

func TestOutbox_FailureIsNotRetried(t *testing.T) {
	sink := newRecordingSink()
	bad := uuid.New()
	sink.fail[bad] = true
	o := NewOutbox(sink)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = o.Start(ctx) }()

	good := uuid.New()
	o.Enqueue(NewDestroy(uuid.New(), bad))
	o.Enqueue(NewDestroy(uuid.New(), good))
	waitApplied(t, sink, 2)

	got := sink.got()
	testutil.AssertEqual(t, "count", len(got), 1)
	testutil.AssertEqual(t, "survivor", got[0].InstanceID, good)

	stats := o.Stats()
	testutil.AssertEqual(t, "failed", stats.Failed, uint64(1))
	testutil.AssertEqual(t, "delivered", stats.Delivered, uint64(1))
}

func TestOutbox_DropsWhenFull(t *testing.T) {
	o := NewOutbox(DiscardSink{}, WithQueueSize(1))

	testutil.AssertEqual(t, "first", o.Enqueue(NewDestroy(uuid.New(), uuid.New())), true)
	testutil.AssertEqual(t, "second", o.Enqueue(NewDestroy(uuid.New(), uuid.New())), false)

	stats := o.Stats()
	testutil.AssertEqual(t, "queued", stats.Queued, 1)
	testutil.AssertEqual(t, "dropped", stats.Dropped, uint64(1))
}

func TestOutbox_FlushesOnShutdown(t *testing.T) {
	sink := newRecordingSink()
	o := NewOutbox(sink)
	for range 3 {
		o.Enqueue(NewDestroy(uuid.New(), uuid.New()))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := o.Start(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	testutil.AssertEqual(t, "flushed", len(sink.got()), 3)
}
