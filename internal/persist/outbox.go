package persist

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

const (
	DefaultQueueSize = 1024
	DefaultTimeout   = 5 * time.Second
)

// Outbox hands inventory changes from the control loop to a sink on its own
// goroutine. Delivery is best effort: a full queue drops the change and a
// failed delivery is logged, never retried.
type Outbox struct {
	sink      Sink
	ch        chan Change
	queueSize int
	timeout   time.Duration

	delivered atomic.Uint64
	failed    atomic.Uint64
	dropped   atomic.Uint64
}

func NewOutbox(sink Sink, opts ...OutboxOpt) *Outbox {
	o := &Outbox{
		sink:      sink,
		queueSize: DefaultQueueSize,
		timeout:   DefaultTimeout,
	}

	for _, opt := range opts {
		opt(o)
	}
	o.ch = make(chan Change, o.queueSize)

	return o
}

// Enqueue never blocks. It reports whether the change was accepted.
func (o *Outbox) Enqueue(c Change) bool {
	select {
	case o.ch <- c:
		return true
	default:
		o.dropped.Add(1)
		slog.Warn("persistence queue full, dropping change",
			"op", c.Op,
			"owner", c.OwnerID,
			"instance", c.InstanceID)
		return false
	}
}

// Start delivers queued changes until ctx is done, then flushes what is
// already queued.
func (o *Outbox) Start(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			o.flush(context.WithoutCancel(ctx))
			return nil
		case c := <-o.ch:
			o.deliver(ctx, c)
		}
	}
}

func (o *Outbox) flush(ctx context.Context) {
	for {
		select {
		case c := <-o.ch:
			o.deliver(ctx, c)
		default:
			return
		}
	}
}

func (o *Outbox) deliver(ctx context.Context, c Change) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	if err := o.sink.Apply(ctx, c); err != nil {
		o.failed.Add(1)
		slog.ErrorContext(ctx, "persisting inventory change",
			"op", c.Op,
			"owner", c.OwnerID,
			"instance", c.InstanceID,
			"error", err)
		return
	}
	o.delivered.Add(1)
}

// Stats reports delivery counters since start.
type Stats struct {
	Queued    int
	Delivered uint64
	Failed    uint64
	Dropped   uint64
}

func (o *Outbox) Stats() Stats {
	return Stats{
		Queued:    len(o.ch),
		Delivered: o.delivered.Load(),
		Failed:    o.failed.Load(),
		Dropped:   o.dropped.Load(),
	}
}
