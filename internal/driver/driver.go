package driver

import (
	"context"
	"log/slog"
	"time"
)

const (
	DefaultTickLength = time.Second * 2
	DefaultQueueSize  = 256
)

type Manager interface {
	Tick(context.Context) error
}

// Job is a unit of game-state mutation run on the driver loop.
type Job func(context.Context)

// Driver is the single control loop of the process. Every inventory and grant
// mutation runs as a Job on this loop, one at a time in submission order, so
// the state it touches needs no locking. Managers are ticked between jobs.
type Driver struct {
	tickLength time.Duration
	queueSize  int
	managers   []Manager
	jobs       chan Job
}

func NewDriver(managers []Manager, opts ...DriverOpt) *Driver {
	d := &Driver{
		tickLength: DefaultTickLength,
		queueSize:  DefaultQueueSize,
		managers:   managers,
	}

	for _, opt := range opts {
		opt(d)
	}
	d.jobs = make(chan Job, d.queueSize)

	return d
}

// Submit queues job for the loop. It blocks while the queue is full and
// gives up when ctx is done.
func (d *Driver) Submit(ctx context.Context, job Job) error {
	select {
	case d.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Driver) Start(ctx context.Context) error {
	ticker := time.NewTicker(d.tickLength)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case job := <-d.jobs:
			d.run(ctx, job)
		case <-ticker.C:
			err := d.Tick(ctx)
			if err != nil {
				return err
			}
		}
	}
}

func (d *Driver) run(ctx context.Context, job Job) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "driver job panicked", "panic", r)
		}
	}()
	job(ctx)
}

func (d *Driver) Tick(ctx context.Context) error {
	for _, m := range d.managers {
		if err := m.Tick(ctx); err != nil {
			return err
		}
	}
	return nil
}
