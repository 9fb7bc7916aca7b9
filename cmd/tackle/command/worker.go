package command

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/pixil98/go-service"

	"github.com/pixil98/go-tacklebox/internal/catalog"
	"github.com/pixil98/go-tacklebox/internal/driver"
	"github.com/pixil98/go-tacklebox/internal/grant"
	"github.com/pixil98/go-tacklebox/internal/messaging"
	"github.com/pixil98/go-tacklebox/internal/persist"
	"github.com/pixil98/go-tacklebox/internal/state"
)

func BuildWorkers(config interface{}) (service.WorkerList, error) {
	cfg, ok := config.(*Config)
	if !ok {
		return nil, fmt.Errorf("unable to cast config")
	}

	// Load the item catalog
	defs, err := cfg.Catalog.buildFileStore()
	if err != nil {
		return nil, fmt.Errorf("creating catalog store: %w", err)
	}
	cat := catalog.New()
	if err := cat.Load(defs); err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	state.Default.Seal()
	slog.Info("catalog loaded",
		"definitions", len(cat.All()),
		"digest", cat.Digest(),
		"state_kinds", state.Default.Kinds())

	// Setup the broker
	nats, err := cfg.Nats.buildNatsServer()
	if err != nil {
		return nil, fmt.Errorf("creating nats server: %w", err)
	}

	// Setup persistence
	be, err := cfg.Persistence.buildBackend()
	if err != nil {
		return nil, fmt.Errorf("creating persistence backend: %w", err)
	}
	outbox := cfg.Persistence.buildOutbox(be.sink)

	// Setup the grant server
	opts := append(cfg.Grants.serverOpts(),
		grant.WithRecorder(outbox),
		grant.WithPusher(messaging.NewPlayerPublisher(nats)),
	)
	if be.loader != nil {
		opts = append(opts, grant.WithLoader(be.loader))
	}
	server := grant.NewServer(cat, state.Default, opts...)

	// Setup the driver
	drv := driver.NewDriver([]driver.Manager{server}, driver.WithTickLength(cfg.tickLength()))

	return service.WorkerList{
		"nats":   nats,
		"driver": drv,
		"outbox": &persistWorker{outbox: outbox, closer: be.closer},
		"grants": grant.NewEndpoint(server, nats, drv, cfg.Grants.subject()),
	}, nil
}

// persistWorker runs the outbox and releases the backend once the outbox
// has flushed.
type persistWorker struct {
	outbox *persist.Outbox
	closer io.Closer
}

func (w *persistWorker) Start(ctx context.Context) error {
	err := w.outbox.Start(ctx)

	stats := w.outbox.Stats()
	slog.Info("persistence outbox stopped",
		"delivered", stats.Delivered,
		"failed", stats.Failed,
		"dropped", stats.Dropped)

	if w.closer != nil {
		if cerr := w.closer.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing persistence backend: %w", cerr)
		}
	}
	return err
}
