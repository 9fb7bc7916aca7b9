package command

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pixil98/go-errors"

	"github.com/pixil98/go-tacklebox/internal/persist"
)

type PersistenceKind string

const (
	PersistenceNone   PersistenceKind = "none"
	PersistenceHTTP   PersistenceKind = "http"
	PersistenceSQLite PersistenceKind = "sqlite"
)

type PersistenceConfig struct {
	Kind       PersistenceKind `json:"kind"`
	URL        string          `json:"url"`
	SQLitePath string          `json:"sqlite_path"`
	QueueSize  int             `json:"queue_size"`
	Timeout    string          `json:"timeout"`

	// Token authenticates against the http backend. It is only read from the
	// environment so it never lands in a config file.
	Token string `json:"-" env:"TACKLE_PERSISTENCE_TOKEN"`
}

func (c *PersistenceConfig) validate() error {
	el := errors.NewErrorList()

	switch c.Kind {
	case "", PersistenceNone:
	case PersistenceHTTP:
		if c.URL == "" {
			el.Add(fmt.Errorf("persistence: url is required for kind http"))
		}
	case PersistenceSQLite:
		if c.SQLitePath == "" {
			el.Add(fmt.Errorf("persistence: sqlite_path is required for kind sqlite"))
		}
	default:
		el.Add(fmt.Errorf("persistence: unknown kind %q", c.Kind))
	}

	if c.QueueSize < 0 {
		el.Add(fmt.Errorf("persistence: queue_size must not be negative"))
	}
	if c.Timeout != "" {
		if _, err := time.ParseDuration(c.Timeout); err != nil {
			el.Add(fmt.Errorf("persistence: parsing timeout: %w", err))
		}
	}

	return el.Err()
}

// backend is what a persistence kind resolves to. Loader and closer are nil
// when the kind has no local copy of inventories.
type backend struct {
	sink   persist.Sink
	loader persist.Loader
	closer io.Closer
}

func (c *PersistenceConfig) buildBackend() (*backend, error) {
	switch c.Kind {
	case PersistenceHTTP:
		if err := env.Parse(c); err != nil {
			return nil, fmt.Errorf("reading persistence environment: %w", err)
		}
		sink, err := persist.NewHTTPSink(c.URL, c.Token, &http.Client{Timeout: c.timeout()})
		if err != nil {
			return nil, err
		}
		return &backend{sink: sink}, nil
	case PersistenceSQLite:
		db, err := persist.OpenSQLite(c.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &backend{sink: db, loader: db, closer: db}, nil
	default:
		return &backend{sink: persist.DiscardSink{}}, nil
	}
}

func (c *PersistenceConfig) buildOutbox(sink persist.Sink) *persist.Outbox {
	var opts []persist.OutboxOpt
	if c.QueueSize > 0 {
		opts = append(opts, persist.WithQueueSize(c.QueueSize))
	}
	if c.Timeout != "" {
		opts = append(opts, persist.WithTimeout(c.timeout()))
	}
	return persist.NewOutbox(sink, opts...)
}

func (c *PersistenceConfig) timeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return persist.DefaultTimeout
	}
	return d
}
