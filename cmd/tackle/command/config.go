package command

import (
	"fmt"
	"os"
	"time"

	"github.com/pixil98/go-errors"

	"github.com/pixil98/go-tacklebox/internal/item"
	"github.com/pixil98/go-tacklebox/internal/storage"
)

type Config struct {
	TickInterval string                        `json:"tick_interval"`
	Catalog      AssetConfig[*item.Definition] `json:"catalog"`
	Nats         NatsConfig                    `json:"nats"`
	Persistence  PersistenceConfig             `json:"persistence"`
	Grants       GrantsConfig                  `json:"grants"`
}

func (c *Config) Validate() error {
	el := errors.NewErrorList()

	d, err := time.ParseDuration(c.TickInterval)
	if err != nil {
		el.Add(fmt.Errorf("parsing tick_interval: %w", err))
	} else if d < 100*time.Millisecond {
		el.Add(fmt.Errorf("tick_interval must be at least 100ms"))
	}

	el.Add(c.Catalog.validate("catalog"))
	el.Add(c.Nats.validate())
	el.Add(c.Persistence.validate())
	el.Add(c.Grants.validate())

	return el.Err()
}

func (c *Config) tickLength() time.Duration {
	d, _ := time.ParseDuration(c.TickInterval)
	return d
}

// AssetConfig points at a directory of JSON assets.
type AssetConfig[T storage.ValidatingSpec] struct {
	Path string `json:"path"`
}

func (c *AssetConfig[T]) validate(name string) error {
	if c.Path == "" {
		return fmt.Errorf("%s: path is required", name)
	}
	_, err := os.Stat(c.Path)
	if err != nil {
		return fmt.Errorf("%s: invalid path %q: %w", name, c.Path, err)
	}

	return nil
}

func (c *AssetConfig[T]) buildFileStore() (*storage.FileStore[T], error) {
	return storage.NewFileStore[T](c.Path)
}
