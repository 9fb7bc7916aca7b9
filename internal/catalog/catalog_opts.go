package catalog

import "github.com/google/uuid"

type CatalogOpt func(*Catalog)

// WithIDGenerator replaces uuid.New as the source of instance ids.
func WithIDGenerator(f func() uuid.UUID) CatalogOpt {
	return func(c *Catalog) {
		c.newID = f
	}
}
