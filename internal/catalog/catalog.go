package catalog

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/pixil98/go-tacklebox/internal/item"
	"github.com/pixil98/go-tacklebox/internal/state"
	"github.com/pixil98/go-tacklebox/internal/storage"
)

// digester is implemented by stores that can fingerprint their content.
type digester interface {
	Digest() string
}

// Catalog maps definition ids to definitions and creates instances from them.
// It is filled once at boot and read-only afterwards.
type Catalog struct {
	defs   map[int]*item.Definition
	order  []int
	digest string
	loaded bool

	newID func() uuid.UUID
}

func New(opts ...CatalogOpt) *Catalog {
	c := &Catalog{
		defs:  map[int]*item.Definition{},
		newID: uuid.New,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FromDefinitions builds a loaded catalog from in-memory definitions, as if
// each had been read from an asset named after its position.
func FromDefinitions(defs []*item.Definition, opts ...CatalogOpt) (*Catalog, error) {
	c := New(opts...)
	for _, d := range defs {
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("definition %d: %w", d.ID, err)
		}
		c.add(storage.Identifier(fmt.Sprintf("def-%d", d.ID)), d)
	}
	c.loaded = true
	return c, nil
}

// Load reads every definition from st. Only the first call has any effect.
// When two assets declare the same definition id the one with the smaller
// asset identifier wins and the other is logged and dropped.
func (c *Catalog) Load(st storage.Storer[*item.Definition]) error {
	if c.loaded {
		return nil
	}

	all := st.GetAll()
	ids := make([]string, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		d := all[id]
		if d == nil {
			return fmt.Errorf("asset %s has no definition", id)
		}
		if d.Name == "" {
			d.Name = displayName(id)
		}
		c.add(storage.Identifier(id), d)
	}

	if dg, ok := st.(digester); ok {
		c.digest = dg.Digest()
	}
	c.loaded = true

	slog.Info("item catalog loaded", "definitions", len(c.defs), "digest", c.digest)
	return nil
}

func (c *Catalog) add(asset storage.Identifier, d *item.Definition) {
	if existing, ok := c.defs[d.ID]; ok {
		slog.Warn("duplicate item definition id, keeping first",
			"definition_id", d.ID,
			"kept", existing.Name,
			"dropped_asset", asset)
		return
	}
	c.defs[d.ID] = d
	c.order = append(c.order, d.ID)
}

func displayName(id string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(id, "-", " "))
}

func (c *Catalog) Loaded() bool {
	return c.loaded
}

// Digest fingerprints the loaded assets. Empty when the source had none.
func (c *Catalog) Digest() string {
	return c.digest
}

func (c *Catalog) Get(id int) (*item.Definition, error) {
	if !c.loaded {
		return nil, ErrNotLoaded
	}
	d, ok := c.defs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownDefinition, id)
	}
	return d, nil
}

// All returns the definitions in load order.
func (c *Catalog) All() []*item.Definition {
	out := make([]*item.Definition, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.defs[id])
	}
	return out
}

// CheckAmount reports whether amount can live in one instance of d.
func CheckAmount(d *item.Definition, amount int) error {
	if amount < 1 {
		return fmt.Errorf("%w: %d is below 1", ErrInvalidAmount, amount)
	}
	if !d.Stackable() && amount != 1 {
		return fmt.Errorf("%w: %s does not stack", ErrInvalidAmount, d.Name)
	}
	if amount > d.MaxStack {
		return fmt.Errorf("%w: %d exceeds max stack %d", ErrInvalidAmount, amount, d.MaxStack)
	}
	return nil
}

// Instantiate creates a new instance of definition id holding amount units
// with a freshly generated instance id.
func (c *Catalog) Instantiate(id int, amount int) (*item.Instance, error) {
	return c.InstantiateAs(c.newID(), id, amount)
}

// InstantiateAs creates an instance with a caller-chosen id, used when the
// server has already assigned one.
func (c *Catalog) InstantiateAs(instanceID uuid.UUID, id int, amount int) (*item.Instance, error) {
	d, err := c.Get(id)
	if err != nil {
		return nil, err
	}
	if err := CheckAmount(d, amount); err != nil {
		return nil, err
	}
	return &item.Instance{
		ID:    instanceID,
		Def:   d,
		State: d.Seed(amount),
	}, nil
}

// Restore rebuilds an instance from its record. An empty blob yields an
// instance with no state.
func (c *Catalog) Restore(rec item.Record, reg *state.Registry) (*item.Instance, error) {
	d, err := c.Get(rec.DefinitionID)
	if err != nil {
		return nil, err
	}

	bag := state.Bag{}
	if len(rec.StateBlob) > 0 {
		bag, err = reg.Unpack(rec.StateBlob)
		if err != nil {
			return nil, fmt.Errorf("restoring %s: %w", rec.InstanceID, err)
		}
	}

	return &item.Instance{
		ID:    rec.InstanceID,
		Def:   d,
		State: bag,
	}, nil
}
