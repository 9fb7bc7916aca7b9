package item

import (
	"fmt"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-tacklebox/internal/state"
)

// forbiddenPairs lists capabilities that may not appear on the same definition.
var forbiddenPairs = [][2]Capability{
	{CapRod, CapBait},
	{CapRod, CapFish},
	{CapBait, CapFish},
}

// Definition is the immutable template for an item, loaded from catalog
// asset files. Many instances share one definition.
type Definition struct {
	// ID is the numeric definition id used on the wire and in persistence.
	ID int `json:"definition_id"`

	// Name is the display name. When empty the catalog derives one from
	// the asset identifier.
	Name string `json:"name"`

	Description string `json:"description"`
	Icon        string `json:"icon"`

	// MaxStack is the largest amount a single instance can hold.
	MaxStack int `json:"max_stack"`

	// Static items are never consumed or worn down.
	Static bool `json:"static"`

	// InfiniteUse items can be used without losing durability.
	InfiniteUse bool `json:"infinite_use"`

	Behaviors Behaviors `json:"behaviors"`
}

// Validate satisfies storage.ValidatingSpec
func (d *Definition) Validate() error {
	el := errors.NewErrorList()

	if d.ID <= 0 {
		el.Add(fmt.Errorf("definition_id must be positive"))
	}
	if d.MaxStack < 1 {
		el.Add(fmt.Errorf("max_stack must be at least 1"))
	}

	seen := map[Capability]bool{}
	for _, b := range d.Behaviors {
		if b == nil {
			el.Add(fmt.Errorf("behavior must not be null"))
			continue
		}
		if seen[b.Capability()] {
			el.Add(fmt.Errorf("behavior %q declared more than once", b.Capability()))
		}
		seen[b.Capability()] = true

		if err := b.Validate(); err != nil {
			el.Add(fmt.Errorf("%s behavior: %w", b.Capability(), err))
		}
	}

	for _, p := range forbiddenPairs {
		if seen[p[0]] && seen[p[1]] {
			el.Add(fmt.Errorf("an item cannot be both %s and %s", p[0], p[1]))
		}
	}

	return el.Err()
}

// Has reports whether the definition carries a behavior with capability c.
func (d *Definition) Has(c Capability) bool {
	for _, b := range d.Behaviors {
		if b.Capability() == c {
			return true
		}
	}
	return false
}

// Stackable reports whether instances carry a stack fragment.
func (d *Definition) Stackable() bool {
	return d.MaxStack > 1 || d.Has(CapStackable)
}

// Consumable reports whether uses and consumption change the instance.
func (d *Definition) Consumable() bool {
	return !d.Static && !d.InfiniteUse
}

// Seed builds the initial runtime state of a new instance holding amount
// units. An implicit stack fragment comes first, then each behavior seeds
// in declared order.
func (d *Definition) Seed(amount int) state.Bag {
	bag := state.Bag{}
	if d.Stackable() && !d.Has(CapStackable) {
		bag.Set(&state.StackState{CurrentAmount: amount})
	}
	for _, b := range d.Behaviors {
		b.Seed(bag, amount)
	}
	return bag
}

// BehaviorOf returns the first behavior of type T on d.
func BehaviorOf[T Behavior](d *Definition) (T, bool) {
	for _, b := range d.Behaviors {
		if t, ok := b.(T); ok {
			return t, true
		}
	}
	var zero T
	return zero, false
}
