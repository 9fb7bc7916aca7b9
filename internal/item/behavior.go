package item

import (
	"encoding/json"
	"fmt"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-tacklebox/internal/state"
)

// Capability tags a behavior on a definition (e.g. "rod", "bait").
type Capability string

const (
	CapStackable Capability = "stackable"
	CapDurable   Capability = "durable"
	CapBait      Capability = "bait"
	CapRod       Capability = "rod"
	CapShop      Capability = "shop"
	CapSpecial   Capability = "special"
	CapFish      Capability = "fish"
	CapShell     Capability = "shell"
)

// Behavior is immutable configuration attached to a definition. Seed gives
// the behavior a chance to add its runtime state when an instance is created.
type Behavior interface {
	Capability() Capability
	Seed(bag state.Bag, amount int)
	Validate() error
}

// StackableBehavior marks an item as stackable even when max_stack is 1.
type StackableBehavior struct{}

func (b *StackableBehavior) Capability() Capability { return CapStackable }

func (b *StackableBehavior) Seed(bag state.Bag, amount int) {
	if !bag.Has(state.KindStack) {
		bag.Set(&state.StackState{CurrentAmount: amount})
	}
}

func (b *StackableBehavior) Validate() error { return nil }

// DurableBehavior gives an item a limited number of uses.
type DurableBehavior struct {
	MaxDurability int `json:"max_durability"`
}

func (b *DurableBehavior) Capability() Capability { return CapDurable }

func (b *DurableBehavior) Seed(bag state.Bag, _ int) {
	bag.Set(&state.DurabilityState{Remaining: b.MaxDurability})
}

func (b *DurableBehavior) Validate() error {
	if b.MaxDurability < 1 {
		return fmt.Errorf("max_durability must be at least 1")
	}
	return nil
}

// BaitBehavior marks bait and the kind of bait it is.
type BaitBehavior struct {
	BaitType string `json:"bait_type"`
}

func (b *BaitBehavior) Capability() Capability { return CapBait }

func (b *BaitBehavior) Seed(state.Bag, int) {}

func (b *BaitBehavior) Validate() error {
	if b.BaitType == "" {
		return fmt.Errorf("bait_type is required")
	}
	return nil
}

// RodBehavior marks a fishing rod. Rods that wear out also carry a
// DurableBehavior.
type RodBehavior struct {
	Strength      int    `json:"strength"`
	ThrowDistance string `json:"throw_distance"`
}

func (b *RodBehavior) Capability() Capability { return CapRod }

func (b *RodBehavior) Seed(state.Bag, int) {}

func (b *RodBehavior) Validate() error {
	el := errors.NewErrorList()
	if b.Strength < 1 {
		el.Add(fmt.Errorf("strength must be at least 1"))
	}
	switch b.ThrowDistance {
	case "", "close", "medium", "far":
	default:
		el.Add(fmt.Errorf("throw_distance %q is invalid", b.ThrowDistance))
	}
	return el.Err()
}

// ShopBehavior lists an item in the shop. A negative price means the item
// cannot be bought with that currency.
type ShopBehavior struct {
	PriceCoins  int `json:"price_coins"`
	PriceBucks  int `json:"price_bucks"`
	Amount      int `json:"amount"`
	UnlockLevel int `json:"unlock_level"`
}

func (b *ShopBehavior) Capability() Capability { return CapShop }

func (b *ShopBehavior) Seed(state.Bag, int) {}

func (b *ShopBehavior) Validate() error {
	el := errors.NewErrorList()
	if b.Amount < 1 {
		el.Add(fmt.Errorf("amount must be at least 1"))
	}
	if b.UnlockLevel < 0 {
		el.Add(fmt.Errorf("unlock_level must not be negative"))
	}
	if b.PriceCoins <= 0 && b.PriceBucks <= 0 {
		el.Add(fmt.Errorf("at least one price must be positive"))
	}
	return el.Err()
}

// SpecialBehavior applies a timed effect when the item is used.
type SpecialBehavior struct {
	Effect          string  `json:"effect"`
	Value           float64 `json:"value"`
	DurationSeconds float64 `json:"duration_seconds"`
}

func (b *SpecialBehavior) Capability() Capability { return CapSpecial }

func (b *SpecialBehavior) Seed(state.Bag, int) {}

func (b *SpecialBehavior) Validate() error {
	el := errors.NewErrorList()
	switch b.Effect {
	case "luck_boost", "wait_time_reduction":
	default:
		el.Add(fmt.Errorf("effect %q is invalid", b.Effect))
	}
	if b.DurationSeconds <= 0 {
		el.Add(fmt.Errorf("duration_seconds must be positive"))
	}
	return el.Err()
}

// FishBehavior describes a catchable fish. Caught fish remember the longest
// catch in a CatchState.
type FishBehavior struct {
	MinLength     int    `json:"min_length"`
	MaxLength     int    `json:"max_length"`
	AverageLength int    `json:"average_length"`
	BitesOn       string `json:"bites_on"`
	Rarity        string `json:"rarity"`
}

func (b *FishBehavior) Capability() Capability { return CapFish }

func (b *FishBehavior) Seed(bag state.Bag, _ int) {
	if !bag.Has(state.KindCatch) {
		bag.Set(&state.CatchState{MaxCaughtLength: 0})
	}
}

func (b *FishBehavior) Validate() error {
	el := errors.NewErrorList()
	if b.MinLength < 0 || b.MaxLength < b.MinLength {
		el.Add(fmt.Errorf("length range %d-%d is invalid", b.MinLength, b.MaxLength))
	}
	if b.AverageLength != 0 && (b.AverageLength < b.MinLength || b.AverageLength > b.MaxLength) {
		el.Add(fmt.Errorf("average_length %d is outside %d-%d", b.AverageLength, b.MinLength, b.MaxLength))
	}
	return el.Err()
}

// ShellBehavior only marks an item as a collectible shell.
type ShellBehavior struct{}

func (b *ShellBehavior) Capability() Capability { return CapShell }

func (b *ShellBehavior) Seed(state.Bag, int) {}

func (b *ShellBehavior) Validate() error { return nil }

func newBehavior(c Capability) (Behavior, error) {
	switch c {
	case CapStackable:
		return &StackableBehavior{}, nil
	case CapDurable:
		return &DurableBehavior{}, nil
	case CapBait:
		return &BaitBehavior{}, nil
	case CapRod:
		return &RodBehavior{}, nil
	case CapShop:
		return &ShopBehavior{}, nil
	case CapSpecial:
		return &SpecialBehavior{}, nil
	case CapFish:
		return &FishBehavior{}, nil
	case CapShell:
		return &ShellBehavior{}, nil
	default:
		return nil, fmt.Errorf("unknown behavior type %q", c)
	}
}

// Behaviors is the ordered behavior list of a definition. In JSON each entry
// is an object with a "type" field plus the behavior's own fields.
type Behaviors []Behavior

func (bs *Behaviors) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	out := make(Behaviors, 0, len(raw))
	for i, r := range raw {
		var head struct {
			Type Capability `json:"type"`
		}
		if err := json.Unmarshal(r, &head); err != nil {
			return fmt.Errorf("behavior %d: %w", i, err)
		}
		bh, err := newBehavior(head.Type)
		if err != nil {
			return fmt.Errorf("behavior %d: %w", i, err)
		}
		if err := json.Unmarshal(r, bh); err != nil {
			return fmt.Errorf("behavior %d (%s): %w", i, head.Type, err)
		}
		out = append(out, bh)
	}

	*bs = out
	return nil
}

func (bs Behaviors) MarshalJSON() ([]byte, error) {
	out := make([]map[string]any, 0, len(bs))
	for _, bh := range bs {
		fields := map[string]any{}
		b, err := json.Marshal(bh)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(b, &fields); err != nil {
			return nil, err
		}
		fields["type"] = bh.Capability()
		out = append(out, fields)
	}
	return json.Marshal(out)
}
