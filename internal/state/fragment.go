package state

// Kind names a fragment type. The numeric wire id for a kind is assigned
// through a Registry and never changes once shipped.
type Kind string

const (
	KindStack      Kind = "stack"
	KindDurability Kind = "durability"
	KindCatch      Kind = "catch"
)

// Fragment is one piece of mutable per-item runtime state.
type Fragment interface {
	Kind() Kind
	Clone() Fragment
	Equal(Fragment) bool
}

// StackState tracks how many units an item instance holds.
type StackState struct {
	CurrentAmount int
}

func (s *StackState) Kind() Kind { return KindStack }

func (s *StackState) Clone() Fragment {
	c := *s
	return &c
}

func (s *StackState) Equal(f Fragment) bool {
	o, ok := f.(*StackState)
	return ok && o != nil && *o == *s
}

// DurabilityState tracks remaining uses of an item instance.
type DurabilityState struct {
	Remaining int
}

func (s *DurabilityState) Kind() Kind { return KindDurability }

func (s *DurabilityState) Clone() Fragment {
	c := *s
	return &c
}

func (s *DurabilityState) Equal(f Fragment) bool {
	o, ok := f.(*DurabilityState)
	return ok && o != nil && *o == *s
}

// CatchState records the best catch made with a fish item.
type CatchState struct {
	MaxCaughtLength int
}

func (s *CatchState) Kind() Kind { return KindCatch }

func (s *CatchState) Clone() Fragment {
	c := *s
	return &c
}

func (s *CatchState) Equal(f Fragment) bool {
	o, ok := f.(*CatchState)
	return ok && o != nil && *o == *s
}

// Bag holds every fragment attached to one item instance, keyed by kind.
type Bag map[Kind]Fragment

// Set stores f under its own kind, replacing any previous fragment.
func (b Bag) Set(f Fragment) {
	b[f.Kind()] = f
}

// Has reports whether a fragment of kind k is present.
func (b Bag) Has(k Kind) bool {
	_, ok := b[k]
	return ok
}

// Stack returns the stack fragment, or nil if the bag has none.
func (b Bag) Stack() *StackState {
	s, _ := b[KindStack].(*StackState)
	return s
}

// Durability returns the durability fragment, or nil if the bag has none.
func (b Bag) Durability() *DurabilityState {
	s, _ := b[KindDurability].(*DurabilityState)
	return s
}

// Catch returns the catch fragment, or nil if the bag has none.
func (b Bag) Catch() *CatchState {
	s, _ := b[KindCatch].(*CatchState)
	return s
}

// Clone deep-copies the bag.
func (b Bag) Clone() Bag {
	c := make(Bag, len(b))
	for k, f := range b {
		c[k] = f.Clone()
	}
	return c
}

// Equal compares two bags by fragment value. Order never matters.
func (b Bag) Equal(o Bag) bool {
	if len(b) != len(o) {
		return false
	}
	for k, f := range b {
		of, ok := o[k]
		if !ok || !f.Equal(of) {
			return false
		}
	}
	return true
}
