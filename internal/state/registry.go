package state

import (
	"fmt"
	"slices"
)

// ID is the compact wire id of a fragment kind.
type ID uint16

// Registry maps fragment kinds to permanent wire ids and codecs.
//
// A registry is populated during boot and sealed before the process starts
// serving. After Seal it is read-only, so concurrent readers need no locking.
type Registry struct {
	ids    map[Kind]ID
	codecs map[ID]Codec
	sealed bool
}

// Default is the process-wide registry. The built-in kinds are bound at init.
var Default = NewRegistry()

func init() {
	for _, b := range builtins {
		Default.MustRegister(b.codec.Kind(), b.id, b.codec)
	}
}

func NewRegistry() *Registry {
	return &Registry{
		ids:    map[Kind]ID{},
		codecs: map[ID]Codec{},
	}
}

// Register binds kind to id. Registering the same pair twice is a no-op;
// binding a known kind to another id, or a known id to another kind, fails
// with ErrRegistryConflict.
func (r *Registry) Register(kind Kind, id ID, codec Codec) error {
	if r.sealed {
		return fmt.Errorf("%w: cannot register %q", ErrRegistrySealed, kind)
	}
	if codec == nil {
		return fmt.Errorf("%w: nil codec for %q", ErrRegistryConflict, kind)
	}
	if codec.Kind() != kind {
		return fmt.Errorf("%w: codec for %q registered as %q", ErrRegistryConflict, codec.Kind(), kind)
	}

	if existing, ok := r.ids[kind]; ok {
		if existing != id {
			return fmt.Errorf("%w: %q already registered with id %d, not %d", ErrRegistryConflict, kind, existing, id)
		}
		return nil
	}
	if other, ok := r.codecs[id]; ok {
		return fmt.Errorf("%w: id %d already bound to %q", ErrRegistryConflict, id, other.Kind())
	}

	r.ids[kind] = id
	r.codecs[id] = codec
	return nil
}

// MustRegister is Register for boot code, where a conflict is fatal.
func (r *Registry) MustRegister(kind Kind, id ID, codec Codec) {
	if err := r.Register(kind, id, codec); err != nil {
		panic(err)
	}
}

// Seal ends the registration phase.
func (r *Registry) Seal() {
	r.sealed = true
}

func (r *Registry) Sealed() bool {
	return r.sealed
}

func (r *Registry) ResolveID(kind Kind) (ID, error) {
	id, ok := r.ids[kind]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return id, nil
}

func (r *Registry) ResolveCodec(id ID) (Codec, error) {
	c, ok := r.codecs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownID, id)
	}
	return c, nil
}

// Kinds lists every registered kind ordered by id.
func (r *Registry) Kinds() []Kind {
	ids := make([]ID, 0, len(r.codecs))
	for id := range r.codecs {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	kinds := make([]Kind, len(ids))
	for i, id := range ids {
		kinds[i] = r.codecs[id].Kind()
	}
	return kinds
}
