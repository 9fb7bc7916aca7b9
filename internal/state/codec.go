package state

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Codec converts one fragment kind to and from its payload bytes.
type Codec interface {
	Kind() Kind
	Encode(Fragment) ([]byte, error)
	Decode([]byte) (Fragment, error)
}

// Permanent wire ids of the built-in fragment kinds. Changing one breaks
// every blob already persisted.
const (
	IDStack      ID = 1
	IDDurability ID = 2
	IDCatch      ID = 3
)

// builtins are the built-in fragment kinds and their permanent ids.
var builtins = []struct {
	id    ID
	codec Codec
}{
	{IDStack, StackCodec},
	{IDDurability, DurabilityCodec},
	{IDCatch, CatchCodec},
}

// RegisterBuiltins binds the built-in fragment kinds to their permanent ids.
func RegisterBuiltins(r *Registry) error {
	for _, b := range builtins {
		if err := r.Register(b.codec.Kind(), b.id, b.codec); err != nil {
			return err
		}
	}
	return nil
}

var (
	StackCodec = &int32Codec{
		kind: KindStack,
		get: func(f Fragment) (int, bool) {
			s, ok := f.(*StackState)
			if !ok || s == nil {
				return 0, false
			}
			return s.CurrentAmount, true
		},
		make: func(v int) Fragment { return &StackState{CurrentAmount: v} },
	}

	DurabilityCodec = &int32Codec{
		kind: KindDurability,
		get: func(f Fragment) (int, bool) {
			s, ok := f.(*DurabilityState)
			if !ok || s == nil {
				return 0, false
			}
			return s.Remaining, true
		},
		make: func(v int) Fragment { return &DurabilityState{Remaining: v} },
	}

	CatchCodec = &int32Codec{
		kind: KindCatch,
		get: func(f Fragment) (int, bool) {
			s, ok := f.(*CatchState)
			if !ok || s == nil {
				return 0, false
			}
			return s.MaxCaughtLength, true
		},
		make: func(v int) Fragment { return &CatchState{MaxCaughtLength: v} },
	}
)

// int32Codec stores a single integer field as 4 little endian bytes.
type int32Codec struct {
	kind Kind
	get  func(Fragment) (int, bool)
	make func(int) Fragment
}

func (c *int32Codec) Kind() Kind {
	return c.kind
}

func (c *int32Codec) Encode(f Fragment) ([]byte, error) {
	v, ok := c.get(f)
	if !ok {
		return nil, fmt.Errorf("%s codec cannot encode %T", c.kind, f)
	}
	if v < math.MinInt32 || v > math.MaxInt32 {
		return nil, fmt.Errorf("%s value %d overflows int32", c.kind, v)
	}
	return binary.LittleEndian.AppendUint32(nil, uint32(int32(v))), nil
}

func (c *int32Codec) Decode(b []byte) (Fragment, error) {
	if len(b) != 4 {
		return nil, fmt.Errorf("%s payload is %d bytes, expected 4", c.kind, len(b))
	}
	return c.make(int(int32(binary.LittleEndian.Uint32(b)))), nil
}
