package state

import (
	"cmp"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
)

// Blob layout, little endian:
//
//	count   u16
//	count times:
//	  id      u16
//	  length  u32
//	  payload [length]byte

// Pack encodes bag with the default registry.
func Pack(bag Bag) ([]byte, error) {
	return Default.Pack(bag)
}

// Unpack decodes a blob with the default registry.
func Unpack(data []byte) (Bag, error) {
	return Default.Unpack(data)
}

// Pack encodes every fragment in bag. Fragments are written in id order.
func (r *Registry) Pack(bag Bag) ([]byte, error) {
	if len(bag) > math.MaxUint16 {
		return nil, fmt.Errorf("bag holds %d fragments, limit is %d", len(bag), math.MaxUint16)
	}

	type entry struct {
		id   ID
		kind Kind
		frag Fragment
	}
	entries := make([]entry, 0, len(bag))
	for kind, f := range bag {
		id, err := r.ResolveID(kind)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry{id: id, kind: kind, frag: f})
	}
	slices.SortFunc(entries, func(a, b entry) int { return cmp.Compare(a.id, b.id) })

	buf := binary.LittleEndian.AppendUint16(nil, uint16(len(entries)))
	for _, e := range entries {
		codec, err := r.ResolveCodec(e.id)
		if err != nil {
			return nil, err
		}
		payload, err := codec.Encode(e.frag)
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", e.kind, err)
		}
		if uint64(len(payload)) > math.MaxUint32 {
			return nil, fmt.Errorf("encoding %s: payload too large", e.kind)
		}
		buf = binary.LittleEndian.AppendUint16(buf, uint16(e.id))
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(payload)))
		buf = append(buf, payload...)
	}
	return buf, nil
}

// Unpack decodes a blob produced by Pack. Entries whose id this build does
// not know are skipped; any framing error fails the whole decode.
func (r *Registry) Unpack(data []byte) (Bag, error) {
	rd := &reader{buf: data}

	count, ok := rd.u16()
	if !ok {
		return nil, fmt.Errorf("%w: missing entry count", ErrCorrupt)
	}

	bag := make(Bag, count)
	for i := range int(count) {
		id, ok := rd.u16()
		if !ok {
			return nil, fmt.Errorf("%w: entry %d: missing id", ErrCorrupt, i)
		}
		length, ok := rd.u32()
		if !ok {
			return nil, fmt.Errorf("%w: entry %d: missing length", ErrCorrupt, i)
		}
		payload, ok := rd.next(length)
		if !ok {
			return nil, fmt.Errorf("%w: entry %d: length %d exceeds remaining %d bytes", ErrCorrupt, i, length, rd.remaining())
		}

		codec, err := r.ResolveCodec(ID(id))
		if errors.Is(err, ErrUnknownID) {
			slog.Debug("skipping unknown state fragment", "id", id, "bytes", length)
			continue
		}
		if err != nil {
			return nil, err
		}

		f, err := codec.Decode(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %w", ErrCorrupt, i, err)
		}
		if bag.Has(codec.Kind()) {
			return nil, fmt.Errorf("%w: duplicate %s fragment", ErrCorrupt, codec.Kind())
		}
		bag[codec.Kind()] = f
	}

	if rd.remaining() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, rd.remaining())
	}
	return bag, nil
}

type reader struct {
	buf []byte
	off int
}

func (r *reader) remaining() int {
	return len(r.buf) - r.off
}

func (r *reader) next(n uint32) ([]byte, bool) {
	if uint64(n) > uint64(r.remaining()) {
		return nil, false
	}
	b := r.buf[r.off : r.off+int(n)]
	r.off += int(n)
	return b, true
}

func (r *reader) u16() (uint16, bool) {
	b, ok := r.next(2)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint16(b), true
}

func (r *reader) u32() (uint32, bool) {
	b, ok := r.next(4)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint32(b), true
}
