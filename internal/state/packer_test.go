package state

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/pixil98/go-testutil"
)

func TestPack_RoundTrip(t *testing.T) {
	values := []int{0, 1, 7, 99, 1 << 20, math.MaxInt32, -1, math.MinInt32}

	tests := map[string]struct {
		make func(v int) Fragment
	}{
		"stack":      {make: func(v int) Fragment { return &StackState{CurrentAmount: v} }},
		"durability": {make: func(v int) Fragment { return &DurabilityState{Remaining: v} }},
		"catch":      {make: func(v int) Fragment { return &CatchState{MaxCaughtLength: v} }},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			for _, v := range values {
				bag := Bag{}
				bag.Set(tt.make(v))

				blob, err := Pack(bag)
				if err != nil {
					t.Fatalf("pack %d: unexpected error: %v", v, err)
				}
				got, err := Unpack(blob)
				if err != nil {
					t.Fatalf("unpack %d: unexpected error: %v", v, err)
				}
				if !got.Equal(bag) {
					t.Errorf("value %d did not survive the round trip: %v", v, got)
				}
			}
		})
	}
}

func TestPack_RoundTripFullBag(t *testing.T) {
	bag := Bag{}
	bag.Set(&StackState{CurrentAmount: 12})
	bag.Set(&DurabilityState{Remaining: 3})
	bag.Set(&CatchState{MaxCaughtLength: 41})

	blob, err := Pack(bag)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := Unpack(blob)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	testutil.AssertEqual(t, "equal", got.Equal(bag), true)
	testutil.AssertEqual(t, "stack", got.Stack().CurrentAmount, 12)
	testutil.AssertEqual(t, "durability", got.Durability().Remaining, 3)
	testutil.AssertEqual(t, "catch", got.Catch().MaxCaughtLength, 41)
}

func TestPack_Layout(t *testing.T) {
	bag := Bag{}
	bag.Set(&DurabilityState{Remaining: 5})
	bag.Set(&StackState{CurrentAmount: 2})

	blob, err := Pack(bag)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// count + 2 * (id + length + int32 payload)
	testutil.AssertEqual(t, "length", len(blob), 2+2*(2+4+4))
	testutil.AssertEqual(t, "count", binary.LittleEndian.Uint16(blob[0:]), uint16(2))
	testutil.AssertEqual(t, "first id", binary.LittleEndian.Uint16(blob[2:]), uint16(IDStack))
	testutil.AssertEqual(t, "first length", binary.LittleEndian.Uint32(blob[4:]), uint32(4))
	testutil.AssertEqual(t, "first value", binary.LittleEndian.Uint32(blob[8:]), uint32(2))
	testutil.AssertEqual(t, "second id", binary.LittleEndian.Uint16(blob[12:]), uint16(IDDurability))
}

func TestPack_EmptyBag(t *testing.T) {
	blob, err := Pack(Bag{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "length", len(blob), 2)

	got, err := Unpack(blob)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "fragments", len(got), 0)
}

func TestPack_UnknownKind(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(KindStack, IDStack, StackCodec)

	bag := Bag{}
	bag.Set(&DurabilityState{Remaining: 1})

	_, err := r.Pack(bag)
	if !errors.Is(err, ErrUnknownKind) {
		t.Errorf("error = %v, expected %v", err, ErrUnknownKind)
	}
}

func TestUnpack_SkipsUnknownIDs(t *testing.T) {
	// A newer build knows an extra kind; an older build must keep the rest.
	newer := newBuiltinRegistry(t)
	newer.MustRegister("glow", 50, &fakeCodec{kind: "glow"})

	bag := Bag{}
	bag.Set(&StackState{CurrentAmount: 4})
	bag.Set(&DurabilityState{Remaining: 9})
	bag["glow"] = &StackState{}

	blob, err := newer.Pack(bag)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := newBuiltinRegistry(t).Unpack(blob)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "fragments", len(got), 2)
	testutil.AssertEqual(t, "stack", got.Stack().CurrentAmount, 4)
	testutil.AssertEqual(t, "durability", got.Durability().Remaining, 9)
}

func TestUnpack_Corrupt(t *testing.T) {
	good, err := Pack(Bag{KindStack: &StackState{CurrentAmount: 3}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	duplicate := binary.LittleEndian.AppendUint16(nil, 2)
	for range 2 {
		duplicate = binary.LittleEndian.AppendUint16(duplicate, uint16(IDStack))
		duplicate = binary.LittleEndian.AppendUint32(duplicate, 4)
		duplicate = binary.LittleEndian.AppendUint32(duplicate, 1)
	}

	oversized := append([]byte{}, good...)
	binary.LittleEndian.PutUint32(oversized[4:], 4000)

	badPayload := binary.LittleEndian.AppendUint16(nil, 1)
	badPayload = binary.LittleEndian.AppendUint16(badPayload, uint16(IDStack))
	badPayload = binary.LittleEndian.AppendUint32(badPayload, 2)
	badPayload = append(badPayload, 0, 0)

	tests := map[string]struct {
		blob   []byte
		expMsg string
	}{
		"empty":             {blob: nil, expMsg: "missing entry count"},
		"half count":        {blob: []byte{1}, expMsg: "missing entry count"},
		"missing id":        {blob: []byte{1, 0}, expMsg: "missing id"},
		"missing length":    {blob: good[:5], expMsg: "missing length"},
		"truncated payload": {blob: good[:len(good)-1], expMsg: "exceeds remaining"},
		"oversized length":  {blob: oversized, expMsg: "exceeds remaining"},
		"trailing bytes":    {blob: append(append([]byte{}, good...), 0xff), expMsg: "trailing bytes"},
		"duplicate kind":    {blob: duplicate, expMsg: "duplicate stack fragment"},
		"bad payload size":  {blob: badPayload, expMsg: "expected 4"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Unpack(tt.blob)
			if !errors.Is(err, ErrCorrupt) {
				t.Fatalf("error = %v, expected %v", err, ErrCorrupt)
			}
			testutil.AssertErrorContains(t, err, tt.expMsg)
		})
	}
}

func TestUnknownIDWithTruncatedPayloadIsCorrupt(t *testing.T) {
	blob := binary.LittleEndian.AppendUint16(nil, 1)
	blob = binary.LittleEndian.AppendUint16(blob, 999)
	blob = binary.LittleEndian.AppendUint32(blob, 10)
	blob = append(blob, 1, 2, 3)

	_, err := Unpack(blob)
	if !errors.Is(err, ErrCorrupt) {
		t.Errorf("error = %v, expected %v", err, ErrCorrupt)
	}
}

func TestBag_Clone(t *testing.T) {
	bag := Bag{}
	bag.Set(&StackState{CurrentAmount: 5})

	c := bag.Clone()
	c.Stack().CurrentAmount = 6

	testutil.AssertEqual(t, "original", bag.Stack().CurrentAmount, 5)
	testutil.AssertEqual(t, "equal", bag.Equal(c), false)
}
