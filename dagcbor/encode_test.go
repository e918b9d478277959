package dagcbor

import (
	"bytes"
	"testing"
)

// Two maps equal as values but built with differently
// ordered keys must produce byte-identical output.
func TestMapKeyOrderIndependence(t *testing.T) {
	a := Map{
		"type":                Text("plc_operation"),
		"rotationKeys":        Array{Text("did:key:z1")},
		"verificationMethods": Map{"atproto": Text("did:key:z2")},
		"alsoKnownAs":         Array{Text("at://x")},
		"services":            Map{},
		"prev":                Null{},
	}
	b := Map{
		"prev":                Null{},
		"services":            Map{},
		"alsoKnownAs":         Array{Text("at://x")},
		"verificationMethods": Map{"atproto": Text("did:key:z2")},
		"rotationKeys":        Array{Text("did:key:z1")},
		"type":                Text("plc_operation"),
	}

	encA, err := Encode(a)
	if err != nil {
		t.Fatalf("Encode(a): %v", err)
	}
	encB, err := Encode(b)
	if err != nil {
		t.Fatalf("Encode(b): %v", err)
	}
	if !bytes.Equal(encA, encB) {
		t.Fatalf("encodings differ despite equal values:\na=%x\nb=%x", encA, encB)
	}
}

// A 6-key operation map must sort length-first, then bytewise:
// prev, type, services, alsoKnownAs, rotationKeys, verificationMethods.
func TestCanonicalKeyOrder(t *testing.T) {
	keys := []string{
		"type", "rotationKeys", "verificationMethods",
		"alsoKnownAs", "services", "prev",
	}
	sortDagCborKeys(keys)
	want := []string{"prev", "type", "services", "alsoKnownAs", "rotationKeys", "verificationMethods"}
	if len(keys) != len(want) {
		t.Fatalf("got %d keys, want %d", len(keys), len(want))
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("sorted keys = %v, want %v", keys, want)
		}
	}
}

func TestEncodeIdempotent(t *testing.T) {
	v := Map{"a": Text("1"), "bb": Array{Null{}, Text("x")}}
	first, err := Encode(v)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	second, err := Encode(v)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("repeated encode differs: %x vs %x", first, second)
	}
}

func TestEncodeNullAndEmptyContainers(t *testing.T) {
	enc, err := Encode(Null{})
	if err != nil {
		t.Fatalf("Encode(Null{}): %v", err)
	}
	if !bytes.Equal(enc, []byte{0xf6}) {
		t.Fatalf("Encode(Null{}) = %x, want f6", enc)
	}

	enc, err = Encode(Map{})
	if err != nil {
		t.Fatalf("Encode(Map{}): %v", err)
	}
	if !bytes.Equal(enc, []byte{0xa0}) {
		t.Fatalf("Encode(empty Map) = %x, want a0", enc)
	}

	enc, err = Encode(Array{})
	if err != nil {
		t.Fatalf("Encode(Array{}): %v", err)
	}
	if !bytes.Equal(enc, []byte{0x80}) {
		t.Fatalf("Encode(empty Array) = %x, want 80", enc)
	}
}
