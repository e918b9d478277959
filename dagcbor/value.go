// Package dagcbor emits deterministic DAG-CBOR: definite-length items,
// shortest-form headers (delegated to cbor-gen, which already encodes
// headers minimally), and map keys sorted by the canonical DAG-CBOR
// rule — length first, then byte-wise lexicographic. Value is a small
// tagged tree (map/array/text/null) that can encode any shape the
// operation model needs, at every nesting level.
package dagcbor

// Value is any node in a DAG-CBOR tree this package can encode. The
// operation model builds one of these to describe what to sign or hash.
type Value interface {
	isValue()
}

// Map is an object whose keys are sorted into canonical DAG-CBOR order
// at encode time: by byte length first, then lexicographically. Go's
// map iteration order is not used directly for anything observable.
type Map map[string]Value

// Array is an ordered list of values, encoded in the order given.
type Array []Value

// Text is a UTF-8 string value.
type Text string

// Null is the canonical encoding of an absent value (used for prev).
type Null struct{}

func (Map) isValue()  {}
func (Array) isValue() {}
func (Text) isValue()  {}
func (Null) isValue()  {}
