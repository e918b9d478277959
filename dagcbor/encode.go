package dagcbor

import (
	"bytes"
	"fmt"
	"sort"

	cbg "github.com/whyrusleeping/cbor-gen"
)

// cborNull is the one-byte CBOR encoding of the "null" simple value
// (major type 7, additional info 22).
const cborNull = 0xf6

// Encode renders v as canonical DAG-CBOR bytes. The encoder is total
// over the Value tree built from the operation model — every
// constructor here produces a definite-length, minimally-encoded item,
// so there is no runtime failure mode to report short of an io error
// writing to an in-memory buffer, which cannot occur.
func Encode(v Value) ([]byte, error) {
	var buf bytes.Buffer
	cw := cbg.NewCborWriter(&buf)
	if err := writeValue(cw, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeValue(cw *cbg.CborWriter, v Value) error {
	switch val := v.(type) {
	case Map:
		return writeMap(cw, val)
	case Array:
		return writeArray(cw, val)
	case Text:
		return writeText(cw, string(val))
	case Null:
		_, err := cw.Write([]byte{cborNull})
		return err
	default:
		return fmt.Errorf("dagcbor: unsupported value type %T", v)
	}
}

// writeMap sorts keys by the canonical DAG-CBOR rule — shorter keys
// first, ties broken by byte-wise lexicographic order — before
// writing the map header and entries. This is applied at every level
// of nesting, not just the outermost map.
func writeMap(cw *cbg.CborWriter, m Map) error {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sortDagCborKeys(keys)

	if err := cw.WriteMajorTypeHeader(cbg.MajMap, uint64(len(keys))); err != nil {
		return err
	}
	for _, k := range keys {
		if err := writeText(cw, k); err != nil {
			return err
		}
		if err := writeValue(cw, m[k]); err != nil {
			return err
		}
	}
	return nil
}

func writeArray(cw *cbg.CborWriter, a Array) error {
	if err := cw.WriteMajorTypeHeader(cbg.MajArray, uint64(len(a))); err != nil {
		return err
	}
	for _, elem := range a {
		if err := writeValue(cw, elem); err != nil {
			return err
		}
	}
	return nil
}

func writeText(cw *cbg.CborWriter, s string) error {
	if err := cw.WriteMajorTypeHeader(cbg.MajTextString, uint64(len(s))); err != nil {
		return err
	}
	_, err := cw.Write([]byte(s))
	return err
}

// sortDagCborKeys orders keys per the canonical DAG-CBOR map-key rule:
// shorter byte length sorts first; keys of equal length sort
// byte-wise lexicographically.
func sortDagCborKeys(keys []string) {
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) < len(keys[j])
		}
		return keys[i] < keys[j]
	})
}
