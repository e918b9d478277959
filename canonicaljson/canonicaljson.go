// Package canonicaljson renders a JSON object with keys sorted
// lexicographically. It exists for the one signing path in plcop that
// is not DAG-CBOR: plc_tombstone (§9). Every other operation type is
// signed over DAG-CBOR bytes and never reaches this package. Keeping
// the two codecs in separate packages is deliberate — see DESIGN.md.
package canonicaljson

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Encode marshals the map v with its top-level keys sorted
// lexicographically; values are marshalled with encoding/json. For
// example,
// {z:1, a:2, m:3} encodes to exactly {"a":2,"m":3,"z":1}.
func Encode(v map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyJSON, err := json.Marshal(k)
		if err != nil {
			return nil, fmt.Errorf("canonicaljson: marshal key %q: %w", k, err)
		}
		buf.Write(keyJSON)
		buf.WriteByte(':')
		valJSON, err := json.Marshal(v[k])
		if err != nil {
			return nil, fmt.Errorf("canonicaljson: marshal value for key %q: %w", k, err)
		}
		buf.Write(valJSON)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
