// Package plcid derives the two content-addressed identifiers used by
// the did:plc operation log: an operation's CID (for prev-chaining)
// and a genesis operation's DID (for the identifier itself). Both are
// a CIDv1 over DAG-CBOR bytes with a SHA2-256 multihash, and a base32
// DID-suffix taken from that same digest.
package plcid

import (
	"crypto/sha256"
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	"github.com/primal-host/plc/multibase"
)

// didSuffixLen is the number of base32 characters kept from the
// SHA-256 digest when deriving a did:plc identifier.
const didSuffixLen = 24

// fullEncoder is satisfied by *plcop.SignedOperation; declared here to
// avoid an import cycle between plcop and plcid.
type fullEncoder interface {
	EncodeFull() ([]byte, error)
}

// CID returns the CIDv1 (DAG-CBOR codec, SHA2-256 multihash) of a
// signed operation's full encoding, base32-multibase encoded — the
// value stored as an operation's prev and returned by the directory's
// log endpoints.
func CID(op fullEncoder) (string, error) {
	raw, err := op.EncodeFull()
	if err != nil {
		return "", fmt.Errorf("plcid: encode full: %w", err)
	}
	builder := cid.NewPrefixV1(cid.DagCBOR, multihash.SHA2_256)
	sum, err := builder.Sum(raw)
	if err != nil {
		return "", fmt.Errorf("plcid: compute cid: %w", err)
	}
	return sum.String(), nil
}

// DeriveDID computes the did:plc identifier for a signed genesis
// operation: SHA-256 of its full encoding, base32-encoded (lowercase,
// unpadded), truncated to the first 24 characters, prefixed
// "did:plc:".
//
// The caller is responsible for only calling this on a genesis
// operation (Prev == nil); DeriveDID does not itself check this, since
// by the time an operation is signed it carries no Prev field visible
// through fullEncoder.
func DeriveDID(op fullEncoder) (string, error) {
	raw, err := op.EncodeFull()
	if err != nil {
		return "", fmt.Errorf("plcid: encode full: %w", err)
	}
	digest := sha256.Sum256(raw)
	suffix := multibase.EncodeDIDSuffix(digest[:])
	if len(suffix) < didSuffixLen {
		return "", fmt.Errorf("plcid: digest encoding shorter than %d chars", didSuffixLen)
	}
	return "did:plc:" + suffix[:didSuffixLen], nil
}
