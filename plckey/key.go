// Package plckey generates, encodes, decodes, and signs with the three
// key types a did:plc operation can carry: secp256k1, NIST P-256, and
// Ed25519. Each curve is its own concrete type sharing only the Key
// interface — there is no common base implementation, matching the
// "tagged variant, not a class hierarchy" shape the source calls for.
package plckey

import (
	"fmt"

	"github.com/primal-host/plc/multibase"
)

// Key is implemented by the three concrete key types. A Key is a
// value: generating one never mutates another, and signing never
// mutates the Key itself.
type Key interface {
	// Curve reports which of the three supported curves this key is on.
	Curve() multibase.Curve

	// IsPrivate reports whether this Key holds private material.
	IsPrivate() bool

	// EncodePublic returns the multibase(base58btc) string for the
	// public component: "z" + base58btc(tag || raw public bytes).
	EncodePublic() (string, error)

	// EncodePrivate returns the multibase(base58btc) string for the
	// private component. Fails with ErrNotAPrivateKey if IsPrivate is
	// false.
	EncodePrivate() (string, error)

	// Sign signs digestHex — the hex-encoded SHA-256 digest of a
	// payload, not the raw payload — and returns the signature as a
	// hex string. The output form (compact IEEE-P1363, DER, or raw
	// EdDSA) depends on the curve; see the per-curve files. Fails with
	// ErrNotAPrivateKey if IsPrivate is false.
	Sign(digestHex string) (string, error)
}

// Generate creates a new private Key on the given curve using a
// cryptographically strong random source.
func Generate(curve multibase.Curve) (Key, error) {
	switch curve {
	case multibase.Secp256k1:
		return generateSecp256k1()
	case multibase.P256:
		return generateP256()
	case multibase.Ed25519:
		return generateEd25519()
	default:
		return nil, ErrUnsupportedCurve
	}
}

// FromPublic decodes a multibase(base58btc) public-key string into a
// public-only Key.
func FromPublic(mbstr string) (Key, error) {
	tag, raw, err := multibase.DecodeKey(mbstr)
	if err != nil {
		return nil, err
	}
	curve, private, err := multibase.LookupTag(tag)
	if err != nil {
		return nil, err
	}
	if private {
		return nil, fmt.Errorf("%w: expected a public-key multicodec tag", ErrMalformedMultibase)
	}
	return fromPublicRaw(curve, raw)
}

// FromPrivate decodes a multibase(base58btc) private-key string into a
// private Key. Legacy acceptance: if the multibase string carries a
// public-key tag, it is still treated as the corresponding curve's
// private key, preserving compatibility with historically-mis-encoded
// stores (see §4.1 and §9).
func FromPrivate(mbstr string) (Key, error) {
	tag, raw, err := multibase.DecodeKey(mbstr)
	if err != nil {
		return nil, err
	}
	curve, _, err := multibase.LookupTag(tag)
	if err != nil {
		return nil, err
	}
	return fromPrivateRaw(curve, raw)
}

func fromPublicRaw(curve multibase.Curve, raw []byte) (Key, error) {
	switch curve {
	case multibase.Secp256k1:
		return secp256k1FromPublicRaw(raw)
	case multibase.P256:
		return p256FromPublicRaw(raw)
	case multibase.Ed25519:
		return ed25519FromPublicRaw(raw)
	default:
		return nil, ErrUnsupportedCurve
	}
}

func fromPrivateRaw(curve multibase.Curve, raw []byte) (Key, error) {
	switch curve {
	case multibase.Secp256k1:
		return secp256k1FromPrivateRaw(raw)
	case multibase.P256:
		return p256FromPrivateRaw(raw)
	case multibase.Ed25519:
		return ed25519FromPrivateRaw(raw)
	default:
		return nil, ErrUnsupportedCurve
	}
}
