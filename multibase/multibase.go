// Package multibase encodes and decodes the multibase/multicodec strings
// used throughout the PLC protocol: multibase(base58btc) for persisted
// keys, multibase(base32) for CIDs, and a plain (unwrapped) lowercase
// base32 alphabet for the did:plc identifier suffix.
package multibase

import (
	"encoding/base32"
	"strings"

	mb "github.com/multiformats/go-multibase"
)

// didSuffixEncoding is RFC 4648 base32, lowercase, no padding — the same
// alphabet multibase's "base32" code uses, but without the "b" prefix.
// StdEncoding (uppercase A-Z2-7) run through strings.ToLower is
// byte-for-byte the same as the lowercase RFC 4648 alphabet.
var didSuffixEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// EncodeBase58BTC multibase-encodes data with the base58btc alphabet,
// producing a string prefixed with "z".
func EncodeBase58BTC(data []byte) string {
	return mb.Encode(mb.Base58BTC, data)
}

// DecodeBase58BTC reverses EncodeBase58BTC. It fails with
// ErrMalformedMultibase if the leading character is not "z" or the
// remainder does not decode as base58btc.
func DecodeBase58BTC(encoded string) ([]byte, error) {
	if encoded == "" {
		return nil, ErrMalformedMultibase
	}
	enc, data, err := mb.Decode(encoded)
	if err != nil {
		return nil, wrapMalformed(err)
	}
	if enc != mb.Base58BTC {
		return nil, wrapMalformed(errUnexpectedEncoding(enc))
	}
	return data, nil
}

// EncodeBase32 multibase-encodes data with the RFC 4648 lowercase,
// no-padding base32 alphabet, producing a string prefixed with "b".
// Used for CIDs.
func EncodeBase32(data []byte) string {
	return mb.Encode(mb.Base32, data)
}

// DecodeBase32 reverses EncodeBase32.
func DecodeBase32(encoded string) ([]byte, error) {
	if encoded == "" {
		return nil, ErrMalformedMultibase
	}
	enc, data, err := mb.Decode(encoded)
	if err != nil {
		return nil, wrapMalformed(err)
	}
	if enc != mb.Base32 {
		return nil, wrapMalformed(errUnexpectedEncoding(enc))
	}
	return data, nil
}

// EncodeDIDSuffix base32-encodes data with the plain (unwrapped,
// lowercase, no padding) RFC 4648 alphabet used for the 24-character
// did:plc suffix. Unlike EncodeBase32 it carries no "b" multibase
// prefix — the DID format is not itself a multibase string.
func EncodeDIDSuffix(data []byte) string {
	return strings.ToLower(didSuffixEncoding.EncodeToString(data))
}
