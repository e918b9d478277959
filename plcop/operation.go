// Package plcop holds the did:plc operation model: construction,
// validation, canonical encoding for signing and for content
// addressing, and signing. It covers the full operation lifecycle —
// create, update, rotate, deactivate, tombstone — on top of the
// multibase, plckey, and dagcbor packages. A plc_tombstone is the one
// exception to DAG-CBOR signing: its minimal {type, prev} map is
// signed over canonical JSON instead (SignTombstone), per §9.
package plcop

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/primal-host/plc/canonicaljson"
	"github.com/primal-host/plc/dagcbor"
	"github.com/primal-host/plc/plckey"
)

const (
	TypeOperation = "plc_operation"
	TypeTombstone = "plc_tombstone"
)

// ServiceEntry describes one entry in an operation's services map.
type ServiceEntry struct {
	Type     string
	Endpoint string
}

// Operation is an unsigned did:plc operation. It is built, optionally
// validated, and then signed into a SignedOperation; the manager
// derives CIDs and DIDs from, and submits, only the signed form.
// Operation itself also has EncodeFull and ToWire, so the type system
// does not stop an unsigned Operation from being passed to plcid.CID
// or rendered as a (sig-less) wire payload.
type Operation struct {
	Type                string
	RotationKeys        []plckey.Key
	VerificationMethods map[string]plckey.Key
	AlsoKnownAs         []string
	Services            map[string]ServiceEntry
	Prev                *string // nil only for genesis
}

// SignedOperation is an Operation plus its signature. It is immutable
// by convention: nothing in this package mutates a SignedOperation
// after Sign returns it.
type SignedOperation struct {
	Operation
	Sig string // base64url, no padding
}

// NewTombstone builds an unsigned plc_tombstone operation — the
// primary deactivation path in §4.6. A tombstone carries no key
// material at all, so generic Validate never applies to it.
func NewTombstone(prev string) *Operation {
	return &Operation{Type: TypeTombstone, Prev: &prev}
}

// NewSoftDeactivation builds the §4.6 fallback deactivation shape: a
// plc_operation with every collection emptied. Generic Validate
// forbids empty rotation keys and verification methods, so this
// constructor — used only by the deactivation flow, which is the one
// callsite that knows it is deactivating — does not call Validate.
func NewSoftDeactivation(prev string) *Operation {
	return &Operation{
		Type:                TypeOperation,
		RotationKeys:        []plckey.Key{},
		VerificationMethods: map[string]plckey.Key{},
		AlsoKnownAs:         []string{},
		Services:            map[string]ServiceEntry{},
		Prev:                &prev,
	}
}

// Validate checks the generic invariants from §4.4. It does not know
// about the soft-deactivation exception — callers on that path build
// the Operation with NewSoftDeactivation and skip Validate entirely.
func (op *Operation) Validate() error {
	if op.Type == "" {
		return ErrEmptyType
	}
	if op.Type != TypeOperation && op.Type != TypeTombstone {
		return ErrInvalidType
	}
	if op.Type == TypeTombstone {
		return nil
	}
	if len(op.RotationKeys) == 0 {
		return ErrEmptyRotationKeys
	}
	if len(op.VerificationMethods) == 0 {
		return ErrEmptyVerificationMethods
	}
	for _, k := range op.RotationKeys {
		if k == nil {
			return ErrInvalidKeyMaterial
		}
	}
	for _, k := range op.VerificationMethods {
		if k == nil {
			return ErrInvalidKeyMaterial
		}
	}
	return nil
}

// EncodeForSigning encodes the operation as canonical DAG-CBOR with no
// sig field present — the six fields type, rotationKeys,
// verificationMethods, alsoKnownAs, services, prev, sorted per the
// DAG-CBOR map-key rule. Keys inside rotationKeys and
// verificationMethods are rendered as did:key: strings.
func (op *Operation) EncodeForSigning() ([]byte, error) {
	v, err := op.toDagCbor()
	if err != nil {
		return nil, err
	}
	return dagcbor.Encode(v)
}

// EncodeFull encodes the same six fields plus sig, when present. A
// bare Operation has no sig, so EncodeFull on it is identical to
// EncodeForSigning; SignedOperation overrides this to include sig.
func (op *Operation) EncodeFull() ([]byte, error) {
	return op.EncodeForSigning()
}

// EncodeFull on a SignedOperation includes the sig field, matching
// §4.4's encode_full(). Calling this twice yields identical bytes.
func (s *SignedOperation) EncodeFull() ([]byte, error) {
	v, err := s.Operation.toDagCbor()
	if err != nil {
		return nil, err
	}
	m := v.(dagcbor.Map)
	m["sig"] = dagcbor.Text(s.Sig)
	return dagcbor.Encode(m)
}

// toDagCbor renders a plc_tombstone as its minimal two-field map —
// type and prev only — and a plc_operation as the full six-field map.
// A tombstone carries no rotationKeys/verificationMethods/alsoKnownAs/
// services; including them would not match the bytes the directory
// hashes.
func (op *Operation) toDagCbor() (dagcbor.Value, error) {
	if op.Type == TypeTombstone {
		return op.tombstoneDagCbor(), nil
	}

	rotationKeys := make(dagcbor.Array, 0, len(op.RotationKeys))
	for _, k := range op.RotationKeys {
		didKey, err := didKeyString(k)
		if err != nil {
			return nil, err
		}
		rotationKeys = append(rotationKeys, dagcbor.Text(didKey))
	}

	verificationMethods := make(dagcbor.Map, len(op.VerificationMethods))
	for id, k := range op.VerificationMethods {
		didKey, err := didKeyString(k)
		if err != nil {
			return nil, err
		}
		verificationMethods[id] = dagcbor.Text(didKey)
	}

	alsoKnownAs := make(dagcbor.Array, 0, len(op.AlsoKnownAs))
	for _, aka := range op.AlsoKnownAs {
		alsoKnownAs = append(alsoKnownAs, dagcbor.Text(aka))
	}

	services := make(dagcbor.Map, len(op.Services))
	for id, svc := range op.Services {
		services[id] = dagcbor.Map{
			"type":     dagcbor.Text(svc.Type),
			"endpoint": dagcbor.Text(svc.Endpoint),
		}
	}

	var prev dagcbor.Value = dagcbor.Null{}
	if op.Prev != nil {
		prev = dagcbor.Text(*op.Prev)
	}

	return dagcbor.Map{
		"type":                dagcbor.Text(op.Type),
		"rotationKeys":        rotationKeys,
		"verificationMethods": verificationMethods,
		"alsoKnownAs":         alsoKnownAs,
		"services":            services,
		"prev":                prev,
	}, nil
}

func (op *Operation) tombstoneDagCbor() dagcbor.Value {
	return dagcbor.Map{
		"type": dagcbor.Text(op.Type),
		"prev": dagcbor.Text(*op.Prev),
	}
}

func didKeyString(k plckey.Key) (string, error) {
	pub, err := k.EncodePublic()
	if err != nil {
		return "", err
	}
	return "did:key:" + pub, nil
}

// Sign computes the digest of EncodeForSigning, signs it with
// rotationKey, and returns the resulting SignedOperation. The digest
// passed to the Key is hex(SHA256(encode_for_signing())), matching
// every curve's Sign contract in plckey. It rejects a plc_tombstone —
// that type signs over canonical JSON instead, via SignTombstone.
func (op *Operation) Sign(rotationKey plckey.Key) (*SignedOperation, error) {
	if op.Type == TypeTombstone {
		return nil, ErrWrongSignMethod
	}
	cborBytes, err := op.EncodeForSigning()
	if err != nil {
		return nil, fmt.Errorf("plcop: encode for signing: %w", err)
	}
	return op.signDigest(rotationKey, cborBytes)
}

// SignTombstone signs a plc_tombstone over its minimal map —
// {type, prev} — encoded as canonical JSON rather than DAG-CBOR. This
// is the one signing path in the protocol that does not use DAG-CBOR
// (§9); CID derivation on the resulting SignedOperation still uses
// DAG-CBOR of the same minimal map, via EncodeFull.
func (op *Operation) SignTombstone(rotationKey plckey.Key) (*SignedOperation, error) {
	if op.Type != TypeTombstone {
		return nil, ErrWrongSignMethod
	}
	raw, err := canonicaljson.Encode(map[string]any{
		"type": op.Type,
		"prev": *op.Prev,
	})
	if err != nil {
		return nil, fmt.Errorf("plcop: encode tombstone for signing: %w", err)
	}
	return op.signDigest(rotationKey, raw)
}

func (op *Operation) signDigest(rotationKey plckey.Key, signingBytes []byte) (*SignedOperation, error) {
	digest := sha256.Sum256(signingBytes)
	digestHex := hex.EncodeToString(digest[:])

	sigHex, err := rotationKey.Sign(digestHex)
	if err != nil {
		return nil, fmt.Errorf("plcop: sign: %w", err)
	}
	sigBytes, err := hex.DecodeString(sigHex)
	if err != nil {
		return nil, fmt.Errorf("plcop: decode signature hex: %w", err)
	}

	return &SignedOperation{
		Operation: *op,
		Sig:       base64.RawURLEncoding.EncodeToString(sigBytes),
	}, nil
}
