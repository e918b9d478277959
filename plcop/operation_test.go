package plcop

import (
	"bytes"
	"encoding/json"
	"regexp"
	"testing"

	"github.com/primal-host/plc/plcid"
	"github.com/primal-host/plc/plckey"
)

func genesisOp(t *testing.T, rotation, verification plckey.Key, handle, endpoint string) *Operation {
	t.Helper()
	op := &Operation{
		Type:         TypeOperation,
		RotationKeys: []plckey.Key{rotation},
		VerificationMethods: map[string]plckey.Key{
			"fair_abcdef": verification,
		},
		Prev: nil,
	}
	if handle != "" {
		op.AlsoKnownAs = []string{"at://" + handle}
	} else {
		op.AlsoKnownAs = []string{}
	}
	if endpoint != "" {
		op.Services = map[string]ServiceEntry{
			"atproto_pds": {Type: "AtprotoPersonalDataServer", Endpoint: endpoint},
		}
	} else {
		op.Services = map[string]ServiceEntry{}
	}
	return op
}

// DID shape and signature locatedness.
func TestGenesisSignAndDerive(t *testing.T) {
	rotation, err := plckey.Generate("secp256k1")
	if err != nil {
		t.Fatalf("generate rotation key: %v", err)
	}
	verification, err := plckey.Generate("Ed25519")
	if err != nil {
		t.Fatalf("generate verification key: %v", err)
	}

	op := genesisOp(t, rotation, verification, "my-plugin", "")
	if err := op.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	unsignedWire, err := op.ToWire()
	if err != nil {
		t.Fatalf("ToWire (unsigned): %v", err)
	}
	unsignedJSON, err := json.Marshal(unsignedWire)
	if err != nil {
		t.Fatalf("marshal unsigned wire: %v", err)
	}
	if bytes.Contains(unsignedJSON, []byte(`"sig"`)) {
		t.Fatalf("unsigned wire payload must not contain sig: %s", unsignedJSON)
	}

	signed, err := op.Sign(rotation)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if signed.Sig == "" {
		t.Fatal("signed operation has empty sig")
	}

	did, err := plcid.DeriveDID(signed)
	if err != nil {
		t.Fatalf("DeriveDID: %v", err)
	}
	didRe := regexp.MustCompile(`^did:plc:[a-z2-7]{24}$`)
	if !didRe.MatchString(did) {
		t.Fatalf("DID %q does not match ^did:plc:[a-z2-7]{24}$", did)
	}

	wire, err := signed.ToWire()
	if err != nil {
		t.Fatalf("ToWire (signed): %v", err)
	}
	wireJSON, err := json.Marshal(wire)
	if err != nil {
		t.Fatalf("marshal signed wire: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(wireJSON, &decoded); err != nil {
		t.Fatalf("unmarshal wire JSON: %v", err)
	}

	if got := decoded["alsoKnownAs"].([]any); len(got) != 1 || got[0] != "at://my-plugin" {
		t.Fatalf("alsoKnownAs = %v, want [at://my-plugin]", got)
	}
	if services, ok := decoded["services"].(map[string]any); !ok || len(services) != 0 {
		t.Fatalf("services = %v, want empty object", decoded["services"])
	}
	if decoded["prev"] != nil {
		t.Fatalf("prev = %v, want null", decoded["prev"])
	}
	rotationKeys := decoded["rotationKeys"].([]any)
	if len(rotationKeys) != 1 {
		t.Fatalf("rotationKeys length = %d, want 1", len(rotationKeys))
	}
	if rk, _ := rotationKeys[0].(string); len(rk) < 9 || rk[:9] != "did:key:z" {
		t.Fatalf("rotationKeys[0] = %q, want did:key:z... prefix", rk)
	}
	vm := decoded["verificationMethods"].(map[string]any)
	if len(vm) != 1 {
		t.Fatalf("verificationMethods length = %d, want 1", len(vm))
	}
	for id, v := range vm {
		if len(id) < 5 || id[:5] != "fair_" {
			t.Fatalf("verificationMethods id = %q, want fair_ prefix", id)
		}
		vs, _ := v.(string)
		if len(vs) < 9 || vs[:9] != "did:key:z" {
			t.Fatalf("verificationMethods value = %q, want did:key:z... prefix", vs)
		}
	}
	if decoded["sig"] == nil || decoded["sig"] == "" {
		t.Fatal("signed wire payload missing sig")
	}
}

// encode_full applied twice yields identical bytes.
func TestEncodeFullIdempotent(t *testing.T) {
	rotation, _ := plckey.Generate("secp256k1")
	verification, _ := plckey.Generate("Ed25519")
	op := genesisOp(t, rotation, verification, "idempotent", "")
	signed, err := op.Sign(rotation)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	first, err := signed.EncodeFull()
	if err != nil {
		t.Fatalf("EncodeFull (1st): %v", err)
	}
	second, err := signed.EncodeFull()
	if err != nil {
		t.Fatalf("EncodeFull (2nd): %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("EncodeFull not idempotent: %x vs %x", first, second)
	}
}

func TestValidateRejectsEmptyRotationKeys(t *testing.T) {
	op := &Operation{
		Type:                TypeOperation,
		RotationKeys:        nil,
		VerificationMethods: map[string]plckey.Key{"x": nil},
	}
	if err := op.Validate(); err != ErrEmptyRotationKeys {
		t.Fatalf("Validate() = %v, want ErrEmptyRotationKeys", err)
	}
}

func TestValidateRejectsBadType(t *testing.T) {
	op := &Operation{Type: "bogus"}
	if err := op.Validate(); err != ErrInvalidType {
		t.Fatalf("Validate() = %v, want ErrInvalidType", err)
	}
}

func TestSoftDeactivationSkipsValidate(t *testing.T) {
	prev := "bafytestcid"
	op := NewSoftDeactivation(prev)
	// Generic Validate forbids this shape...
	if err := op.Validate(); err != ErrEmptyRotationKeys {
		t.Fatalf("Validate() = %v, want ErrEmptyRotationKeys", err)
	}
	// ...but it still encodes and signs fine, since the deactivation
	// flow never calls Validate on it.
	if _, err := op.EncodeForSigning(); err != nil {
		t.Fatalf("EncodeForSigning on soft deactivation: %v", err)
	}
}

func TestTombstoneWireOmitsKeyFields(t *testing.T) {
	rotation, _ := plckey.Generate("secp256k1")
	tombstone := NewTombstone("bafytestcid")

	signed, err := tombstone.SignTombstone(rotation)
	if err != nil {
		t.Fatalf("SignTombstone: %v", err)
	}
	if signed.Sig == "" {
		t.Fatal("signed tombstone has empty sig")
	}

	wire, err := signed.ToWire()
	if err != nil {
		t.Fatalf("ToWire: %v", err)
	}
	raw, err := json.Marshal(wire)
	if err != nil {
		t.Fatalf("marshal wire: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal wire JSON: %v", err)
	}

	if decoded["type"] != TypeTombstone || decoded["prev"] != "bafytestcid" || decoded["sig"] == "" {
		t.Fatalf("wire = %v, want type/prev/sig only", decoded)
	}
	for _, field := range []string{"rotationKeys", "verificationMethods", "alsoKnownAs", "services"} {
		if _, present := decoded[field]; present {
			t.Fatalf("tombstone wire payload must not contain %q: %v", field, decoded)
		}
	}
}

func TestTombstoneEncodeFullIsMinimalCBOR(t *testing.T) {
	rotation, _ := plckey.Generate("secp256k1")
	tombstone := NewTombstone("bafytestcid")
	signed, err := tombstone.SignTombstone(rotation)
	if err != nil {
		t.Fatalf("SignTombstone: %v", err)
	}
	full, err := signed.EncodeFull()
	if err != nil {
		t.Fatalf("EncodeFull: %v", err)
	}
	// The minimal map has exactly 3 keys (type, prev, sig); none of
	// the six-field operation's other keys should appear in the bytes.
	for _, field := range []string{"rotationKeys", "verificationMethods", "alsoKnownAs", "services"} {
		if bytes.Contains(full, []byte(field)) {
			t.Fatalf("tombstone EncodeFull bytes contain %q: %x", field, full)
		}
	}
}

func TestSignRejectsTombstone(t *testing.T) {
	rotation, _ := plckey.Generate("secp256k1")
	tombstone := NewTombstone("bafytestcid")
	if _, err := tombstone.Sign(rotation); err != ErrWrongSignMethod {
		t.Fatalf("Sign on tombstone = %v, want ErrWrongSignMethod", err)
	}
}

func TestSignTombstoneRejectsNonTombstone(t *testing.T) {
	rotation, _ := plckey.Generate("secp256k1")
	verification, _ := plckey.Generate("Ed25519")
	op := genesisOp(t, rotation, verification, "", "")
	if _, err := op.SignTombstone(rotation); err != ErrWrongSignMethod {
		t.Fatalf("SignTombstone on plc_operation = %v, want ErrWrongSignMethod", err)
	}
}
