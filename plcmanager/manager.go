// Package plcmanager drives the §4.6 DID manager state machine:
// create, update, rotate_keys, deactivate. It wires plckey, plcop, and
// plcid against the plcdirectory and plckeystore collaborator
// interfaces, injected at construction so either can be swapped for a
// fake in tests.
package plcmanager

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/primal-host/plc/multibase"
	"github.com/primal-host/plc/plcdirectory"
	"github.com/primal-host/plc/plcid"
	"github.com/primal-host/plc/plckey"
	"github.com/primal-host/plc/plckeystore"
	"github.com/primal-host/plc/plcop"
)

// Manager drives the DID lifecycle against a Directory and a
// KeyStore. Both are interfaces, so tests substitute fakes and
// production code wires plcdirectory.HTTPDirectory and
// plckeystore.JSONFileStore.
type Manager struct {
	Directory plcdirectory.Directory
	KeyStore  plckeystore.KeyStore
}

// New returns a Manager wired against the given directory and key
// store.
func New(directory plcdirectory.Directory, store plckeystore.KeyStore) *Manager {
	return &Manager{Directory: directory, KeyStore: store}
}

// CreateResult is the §4.6 create() return value.
type CreateResult struct {
	DID             string
	RotationKey     plckey.Key
	VerificationKey plckey.Key
	Handle          string
	ServiceEndpoint string
}

// Create generates a new rotation (secp256k1) and verification
// (Ed25519) key pair, builds and signs a genesis operation, submits
// it, and persists both keys. handle and serviceEndpoint are both
// optional; pass "" to omit either.
func (m *Manager) Create(ctx context.Context, handle, serviceEndpoint string) (*CreateResult, error) {
	rotationKey, err := plckey.Generate(multibase.Secp256k1)
	if err != nil {
		return nil, fmt.Errorf("plcmanager: generate rotation key: %w", err)
	}
	verificationKey, err := plckey.Generate(multibase.Ed25519)
	if err != nil {
		return nil, fmt.Errorf("plcmanager: generate verification key: %w", err)
	}

	methodID, err := verificationMethodID(verificationKey)
	if err != nil {
		return nil, fmt.Errorf("plcmanager: derive verification method id: %w", err)
	}

	op := &plcop.Operation{
		Type:                plcop.TypeOperation,
		RotationKeys:        []plckey.Key{rotationKey},
		VerificationMethods: map[string]plckey.Key{methodID: verificationKey},
		AlsoKnownAs:         akaFor(handle),
		Services:            servicesFor(serviceEndpoint),
		Prev:                nil,
	}
	if err := op.Validate(); err != nil {
		return nil, fmt.Errorf("plcmanager: build genesis operation: %w", err)
	}

	signed, err := op.Sign(rotationKey)
	if err != nil {
		return nil, fmt.Errorf("plcmanager: sign genesis operation: %w", err)
	}
	did, err := plcid.DeriveDID(signed)
	if err != nil {
		return nil, fmt.Errorf("plcmanager: derive did: %w", err)
	}
	wire, err := signed.ToWire()
	if err != nil {
		return nil, fmt.Errorf("plcmanager: render wire payload: %w", err)
	}

	if err := m.Directory.CreateDID(ctx, wire); err != nil {
		return nil, err
	}

	if err := m.persistNewDID(did, rotationKey, verificationKey, handle, serviceEndpoint); err != nil {
		return nil, err
	}

	return &CreateResult{
		DID:             did,
		RotationKey:     rotationKey,
		VerificationKey: verificationKey,
		Handle:          handle,
		ServiceEndpoint: serviceEndpoint,
	}, nil
}

// Changes is the subset of mutable fields Update may apply. A nil
// pointer means "leave unchanged"; both nil is ErrNoChanges.
type Changes struct {
	Handle          *string
	ServiceEndpoint *string
}

// Update fetches the DID's last operation, reconstructs its key
// material, applies changes, and submits a new operation signed with
// the locally-held rotation key.
func (m *Manager) Update(ctx context.Context, did string, changes Changes) error {
	if changes.Handle == nil && changes.ServiceEndpoint == nil {
		return ErrNoChanges
	}

	rec, err := m.KeyStore.Get(did)
	if err != nil {
		return fmt.Errorf("plcmanager: %w", err)
	}
	rotationKey, err := plckey.FromPrivate(rec.RotationKey.Private)
	if err != nil {
		return plckeystore.ErrMissingLocalKey
	}

	lastCID, lastOp, err := m.fetchHead(ctx, did)
	if err != nil {
		return err
	}

	rotationKeys, verificationMethods, alsoKnownAs, services, err := decodeWireOperation(lastOp)
	if err != nil {
		return fmt.Errorf("plcmanager: decode last operation: %w", err)
	}

	if changes.Handle != nil {
		alsoKnownAs = akaFor(*changes.Handle)
	}
	if changes.ServiceEndpoint != nil {
		services = servicesFor(*changes.ServiceEndpoint)
	}

	op := &plcop.Operation{
		Type:                plcop.TypeOperation,
		RotationKeys:        rotationKeys,
		VerificationMethods: verificationMethods,
		AlsoKnownAs:         alsoKnownAs,
		Services:            services,
		Prev:                &lastCID,
	}
	if err := op.Validate(); err != nil {
		return fmt.Errorf("plcmanager: build update operation: %w", err)
	}

	signed, err := op.Sign(rotationKey)
	if err != nil {
		return fmt.Errorf("plcmanager: sign update operation: %w", err)
	}
	wire, err := signed.ToWire()
	if err != nil {
		return fmt.Errorf("plcmanager: render wire payload: %w", err)
	}

	if err := m.Directory.UpdateDID(ctx, did, wire); err != nil {
		return err
	}

	metadata := map[string]any{}
	if changes.Handle != nil {
		metadata["handle"] = *changes.Handle
	}
	if changes.ServiceEndpoint != nil {
		metadata["serviceEndpoint"] = *changes.ServiceEndpoint
	}
	return m.KeyStore.UpdateMetadata(did, metadata)
}

// RotateKeys generates a fresh rotation+verification key pair, builds
// an operation that replaces both, and signs it with the existing
// (outgoing) rotation key — never the new one. reason is carried only
// into the persisted metadata; the directory protocol has no field
// for it.
func (m *Manager) RotateKeys(ctx context.Context, did string, reason string) error {
	rec, err := m.KeyStore.Get(did)
	if err != nil {
		return fmt.Errorf("plcmanager: %w", err)
	}
	outgoingRotationKey, err := plckey.FromPrivate(rec.RotationKey.Private)
	if err != nil {
		return plckeystore.ErrMissingLocalKey
	}

	lastCID, lastOp, err := m.fetchHead(ctx, did)
	if err != nil {
		return err
	}
	_, _, alsoKnownAs, services, err := decodeWireOperation(lastOp)
	if err != nil {
		return fmt.Errorf("plcmanager: decode last operation: %w", err)
	}

	newRotationKey, err := plckey.Generate(multibase.Secp256k1)
	if err != nil {
		return fmt.Errorf("plcmanager: generate rotation key: %w", err)
	}
	newVerificationKey, err := plckey.Generate(multibase.Ed25519)
	if err != nil {
		return fmt.Errorf("plcmanager: generate verification key: %w", err)
	}
	methodID, err := verificationMethodID(newVerificationKey)
	if err != nil {
		return fmt.Errorf("plcmanager: derive verification method id: %w", err)
	}

	op := &plcop.Operation{
		Type:                plcop.TypeOperation,
		RotationKeys:        []plckey.Key{newRotationKey},
		VerificationMethods: map[string]plckey.Key{methodID: newVerificationKey},
		AlsoKnownAs:         alsoKnownAs,
		Services:            services,
		Prev:                &lastCID,
	}
	if err := op.Validate(); err != nil {
		return fmt.Errorf("plcmanager: build rotation operation: %w", err)
	}

	signed, err := op.Sign(outgoingRotationKey)
	if err != nil {
		return fmt.Errorf("plcmanager: sign rotation operation: %w", err)
	}
	wire, err := signed.ToWire()
	if err != nil {
		return fmt.Errorf("plcmanager: render wire payload: %w", err)
	}

	if err := m.Directory.UpdateDID(ctx, did, wire); err != nil {
		return err
	}

	newRotationPub, err := newRotationKey.EncodePublic()
	if err != nil {
		return fmt.Errorf("plcmanager: encode new rotation public key: %w", err)
	}
	newRotationPriv, err := newRotationKey.EncodePrivate()
	if err != nil {
		return fmt.Errorf("plcmanager: encode new rotation private key: %w", err)
	}
	newVerificationPub, err := newVerificationKey.EncodePublic()
	if err != nil {
		return fmt.Errorf("plcmanager: encode new verification public key: %w", err)
	}
	newVerificationPriv, err := newVerificationKey.EncodePrivate()
	if err != nil {
		return fmt.Errorf("plcmanager: encode new verification private key: %w", err)
	}

	if err := m.KeyStore.UpdateKeys(did,
		plckeystore.KeyPair{Public: newRotationPub, Private: newRotationPriv},
		plckeystore.KeyPair{Public: newVerificationPub, Private: newVerificationPriv},
	); err != nil {
		return err
	}
	if reason != "" {
		return m.KeyStore.UpdateMetadata(did, map[string]any{"lastRotationReason": reason})
	}
	return nil
}

// Deactivate attempts a tombstone first, falling back to a soft
// deactivation (§4.6) if the directory rejects it. Both paths mark
// the local record deactivated on success.
func (m *Manager) Deactivate(ctx context.Context, did string) error {
	rec, err := m.KeyStore.Get(did)
	if err != nil {
		return fmt.Errorf("plcmanager: %w", err)
	}
	rotationKey, err := plckey.FromPrivate(rec.RotationKey.Private)
	if err != nil {
		return plckeystore.ErrMissingLocalKey
	}

	lastCID, _, err := m.fetchHead(ctx, did)
	if err != nil {
		return err
	}

	tombstone := plcop.NewTombstone(lastCID)
	signed, err := tombstone.SignTombstone(rotationKey)
	if err != nil {
		return fmt.Errorf("plcmanager: sign tombstone: %w", err)
	}
	wire, err := signed.ToWire()
	if err != nil {
		return fmt.Errorf("plcmanager: render tombstone wire payload: %w", err)
	}

	submitErr := m.Directory.UpdateDID(ctx, did, wire)
	if submitErr != nil {
		soft := plcop.NewSoftDeactivation(lastCID)
		signedSoft, err := soft.Sign(rotationKey)
		if err != nil {
			return fmt.Errorf("plcmanager: sign soft deactivation: %w", err)
		}
		softWire, err := signedSoft.ToWire()
		if err != nil {
			return fmt.Errorf("plcmanager: render soft deactivation wire payload: %w", err)
		}
		if err := m.Directory.UpdateDID(ctx, did, softWire); err != nil {
			return err
		}
	}

	return m.KeyStore.Deactivate(did)
}

func (m *Manager) persistNewDID(did string, rotationKey, verificationKey plckey.Key, handle, serviceEndpoint string) error {
	rotationPub, err := rotationKey.EncodePublic()
	if err != nil {
		return fmt.Errorf("plcmanager: encode rotation public key: %w", err)
	}
	rotationPriv, err := rotationKey.EncodePrivate()
	if err != nil {
		return fmt.Errorf("plcmanager: encode rotation private key: %w", err)
	}
	verificationPub, err := verificationKey.EncodePublic()
	if err != nil {
		return fmt.Errorf("plcmanager: encode verification public key: %w", err)
	}
	verificationPriv, err := verificationKey.EncodePrivate()
	if err != nil {
		return fmt.Errorf("plcmanager: encode verification private key: %w", err)
	}

	now := time.Now().UTC()
	metadata := map[string]any{}
	if handle != "" {
		metadata["handle"] = handle
	}
	if serviceEndpoint != "" {
		metadata["serviceEndpoint"] = serviceEndpoint
	}

	return m.KeyStore.Put(did, plckeystore.Record{
		DID:             did,
		RotationKey:     plckeystore.KeyPair{Public: rotationPub, Private: rotationPriv},
		VerificationKey: plckeystore.KeyPair{Public: verificationPub, Private: verificationPriv},
		Type:            string(rotationKey.Curve()),
		Active:          true,
		CreatedAt:       now,
		UpdatedAt:       now,
		Metadata:        metadata,
	})
}

// fetchHead returns the last operation's CID and its raw wire map. A
// DID with no operations yet has no valid head to build against; that
// is a directory inconsistency this client does not attempt to repair.
func (m *Manager) fetchHead(ctx context.Context, did string) (string, map[string]any, error) {
	last, err := m.Directory.GetLastOperation(ctx, did)
	if err != nil {
		return "", nil, err
	}
	if last == nil {
		return "", nil, fmt.Errorf("plcmanager: %s has no operations on the directory", did)
	}
	cidStr, _ := last["cid"].(string)
	if cidStr == "" {
		return "", nil, fmt.Errorf("plcmanager: last operation for %s carries no cid", did)
	}
	opMap, _ := last["operation"].(map[string]any)
	if opMap == nil {
		return "", nil, fmt.Errorf("plcmanager: last operation for %s carries no operation payload", did)
	}
	return cidStr, opMap, nil
}

// verificationMethodID builds the "fair_<6-hex>" id from §4.6: the
// first 6 hex characters of SHA256(verification_key.encode_public()).
func verificationMethodID(k plckey.Key) (string, error) {
	pub, err := k.EncodePublic()
	if err != nil {
		return "", err
	}
	digest := sha256.Sum256([]byte(pub))
	return "fair_" + hex.EncodeToString(digest[:])[:6], nil
}

func akaFor(handle string) []string {
	if handle == "" {
		return []string{}
	}
	return []string{"at://" + handle}
}

func servicesFor(endpoint string) map[string]plcop.ServiceEntry {
	if endpoint == "" {
		return map[string]plcop.ServiceEntry{}
	}
	return map[string]plcop.ServiceEntry{
		"atproto_pds": {Type: "AtprotoPersonalDataServer", Endpoint: endpoint},
	}
}

// decodeWireOperation reconstructs rotation keys, verification
// methods, alsoKnownAs, and services from a last-operation wire map —
// the §4.6 update()/rotate_keys() step 2 "reconstruct from the
// resolved state" — using the operation's own did:key: strings (§4.1,
// §4.2) rather than a standard DID document's verificationMethod
// array, since the PLC-specific rotationKeys list has no equivalent
// there.
func decodeWireOperation(opMap map[string]any) ([]plckey.Key, map[string]plckey.Key, []string, map[string]plcop.ServiceEntry, error) {
	rotationKeysRaw, _ := opMap["rotationKeys"].([]any)
	rotationKeys := make([]plckey.Key, 0, len(rotationKeysRaw))
	for _, v := range rotationKeysRaw {
		s, _ := v.(string)
		k, err := keyFromDIDKey(s)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		rotationKeys = append(rotationKeys, k)
	}

	verificationRaw, _ := opMap["verificationMethods"].(map[string]any)
	verificationMethods := make(map[string]plckey.Key, len(verificationRaw))
	for id, v := range verificationRaw {
		s, _ := v.(string)
		k, err := keyFromDIDKey(s)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		verificationMethods[id] = k
	}

	alsoKnownAsRaw, _ := opMap["alsoKnownAs"].([]any)
	alsoKnownAs := make([]string, 0, len(alsoKnownAsRaw))
	for _, v := range alsoKnownAsRaw {
		s, _ := v.(string)
		alsoKnownAs = append(alsoKnownAs, s)
	}

	servicesRaw, _ := opMap["services"].(map[string]any)
	services := make(map[string]plcop.ServiceEntry, len(servicesRaw))
	for id, v := range servicesRaw {
		entry, _ := v.(map[string]any)
		typ, _ := entry["type"].(string)
		endpoint, _ := entry["endpoint"].(string)
		services[id] = plcop.ServiceEntry{Type: typ, Endpoint: endpoint}
	}

	return rotationKeys, verificationMethods, alsoKnownAs, services, nil
}

func keyFromDIDKey(didKey string) (plckey.Key, error) {
	mbstr := strings.TrimPrefix(didKey, "did:key:")
	if mbstr == didKey {
		return nil, fmt.Errorf("plcmanager: %q is not a did:key: string", didKey)
	}
	return plckey.FromPublic(mbstr)
}
