package plckey

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/primal-host/plc/multibase"
)

// ed25519Key implements Key for Ed25519. The private component is
// always carried as the 32-byte seed (not the 64-byte expanded form
// crypto/ed25519 uses internally), matching the "32 uniform bytes as
// seed" generation rule.
type ed25519Key struct {
	seed []byte // 32 bytes, nil for public-only keys
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
}

func generateEd25519() (Key, error) {
	seed := make([]byte, ed25519.SeedSize)
	if _, err := rand.Read(seed); err != nil {
		return nil, fmt.Errorf("plckey: generate Ed25519: %w", err)
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return &ed25519Key{seed: seed, priv: priv, pub: priv.Public().(ed25519.PublicKey)}, nil
}

func ed25519FromPublicRaw(raw []byte) (Key, error) {
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: Ed25519 public key must be %d bytes, got %d", ErrMalformedMultibase, ed25519.PublicKeySize, len(raw))
	}
	return &ed25519Key{pub: ed25519.PublicKey(raw)}, nil
}

func ed25519FromPrivateRaw(raw []byte) (Key, error) {
	if len(raw) != ed25519.SeedSize {
		return nil, fmt.Errorf("%w: Ed25519 private key must be %d bytes, got %d", ErrMalformedMultibase, ed25519.SeedSize, len(raw))
	}
	priv := ed25519.NewKeyFromSeed(raw)
	return &ed25519Key{seed: raw, priv: priv, pub: priv.Public().(ed25519.PublicKey)}, nil
}

func (k *ed25519Key) Curve() multibase.Curve { return multibase.Ed25519 }

func (k *ed25519Key) IsPrivate() bool { return k.seed != nil }

func (k *ed25519Key) EncodePublic() (string, error) {
	tag, err := multibase.PublicTag(multibase.Ed25519)
	if err != nil {
		return "", err
	}
	return multibase.EncodeKey(tag, k.pub), nil
}

func (k *ed25519Key) EncodePrivate() (string, error) {
	if k.seed == nil {
		return "", ErrNotAPrivateKey
	}
	tag, err := multibase.PrivateTag(multibase.Ed25519)
	if err != nil {
		return "", err
	}
	return multibase.EncodeKey(tag, k.seed), nil
}

// Sign implements raw EdDSA R‖S per RFC 8032. Ed25519 signatures are
// deterministic: signing the same digest with the same key always
// produces the same 64-byte (128 hex char) output.
func (k *ed25519Key) Sign(digestHex string) (string, error) {
	if k.seed == nil {
		return "", ErrNotAPrivateKey
	}
	digest, err := hex.DecodeString(digestHex)
	if err != nil {
		return "", fmt.Errorf("plckey: decode digest: %w", err)
	}
	sig := ed25519.Sign(k.priv, digest)
	return hex.EncodeToString(sig), nil
}
