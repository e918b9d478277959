package plckey

import (
	"encoding/hex"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/primal-host/plc/multibase"
)

// secp256k1Key implements Key for the secp256k1 curve.
type secp256k1Key struct {
	priv *secp256k1.PrivateKey // nil for public-only keys
	pub  *secp256k1.PublicKey
}

func generateSecp256k1() (Key, error) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("plckey: generate secp256k1: %w", err)
	}
	return &secp256k1Key{priv: priv, pub: priv.PubKey()}, nil
}

func secp256k1FromPublicRaw(raw []byte) (Key, error) {
	pub, err := secp256k1.ParsePubKey(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: secp256k1 public key: %v", ErrMalformedMultibase, err)
	}
	return &secp256k1Key{pub: pub}, nil
}

func secp256k1FromPrivateRaw(raw []byte) (Key, error) {
	if len(raw) != 32 {
		return nil, fmt.Errorf("%w: secp256k1 private key must be 32 bytes, got %d", ErrMalformedMultibase, len(raw))
	}
	priv := secp256k1.PrivKeyFromBytes(raw)
	return &secp256k1Key{priv: priv, pub: priv.PubKey()}, nil
}

func (k *secp256k1Key) Curve() multibase.Curve { return multibase.Secp256k1 }

func (k *secp256k1Key) IsPrivate() bool { return k.priv != nil }

func (k *secp256k1Key) EncodePublic() (string, error) {
	tag, err := multibase.PublicTag(multibase.Secp256k1)
	if err != nil {
		return "", err
	}
	return multibase.EncodeKey(tag, k.pub.SerializeCompressed()), nil
}

func (k *secp256k1Key) EncodePrivate() (string, error) {
	if k.priv == nil {
		return "", ErrNotAPrivateKey
	}
	tag, err := multibase.PrivateTag(multibase.Secp256k1)
	if err != nil {
		return "", err
	}
	return multibase.EncodeKey(tag, k.priv.Serialize()), nil
}

// Sign implements the compact IEEE-P1363 r‖s form with low-S
// canonicalization: if s > n/2, s is replaced with n - s. Each of r
// and s is serialized to its fixed 32-byte big-endian width, for a
// 64-byte (128 hex char) signature.
func (k *secp256k1Key) Sign(digestHex string) (string, error) {
	if k.priv == nil {
		return "", ErrNotAPrivateKey
	}
	digest, err := hex.DecodeString(digestHex)
	if err != nil {
		return "", fmt.Errorf("plckey: decode digest: %w", err)
	}

	sig := ecdsa.Sign(k.priv, digest)
	r := sig.R()
	s := sig.S()
	if s.IsOverHalfOrder() {
		s.Negate()
	}

	rBytes := r.Bytes()
	sBytes := s.Bytes()

	compact := make([]byte, 0, 64)
	compact = append(compact, rBytes[:]...)
	compact = append(compact, sBytes[:]...)
	return hex.EncodeToString(compact), nil
}
