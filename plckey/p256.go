package plckey

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/asn1"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/primal-host/plc/multibase"
)

// p256Key implements Key for the NIST P-256 curve. The standard
// library has no ecosystem-library equivalent in this corpus for
// P-256 ECDSA (the corpus's secp256k1 tooling is curve-specific) — see
// DESIGN.md for why crypto/ecdsa and crypto/elliptic are used directly
// here instead of a third-party package.
type p256Key struct {
	priv *ecdsa.PrivateKey // nil for public-only keys
	pub  *ecdsa.PublicKey
}

func generateP256() (Key, error) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("plckey: generate P-256: %w", err)
	}
	return &p256Key{priv: priv, pub: &priv.PublicKey}, nil
}

func p256FromPublicRaw(raw []byte) (Key, error) {
	x, y := elliptic.UnmarshalCompressed(elliptic.P256(), raw)
	if x == nil {
		return nil, fmt.Errorf("%w: P-256 public key: invalid compressed point", ErrMalformedMultibase)
	}
	return &p256Key{pub: &ecdsa.PublicKey{Curve: elliptic.P256(), X: x, Y: y}}, nil
}

func p256FromPrivateRaw(raw []byte) (Key, error) {
	curve := elliptic.P256()
	if len(raw) != 32 {
		return nil, fmt.Errorf("%w: P-256 private key must be 32 bytes, got %d", ErrMalformedMultibase, len(raw))
	}
	d := new(big.Int).SetBytes(raw)
	x, y := curve.ScalarBaseMult(raw)
	priv := &ecdsa.PrivateKey{
		PublicKey: ecdsa.PublicKey{Curve: curve, X: x, Y: y},
		D:         d,
	}
	return &p256Key{priv: priv, pub: &priv.PublicKey}, nil
}

func (k *p256Key) Curve() multibase.Curve { return multibase.P256 }

func (k *p256Key) IsPrivate() bool { return k.priv != nil }

func (k *p256Key) EncodePublic() (string, error) {
	tag, err := multibase.PublicTag(multibase.P256)
	if err != nil {
		return "", err
	}
	raw := elliptic.MarshalCompressed(elliptic.P256(), k.pub.X, k.pub.Y)
	return multibase.EncodeKey(tag, raw), nil
}

func (k *p256Key) EncodePrivate() (string, error) {
	if k.priv == nil {
		return "", ErrNotAPrivateKey
	}
	tag, err := multibase.PrivateTag(multibase.P256)
	if err != nil {
		return "", err
	}
	raw := make([]byte, 32)
	k.priv.D.FillBytes(raw)
	return multibase.EncodeKey(tag, raw), nil
}

type ecdsaASN1Signature struct {
	R, S *big.Int
}

// Sign implements DER-encoded SEQUENCE{r,s} with the same low-S
// canonicalization as secp256k1: if s is over half the curve order, it
// is replaced with n - s before re-encoding.
func (k *p256Key) Sign(digestHex string) (string, error) {
	if k.priv == nil {
		return "", ErrNotAPrivateKey
	}
	digest, err := hex.DecodeString(digestHex)
	if err != nil {
		return "", fmt.Errorf("plckey: decode digest: %w", err)
	}

	der, err := ecdsa.SignASN1(rand.Reader, k.priv, digest)
	if err != nil {
		return "", fmt.Errorf("plckey: sign P-256: %w", err)
	}

	var sig ecdsaASN1Signature
	if _, err := asn1.Unmarshal(der, &sig); err != nil {
		return "", fmt.Errorf("plckey: parse P-256 signature: %w", err)
	}

	halfOrder := new(big.Int).Rsh(k.priv.Curve.Params().N, 1)
	if sig.S.Cmp(halfOrder) > 0 {
		sig.S = new(big.Int).Sub(k.priv.Curve.Params().N, sig.S)
	}

	canonical, err := asn1.Marshal(sig)
	if err != nil {
		return "", fmt.Errorf("plckey: re-encode P-256 signature: %w", err)
	}
	return hex.EncodeToString(canonical), nil
}
