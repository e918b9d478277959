package multibase

// Tag is a fixed two-byte multicodec prefix identifying a key's curve
// and whether it is public or private material. These are not parsed
// as general-purpose unsigned varints — P-256's private tag (06 26)
// does not round-trip through a varint reader, since 0x06 has no
// continuation bit — so the codec treats every tag as a literal
// two-byte value.
type Tag [2]byte

// Curve identifies one of the three supported elliptic/Edwards curves.
type Curve string

const (
	Secp256k1 Curve = "secp256k1"
	P256      Curve = "P-256"
	Ed25519   Curve = "Ed25519"
)

var (
	tagSecp256k1Pub  = Tag{0xe7, 0x01}
	tagSecp256k1Priv = Tag{0x81, 0x26}
	tagP256Pub       = Tag{0x80, 0x24}
	tagP256Priv      = Tag{0x06, 0x26}
	tagEd25519Pub    = Tag{0xed, 0x01}
	tagEd25519Priv   = Tag{0x80, 0x26}
)

// PublicTag returns the two-byte multicodec prefix for a public key on
// the given curve.
func PublicTag(c Curve) (Tag, error) {
	switch c {
	case Secp256k1:
		return tagSecp256k1Pub, nil
	case P256:
		return tagP256Pub, nil
	case Ed25519:
		return tagEd25519Pub, nil
	default:
		return Tag{}, ErrUnsupportedCodec
	}
}

// PrivateTag returns the two-byte multicodec prefix for a private key
// on the given curve.
func PrivateTag(c Curve) (Tag, error) {
	switch c {
	case Secp256k1:
		return tagSecp256k1Priv, nil
	case P256:
		return tagP256Priv, nil
	case Ed25519:
		return tagEd25519Priv, nil
	default:
		return Tag{}, ErrUnsupportedCodec
	}
}

// tagInfo describes what a tag decodes to: which curve, and whether
// it marks private key material.
type tagInfo struct {
	curve   Curve
	private bool
}

var tagTable = map[Tag]tagInfo{
	tagSecp256k1Pub:  {Secp256k1, false},
	tagSecp256k1Priv: {Secp256k1, true},
	tagP256Pub:       {P256, false},
	tagP256Priv:      {P256, true},
	tagEd25519Pub:    {Ed25519, false},
	tagEd25519Priv:   {Ed25519, true},
}

// LookupTag resolves a two-byte tag to its curve and private/public
// marker, as read literally off the front of decoded multibase bytes.
func LookupTag(t Tag) (curve Curve, private bool, err error) {
	info, ok := tagTable[t]
	if !ok {
		return "", false, ErrUnsupportedCodec
	}
	return info.curve, info.private, nil
}

// EncodeKey concatenates a multicodec tag with raw key bytes and
// multibase(base58btc)-encodes the result, producing a "z..." string.
func EncodeKey(tag Tag, raw []byte) string {
	buf := make([]byte, 0, 2+len(raw))
	buf = append(buf, tag[0], tag[1])
	buf = append(buf, raw...)
	return EncodeBase58BTC(buf)
}

// DecodeKey reverses EncodeKey: it base58btc-decodes the multibase
// string, reads the leading two-byte tag, checks that the tag is a
// known one, and returns the tag and the remaining raw key bytes. Use
// LookupTag on the returned tag to get the curve and private marker.
//
// Legacy acceptance: decoding a private-key multibase string that
// happens to carry a public-key tag is not itself ambiguous here —
// that legacy quirk is resolved one layer up, in the key package,
// where the caller (from_private vs from_public) knows which
// acceptance mode applies.
func DecodeKey(encoded string) (tag Tag, raw []byte, err error) {
	data, err := DecodeBase58BTC(encoded)
	if err != nil {
		return Tag{}, nil, err
	}
	if len(data) < 2 {
		return Tag{}, nil, wrapMalformed(errShortKey)
	}
	tag = Tag{data[0], data[1]}
	if _, _, err := LookupTag(tag); err != nil {
		return Tag{}, nil, err
	}
	return tag, data[2:], nil
}
