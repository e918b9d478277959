package plckey

import "errors"

// ErrUnsupportedCurve is returned by Generate when asked for a curve
// this package does not implement. The From* decoders report an
// unknown multicodec tag as multibase.ErrUnsupportedCodec instead.
var ErrUnsupportedCurve = errors.New("plckey: unsupported curve")

// ErrNotAPrivateKey is returned by EncodePrivate and Sign when called
// on a Key that holds only public material.
var ErrNotAPrivateKey = errors.New("plckey: key has no private component")

// ErrMalformedMultibase is returned when a decoded key string carries
// key bytes of the wrong shape for its curve, or when FromPublic is
// given a private-key tag. Failures to decode the multibase string
// itself are returned as the multibase package's own errors.
var ErrMalformedMultibase = errors.New("plckey: malformed multibase string")
