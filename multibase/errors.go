package multibase

import (
	"errors"
	"fmt"

	mb "github.com/multiformats/go-multibase"
)

// ErrUnsupportedCodec is returned when a multicodec tag does not match
// any of the three supported curves.
var ErrUnsupportedCodec = errors.New("multibase: unsupported multicodec tag")

// ErrMalformedMultibase is returned when a multibase string is missing
// its prefix, uses the wrong encoding, or fails to decode.
var ErrMalformedMultibase = errors.New("multibase: malformed multibase string")

func wrapMalformed(cause error) error {
	return fmt.Errorf("%w: %v", ErrMalformedMultibase, cause)
}

func errUnexpectedEncoding(got mb.Encoding) error {
	return fmt.Errorf("unexpected multibase encoding %d", got)
}

var errShortKey = errors.New("decoded key shorter than the multicodec tag")
