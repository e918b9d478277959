package plckeystore

import "errors"

// ErrNotFound is returned when a DID has no record in the store.
var ErrNotFound = errors.New("plckeystore: did not found")

// ErrMissingLocalKey is the §7 MissingLocalKey error kind: the
// manager (or a direct caller) needs a rotation key the store does
// not have.
var ErrMissingLocalKey = errors.New("plckeystore: missing local rotation key")
