package plcop

import "errors"

// ErrInvalidOperation is the base sentinel for every validation
// failure; callers match a specific reason with errors.Is against one
// of the variables below, all of which wrap it.
var ErrInvalidOperation = errors.New("plcop: invalid operation")

var (
	// ErrEmptyType is returned when Type is the empty string.
	ErrEmptyType = wrapInvalid("empty type")

	// ErrInvalidType is returned when Type is neither "plc_operation"
	// nor "plc_tombstone".
	ErrInvalidType = wrapInvalid("type must be plc_operation or plc_tombstone")

	// ErrEmptyRotationKeys is returned when a plc_operation has no
	// rotation keys. The soft-deactivation sub-case (§4.6) is exempt —
	// it is built by the deactivation callsite without going through
	// Validate.
	ErrEmptyRotationKeys = wrapInvalid("rotationKeys must not be empty")

	// ErrEmptyVerificationMethods is returned when a plc_operation has
	// no verification methods. Also exempt for soft deactivation.
	ErrEmptyVerificationMethods = wrapInvalid("verificationMethods must not be empty")

	// ErrInvalidKeyMaterial is returned when a rotation key or
	// verification method entry is not a well-formed Key.
	ErrInvalidKeyMaterial = wrapInvalid("rotation key or verification method is not valid key material")
)

// ErrWrongSignMethod is returned by Sign when called on a
// plc_tombstone (use SignTombstone, which signs the minimal map over
// canonical JSON instead of the six-field DAG-CBOR map) and by
// SignTombstone when called on anything else.
var ErrWrongSignMethod = errors.New("plcop: wrong sign method for this operation type")

func wrapInvalid(reason string) error {
	return &invalidOperationError{reason: reason}
}

type invalidOperationError struct {
	reason string
}

func (e *invalidOperationError) Error() string {
	return "plcop: invalid operation: " + e.reason
}

func (e *invalidOperationError) Unwrap() error {
	return ErrInvalidOperation
}
