package protocol

import (
	"errors"
	"fmt"
)

// Error classes. Every failure returned by the codecs and the packet layer
// matches exactly one of these with errors.Is.
var (
	ErrSchemaViolation = errors.New("protocol: schema violation")
	ErrDecode          = errors.New("protocol: decode error")
	ErrCoercion        = errors.New("protocol: coercion error")
)

var (
	ErrTruncated       = fmt.Errorf("%w: truncated data", ErrDecode)
	ErrTrailingData    = fmt.Errorf("%w: trailing data", ErrDecode)
	ErrUnsupportedType = fmt.Errorf("%w: unsupported wire type", ErrDecode)
	ErrDepthExceeded   = fmt.Errorf("%w: nesting depth exceeded", ErrDecode)
	ErrLengthExceeded  = fmt.Errorf("%w: declared length exceeds limit", ErrDecode)
	ErrIntOverflow     = fmt.Errorf("%w: integer overflows int64", ErrDecode)
	ErrNotMapping      = fmt.Errorf("%w: top-level value is not a mapping", ErrDecode)
	ErrMissingType     = fmt.Errorf("%w: missing packet type discriminator", ErrDecode)
	ErrUnknownType     = fmt.Errorf("%w: unknown packet type", ErrDecode)
	ErrTypeMismatch    = fmt.Errorf("%w: packet type mismatch", ErrDecode)
	ErrDuplicateKey    = fmt.Errorf("%w: repeated mapping key", ErrDecode)
	ErrUnsupportedKey  = fmt.Errorf("%w: mapping key not representable as text", ErrSchemaViolation)
	ErrInvalidText     = fmt.Errorf("%w: text is not valid UTF-8", ErrSchemaViolation)
)

// FieldError reports a failure bound to one field of one packet type.
type FieldError struct {
	TypeID string
	Field  string
	Reason string
	Err    error
}

func (e *FieldError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("protocol: type=%s: %s", e.TypeID, e.Reason)
	}
	return fmt.Sprintf("protocol: type=%s field=%s: %s", e.TypeID, e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error { return e.Err }

// Violation builds a schema violation for field.
func Violation(typeID, field, reason string) error {
	return &FieldError{TypeID: typeID, Field: field, Reason: reason, Err: ErrSchemaViolation}
}

// Coercion builds a coercion failure for field.
func Coercion(typeID, field, reason string) error {
	return &FieldError{TypeID: typeID, Field: field, Reason: reason, Err: ErrCoercion}
}

// Missing builds the decode failure for a required field absent from the wire.
func Missing(typeID, field string) error {
	return &FieldError{TypeID: typeID, Field: field, Reason: "missing required field", Err: ErrDecode}
}
