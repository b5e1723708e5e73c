package eip712

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrSchemaMismatch is returned when a message does not conform to its schema.
	ErrSchemaMismatch = errors.New("schema mismatch")
	// ErrUnsupportedType is returned for field types outside the supported set.
	ErrUnsupportedType = errors.New("unsupported type")
)

// FieldError reports the offending field and its declared type.
type FieldError struct {
	Field  string
	Type   string
	Reason string
	Err    error
}

func (e *FieldError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%v: %s: %s", e.Err, e.Type, e.Reason)
	}
	return fmt.Sprintf("%v: field %q (%s): %s", e.Err, e.Field, e.Type, e.Reason)
}

func (e *FieldError) Unwrap() error { return e.Err }

func errUnsupported(typ string) error {
	return &FieldError{Type: typ, Reason: "not a supported EIP-712 type", Err: ErrUnsupportedType}
}

func mismatch(field string, typ FieldType, format string, args ...any) error {
	return &FieldError{
		Field:  field,
		Type:   typ.String(),
		Reason: fmt.Sprintf(format, args...),
		Err:    ErrSchemaMismatch,
	}
}

// withField attaches a field path to an error raised without one.
func withField(err error, field string) error {
	var fe *FieldError
	if errors.As(err, &fe) && fe.Field == "" {
		cp := *fe
		cp.Field = field
		return &cp
	}
	return err
}
