package xlxml

import (
	"errors"
	"fmt"
)

var (
	// ErrPartInvalid is the kind of every failure to decode a part.
	ErrPartInvalid = errors.New("part invalid")
	// ErrMalformed reports XML that is not well formed.
	ErrMalformed = errors.New("xml malformed")
)

// PartError locates a decode failure inside a named part.
type PartError struct {
	Part   string
	Offset int64
	Err    error
}

func (e *PartError) Error() string {
	return fmt.Sprintf("part %s at offset %d: %v", e.Part, e.Offset, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is.
func (e *PartError) Unwrap() []error {
	return []error{ErrPartInvalid, e.Err}
}
