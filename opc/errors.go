package opc

import "errors"

var (
	// ErrIO wraps container read and write failures.
	ErrIO = errors.New("container i/o failure")
	// ErrPartMissing is returned when a named part is not in the package.
	ErrPartMissing = errors.New("part missing")
)
