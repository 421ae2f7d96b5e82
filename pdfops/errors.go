package pdfops

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned (wrapped) for page numbers, page
	// lists and rotation angles that are not acceptable.  It is always
	// detected before anything is written.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound is returned (wrapped) when an input file or a requested
	// page does not exist.
	ErrNotFound = errors.New("not found")
)

// A DecodeError is returned when an input file cannot be read as a PDF
// document.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to load PDF %q: %s", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// An EncodeError is returned when the output document cannot be written.
type EncodeError struct {
	Path string
	Err  error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("failed to save PDF to %q: %s", e.Path, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

func notFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}
