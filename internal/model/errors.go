package model

import "errors"

var (
	// ErrNotFound is returned when a referenced document, attachment, role or
	// operation does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidAttachmentName rejects file names that could be read as a path
	// escape.
	ErrInvalidAttachmentName = errors.New("invalid attachment name")
	ErrInvalidInput          = errors.New("invalid input")
	// ErrStorageFailure wraps an I/O or store failure; the cause is wrapped
	// alongside it.
	ErrStorageFailure = errors.New("storage failure")
	// ErrConflict means the document is not in the state the operation
	// requires, including losing a race against another reviewer.
	ErrConflict = errors.New("conflict")
)
