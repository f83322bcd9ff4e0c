package storage

import "errors"

// Common storage errors
var (
	// ErrDocumentNotFound indicates that document has never been written
	ErrDocumentNotFound = errors.New("document not found")

	// ErrEmptyUpdate indicates that update carries no fields
	ErrEmptyUpdate = errors.New("empty update")
)
