package engine

import "errors"

var (
	// ErrConflict indicates unresolved conflicts blocked an operation.
	ErrConflict = errors.New("conflict detected")

	// ErrValidation indicates a validation failure.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates a resource or compose was not found.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate indicates a name or path is already registered.
	ErrDuplicate = errors.New("already exists")
)
