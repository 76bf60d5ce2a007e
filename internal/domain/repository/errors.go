package repository

import "errors"

var (
	// ErrVersionConflict is returned when a conditional write lost against a concurrent writer
	ErrVersionConflict = errors.New("concurrent modification detected")
	// ErrDuplicateKey is returned when an insert violates a unique constraint
	ErrDuplicateKey = errors.New("duplicate key")
)
