package domain

import "errors"

var (
	// ErrNotFound is returned when a restaurant does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a restaurant name is already taken.
	ErrConflict = errors.New("already exists")

	// ErrInvalidInput wraps every validation failure.
	ErrInvalidInput = errors.New("invalid input")
)
