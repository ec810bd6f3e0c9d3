// Package apperr defines the sentinel errors shared across jstrack packages.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrInvalid       = errors.New("invalid input")
	ErrStorage       = errors.New("could not save")
	ErrUnreadable    = errors.New("could not read")
)
