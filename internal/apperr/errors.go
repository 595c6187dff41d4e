// Package apperr holds the sentinel errors shared across Vitrine packages.
package apperr

import "errors"

var (
	ErrNotFound             = errors.New("not found")
	ErrConflict             = errors.New("conflict")
	ErrAlreadyExists        = errors.New("already exists")
	ErrInvalid              = errors.New("invalid input")
	ErrOutOfRange           = errors.New("out of range")
	ErrNotImage             = errors.New("not an image")
	ErrConfirmationRequired = errors.New("confirmation required")
)
