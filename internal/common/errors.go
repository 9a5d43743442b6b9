// Package common defines sentinel errors shared by the repository and
// service layers of usersync. Callers should use errors.Is to match them.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Validation errors.
	ErrInvalidArgument = errors.New("invalid argument")
)
