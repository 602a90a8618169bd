// Package common defines shared sentinel errors used across trackmeta
// packages. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Tag store errors.
	ErrKeyNotFound      = errors.New("tag not found")
	ErrUnsupportedValue = errors.New("unsupported tag value")

	// Configuration errors.
	ErrUnknownDriver = errors.New("unknown database driver")
)
