package luaplugin

import "errors"

var (
	// ErrStateClosed is returned when a rule runs after its script was closed.
	ErrStateClosed = errors.New("luaplugin: state is closed")

	// ErrInvalidResult is returned when a rule does not return a string.
	ErrInvalidResult = errors.New("luaplugin: rule must return a string")

	// ErrEmptyName is returned when a script or rule has no name.
	ErrEmptyName = errors.New("luaplugin: name is required")
)
