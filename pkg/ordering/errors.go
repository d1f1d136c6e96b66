package ordering

import "errors"

var (
	// ErrInvalidIdentifier marks a malformed id in a move request.
	ErrInvalidIdentifier = errors.New("invalid identifier")

	// ErrNotFound marks a missing item or target container in the expected scope.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks a rank key collision that persisted past the retry bound.
	ErrConflict = errors.New("rank key conflict")
)
