// Package customerrors defines the error taxonomy shared by the storage
// engine and the command surface.
package customerrors

import (
	"errors"
)

var (
	// ErrDuplicateKey is returned from insert operations when the key
	// already exists in the tree.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrTableFull is returned when the pager cannot allocate another
	// page, or when an insert would split a leaf that is not the root.
	ErrTableFull = errors.New("table reach max size")

	// ErrCorrupted is returned by the node layer when a page image does
	// not hold a valid node.
	ErrCorrupted = errors.New("corrupted node page")

	// ErrNameTooLong is returned when a name exceeds its column width.
	ErrNameTooLong = errors.New("name too long")

	// ErrDescriptionTooLong is returned when a description exceeds its
	// column width.
	ErrDescriptionTooLong = errors.New("description too long")
)

// IsRecoverable reports whether the session can continue after err.
// Anything the user can retry with different input is recoverable;
// I/O faults and corruption are not.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrDuplicateKey) || errors.Is(err, ErrTableFull) ||
		errors.Is(err, ErrNameTooLong) || errors.Is(err, ErrDescriptionTooLong)
}
