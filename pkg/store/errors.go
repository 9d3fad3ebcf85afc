package store

import "errors"

// ============================================================================
// Standard Store Errors
// ============================================================================

// These errors give every backend the same vocabulary for failure. The bridge
// checks them with errors.Is and maps them to status codes; backends wrap them
// with the offending path:
//
//	return nil, fmt.Errorf("%s: %w", path, store.ErrNotFound)

var (
	// ErrNotFound indicates the entry (or, for creates, its parent) does not exist.
	ErrNotFound = errors.New("entry not found")

	// ErrExists indicates an exclusive create found an existing entry.
	ErrExists = errors.New("entry already exists")

	// ErrTypeMismatch indicates the path resolves to the other kind of entry:
	// a directory where a file was requested or the reverse.
	ErrTypeMismatch = errors.New("entry type mismatch")

	// ErrNotEmpty indicates Remove was called on a directory with children.
	ErrNotEmpty = errors.New("directory not empty")

	// ErrQuotaExceeded indicates the write would exceed the sandbox quota.
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrInvalidPath indicates a malformed path (empty, relative, NUL bytes).
	ErrInvalidPath = errors.New("invalid path")

	// ErrInvalidModification indicates an operation the sandbox never allows,
	// such as removing the root.
	ErrInvalidModification = errors.New("invalid modification")

	// ErrClosed indicates the store has been closed.
	ErrClosed = errors.New("store closed")
)
