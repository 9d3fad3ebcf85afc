// Package store defines the sandbox storage primitives the filesystem bridge
// is built on.
//
// A Store is a quota-limited, origin-scoped tree of files and directories
// addressed by absolute slash-delimited paths. Its shape follows the sandboxed
// filesystem APIs it stands in for: there is no type-agnostic "get entry"
// primitive, callers resolve a path either as a file or as a directory.
package store

import (
	"context"
	"time"
)

// EntryKind distinguishes files from directories. The zero value, KindNone,
// describes an entry that could not be resolved.
type EntryKind int

const (
	KindNone EntryKind = iota
	KindFile
	KindDirectory
)

func (k EntryKind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	default:
		return "none"
	}
}

// Entry is a resolved file or directory.
type Entry struct {
	// Path is the cleaned absolute path of the entry.
	Path string

	// Name is the last path element ("/" for the root).
	Name string

	Kind EntryKind

	// Size is the content length in bytes (0 for directories).
	Size uint64

	// ModTime never decreases across writes to the same entry.
	// Backends that cannot report it for listed directories leave it zero.
	ModTime time.Time
}

// IsDir reports whether the entry is a directory.
func (e *Entry) IsDir() bool {
	return e.Kind == KindDirectory
}

// LookupOptions mirror the create/exclusive flags of sandbox lookups.
//
//   - Create=false: the entry must exist (ErrNotFound otherwise)
//   - Create=true: the entry is created if missing; its parent must be an
//     existing directory (ErrNotFound otherwise)
//   - Exclusive=true with Create: an existing entry fails with ErrExists
//
// An entry of the other kind at the path always fails with ErrTypeMismatch.
type LookupOptions struct {
	Create    bool
	Exclusive bool
}

// Usage reports quota consumption. QuotaBytes of 0 means unlimited.
type Usage struct {
	UsedBytes  uint64
	QuotaBytes uint64
}

// Available returns the remaining bytes, or ^uint64(0) when unlimited.
func (u *Usage) Available() uint64 {
	if u.QuotaBytes == 0 {
		return ^uint64(0)
	}
	if u.UsedBytes >= u.QuotaBytes {
		return 0
	}
	return u.QuotaBytes - u.UsedBytes
}

// Store is a sandboxed storage root.
//
// Implementations must be safe for concurrent use: the bridge issues
// independent operations from many goroutines and makes no ordering promise
// between them.
type Store interface {
	// GetFile resolves path as a file.
	GetFile(ctx context.Context, path string, opts LookupOptions) (*Entry, error)

	// GetDirectory resolves path as a directory.
	GetDirectory(ctx context.Context, path string, opts LookupOptions) (*Entry, error)

	// ReadDir lists the children of a directory sorted by name.
	// The result never contains "." or "..".
	ReadDir(ctx context.Context, path string) ([]Entry, error)

	// ReadFile returns a copy of the file content.
	ReadFile(ctx context.Context, path string) ([]byte, error)

	// WriteFile replaces the content of an existing file.
	//
	// Fails with ErrQuotaExceeded, leaving the old content intact, when the
	// new total would exceed the quota.
	WriteFile(ctx context.Context, path string, data []byte) (*Entry, error)

	// Remove deletes a file or an empty directory.
	Remove(ctx context.Context, path string) error

	// RemoveAll deletes a directory and all of its descendants.
	RemoveAll(ctx context.Context, path string) error

	// Usage reports quota consumption.
	Usage(ctx context.Context) (*Usage, error)

	// Close releases the underlying resources. Subsequent calls fail with ErrClosed.
	Close() error
}

// OpenFunc opens (creating if needed) a sandbox root with the given quota.
// The bridge calls it once per process lifetime, plus retries after failures.
type OpenFunc func(ctx context.Context, quotaBytes uint64) (Store, error)

// NextModTime returns now, or prev when the clock has gone backwards, so
// modification times never decrease.
func NextModTime(prev time.Time) time.Time {
	now := time.Now()
	if now.Before(prev) {
		return prev
	}
	return now
}
