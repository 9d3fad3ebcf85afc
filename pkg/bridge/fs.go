package bridge

import (
	"context"
	"errors"
	"time"

	"github.com/marmos91/appshell/internal/logger"
	"github.com/marmos91/appshell/pkg/status"
	"github.com/marmos91/appshell/pkg/store"
)

// Stat is the read-only view of an entry returned by FS.Stat.
// The zero value describes an entry that does not exist.
type Stat struct {
	Kind    store.EntryKind
	ModTime time.Time
	Size    uint64
}

// IsFile reports whether the entry is a file.
func (s Stat) IsFile() bool { return s.Kind == store.KindFile }

// IsDirectory reports whether the entry is a directory.
func (s Stat) IsDirectory() bool { return s.Kind == store.KindDirectory }

// FS translates filesystem verbs into storage primitives.
//
// Every method waits for the storage root to be ready, performs its storage
// interaction and returns a status code. No Go error escapes: failures are
// logged and mapped to the taxonomy. Methods are safe for concurrent use and
// make no ordering promise relative to each other.
type FS struct {
	roots *RootManager
}

// NewFS creates an FS over the root managed by roots.
func NewFS(roots *RootManager) *FS {
	return &FS{roots: roots}
}

// prepare validates path and waits for the root.
func (f *FS) prepare(ctx context.Context, op, path string) (store.Store, string, status.Code) {
	p, err := store.CleanPath(path)
	if err != nil {
		return nil, "", mapError(op, path, err, status.ErrInvalidParams)
	}

	root, err := f.roots.EnsureRoot(ctx)
	if err != nil {
		return nil, "", mapRootError(op, p, err)
	}
	return root, p, status.OK
}

// ReadDir lists the names of the entries in a directory, sorted, without
// "." or "..".
func (f *FS) ReadDir(ctx context.Context, path string) ([]string, status.Code) {
	const op = "readdir"

	root, p, code := f.prepare(ctx, op, path)
	if code != status.OK {
		return nil, code
	}

	if _, err := root.GetDirectory(ctx, p, store.LookupOptions{}); err != nil {
		return nil, mapError(op, p, err, status.ErrNotFound)
	}

	entries, err := root.ReadDir(ctx, p)
	if err != nil {
		return nil, mapError(op, p, err, status.ErrCantRead)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	return names, status.OK
}

// MakeDir creates a directory. The parent must exist. mode is advisory: the
// sandbox has no permissions.
func (f *FS) MakeDir(ctx context.Context, path string, mode uint32) status.Code {
	const op = "makedir"

	root, p, code := f.prepare(ctx, op, path)
	if code != status.OK {
		return code
	}

	if _, err := root.GetDirectory(ctx, p, store.LookupOptions{Create: true}); err != nil {
		return mapError(op, p, err, status.ErrUnknown)
	}

	logger.Debug("%s %q (mode %#o)", op, p, mode)
	return status.OK
}

// Rename is not supported by the sandbox. It validates its arguments and
// reports ERR_UNKNOWN.
func (f *FS) Rename(ctx context.Context, oldPath, newPath string) status.Code {
	const op = "rename"

	if _, err := store.CleanPath(oldPath); err != nil {
		return mapError(op, oldPath, err, status.ErrInvalidParams)
	}
	if _, err := store.CleanPath(newPath); err != nil {
		return mapError(op, newPath, err, status.ErrInvalidParams)
	}

	logger.Warn("%s %q -> %q: not supported by the sandbox", op, oldPath, newPath)
	return status.ErrUnknown
}

// Stat resolves path as a file, then as a directory. When neither lookup
// succeeds it returns the zero Stat and ERR_NOT_FOUND.
func (f *FS) Stat(ctx context.Context, path string) (Stat, status.Code) {
	const op = "stat"

	root, p, code := f.prepare(ctx, op, path)
	if code != status.OK {
		return Stat{}, code
	}

	entry, fileErr := root.GetFile(ctx, p, store.LookupOptions{})
	if fileErr != nil {
		var dirErr error
		entry, dirErr = root.GetDirectory(ctx, p, store.LookupOptions{})
		if dirErr != nil {
			return Stat{}, mapError(op, p, errors.Join(fileErr, dirErr), status.ErrNotFound)
		}
	}

	return Stat{Kind: entry.Kind, ModTime: entry.ModTime, Size: entry.Size}, status.OK
}

// ReadFile returns the content of a file as text.
func (f *FS) ReadFile(ctx context.Context, path, encoding string) (string, status.Code) {
	const op = "readFile"

	root, p, code := f.prepare(ctx, op, path)
	if code != status.OK {
		return "", code
	}

	if _, err := root.GetFile(ctx, p, store.LookupOptions{}); err != nil {
		return "", mapError(op, p, err, status.ErrNotFound)
	}

	if code := checkEncoding(op, p, encoding); code != status.OK {
		return "", code
	}

	data, err := root.ReadFile(ctx, p)
	if err != nil {
		return "", mapError(op, p, err, status.ErrCantRead)
	}

	return decodeText(op, p, data)
}

// WriteFile replaces the content of a file, creating it if absent. The
// parent directory must exist. A file created by a write that then fails is
// removed again.
func (f *FS) WriteFile(ctx context.Context, path, data, encoding string) status.Code {
	const op = "writeFile"

	root, p, code := f.prepare(ctx, op, path)
	if code != status.OK {
		return code
	}

	created := false
	if _, err := root.GetFile(ctx, p, store.LookupOptions{}); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return mapError(op, p, err, status.ErrNotFound)
		}
		parent, _ := store.Split(p)
		if _, err := root.GetDirectory(ctx, parent, store.LookupOptions{}); err != nil {
			return mapError(op, p, err, status.ErrNotFound)
		}
		created = true
	}

	if code := checkEncoding(op, p, encoding); code != status.OK {
		return code
	}
	content, code := encodeText(op, p, data)
	if code != status.OK {
		return code
	}

	if created {
		if _, err := root.GetFile(ctx, p, store.LookupOptions{Create: true}); err != nil {
			return mapError(op, p, err, status.ErrNotFound)
		}
	}

	if _, err := root.WriteFile(ctx, p, content); err != nil {
		if created {
			if rerr := root.Remove(context.WithoutCancel(ctx), p); rerr != nil {
				logger.Error("%s %q: remove after failed write: %v", op, p, rerr)
			}
		}
		return mapError(op, p, err, status.ErrCantWrite)
	}
	return status.OK
}

// Unlink (permanent deletion) is not supported by the sandbox. It validates
// its argument and reports ERR_UNKNOWN; use MoveToTrash instead.
func (f *FS) Unlink(ctx context.Context, path string) status.Code {
	const op = "unlink"

	if _, err := store.CleanPath(path); err != nil {
		return mapError(op, path, err, status.ErrInvalidParams)
	}

	logger.Warn("%s %q: not supported by the sandbox", op, path)
	return status.ErrUnknown
}

// MoveToTrash removes a file, or a directory with all of its descendants.
// The sandbox has no trash: removal is immediate.
func (f *FS) MoveToTrash(ctx context.Context, path string) status.Code {
	const op = "moveToTrash"

	root, p, code := f.prepare(ctx, op, path)
	if code != status.OK {
		return code
	}

	if _, err := root.GetFile(ctx, p, store.LookupOptions{}); err == nil {
		if err := root.Remove(ctx, p); err != nil {
			return mapError(op, p, err, status.ErrUnknown)
		}
		return status.OK
	}

	if _, err := root.GetDirectory(ctx, p, store.LookupOptions{}); err != nil {
		return mapError(op, p, err, status.ErrNotFound)
	}
	if err := root.RemoveAll(ctx, p); err != nil {
		return mapError(op, p, err, status.ErrUnknown)
	}
	return status.OK
}

// Usage reports how much of the quota the root consumes.
func (f *FS) Usage(ctx context.Context) (*store.Usage, status.Code) {
	const op = "usage"

	root, err := f.roots.EnsureRoot(ctx)
	if err != nil {
		return nil, mapRootError(op, store.Root, err)
	}

	usage, err := root.Usage(ctx)
	if err != nil {
		return nil, mapError(op, store.Root, err, status.ErrCantRead)
	}
	return usage, status.OK
}
