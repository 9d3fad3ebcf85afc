package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/marmos91/appshell/pkg/store"
)

// MemoryStore implements store.Store using an in-memory tree.
//
// It is the reference sandbox backend:
//   - Fast: every operation is memory-speed
//   - Volatile: the sandbox is lost on restart, so every process seeds afresh
//   - Thread-safe: a single RWMutex guards the tree and the usage counter
//
// Content is copied on read and write so callers never share buffers with
// the store.
type MemoryStore struct {
	mu sync.RWMutex

	root *node

	// quota is the byte ceiling for file content. 0 means unlimited.
	quota uint64

	// used is the sum of all file sizes.
	used uint64

	closed bool
}

// node is a file or a directory in the tree.
type node struct {
	name     string
	kind     store.EntryKind
	data     []byte
	modTime  time.Time
	children map[string]*node
}

func newDirNode(name string) *node {
	return &node{
		name:     name,
		kind:     store.KindDirectory,
		modTime:  time.Now(),
		children: make(map[string]*node),
	}
}

func (n *node) entry(path string) *store.Entry {
	return &store.Entry{
		Path:    path,
		Name:    n.name,
		Kind:    n.kind,
		Size:    uint64(len(n.data)),
		ModTime: n.modTime,
	}
}

// New creates an empty in-memory sandbox with the given quota.
func New(ctx context.Context, quotaBytes uint64) (*MemoryStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &MemoryStore{
		root:  newDirNode(store.Root),
		quota: quotaBytes,
	}, nil
}

// Open adapts New to store.OpenFunc.
func Open(ctx context.Context, quotaBytes uint64) (store.Store, error) {
	return New(ctx, quotaBytes)
}

// ============================================================================
// Lookup
// ============================================================================

// walk returns the node at p, or nil when any element is missing.
// A file in the middle of the path counts as missing.
// Caller must hold s.mu.
func (s *MemoryStore) walk(p string) *node {
	cur := s.root
	for _, name := range store.Components(p) {
		if cur.kind != store.KindDirectory {
			return nil
		}
		next, ok := cur.children[name]
		if !ok {
			return nil
		}
		cur = next
	}
	return cur
}

func (s *MemoryStore) GetFile(ctx context.Context, path string, opts store.LookupOptions) (*store.Entry, error) {
	return s.get(ctx, path, store.KindFile, opts)
}

func (s *MemoryStore) GetDirectory(ctx context.Context, path string, opts store.LookupOptions) (*store.Entry, error) {
	return s.get(ctx, path, store.KindDirectory, opts)
}

func (s *MemoryStore) get(ctx context.Context, path string, kind store.EntryKind, opts store.LookupOptions) (*store.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p, err := store.CleanPath(path)
	if err != nil {
		return nil, err
	}

	if opts.Create {
		s.mu.Lock()
		defer s.mu.Unlock()
	} else {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}

	if s.closed {
		return nil, store.ErrClosed
	}

	if existing := s.walk(p); existing != nil {
		if existing.kind != kind {
			return nil, fmt.Errorf("%s is a %s: %w", p, existing.kind, store.ErrTypeMismatch)
		}
		if opts.Create && opts.Exclusive {
			return nil, fmt.Errorf("%s: %w", p, store.ErrExists)
		}
		return existing.entry(p), nil
	}

	if !opts.Create {
		return nil, fmt.Errorf("%s: %w", p, store.ErrNotFound)
	}

	parentPath, name := store.Split(p)
	parent := s.walk(parentPath)
	if parent == nil || parent.kind != store.KindDirectory {
		return nil, fmt.Errorf("parent of %s: %w", p, store.ErrNotFound)
	}

	var child *node
	if kind == store.KindDirectory {
		child = newDirNode(name)
	} else {
		child = &node{name: name, kind: store.KindFile, modTime: time.Now()}
	}
	parent.children[name] = child
	parent.modTime = store.NextModTime(parent.modTime)

	return child.entry(p), nil
}

// ============================================================================
// Read
// ============================================================================

func (s *MemoryStore) ReadDir(ctx context.Context, path string) ([]store.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p, err := store.CleanPath(path)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, store.ErrClosed
	}

	dir := s.walk(p)
	if dir == nil {
		return nil, fmt.Errorf("%s: %w", p, store.ErrNotFound)
	}
	if dir.kind != store.KindDirectory {
		return nil, fmt.Errorf("%s is a file: %w", p, store.ErrTypeMismatch)
	}

	entries := make([]store.Entry, 0, len(dir.children))
	for name, child := range dir.children {
		entries = append(entries, *child.entry(store.Join(p, name)))
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	return entries, nil
}

func (s *MemoryStore) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p, err := store.CleanPath(path)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, store.ErrClosed
	}

	f := s.walk(p)
	if f == nil {
		return nil, fmt.Errorf("%s: %w", p, store.ErrNotFound)
	}
	if f.kind != store.KindFile {
		return nil, fmt.Errorf("%s is a directory: %w", p, store.ErrTypeMismatch)
	}

	out := make([]byte, len(f.data))
	copy(out, f.data)
	return out, nil
}

// ============================================================================
// Write
// ============================================================================

func (s *MemoryStore) WriteFile(ctx context.Context, path string, data []byte) (*store.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p, err := store.CleanPath(path)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, store.ErrClosed
	}

	f := s.walk(p)
	if f == nil {
		return nil, fmt.Errorf("%s: %w", p, store.ErrNotFound)
	}
	if f.kind != store.KindFile {
		return nil, fmt.Errorf("%s is a directory: %w", p, store.ErrTypeMismatch)
	}

	newUsed := s.used - uint64(len(f.data)) + uint64(len(data))
	if s.quota > 0 && newUsed > s.quota {
		return nil, fmt.Errorf("%s: writing %d bytes (used %d of %d): %w",
			p, len(data), s.used, s.quota, store.ErrQuotaExceeded)
	}

	buf := make([]byte, len(data))
	copy(buf, data)
	f.data = buf
	f.modTime = store.NextModTime(f.modTime)
	s.used = newUsed

	return f.entry(p), nil
}

// ============================================================================
// Remove
// ============================================================================

func (s *MemoryStore) Remove(ctx context.Context, path string) error {
	return s.remove(ctx, path, false)
}

func (s *MemoryStore) RemoveAll(ctx context.Context, path string) error {
	return s.remove(ctx, path, true)
}

func (s *MemoryStore) remove(ctx context.Context, path string, recursive bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p, err := store.CleanPath(path)
	if err != nil {
		return err
	}
	if p == store.Root {
		return fmt.Errorf("remove %s: %w", p, store.ErrInvalidModification)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return store.ErrClosed
	}

	target := s.walk(p)
	if target == nil {
		return fmt.Errorf("%s: %w", p, store.ErrNotFound)
	}
	if target.kind == store.KindDirectory && len(target.children) > 0 && !recursive {
		return fmt.Errorf("%s: %w", p, store.ErrNotEmpty)
	}

	parentPath, name := store.Split(p)
	parent := s.walk(parentPath)
	delete(parent.children, name)
	parent.modTime = store.NextModTime(parent.modTime)

	s.used -= subtreeSize(target)
	return nil
}

func subtreeSize(n *node) uint64 {
	size := uint64(len(n.data))
	for _, child := range n.children {
		size += subtreeSize(child)
	}
	return size
}

// ============================================================================
// Lifecycle
// ============================================================================

func (s *MemoryStore) Usage(ctx context.Context) (*store.Usage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, store.ErrClosed
	}

	return &store.Usage{UsedBytes: s.used, QuotaBytes: s.quota}, nil
}

// Close marks the store closed and drops the tree.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.root = nil
	s.used = 0
	return nil
}
