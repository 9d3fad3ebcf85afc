package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/google/uuid"

	"github.com/marmos91/appshell/pkg/store"
)

// BadgerStore implements store.Store on BadgerDB.
//
// The sandbox survives restarts, which is what makes idempotent seeding
// observable: a second process opening the same directory finds the seed
// layout already in place and must leave user edits alone.
//
// Thread Safety:
// A single RWMutex serialises mutations; reads run concurrently. Holding the
// write lock across each Update transaction keeps transactions from
// conflicting with each other.
type BadgerStore struct {
	db *badger.DB

	mu sync.RWMutex

	rootID uuid.UUID

	// quota is the byte ceiling for file content. 0 means unlimited.
	quota uint64

	closed bool
}

// Config contains configuration for a BadgerDB sandbox.
type Config struct {
	// DBPath is the directory where BadgerDB stores its files.
	DBPath string `mapstructure:"db_path"`

	// InMemory runs BadgerDB without touching disk. DBPath is ignored.
	InMemory bool `mapstructure:"in_memory"`

	// ValueLogFileSizeMB caps each value log file (default: 16).
	ValueLogFileSizeMB int64 `mapstructure:"value_log_file_size_mb"`
}

// record is the persisted form of an entry.
type record struct {
	ID      uuid.UUID       `json:"id"`
	Name    string          `json:"name"`
	Kind    store.EntryKind `json:"kind"`
	Size    uint64          `json:"size"`
	ModTime time.Time       `json:"mtime"`
}

func (r *record) entry(path string) *store.Entry {
	return &store.Entry{
		Path:    path,
		Name:    r.Name,
		Kind:    r.Kind,
		Size:    r.Size,
		ModTime: r.ModTime,
	}
}

// New opens (creating if needed) a BadgerDB sandbox with the given quota.
//
// The quota is not persisted: each open grants the ceiling it was asked for
// and enforces it against the persisted usage counter.
func New(ctx context.Context, cfg Config, quotaBytes uint64) (*BadgerStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.DBPath)
	}

	// Sandbox content is small text; keep the footprint small too.
	vlogMB := cfg.ValueLogFileSizeMB
	if vlogMB == 0 {
		vlogMB = 16
	}
	opts = opts.
		WithLogger(badgerLogger{}).
		WithLoggingLevel(badger.WARNING).
		WithCompression(options.None).
		WithValueLogFileSize(vlogMB << 20)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %s: %w", cfg.DBPath, err)
	}

	s := &BadgerStore{
		db:    db,
		quota: quotaBytes,
	}

	if err := s.initializeRoot(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize root: %w", err)
	}

	return s, nil
}

// Opener returns a store.OpenFunc bound to cfg.
func Opener(cfg Config) store.OpenFunc {
	return func(ctx context.Context, quotaBytes uint64) (store.Store, error) {
		return New(ctx, cfg, quotaBytes)
	}
}

// initializeRoot creates the root record on first open.
func (s *BadgerStore) initializeRoot() error {
	return s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyRootID))
		if err == nil {
			return item.Value(func(val []byte) error {
				id, err := uuid.FromBytes(val)
				if err != nil {
					return fmt.Errorf("corrupt root id: %w", err)
				}
				s.rootID = id
				return nil
			})
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		root := &record{
			ID:      uuid.New(),
			Name:    store.Root,
			Kind:    store.KindDirectory,
			ModTime: time.Now(),
		}
		if err := putRecord(txn, root); err != nil {
			return err
		}
		if err := txn.Set([]byte(keyRootID), root.ID[:]); err != nil {
			return err
		}
		if err := txn.Set([]byte(keyUsedCounter), encodeUint64(0)); err != nil {
			return err
		}
		s.rootID = root.ID
		return nil
	})
}

// ============================================================================
// Transaction helpers
// ============================================================================

func getRecord(txn *badger.Txn, id uuid.UUID) (*record, error) {
	item, err := txn.Get(keyFile(id))
	if err != nil {
		return nil, err
	}
	var rec record
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &rec)
	})
	if err != nil {
		return nil, fmt.Errorf("decode record %s: %w", id, err)
	}
	return &rec, nil
}

func putRecord(txn *badger.Txn, rec *record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record %s: %w", rec.ID, err)
	}
	return txn.Set(keyFile(rec.ID), data)
}

func getChildID(txn *badger.Txn, parent uuid.UUID, name string) (uuid.UUID, error) {
	item, err := txn.Get(keyChild(parent, name))
	if err != nil {
		return uuid.Nil, err
	}
	var id uuid.UUID
	err = item.Value(func(val []byte) error {
		id, err = uuid.FromBytes(val)
		return err
	})
	return id, err
}

func getUsed(txn *badger.Txn) (uint64, error) {
	item, err := txn.Get([]byte(keyUsedCounter))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var used uint64
	err = item.Value(func(val []byte) error {
		used = decodeUint64(val)
		return nil
	})
	return used, err
}

func setUsed(txn *badger.Txn, used uint64) error {
	return txn.Set([]byte(keyUsedCounter), encodeUint64(used))
}

// resolve walks p from the root. It returns badger.ErrKeyNotFound when any
// element is missing or a non-final element is a file.
func (s *BadgerStore) resolve(txn *badger.Txn, p string) (*record, error) {
	cur, err := getRecord(txn, s.rootID)
	if err != nil {
		return nil, err
	}
	for _, name := range store.Components(p) {
		if cur.Kind != store.KindDirectory {
			return nil, badger.ErrKeyNotFound
		}
		id, err := getChildID(txn, cur.ID, name)
		if err != nil {
			return nil, err
		}
		cur, err = getRecord(txn, id)
		if err != nil {
			return nil, err
		}
	}
	return cur, nil
}

// notFound converts badger.ErrKeyNotFound into store.ErrNotFound.
func notFound(p string, err error) error {
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("%s: %w", p, store.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", p, err)
}

// begin validates the context and path and checks the store is open.
// It returns the cleaned path; the caller must release the lock it took.
func (s *BadgerStore) begin(ctx context.Context, path string, write bool) (string, func(), error) {
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}
	p, err := store.CleanPath(path)
	if err != nil {
		return "", nil, err
	}

	unlock := s.mu.RUnlock
	if write {
		s.mu.Lock()
		unlock = s.mu.Unlock
	} else {
		s.mu.RLock()
	}

	if s.closed {
		unlock()
		return "", nil, store.ErrClosed
	}
	return p, unlock, nil
}

// ============================================================================
// Lookup
// ============================================================================

func (s *BadgerStore) GetFile(ctx context.Context, path string, opts store.LookupOptions) (*store.Entry, error) {
	return s.get(ctx, path, store.KindFile, opts)
}

func (s *BadgerStore) GetDirectory(ctx context.Context, path string, opts store.LookupOptions) (*store.Entry, error) {
	return s.get(ctx, path, store.KindDirectory, opts)
}

func (s *BadgerStore) get(ctx context.Context, path string, kind store.EntryKind, opts store.LookupOptions) (*store.Entry, error) {
	p, unlock, err := s.begin(ctx, path, opts.Create)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var result *store.Entry
	txnFn := func(txn *badger.Txn) error {
		existing, err := s.resolve(txn, p)
		if err == nil {
			if existing.Kind != kind {
				return fmt.Errorf("%s is a %s: %w", p, existing.Kind, store.ErrTypeMismatch)
			}
			if opts.Create && opts.Exclusive {
				return fmt.Errorf("%s: %w", p, store.ErrExists)
			}
			result = existing.entry(p)
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if !opts.Create {
			return fmt.Errorf("%s: %w", p, store.ErrNotFound)
		}

		parentPath, name := store.Split(p)
		parent, err := s.resolve(txn, parentPath)
		if err != nil || parent.Kind != store.KindDirectory {
			return fmt.Errorf("parent of %s: %w", p, store.ErrNotFound)
		}

		child := &record{
			ID:      uuid.New(),
			Name:    name,
			Kind:    kind,
			ModTime: time.Now(),
		}
		if err := putRecord(txn, child); err != nil {
			return err
		}
		if err := txn.Set(keyChild(parent.ID, name), child.ID[:]); err != nil {
			return err
		}
		parent.ModTime = store.NextModTime(parent.ModTime)
		if err := putRecord(txn, parent); err != nil {
			return err
		}

		result = child.entry(p)
		return nil
	}

	if opts.Create {
		err = s.db.Update(txnFn)
	} else {
		err = s.db.View(txnFn)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ============================================================================
// Read
// ============================================================================

func (s *BadgerStore) ReadDir(ctx context.Context, path string) ([]store.Entry, error) {
	p, unlock, err := s.begin(ctx, path, false)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var entries []store.Entry
	err = s.db.View(func(txn *badger.Txn) error {
		dir, err := s.resolve(txn, p)
		if err != nil {
			return notFound(p, err)
		}
		if dir.Kind != store.KindDirectory {
			return fmt.Errorf("%s is a file: %w", p, store.ErrTypeMismatch)
		}

		prefix := keyChildPrefix(dir.ID)
		it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix})
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var id uuid.UUID
			err := it.Item().Value(func(val []byte) error {
				var err error
				id, err = uuid.FromBytes(val)
				return err
			})
			if err != nil {
				return err
			}
			child, err := getRecord(txn, id)
			if err != nil {
				return err
			}
			entries = append(entries, *child.entry(store.Join(p, child.Name)))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []store.Entry{}
	}
	return entries, nil
}

func (s *BadgerStore) ReadFile(ctx context.Context, path string) ([]byte, error) {
	p, unlock, err := s.begin(ctx, path, false)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var data []byte
	err = s.db.View(func(txn *badger.Txn) error {
		rec, err := s.resolve(txn, p)
		if err != nil {
			return notFound(p, err)
		}
		if rec.Kind != store.KindFile {
			return fmt.Errorf("%s is a directory: %w", p, store.ErrTypeMismatch)
		}

		item, err := txn.Get(keyBlob(rec.ID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			data = []byte{}
			return nil
		}
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// ============================================================================
// Write
// ============================================================================

func (s *BadgerStore) WriteFile(ctx context.Context, path string, data []byte) (*store.Entry, error) {
	p, unlock, err := s.begin(ctx, path, true)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var result *store.Entry
	err = s.db.Update(func(txn *badger.Txn) error {
		rec, err := s.resolve(txn, p)
		if err != nil {
			return notFound(p, err)
		}
		if rec.Kind != store.KindFile {
			return fmt.Errorf("%s is a directory: %w", p, store.ErrTypeMismatch)
		}

		used, err := getUsed(txn)
		if err != nil {
			return err
		}
		newUsed := used - rec.Size + uint64(len(data))
		if s.quota > 0 && newUsed > s.quota {
			return fmt.Errorf("%s: writing %d bytes (used %d of %d): %w",
				p, len(data), used, s.quota, store.ErrQuotaExceeded)
		}

		if err := txn.Set(keyBlob(rec.ID), append([]byte(nil), data...)); err != nil {
			return err
		}
		rec.Size = uint64(len(data))
		rec.ModTime = store.NextModTime(rec.ModTime)
		if err := putRecord(txn, rec); err != nil {
			return err
		}
		if err := setUsed(txn, newUsed); err != nil {
			return err
		}

		result = rec.entry(p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ============================================================================
// Remove
// ============================================================================

func (s *BadgerStore) Remove(ctx context.Context, path string) error {
	return s.remove(ctx, path, false)
}

func (s *BadgerStore) RemoveAll(ctx context.Context, path string) error {
	return s.remove(ctx, path, true)
}

func (s *BadgerStore) remove(ctx context.Context, path string, recursive bool) error {
	p, unlock, err := s.begin(ctx, path, true)
	if err != nil {
		return err
	}
	defer unlock()

	if p == store.Root {
		return fmt.Errorf("remove %s: %w", p, store.ErrInvalidModification)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		target, err := s.resolve(txn, p)
		if err != nil {
			return notFound(p, err)
		}

		if target.Kind == store.KindDirectory && !recursive {
			hasChildren, err := hasAnyChild(txn, target.ID)
			if err != nil {
				return err
			}
			if hasChildren {
				return fmt.Errorf("%s: %w", p, store.ErrNotEmpty)
			}
		}

		freed, err := deleteSubtree(txn, target)
		if err != nil {
			return err
		}

		parentPath, name := store.Split(p)
		parent, err := s.resolve(txn, parentPath)
		if err != nil {
			return err
		}
		if err := txn.Delete(keyChild(parent.ID, name)); err != nil {
			return err
		}
		parent.ModTime = store.NextModTime(parent.ModTime)
		if err := putRecord(txn, parent); err != nil {
			return err
		}

		used, err := getUsed(txn)
		if err != nil {
			return err
		}
		if freed > used {
			freed = used
		}
		return setUsed(txn, used-freed)
	})
}

func hasAnyChild(txn *badger.Txn, id uuid.UUID) (bool, error) {
	it := txn.NewIterator(badger.IteratorOptions{Prefix: keyChildPrefix(id)})
	defer it.Close()
	it.Rewind()
	return it.Valid(), nil
}

// deleteSubtree removes rec and all of its descendants, returning the number
// of content bytes released. The link from rec's parent is left to the caller.
func deleteSubtree(txn *badger.Txn, rec *record) (uint64, error) {
	freed := rec.Size

	if rec.Kind == store.KindDirectory {
		type childLink struct {
			key []byte
			id  uuid.UUID
		}
		var links []childLink

		it := txn.NewIterator(badger.IteratorOptions{Prefix: keyChildPrefix(rec.ID)})
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			var id uuid.UUID
			err := item.Value(func(val []byte) error {
				var err error
				id, err = uuid.FromBytes(val)
				return err
			})
			if err != nil {
				it.Close()
				return 0, err
			}
			links = append(links, childLink{key: item.KeyCopy(nil), id: id})
		}
		it.Close()

		for _, link := range links {
			child, err := getRecord(txn, link.id)
			if err != nil {
				return 0, err
			}
			n, err := deleteSubtree(txn, child)
			if err != nil {
				return 0, err
			}
			freed += n
			if err := txn.Delete(link.key); err != nil {
				return 0, err
			}
		}
	}

	if err := txn.Delete(keyBlob(rec.ID)); err != nil {
		return 0, err
	}
	if err := txn.Delete(keyFile(rec.ID)); err != nil {
		return 0, err
	}
	return freed, nil
}

// ============================================================================
// Lifecycle
// ============================================================================

func (s *BadgerStore) Usage(ctx context.Context) (*store.Usage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, store.ErrClosed
	}

	var used uint64
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		used, err = getUsed(txn)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &store.Usage{UsedBytes: used, QuotaBytes: s.quota}, nil
}

// Close closes the database. It is safe to call more than once.
func (s *BadgerStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
