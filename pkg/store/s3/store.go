package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/marmos91/appshell/internal/logger"
	"github.com/marmos91/appshell/pkg/store"
)

// metaModTime is the user metadata key carrying the entry modification time.
// S3's own LastModified is set by the server and cannot be kept monotonic.
const metaModTime = "mtime"

// deleteBatchSize is the DeleteObjects per-request key limit.
const deleteBatchSize = 1000

// Client is the subset of *s3.Client the store uses.
type Client interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Config contains configuration for an S3 sandbox.
type Config struct {
	Client Client

	Bucket string

	// KeyPrefix scopes the sandbox inside the bucket, e.g. "sandboxes/alice/".
	KeyPrefix string

	// Metrics is optional.
	Metrics Metrics
}

// S3Store implements store.Store on an S3 bucket.
//
// Storage Model:
//   - a file "/a/b.txt" is the object <prefix>a/b.txt
//   - a directory "/a" is the zero-byte marker object <prefix>a/
//   - the root is implicit and always exists
//
// Quota accounting is done in-process: usage is computed by listing the
// prefix when the store is opened and tracked on every write and removal.
// Two processes sharing one prefix will each enforce the quota against
// their own view.
type S3Store struct {
	client Client
	bucket string
	prefix string

	mu     sync.RWMutex
	quota  uint64
	used   uint64
	closed bool
}

// New opens an S3 sandbox, verifying the bucket is reachable and computing
// current usage.
func New(ctx context.Context, cfg Config, quotaBytes uint64) (*S3Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if cfg.Client == nil {
		return nil, errors.New("s3 store: client is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("s3 store: bucket is required")
	}

	prefix := strings.TrimPrefix(cfg.KeyPrefix, "/")
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	client := cfg.Client
	if cfg.Metrics != nil {
		client = &instrumentedClient{Client: client, metrics: cfg.Metrics}
	}

	s := &S3Store{
		client: client,
		bucket: cfg.Bucket,
		prefix: prefix,
		quota:  quotaBytes,
	}

	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
		return nil, fmt.Errorf("failed to access bucket %s: %w", s.bucket, err)
	}

	used, err := s.sumPrefix(ctx, s.prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to compute usage: %w", err)
	}
	s.used = used

	logger.Debug("S3 sandbox opened: bucket=%s prefix=%q used=%d quota=%d",
		s.bucket, s.prefix, used, quotaBytes)

	return s, nil
}

// ============================================================================
// Keys and probes
// ============================================================================

func (s *S3Store) fileKey(p string) string {
	return s.prefix + strings.TrimPrefix(p, "/")
}

// dirKey returns the marker key of a directory, or the prefix itself for the root.
func (s *S3Store) dirKey(p string) string {
	if p == store.Root {
		return s.prefix
	}
	return s.fileKey(p) + "/"
}

func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	return errors.As(err, &noSuchKey) || errors.As(err, &notFound)
}

// head returns the object metadata, or (nil, nil) when the key is absent.
func (s *S3Store) head(ctx context.Context, key string) (*s3.HeadObjectOutput, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("head %s: %w", key, err)
	}
	return out, nil
}

// probe resolves p to an entry, or returns nil when nothing exists there.
func (s *S3Store) probe(ctx context.Context, p string) (*store.Entry, error) {
	if p == store.Root {
		return &store.Entry{Path: p, Name: store.Root, Kind: store.KindDirectory}, nil
	}

	_, name := store.Split(p)

	out, err := s.head(ctx, s.fileKey(p))
	if err != nil {
		return nil, err
	}
	if out != nil {
		return &store.Entry{
			Path:    p,
			Name:    name,
			Kind:    store.KindFile,
			Size:    uint64(aws.ToInt64(out.ContentLength)),
			ModTime: modTimeOf(out.Metadata, out.LastModified),
		}, nil
	}

	out, err = s.head(ctx, s.dirKey(p))
	if err != nil {
		return nil, err
	}
	if out != nil {
		return &store.Entry{
			Path:    p,
			Name:    name,
			Kind:    store.KindDirectory,
			ModTime: modTimeOf(out.Metadata, out.LastModified),
		}, nil
	}

	return nil, nil
}

func modTimeOf(meta map[string]string, fallback *time.Time) time.Time {
	if v, ok := meta[metaModTime]; ok {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return t
		}
	}
	return aws.ToTime(fallback)
}

func (s *S3Store) put(ctx context.Context, key string, data []byte, modTime time.Time) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		Metadata:      map[string]string{metaModTime: modTime.UTC().Format(time.RFC3339Nano)},
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// sumPrefix returns the total size of all objects under prefix.
func (s *S3Store) sumPrefix(ctx context.Context, prefix string) (uint64, error) {
	var total uint64
	err := s.walkPrefix(ctx, prefix, func(obj types.Object) {
		total += uint64(aws.ToInt64(obj.Size))
	})
	return total, err
}

// walkPrefix visits every object under prefix without a delimiter.
func (s *S3Store) walkPrefix(ctx context.Context, prefix string, fn func(types.Object)) error {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("list %s: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			fn(obj)
		}
	}
	return nil
}

func (s *S3Store) begin(ctx context.Context, path string, write bool) (string, func(), error) {
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

func (s *S3Store) GetFile(ctx context.Context, path string, opts store.LookupOptions) (*store.Entry, error) {
	return s.get(ctx, path, store.KindFile, opts)
}

func (s *S3Store) GetDirectory(ctx context.Context, path string, opts store.LookupOptions) (*store.Entry, error) {
	return s.get(ctx, path, store.KindDirectory, opts)
}

func (s *S3Store) get(ctx context.Context, path string, kind store.EntryKind, opts store.LookupOptions) (*store.Entry, error) {
	p, unlock, err := s.begin(ctx, path, opts.Create)
	if err != nil {
		return nil, err
	}
	defer unlock()

	existing, err := s.probe(ctx, p)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.Kind != kind {
			return nil, fmt.Errorf("%s is a %s: %w", p, existing.Kind, store.ErrTypeMismatch)
		}
		if opts.Create && opts.Exclusive {
			return nil, fmt.Errorf("%s: %w", p, store.ErrExists)
		}
		return existing, nil
	}

	if !opts.Create {
		return nil, fmt.Errorf("%s: %w", p, store.ErrNotFound)
	}

	parentPath, name := store.Split(p)
	parent, err := s.probe(ctx, parentPath)
	if err != nil {
		return nil, err
	}
	if parent == nil || parent.Kind != store.KindDirectory {
		return nil, fmt.Errorf("parent of %s: %w", p, store.ErrNotFound)
	}

	now := time.Now()
	key := s.fileKey(p)
	if kind == store.KindDirectory {
		key = s.dirKey(p)
	}
	if err := s.put(ctx, key, nil, now); err != nil {
		return nil, err
	}

	return &store.Entry{Path: p, Name: name, Kind: kind, ModTime: now}, nil
}

// ============================================================================
// Read
// ============================================================================

func (s *S3Store) ReadDir(ctx context.Context, path string) ([]store.Entry, error) {
	p, unlock, err := s.begin(ctx, path, false)
	if err != nil {
		return nil, err
	}
	defer unlock()

	dir, err := s.probe(ctx, p)
	if err != nil {
		return nil, err
	}
	if dir == nil {
		return nil, fmt.Errorf("%s: %w", p, store.ErrNotFound)
	}
	if dir.Kind != store.KindDirectory {
		return nil, fmt.Errorf("%s is a file: %w", p, store.ErrTypeMismatch)
	}

	dirPrefix := s.dirKey(p)
	entries := []store.Entry{}

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(dirPrefix),
		Delimiter: aws.String("/"),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", p, err)
		}

		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), dirPrefix)
			if name == "" {
				continue // the directory's own marker
			}
			entries = append(entries, store.Entry{
				Path:    store.Join(p, name),
				Name:    name,
				Kind:    store.KindFile,
				Size:    uint64(aws.ToInt64(obj.Size)),
				ModTime: aws.ToTime(obj.LastModified),
			})
		}
		for _, cp := range page.CommonPrefixes {
			name := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(cp.Prefix), dirPrefix), "/")
			if name == "" {
				continue
			}
			entries = append(entries, store.Entry{
				Path: store.Join(p, name),
				Name: name,
				Kind: store.KindDirectory,
			})
		}
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (s *S3Store) ReadFile(ctx context.Context, path string) ([]byte, error) {
	p, unlock, err := s.begin(ctx, path, false)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if p == store.Root {
		return nil, fmt.Errorf("%s is a directory: %w", p, store.ErrTypeMismatch)
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fileKey(p)),
	})
	if err != nil {
		if !isNotFound(err) {
			return nil, fmt.Errorf("get %s: %w", p, err)
		}
		marker, herr := s.head(ctx, s.dirKey(p))
		if herr != nil {
			return nil, herr
		}
		if marker != nil {
			return nil, fmt.Errorf("%s is a directory: %w", p, store.ErrTypeMismatch)
		}
		return nil, fmt.Errorf("%s: %w", p, store.ErrNotFound)
	}
	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p, err)
	}
	return data, nil
}

// ============================================================================
// Write
// ============================================================================

func (s *S3Store) WriteFile(ctx context.Context, path string, data []byte) (*store.Entry, error) {
	p, unlock, err := s.begin(ctx, path, true)
	if err != nil {
		return nil, err
	}
	defer unlock()

	existing, err := s.probe(ctx, p)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("%s: %w", p, store.ErrNotFound)
	}
	if existing.Kind != store.KindFile {
		return nil, fmt.Errorf("%s is a directory: %w", p, store.ErrTypeMismatch)
	}

	newUsed := s.used - existing.Size + uint64(len(data))
	if s.quota > 0 && newUsed > s.quota {
		return nil, fmt.Errorf("%s: writing %d bytes (used %d of %d): %w",
			p, len(data), s.used, s.quota, store.ErrQuotaExceeded)
	}

	modTime := store.NextModTime(existing.ModTime)
	if err := s.put(ctx, s.fileKey(p), data, modTime); err != nil {
		return nil, err
	}
	s.used = newUsed

	existing.Size = uint64(len(data))
	existing.ModTime = modTime
	return existing, nil
}

// ============================================================================
// Remove
// ============================================================================

func (s *S3Store) Remove(ctx context.Context, path string) error {
	return s.remove(ctx, path, false)
}

func (s *S3Store) RemoveAll(ctx context.Context, path string) error {
	return s.remove(ctx, path, true)
}

func (s *S3Store) remove(ctx context.Context, path string, recursive bool) error {
	p, unlock, err := s.begin(ctx, path, true)
	if err != nil {
		return err
	}
	defer unlock()

	if p == store.Root {
		return fmt.Errorf("remove %s: %w", p, store.ErrInvalidModification)
	}

	target, err := s.probe(ctx, p)
	if err != nil {
		return err
	}
	if target == nil {
		return fmt.Errorf("%s: %w", p, store.ErrNotFound)
	}

	if target.Kind == store.KindFile {
		_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(s.fileKey(p)),
		})
		if err != nil {
			return fmt.Errorf("delete %s: %w", p, err)
		}
		s.release(target.Size)
		return nil
	}

	marker := s.dirKey(p)
	var keys []string
	var freed uint64
	err = s.walkPrefix(ctx, marker, func(obj types.Object) {
		keys = append(keys, aws.ToString(obj.Key))
		freed += uint64(aws.ToInt64(obj.Size))
	})
	if err != nil {
		return err
	}

	if !recursive && len(keys) > 1 {
		return fmt.Errorf("%s: %w", p, store.ErrNotEmpty)
	}

	if err := s.deleteKeys(ctx, keys); err != nil {
		return fmt.Errorf("remove %s: %w", p, err)
	}
	s.release(freed)
	return nil
}

// deleteKeys removes keys in DeleteObjects batches.
func (s *S3Store) deleteKeys(ctx context.Context, keys []string) error {
	for start := 0; start < len(keys); start += deleteBatchSize {
		end := min(start+deleteBatchSize, len(keys))

		ids := make([]types.ObjectIdentifier, 0, end-start)
		for _, k := range keys[start:end] {
			ids = append(ids, types.ObjectIdentifier{Key: aws.String(k)})
		}

		out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{Objects: ids, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return err
		}
		if len(out.Errors) > 0 {
			first := out.Errors[0]
			return fmt.Errorf("%d objects not deleted, first %s: %s",
				len(out.Errors), aws.ToString(first.Key), aws.ToString(first.Message))
		}
	}
	return nil
}

// release subtracts freed bytes from usage. Caller must hold s.mu.
func (s *S3Store) release(freed uint64) {
	if freed > s.used {
		freed = s.used
	}
	s.used -= freed
}

// ============================================================================
// Lifecycle
// ============================================================================

func (s *S3Store) Usage(ctx context.Context) (*store.Usage, error) {
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

// Close marks the store closed. The client is owned by the caller.
func (s *S3Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}
