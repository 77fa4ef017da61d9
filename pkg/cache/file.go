package cache

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

const fileExt = ".cache"

// FileOption configures the file cache.
type FileOption func(*fileOptions)

type fileOptions struct {
	defaultTTL time.Duration
	perm       os.FileMode
}

// WithFileDefaultTTL sets the expiration used when Set is called with a zero TTL.
// Default: 0, entries never expire.
func WithFileDefaultTTL(d time.Duration) FileOption {
	return func(o *fileOptions) {
		o.defaultTTL = d
	}
}

// WithFilePerm sets the permission bits of created cache files. Default: 0o600.
func WithFilePerm(perm os.FileMode) FileOption {
	return func(o *fileOptions) {
		o.perm = perm
	}
}

// File is a cache that keeps one file per key in a directory.
// File names are the MD5 of the key; each file holds the expiry
// on its first line followed by the marshaled value.
type File[V any] struct {
	marshaler Marshaler[V]
	opts      *fileOptions
	dir       string
	mu        sync.Mutex
	closed    bool
}

// NewFile creates a file cache in dir, creating the directory if needed.
// If m is nil, JSON is used.
//
// Example:
//
//	c, err := cache.NewFile[Profile]("storage/cache", nil)
func NewFile[V any](dir string, m Marshaler[V], opts ...FileOption) (*File[V], error) {
	o := &fileOptions{perm: 0o600}
	for _, opt := range opts {
		opt(o)
	}
	if m == nil {
		m = jsonMarshaler[V]{}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache: create dir: %w", err)
	}
	return &File[V]{marshaler: m, opts: o, dir: dir}, nil
}

// Get retrieves a value by key. Expired entries are removed.
func (f *File[V]) Get(_ context.Context, key string) (V, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var zero V
	payload, err := f.read(key)
	if err != nil {
		return zero, err
	}
	return f.marshaler.Unmarshal(payload)
}

// Set stores a value with the given TTL.
func (f *File[V]) Set(_ context.Context, key string, value V, ttl time.Duration) error {
	data, err := f.marshaler.Marshal(value)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	return f.write(key, data, f.expiry(ttl))
}

// Delete removes a key. Missing keys are not an error.
func (f *File[V]) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	if err := os.Remove(f.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Has checks whether a key exists and has not expired.
func (f *File[V]) Has(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, err := f.read(key); err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Clear removes every cache file in the directory.
func (f *File[V]) Clear(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}

	files, err := filepath.Glob(filepath.Join(f.dir, "*"+fileExt))
	if err != nil {
		return err
	}
	var errs []error
	for _, name := range files {
		if err := os.Remove(name); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close marks the cache closed. Files are left in place.
func (f *File[V]) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// IncrBy adds delta to the integer stored at key, keeping its expiry.
// A missing or expired key starts at zero and never expires.
func (f *File[V]) IncrBy(_ context.Context, key string, delta int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return 0, ErrClosed
	}

	var (
		current int64
		expires int64
	)
	raw, err := os.ReadFile(f.path(key))
	switch {
	case err == nil:
		exp, payload, perr := parseEntry(raw)
		if perr != nil {
			return 0, perr
		}
		if exp == 0 || time.Now().UnixNano() < exp {
			expires = exp
			if current, err = strconv.ParseInt(string(bytes.TrimSpace(payload)), 10, 64); err != nil {
				return 0, errors.Join(ErrUnmarshal, err)
			}
		}
	case !errors.Is(err, os.ErrNotExist):
		return 0, err
	}

	next := current + delta
	if err := f.write(key, []byte(strconv.FormatInt(next, 10)), expires); err != nil {
		return 0, err
	}
	return next, nil
}

func (f *File[V]) expiry(ttl time.Duration) int64 {
	if ttl == 0 {
		ttl = f.opts.defaultTTL
	}
	if ttl <= 0 {
		return 0
	}
	return time.Now().Add(ttl).UnixNano()
}

func (f *File[V]) path(key string) string {
	sum := md5.Sum([]byte(key))
	return filepath.Join(f.dir, hex.EncodeToString(sum[:])+fileExt)
}

// read returns the payload of a live entry, deleting it if expired. Caller holds mu.
func (f *File[V]) read(key string) ([]byte, error) {
	name := f.path(key)
	raw, err := os.ReadFile(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	expires, payload, err := parseEntry(raw)
	if err != nil {
		return nil, err
	}
	if expires != 0 && time.Now().UnixNano() >= expires {
		_ = os.Remove(name)
		return nil, ErrNotFound
	}
	return payload, nil
}

// write replaces the entry atomically. Caller holds mu.
func (f *File[V]) write(key string, payload []byte, expires int64) error {
	tmp, err := os.CreateTemp(f.dir, "tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	buf := make([]byte, 0, len(payload)+24)
	buf = strconv.AppendInt(buf, expires, 10)
	buf = append(buf, '\n')
	buf = append(buf, payload...)

	if _, err := tmp.Write(buf); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(f.opts.perm); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.path(key))
}

func parseEntry(raw []byte) (int64, []byte, error) {
	header, payload, ok := bytes.Cut(raw, []byte{'\n'})
	if !ok {
		return 0, nil, ErrCorrupted
	}
	expires, err := strconv.ParseInt(string(header), 10, 64)
	if err != nil {
		return 0, nil, errors.Join(ErrCorrupted, err)
	}
	return expires, payload, nil
}

var _ Cache[any] = (*File[any])(nil)
