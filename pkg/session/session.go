package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Session is a visitor's data document plus its lifecycle metadata.
// A Session is owned by a single request and is not safe for concurrent use.
type Session struct {
	CreatedAt    time.Time       `json:"created_at"`
	LastActiveAt time.Time       `json:"last_active_at"`
	ExpiresAt    time.Time       `json:"expires_at"`
	ID           string          `json:"id"`    // Unique identifier (UUID)
	Token        string          `json:"token"` // Cookie token, rotated independently of ID
	Data         json.RawMessage `json:"data"`  // JSON object addressed by dot paths

	fresh map[string]struct{} // paths written during this request
	dirty bool
	isNew bool
}

// New creates an empty session with the given ID and token.
func New(id, token string, expiresAt time.Time) *Session {
	now := time.Now()
	return &Session{
		ID:           id,
		Token:        token,
		Data:         json.RawMessage(`{}`),
		CreatedAt:    now,
		LastActiveAt: now,
		ExpiresAt:    expiresAt,
		isNew:        true,
		dirty:        true,
	}
}

// Get returns the value at path.
func (s *Session) Get(path string) (any, bool) {
	r := gjson.GetBytes(s.Data, path)
	if !r.Exists() {
		return nil, false
	}
	return r.Value(), true
}

// Has reports whether path holds a value.
func (s *Session) Has(path string) bool {
	return gjson.GetBytes(s.Data, path).Exists()
}

// Put stores value at path, creating intermediate objects as needed.
func (s *Session) Put(path string, value any) error {
	if path == "" {
		return fmt.Errorf("session: empty path")
	}
	data, err := sjson.SetBytes(s.document(), path, value)
	if err != nil {
		return fmt.Errorf("session: put %q: %w", path, err)
	}
	s.Data = data
	s.written(path)
	return nil
}

// Push appends value to the list at path. A scalar already at path becomes the first element.
func (s *Session) Push(path string, value any) error {
	var list []any
	if current, ok := s.Get(path); ok {
		if existing, isList := current.([]any); isList {
			list = existing
		} else {
			list = []any{current}
		}
	}
	return s.Put(path, append(list, value))
}

// Pull returns the value at path and removes it.
func (s *Session) Pull(path string) (any, bool) {
	v, ok := s.Get(path)
	if ok {
		s.Forget(path)
	}
	return v, ok
}

// Forget removes the given paths.
func (s *Session) Forget(paths ...string) {
	for _, path := range paths {
		if !s.Has(path) {
			continue
		}
		if data, err := sjson.DeleteBytes(s.Data, path); err == nil {
			s.Data = data
			s.dirty = true
		}
	}
}

// Flash stores value under "flash.<key>" for the next request only.
func (s *Session) Flash(key string, value any) error {
	return s.Put("flash."+key, value)
}

// All returns the whole document.
func (s *Session) All() map[string]any {
	m, _ := gjson.ParseBytes(s.document()).Value().(map[string]any)
	if m == nil {
		m = map[string]any{}
	}
	return m
}

// Flush empties the document.
func (s *Session) Flush() {
	s.Data = json.RawMessage(`{}`)
	s.fresh = nil
	s.dirty = true
}

// Sweep removes everything under roots except paths written during this request,
// then starts a new tracking window.
func (s *Session) Sweep(roots ...string) {
	for _, root := range roots {
		if !s.Has(root) {
			continue
		}
		var keep []string
		for path := range s.fresh {
			if path == root || strings.HasPrefix(path, root+".") {
				keep = append(keep, path)
			}
		}
		sort.Slice(keep, func(i, j int) bool { return len(keep[i]) < len(keep[j]) })

		raws := make([]string, len(keep))
		for i, path := range keep {
			raws[i] = gjson.GetBytes(s.Data, path).Raw
		}

		s.Forget(root)
		for i, path := range keep {
			if raws[i] == "" {
				continue
			}
			if data, err := sjson.SetRawBytes(s.document(), path, []byte(raws[i])); err == nil {
				s.Data = data
			}
		}
	}
	s.fresh = nil
}

func (s *Session) document() []byte {
	if len(s.Data) == 0 {
		return []byte(`{}`)
	}
	return s.Data
}

func (s *Session) written(path string) {
	if s.fresh == nil {
		s.fresh = make(map[string]struct{})
	}
	s.fresh[path] = struct{}{}
	s.dirty = true
}

// IsDirty returns true if the session has unsaved changes.
func (s *Session) IsDirty() bool {
	return s.dirty
}

// ClearDirty marks the session as saved.
func (s *Session) ClearDirty() {
	s.dirty = false
}

// MarkDirty marks the session as needing to be saved.
func (s *Session) MarkDirty() {
	s.dirty = true
}

// IsNew returns true if the session was created during this request.
func (s *Session) IsNew() bool {
	return s.isNew
}

// ClearNew marks the session as persisted.
func (s *Session) ClearNew() {
	s.isNew = false
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Value decodes the value at path into T.
func Value[T any](s *Session, path string) (T, error) {
	var zero T
	if s == nil {
		return zero, ErrNotFound
	}
	r := gjson.GetBytes(s.Data, path)
	if !r.Exists() {
		return zero, ErrNotFound
	}
	var out T
	if err := json.Unmarshal([]byte(r.Raw), &out); err != nil {
		return zero, errors.Join(ErrTypeMismatch, fmt.Errorf("key %q: %w", path, err))
	}
	return out, nil
}

// ValueOr is Value with a fallback for missing or mismatched values.
func ValueOr[T any](s *Session, path string, fallback T) T {
	v, err := Value[T](s, path)
	if err != nil {
		return fallback
	}
	return v
}
