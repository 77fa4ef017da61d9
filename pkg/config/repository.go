package config

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Repository holds configuration values addressed by dot paths such as
// "app.url". Values are kept as one JSON document.
type Repository struct {
	mu  sync.RWMutex
	doc string
}

// New creates a repository seeded with values. Keys may be dot paths.
func New(values map[string]any) (*Repository, error) {
	r := &Repository{doc: "{}"}
	for key, value := range values {
		if err := r.Set(key, value); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Set stores value at key, creating intermediate objects.
func (r *Repository) Set(key string, value any) error {
	if key == "" || strings.HasPrefix(key, ".") || strings.HasSuffix(key, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := sjson.Set(r.doc, escapeKey(key), value)
	if err != nil {
		return fmt.Errorf("config: set %q: %w", key, err)
	}
	r.doc = doc
	return nil
}

// Has reports whether key is present.
func (r *Repository) Has(key string) bool {
	return r.lookup(key).Exists()
}

// Get returns the value at key decoded into plain Go values
// (map[string]any, []any, float64, string, bool), or def when missing.
func (r *Repository) Get(key string, def any) any {
	res := r.lookup(key)
	if !res.Exists() {
		return def
	}
	return res.Value()
}

// String returns the value at key as a string, or def when missing.
func (r *Repository) String(key, def string) string {
	res := r.lookup(key)
	if !res.Exists() {
		return def
	}
	return res.String()
}

// Int returns the value at key as an int, or def when missing.
func (r *Repository) Int(key string, def int) int {
	res := r.lookup(key)
	if !res.Exists() {
		return def
	}
	return int(res.Int())
}

// Bool returns the value at key as a bool, or def when missing.
func (r *Repository) Bool(key string, def bool) bool {
	res := r.lookup(key)
	if !res.Exists() {
		return def
	}
	return res.Bool()
}

// Duration parses the value at key with time.ParseDuration. Plain numbers
// are taken as seconds. def is returned when the key is missing or invalid.
func (r *Repository) Duration(key string, def time.Duration) time.Duration {
	res := r.lookup(key)
	switch res.Type {
	case gjson.Number:
		return time.Duration(res.Float() * float64(time.Second))
	case gjson.String:
		if d, err := time.ParseDuration(res.Str); err == nil {
			return d
		}
	}
	return def
}

// Strings returns the value at key as a list of strings.
func (r *Repository) Strings(key string) []string {
	res := r.lookup(key)
	if !res.IsArray() {
		if res.Exists() {
			return []string{res.String()}
		}
		return nil
	}
	items := res.Array()
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.String()
	}
	return out
}

// Decode unmarshals the value at key into v using json tags.
func (r *Repository) Decode(key string, v any) error {
	res := r.lookup(key)
	if !res.Exists() {
		return fmt.Errorf("%w: %q not found", ErrInvalidKey, key)
	}
	return json.Unmarshal([]byte(res.Raw), v)
}

// All returns the whole configuration as nested maps.
func (r *Repository) All() map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out, _ := gjson.Parse(r.doc).Value().(map[string]any)
	return out
}

func (r *Repository) lookup(key string) gjson.Result {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return gjson.Get(r.doc, escapeKey(key))
}

// escapeKey protects gjson path syntax other than the dot separator.
func escapeKey(key string) string {
	var b strings.Builder
	for _, c := range key {
		switch c {
		case '*', '?', '|', '#', '@', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(c)
	}
	return b.String()
}
