package config

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Load reads every .yaml and .yml file at the root of fsys. Each file
// becomes a top-level key named after it: app.yaml is read as "app.*".
// ${VAR} references are expanded from the environment before parsing.
func Load(fsys fs.FS) (*Repository, error) {
	r, _ := New(nil)

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("config: read dir: %w", err)
	}

	for _, entry := range entries {
		ext := path.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}

		src, err := fs.ReadFile(fsys, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", entry.Name(), err)
		}

		var values map[string]any
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(src))), &values); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidFile, entry.Name(), err)
		}
		if values == nil {
			values = map[string]any{}
		}

		if err := r.Set(strings.TrimSuffix(entry.Name(), ext), values); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// LoadDir is Load over a directory on disk.
func LoadDir(dir string) (*Repository, error) {
	return Load(os.DirFS(dir))
}

// FromEnv fills a T from environment variables using its env struct tags.
func FromEnv[T any]() (T, error) {
	cfg, err := env.ParseAs[T]()
	if err != nil {
		return cfg, fmt.Errorf("%w: %w", ErrEnvParse, err)
	}
	return cfg, nil
}

// MustFromEnv is FromEnv that panics on error. Use it in main.
func MustFromEnv[T any]() T {
	cfg, err := FromEnv[T]()
	if err != nil {
		panic(err)
	}
	return cfg
}
