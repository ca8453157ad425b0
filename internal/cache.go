package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// ModelCache keeps the last fetched model list on disk
type ModelCache struct {
	path string
}

// ModelIndex is the YAML document stored by ModelCache
type ModelIndex struct {
	Models    []string  `yaml:"models"`
	FetchedAt time.Time `yaml:"fetched_at"`
	Source    string    `yaml:"source,omitempty"`
}

// NewModelCache creates a cache backed by the file at path
func NewModelCache(path string) *ModelCache {
	return &ModelCache{path: path}
}

// Path returns the cache file location
func (mc *ModelCache) Path() string {
	return mc.path
}

// Exists reports whether a cache file is present
func (mc *ModelCache) Exists() bool {
	_, err := os.Stat(mc.path)
	return err == nil
}

// Load reads the cached model list
func (mc *ModelCache) Load() (*ModelIndex, error) {
	data, err := os.ReadFile(mc.path)
	if err != nil {
		return nil, err
	}

	var index ModelIndex
	if err := yaml.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("failed to unmarshal model cache: %w", err)
	}

	return &index, nil
}

// Save writes models to the cache, sorted and de-duplicated
func (mc *ModelCache) Save(models []string, source string) error {
	if err := os.MkdirAll(filepath.Dir(mc.path), 0755); err != nil {
		return err
	}

	seen := make(map[string]bool, len(models))
	unique := make([]string, 0, len(models))
	for _, m := range models {
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		unique = append(unique, m)
	}
	sort.Strings(unique)

	index := ModelIndex{
		Models:    unique,
		FetchedAt: time.Now().UTC(),
		Source:    source,
	}
	data, err := yaml.Marshal(&index)
	if err != nil {
		return fmt.Errorf("failed to marshal model cache: %w", err)
	}

	return os.WriteFile(mc.path, data, 0644)
}

// Age returns how long ago the cache was written
func (mi *ModelIndex) Age() time.Duration {
	if mi.FetchedAt.IsZero() {
		return 0
	}
	return time.Since(mi.FetchedAt)
}
