package gallery

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kozaktomas/attendance-cam/internal/database"
)

const cacheFilePrefix = "representations_"

// FileCache stores reference representations as gob files next to the
// reference images, one file per model and detector.
type FileCache struct {
	dir string
}

// NewFileCache creates a cache rooted at the gallery directory
func NewFileCache(dir string) *FileCache {
	return &FileCache{dir: dir}
}

// Path returns the cache file used for key.
func (c *FileCache) Path(key database.CacheKey) string {
	return filepath.Join(c.dir, cacheFilePrefix+key.Model+"_"+key.Detector+".gob")
}

// Load returns the cached representations, or nil if the file does not exist.
func (c *FileCache) Load(ctx context.Context, key database.CacheKey) ([]database.StoredReference, error) {
	data, err := os.ReadFile(c.Path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read representations file: %w", err)
	}

	var refs []database.StoredReference
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&refs); err != nil {
		return nil, fmt.Errorf("failed to decode representations: %w", err)
	}
	return refs, nil
}

// Save writes the representations atomically.
func (c *FileCache) Save(ctx context.Context, key database.CacheKey, refs []database.StoredReference) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(refs); err != nil {
		return fmt.Errorf("failed to encode representations: %w", err)
	}

	path := c.Path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write representations file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace representations file: %w", err)
	}
	return nil
}

// Reset removes every representations file in the gallery root. Reference
// images are left untouched.
func (c *FileCache) Reset(ctx context.Context) error {
	matches, err := filepath.Glob(filepath.Join(c.dir, cacheFilePrefix+"*.gob"))
	if err != nil {
		return fmt.Errorf("failed to list representations files: %w", err)
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove %s: %w", filepath.Base(m), err)
		}
	}
	return nil
}

var _ database.ReferenceCache = (*FileCache)(nil)
