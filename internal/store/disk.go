package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"sync"
)

// DiskStore implements persistent file-based storage, one JSON file per key
type DiskStore struct {
	dir string
	mu  sync.Mutex // serializes hash read-modify-write
}

// NewDiskStore creates a disk store rooted at dir
func NewDiskStore(dir string) *DiskStore {
	return &DiskStore{dir: dir}
}

type diskEntry struct {
	Key    string            `json:"key"`
	Value  string            `json:"value,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Get retrieves a string value
func (s *DiskStore) Get(ctx context.Context, key string) (string, bool, error) {
	entry, ok, err := s.read(s.path("s", key))
	if err != nil || !ok {
		return "", false, err
	}
	return entry.Value, true, nil
}

// Set stores a string value
func (s *DiskStore) Set(ctx context.Context, key, value string) error {
	return s.write(s.path("s", key), diskEntry{Key: key, Value: value})
}

// HGetAll retrieves every field of a hash
func (s *DiskStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	entry, ok, err := s.read(s.path("h", key))
	if err != nil {
		return nil, err
	}
	if !ok || entry.Fields == nil {
		return map[string]string{}, nil
	}
	return entry.Fields, nil
}

// HSet merges fields into a hash
func (s *DiskStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path("h", key)
	entry, _, err := s.read(path)
	if err != nil {
		return err
	}
	if entry.Fields == nil {
		entry.Fields = make(map[string]string, len(fields))
	}
	entry.Key = key
	maps.Copy(entry.Fields, fields)

	return s.write(path, entry)
}

// Close is a no-op for the disk store
func (s *DiskStore) Close() error {
	return nil
}

func (s *DiskStore) read(path string) (diskEntry, bool, error) {
	var entry diskEntry

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return entry, false, nil
	}
	if err != nil {
		return entry, false, fmt.Errorf("read store file: %w", err)
	}

	if err := json.Unmarshal(data, &entry); err != nil {
		return entry, false, fmt.Errorf("decode store file %s: %w", filepath.Base(path), err)
	}
	return entry, true, nil
}

// write replaces the file atomically so readers never see partial entries
func (s *DiskStore) write(path string, entry diskEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close store file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("rename store file: %w", err)
	}
	return nil
}

// path generates the file path for a key in the given namespace
func (s *DiskStore) path(namespace, key string) string {
	return filepath.Join(s.dir, namespace+"-"+fileKey(key)+".json")
}
