package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Storer is read access to a set of loaded assets keyed by identifier.
type Storer[T ValidatingSpec] interface {
	Get(string) T
	GetAll() map[string]T
}

// FileStore holds every *.json asset found below a directory. The files are
// read once, at construction, and the store is read-only afterwards.
type FileStore[T ValidatingSpec] struct {
	path    string
	records map[string]T
	digest  string
}

func NewFileStore[T ValidatingSpec](path string) (*FileStore[T], error) {
	s := &FileStore[T]{
		path:    path,
		records: map[string]T{},
	}

	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore[T]) load() error {
	h := sha256.New()

	// WalkDir visits entries in lexical order, which keeps the digest stable.
	err := filepath.WalkDir(s.path, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}

		rel, err := filepath.Rel(s.path, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", rel, err)
		}

		asset := &Asset[T]{}
		if err := json.Unmarshal(data, asset); err != nil {
			return fmt.Errorf("loading %s: unmarshalling asset: %w", rel, err)
		}
		if err := asset.Validate(); err != nil {
			return fmt.Errorf("validating %s: %w", rel, err)
		}

		id := asset.Id().String()
		if _, ok := s.records[id]; ok {
			return fmt.Errorf("duplicate key detected: %s (in %s)", id, rel)
		}
		s.records[id] = asset.Spec

		h.Write([]byte(filepath.ToSlash(rel)))
		h.Write([]byte{0})
		h.Write(data)
		return nil
	})
	if err != nil {
		return err
	}

	s.digest = hex.EncodeToString(h.Sum(nil))
	return nil
}

// Get returns the spec for id, or the zero value when it is unknown.
func (s *FileStore[T]) Get(id string) T {
	return s.records[id]
}

// GetAll returns a copy of every loaded spec keyed by identifier.
func (s *FileStore[T]) GetAll() map[string]T {
	out := make(map[string]T, len(s.records))
	for id, v := range s.records {
		out[id] = v
	}
	return out
}

// Digest is a sha256 over the loaded files' paths and contents. Clients
// compare it against their own catalog to spot a mismatched build.
func (s *FileStore[T]) Digest() string {
	return s.digest
}
