package matchstore

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Store remembers confirmed fuzzy-match decisions between runs so a
// fuzzy-matched name pair resolves to the same contact next time.
type Store interface {
	Lookup(key string) (int, bool)
	Record(key string, contactID int)
	Save() error
}

// FileStore keeps the decisions in a flat JSON object on disk,
// name-pair key to contact ID.
type FileStore struct {
	path    string
	entries map[string]int
	dirty   bool
}

// Load reads the store from path; a missing file yields an empty store.
func Load(path string) (*FileStore, error) {
	store := &FileStore{path: path, entries: map[string]int{}}

	blob, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return store, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(blob, &store.entries); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *FileStore) Lookup(key string) (int, bool) {
	id, ok := s.entries[key]
	return id, ok
}

func (s *FileStore) Record(key string, contactID int) {
	if existing, ok := s.entries[key]; ok && existing == contactID {
		return
	}
	s.entries[key] = contactID
	s.dirty = true
}

// Save writes the store back to disk when decisions were added.
func (s *FileStore) Save() error {
	if !s.dirty {
		return nil
	}
	blob, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(s.path, blob, 0o644); err != nil {
		return err
	}
	s.dirty = false
	return nil
}

func (s *FileStore) Len() int {
	return len(s.entries)
}
