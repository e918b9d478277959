// Package plckeystore persists per-DID key material to a single
// durable JSON file. Writes go through a temp file and a rename so a
// crash mid-write never leaves a torn document on disk. See DESIGN.md
// for why this is built directly on os.CreateTemp/os.Rename rather
// than a third-party library.
package plckeystore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// KeyStore is the external collaborator interface from §5/§6.
type KeyStore interface {
	Put(did string, rec Record) error
	Get(did string) (Record, error)
	UpdateKeys(did string, rotation, verification KeyPair) error
	UpdateMetadata(did string, metadata map[string]any) error
	Deactivate(did string) error
	List() ([]Record, error)
	Delete(did string) error
}

// JSONFileStore is the default KeyStore: one JSON document on disk,
// guarded in-process by a mutex and persisted via write-then-rename so
// a crash mid-write never leaves a torn file.
type JSONFileStore struct {
	path string
	mu   sync.Mutex
}

// NewJSONFileStore opens (or prepares to create) the store at path.
// The file is not read until the first operation.
func NewJSONFileStore(path string) *JSONFileStore {
	return &JSONFileStore{path: path}
}

func (s *JSONFileStore) load() (document, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return document{DIDs: map[string]Record{}}, nil
	}
	if err != nil {
		return document{}, fmt.Errorf("plckeystore: read %s: %w", s.path, err)
	}
	if len(data) == 0 {
		return document{DIDs: map[string]Record{}}, nil
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return document{}, fmt.Errorf("plckeystore: parse %s: %w", s.path, err)
	}
	if doc.DIDs == nil {
		doc.DIDs = map[string]Record{}
	}
	return doc, nil
}

// save writes doc to a temp file in the same directory and renames it
// over the store path, so readers only ever see a complete file.
func (s *JSONFileStore) save(doc document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("plckeystore: marshal: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".plckeystore-*.tmp")
	if err != nil {
		return fmt.Errorf("plckeystore: create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("plckeystore: write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("plckeystore: sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("plckeystore: close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("plckeystore: rename temp file into place: %w", err)
	}
	return nil
}

// Put inserts or replaces the record for did.
func (s *JSONFileStore) Put(did string, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	doc.DIDs[did] = rec
	return s.save(doc)
}

// Get returns the record for did, or ErrNotFound.
func (s *JSONFileStore) Get(did string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return Record{}, err
	}
	rec, ok := doc.DIDs[did]
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, did)
	}
	return rec, nil
}

// UpdateKeys replaces the rotation and verification key pairs for
// did, per §4.6's rotation ordering: the caller must only invoke this
// after the directory has confirmed the new keys, so the old keys
// remain persisted until that confirmation lands.
func (s *JSONFileStore) UpdateKeys(did string, rotation, verification KeyPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	rec, ok := doc.DIDs[did]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, did)
	}
	rec.RotationKey = rotation
	rec.VerificationKey = verification
	rec.UpdatedAt = time.Now().UTC()
	doc.DIDs[did] = rec
	return s.save(doc)
}

// UpdateMetadata merges metadata into the record's existing metadata.
func (s *JSONFileStore) UpdateMetadata(did string, metadata map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	rec, ok := doc.DIDs[did]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, did)
	}
	if rec.Metadata == nil {
		rec.Metadata = map[string]any{}
	}
	for k, v := range metadata {
		rec.Metadata[k] = v
	}
	rec.UpdatedAt = time.Now().UTC()
	doc.DIDs[did] = rec
	return s.save(doc)
}

// Deactivate marks the record inactive and stamps DeactivatedAt.
func (s *JSONFileStore) Deactivate(did string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	rec, ok := doc.DIDs[did]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, did)
	}
	now := time.Now().UTC()
	rec.Active = false
	rec.DeactivatedAt = &now
	rec.UpdatedAt = now
	doc.DIDs[did] = rec
	return s.save(doc)
}

// List returns every stored record, in no particular order.
func (s *JSONFileStore) List() ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(doc.DIDs))
	for _, rec := range doc.DIDs {
		out = append(out, rec)
	}
	return out, nil
}

// Delete removes the record for did entirely.
func (s *JSONFileStore) Delete(did string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := doc.DIDs[did]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, did)
	}
	delete(doc.DIDs, did)
	return s.save(doc)
}
