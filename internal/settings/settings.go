// Package settings implements the flat string→string settings map
// persisted as settings.json in the data directory.
package settings

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/arnstad/sigil/internal/storage"
)

// Reserved keys used by other subsystems.
const (
	// KeyModel names the provider model used for generation.
	KeyModel = "ai.model"
	// KeyAPIKey is the legacy plaintext credential key. New writes go
	// through the credential store; this key is only read as a fallback.
	KeyAPIKey = "ai.api_key"
	// KeyEncryptedAPIKey holds the base64 ciphertext of the credential.
	KeyEncryptedAPIKey = "ai.api_key_encrypted"
)

const settingsPath = "settings.json"

// Store is the in-memory settings cache backed by whole-file persistence.
// It loads once at construction and serves reads from memory; every
// mutation flushes the full map back to disk.
type Store struct {
	mu    sync.RWMutex
	files storage.Provider
	data  map[string]string
}

// New creates a settings store and loads settings.json if present.
func New(files storage.Provider) (*Store, error) {
	s := &Store{
		files: files,
		data:  make(map[string]string),
	}
	ok, err := files.Exists(settingsPath)
	if err != nil {
		return nil, err
	}
	if ok {
		raw, err := files.Read(settingsPath)
		if err != nil {
			return nil, fmt.Errorf("settings: load: %w", err)
		}
		if err := json.Unmarshal(raw, &s.data); err != nil {
			return nil, fmt.Errorf("settings: parse: %w", err)
		}
	}
	return s, nil
}

// Get returns the value for key, or the empty string when unset.
func (s *Store) Get(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data[key]
}

// GetAll returns a copy of the full settings map.
func (s *Store) GetAll() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.data))
	for k, v := range s.data {
		out[k] = v
	}
	return out
}

// Set stores a value and flushes the map to disk.
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return s.flush()
}

// Delete removes a key and flushes the map to disk.
// Deleting an absent key is a no-op.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; !ok {
		return nil
	}
	delete(s.data, key)
	return s.flush()
}

// flush writes the full map as JSON. Callers must hold the write lock.
func (s *Store) flush() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("settings: encode: %w", err)
	}
	if err := s.files.Write(settingsPath, raw); err != nil {
		return fmt.Errorf("settings: flush: %w", err)
	}
	return nil
}
