package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
)

// FileStore is the secondary document backend: one JSON file per kind under
// a data directory, mirrored by an in-memory cache. It is always available;
// a failed disk write loses durability for that document but the cache keeps
// serving the intended value for the rest of the process lifetime.
type FileStore struct {
	dir    string
	logger *logrus.Entry

	mu   sync.Mutex
	docs map[Kind]map[string]json.RawMessage
}

// NewFileStore creates the data directory and loads every known kind.
// A malformed or unreadable file is treated as an empty collection and
// logged; it must never block startup.
func NewFileStore(dir string, logger *logrus.Entry) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dir, err)
	}
	s := &FileStore{
		dir:    dir,
		logger: logger,
		docs:   make(map[Kind]map[string]json.RawMessage, len(Kinds)),
	}
	for _, kind := range Kinds {
		s.docs[kind] = s.loadKind(kind)
	}
	return s, nil
}

func (s *FileStore) path(kind Kind) string {
	return filepath.Join(s.dir, string(kind)+".json")
}

func (s *FileStore) loadKind(kind Kind) map[string]json.RawMessage {
	doc := make(map[string]json.RawMessage)
	data, err := os.ReadFile(s.path(kind))
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.WithError(err).WithField("kind", kind).Error("Failed to read store file, starting empty")
		}
		return doc
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.WithError(err).WithField("kind", kind).Error("Malformed store file, starting empty")
		return make(map[string]json.RawMessage)
	}
	return doc
}

func (s *FileStore) Get(ctx context.Context, kind Kind, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.docs[kind][key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (s *FileStore) Put(ctx context.Context, kind Kind, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.docs[kind] == nil {
		s.docs[kind] = make(map[string]json.RawMessage)
	}
	// The cache is updated first: even if the disk write below fails the
	// process keeps the intended value, only durability is lost.
	s.docs[kind][key] = json.RawMessage(append([]byte(nil), value...))
	return s.persistKindLocked(kind)
}

func (s *FileStore) List(ctx context.Context, kind Kind) (map[string][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string][]byte, len(s.docs[kind]))
	for k, v := range s.docs[kind] {
		out[k] = append([]byte(nil), v...)
	}
	return out, nil
}

// persistKindLocked writes the kind's document atomically: marshal to a
// temporary file in the same directory, keep a best-effort backup of the
// previous version, then rename over the target.
func (s *FileStore) persistKindLocked(kind Kind) error {
	target := s.path(kind)
	data, err := json.MarshalIndent(s.docs[kind], "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s document: %w", kind, err)
	}

	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp file for %s: %w", kind, err)
	}
	if prev, err := os.ReadFile(target); err == nil {
		// Best-effort backup; failure is not worth aborting the write.
		_ = os.WriteFile(target+".bak", prev, 0o644)
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("failed to replace %s: %w", target, err)
	}
	return nil
}

// PutNonAtomic writes the document straight to the target file, bypassing
// the temp-and-rename step. It exists only as the last resort after both
// the routine write paths have failed.
func (s *FileStore) PutNonAtomic(ctx context.Context, kind Kind, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.docs[kind] == nil {
		s.docs[kind] = make(map[string]json.RawMessage)
	}
	s.docs[kind][key] = json.RawMessage(append([]byte(nil), value...))
	data, err := json.MarshalIndent(s.docs[kind], "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s document: %w", kind, err)
	}
	if err := os.WriteFile(s.path(kind), data, 0o644); err != nil {
		return fmt.Errorf("failed non-atomic write of %s: %w", kind, err)
	}
	return nil
}

// Flush rewrites every kind from the in-memory cache. Used by the shutdown
// handler as a final best-effort sync.
func (s *FileStore) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var firstErr error
	for _, kind := range Kinds {
		if err := s.persistKindLocked(kind); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *FileStore) Close() error { return s.Flush() }
