package storage

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
)

// backend tags which store answered last for a kind. The write policy is a
// single decision point on this value instead of scattered branching.
type backend int

const (
	backendPrimary backend = iota
	backendSecondary
)

// FallbackStore combines the postgres primary with the file secondary.
//
// Policy:
//   - Reads try the primary first (when one was initialized at startup); any
//     failure falls back to the secondary with a warning and is never
//     surfaced to the caller.
//   - Writes target whichever backend answered the most recent successful
//     read-equivalent for that kind. Successful primary writes are mirrored
//     to the secondary as a write-through safety net, so fallback reads stay
//     consistent. A failed write cascades: secondary, then a last-resort
//     non-atomic file write, and only then the error reaches the caller.
//   - A nil primary means the process runs file-only for its whole lifetime;
//     initialization is never retried mid-run.
type FallbackStore struct {
	primary   Store // may be nil: permanent file-only mode
	secondary *FileStore
	logger    *logrus.Entry

	mu       sync.Mutex
	lastRead map[Kind]backend
}

func NewFallbackStore(primary Store, secondary *FileStore, logger *logrus.Entry) *FallbackStore {
	return &FallbackStore{
		primary:   primary,
		secondary: secondary,
		logger:    logger,
		lastRead:  make(map[Kind]backend),
	}
}

// Degraded reports whether the store runs without a primary backend.
func (s *FallbackStore) Degraded() bool { return s.primary == nil }

func (s *FallbackStore) noteRead(kind Kind, b backend) {
	s.mu.Lock()
	s.lastRead[kind] = b
	s.mu.Unlock()
}

// writeTarget returns the backend writes for the kind should go to.
func (s *FallbackStore) writeTarget(kind Kind) backend {
	if s.primary == nil {
		return backendSecondary
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.lastRead[kind]; ok {
		return b
	}
	return backendPrimary
}

func (s *FallbackStore) Get(ctx context.Context, kind Kind, key string) ([]byte, error) {
	if s.primary != nil {
		value, err := s.primary.Get(ctx, kind, key)
		if err == nil || errors.Is(err, ErrNotFound) {
			// ErrNotFound is a definitive answer, not a backend failure.
			s.noteRead(kind, backendPrimary)
			return value, err
		}
		s.logger.WithError(err).WithField("kind", kind).Warn("Primary store read failed, falling back to file store")
		s.noteRead(kind, backendSecondary)
	}
	return s.secondary.Get(ctx, kind, key)
}

func (s *FallbackStore) List(ctx context.Context, kind Kind) (map[string][]byte, error) {
	if s.primary != nil {
		docs, err := s.primary.List(ctx, kind)
		if err == nil {
			s.noteRead(kind, backendPrimary)
			return docs, nil
		}
		s.logger.WithError(err).WithField("kind", kind).Warn("Primary store list failed, falling back to file store")
		s.noteRead(kind, backendSecondary)
	}
	return s.secondary.List(ctx, kind)
}

func (s *FallbackStore) Put(ctx context.Context, kind Kind, key string, value []byte) error {
	if s.writeTarget(kind) == backendPrimary {
		if err := s.primary.Put(ctx, kind, key, value); err == nil {
			// Mirror into the file store so a later primary outage still
			// sees this document. Mirror failures only cost durability of
			// the copy, not the write itself.
			if mirrorErr := s.secondary.Put(ctx, kind, key, value); mirrorErr != nil {
				s.logger.WithError(mirrorErr).WithField("kind", kind).Warn("Write-through to file store failed")
			}
			return nil
		} else {
			s.logger.WithError(err).WithField("kind", kind).Warn("Primary store write failed, falling back to file store")
		}
	}
	if err := s.secondary.Put(ctx, kind, key, value); err == nil {
		return nil
	} else {
		s.logger.WithError(err).WithField("kind", kind).Error("File store write failed, attempting non-atomic write")
	}
	if err := s.secondary.PutNonAtomic(ctx, kind, key, value); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{"kind": kind, "key": key}).Error("All write paths failed")
		return err
	}
	return nil
}

// Flush syncs the secondary store's in-memory state to disk. Called by the
// shutdown handler as a final best-effort step.
func (s *FallbackStore) Flush() error {
	return s.secondary.Flush()
}

func (s *FallbackStore) Close() error {
	var firstErr error
	if s.primary != nil {
		firstErr = s.primary.Close()
	}
	if err := s.secondary.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
