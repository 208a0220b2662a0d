package storage

import (
	"context"
	"fmt"
)

// ErrNotFound is returned by Get when no document exists under the key.
var ErrNotFound = fmt.Errorf("storage: document not found")

// Kind names one logical collection of documents. Each kind maps to one
// table partition in postgres and one JSON file in the file backend.
type Kind string

const (
	KindClans       Kind = "clans"
	KindPlayerLinks Kind = "player_links"
	KindPrepWatches Kind = "prep_watches"
	KindReminders   Kind = "reminders"
)

// Kinds lists every known kind, in flush order.
var Kinds = []Kind{KindClans, KindPlayerLinks, KindPrepWatches, KindReminders}

// Store is the uniform document persistence contract. Values are opaque
// JSON; repositories own the schema of what they put in.
type Store interface {
	// Get returns the document stored under (kind, key) or ErrNotFound.
	Get(ctx context.Context, kind Kind, key string) ([]byte, error)
	// Put stores the document under (kind, key), replacing any previous one.
	Put(ctx context.Context, kind Kind, key string, value []byte) error
	// List returns every document of the kind, keyed. Returned maps are
	// owned by the caller.
	List(ctx context.Context, kind Kind) (map[string][]byte, error)
	Close() error
}
