package storage

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyStore wraps an in-memory primary whose operations can be forced to
// fail, standing in for a postgres outage.
type flakyStore struct {
	docs map[Kind]map[string][]byte
	fail bool
}

func newFlakyStore() *flakyStore {
	return &flakyStore{docs: make(map[Kind]map[string][]byte)}
}

func (s *flakyStore) Get(ctx context.Context, kind Kind, key string) ([]byte, error) {
	if s.fail {
		return nil, fmt.Errorf("primary unavailable")
	}
	v, ok := s.docs[kind][key]
	if !ok {
		return nil, ErrNotFound
	}
	return v, nil
}

func (s *flakyStore) Put(ctx context.Context, kind Kind, key string, value []byte) error {
	if s.fail {
		return fmt.Errorf("primary unavailable")
	}
	if s.docs[kind] == nil {
		s.docs[kind] = make(map[string][]byte)
	}
	s.docs[kind][key] = append([]byte(nil), value...)
	return nil
}

func (s *flakyStore) List(ctx context.Context, kind Kind) (map[string][]byte, error) {
	if s.fail {
		return nil, fmt.Errorf("primary unavailable")
	}
	out := make(map[string][]byte, len(s.docs[kind]))
	for k, v := range s.docs[kind] {
		out[k] = v
	}
	return out, nil
}

func (s *flakyStore) Close() error { return nil }

func newFallbackFixture(t *testing.T) (*FallbackStore, *flakyStore, *FileStore) {
	t.Helper()
	primary := newFlakyStore()
	secondary, err := NewFileStore(t.TempDir(), testLogger())
	require.NoError(t, err)
	return NewFallbackStore(primary, secondary, testLogger()), primary, secondary
}

func TestFallbackStore_PrimaryServesReads(t *testing.T) {
	s, primary, _ := newFallbackFixture(t)
	ctx := context.Background()
	require.NoError(t, primary.Put(ctx, KindClans, "k1", []byte(`"v"`)))

	got, err := s.Get(ctx, KindClans, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`"v"`), got)
	assert.False(t, s.Degraded())
}

func TestFallbackStore_PrimaryNotFoundIsDefinitive(t *testing.T) {
	s, _, secondary := newFallbackFixture(t)
	ctx := context.Background()
	// Only the secondary holds the document: a healthy primary answering
	// "not found" must win, not fall through to the stale file copy.
	require.NoError(t, secondary.Put(ctx, KindClans, "k1", []byte(`"stale"`)))

	_, err := s.Get(ctx, KindClans, "k1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFallbackStore_ReadFallsBackOnPrimaryFailure(t *testing.T) {
	s, primary, secondary := newFallbackFixture(t)
	ctx := context.Background()
	require.NoError(t, secondary.Put(ctx, KindClans, "k1", []byte(`"from-file"`)))
	primary.fail = true

	got, err := s.Get(ctx, KindClans, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`"from-file"`), got)
}

func TestFallbackStore_WriteFollowsLastRead(t *testing.T) {
	s, primary, secondary := newFallbackFixture(t)
	ctx := context.Background()

	// After a fallback read the kind's writes go to the secondary too,
	// keeping read-modify-write sequences on one backend.
	primary.fail = true
	_, err := s.List(ctx, KindReminders)
	require.NoError(t, err)

	require.NoError(t, s.Put(ctx, KindReminders, "k1", []byte(`"v"`)))
	got, err := secondary.Get(ctx, KindReminders, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`"v"`), got)
	assert.Empty(t, primary.docs[KindReminders])
}

func TestFallbackStore_PrimaryWriteIsMirrored(t *testing.T) {
	s, primary, secondary := newFallbackFixture(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, KindClans, "k1", []byte(`"v"`)))

	assert.Equal(t, []byte(`"v"`), primary.docs[KindClans]["k1"])
	got, err := secondary.Get(ctx, KindClans, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`"v"`), got)
}

func TestFallbackStore_WriteCascadesOnPrimaryFailure(t *testing.T) {
	s, primary, secondary := newFallbackFixture(t)
	ctx := context.Background()
	primary.fail = true

	require.NoError(t, s.Put(ctx, KindClans, "k1", []byte(`"v"`)))

	got, err := secondary.Get(ctx, KindClans, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`"v"`), got)
}

func TestFallbackStore_RecoveredPrimaryTakesReadsBack(t *testing.T) {
	s, primary, secondary := newFallbackFixture(t)
	ctx := context.Background()
	require.NoError(t, primary.Put(ctx, KindClans, "k1", []byte(`"primary"`)))
	require.NoError(t, secondary.Put(ctx, KindClans, "k1", []byte(`"file"`)))

	primary.fail = true
	got, err := s.Get(ctx, KindClans, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`"file"`), got)

	primary.fail = false
	got, err = s.Get(ctx, KindClans, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`"primary"`), got)
}

func TestFallbackStore_NilPrimaryIsFileOnly(t *testing.T) {
	secondary, err := NewFileStore(t.TempDir(), testLogger())
	require.NoError(t, err)
	s := NewFallbackStore(nil, secondary, testLogger())
	ctx := context.Background()

	assert.True(t, s.Degraded())
	require.NoError(t, s.Put(ctx, KindClans, "k1", []byte(`"v"`)))
	got, err := s.Get(ctx, KindClans, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`"v"`), got)
}
