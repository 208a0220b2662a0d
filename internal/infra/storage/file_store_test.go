package storage

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func TestFileStore_PutGet(t *testing.T) {
	s, err := NewFileStore(t.TempDir(), testLogger())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = s.Get(ctx, KindClans, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Put(ctx, KindClans, "k1", []byte(`{"a":1}`)))
	got, err := s.Get(ctx, KindClans, "k1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(got))
}

func TestFileStore_PersistsAcrossRestart(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := NewFileStore(dir, testLogger())
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, KindReminders, "k1", []byte(`{"sent":true}`)))
	require.NoError(t, s.Close())

	reopened, err := NewFileStore(dir, testLogger())
	require.NoError(t, err)
	got, err := reopened.Get(ctx, KindReminders, "k1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"sent":true}`, string(got))
}

func TestFileStore_WriteKeepsBackup(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	s, err := NewFileStore(dir, testLogger())
	require.NoError(t, err)

	require.NoError(t, s.Put(ctx, KindClans, "k1", []byte(`"v1"`)))
	require.NoError(t, s.Put(ctx, KindClans, "k1", []byte(`"v2"`)))

	backup, err := os.ReadFile(filepath.Join(dir, "clans.json.bak"))
	require.NoError(t, err)
	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(backup, &doc))
	assert.JSONEq(t, `"v1"`, string(doc["k1"]))

	// No stray temp file is left behind after a successful write.
	_, err = os.Stat(filepath.Join(dir, "clans.json.tmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestFileStore_MalformedFileStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "clans.json"), []byte("{not json"), 0o644))

	s, err := NewFileStore(dir, testLogger())
	require.NoError(t, err)

	docs, err := s.List(context.Background(), KindClans)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestFileStore_List(t *testing.T) {
	s, err := NewFileStore(t.TempDir(), testLogger())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, KindPlayerLinks, "a", []byte(`1`)))
	require.NoError(t, s.Put(ctx, KindPlayerLinks, "b", []byte(`2`)))
	// Another kind must not leak into the listing.
	require.NoError(t, s.Put(ctx, KindClans, "c", []byte(`3`)))

	docs, err := s.List(ctx, KindPlayerLinks)
	require.NoError(t, err)
	assert.Len(t, docs, 2)
	assert.Equal(t, []byte(`1`), docs["a"])
	assert.Equal(t, []byte(`2`), docs["b"])
}

func TestFileStore_PutNonAtomic(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	s, err := NewFileStore(dir, testLogger())
	require.NoError(t, err)

	require.NoError(t, s.PutNonAtomic(ctx, KindClans, "k1", []byte(`"v"`)))

	got, err := s.Get(ctx, KindClans, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`"v"`), got)

	data, err := os.ReadFile(filepath.Join(dir, "clans.json"))
	require.NoError(t, err)
	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.JSONEq(t, `"v"`, string(doc["k1"]))
}
