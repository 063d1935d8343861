package session

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/chartpad/pkg/core/mapping"
	"github.com/matzehuels/chartpad/pkg/errors"
)

func TestSnapshotRestore(t *testing.T) {
	s := newSession(t, mapping.Scatter)
	s.SetSlot(mapping.SlotColor, "rnd")
	s.ToggleRow("2020")
	s.BeginRename(col("cogs"))

	r, err := Restore(s.Snapshot(), Options{})
	require.NoError(t, err)
	assert.Equal(t, s.ID(), r.ID())
	assert.Equal(t, mapping.Scatter, r.ChartType())
	assert.Equal(t, "rnd", r.Mapping().Color)
	assert.Equal(t, s.Spec(), r.Spec())
	assert.Equal(t, "idle", r.Mode().String(), "gesture state persisted")
}

func TestRestoreRepairsStaleMappings(t *testing.T) {
	s := newSession(t, mapping.Scatter)
	snap := s.Snapshot()
	m := snap.Mappings[mapping.Scatter]
	m.Y = "gone"
	snap.Mappings[mapping.Scatter] = m
	delete(snap.Mappings, mapping.Pie)

	r, err := Restore(snap, Options{})
	require.NoError(t, err)
	assert.Equal(t, "revenue", r.Mapping().Y)
	assert.Equal(t, "revenue", r.MappingFor(mapping.Pie).Value)

	snap.ID = "../../etc/passwd"
	_, err = Restore(snap, Options{})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

// testStore runs the behaviour every Store must share.
func testStore(t *testing.T, newStore func(ttl time.Duration) Store) {
	ctx := context.Background()

	t.Run("lifecycle", func(t *testing.T) {
		st := newStore(time.Hour)
		defer st.Close()

		s := newSession(t, mapping.Bar)
		snap := s.Snapshot()
		require.NoError(t, st.Set(ctx, snap))
		assert.False(t, snap.ExpiresAt.IsZero())

		got, err := st.Get(ctx, s.ID())
		require.NoError(t, err)
		r, err := Restore(got, Options{})
		require.NoError(t, err)
		assert.Equal(t, s.Spec(), r.Spec())

		list, err := st.List(ctx)
		require.NoError(t, err)
		ids := make([]string, len(list))
		for i, sum := range list {
			ids[i] = sum.ID
		}
		assert.Contains(t, ids, s.ID())

		require.NoError(t, st.Delete(ctx, s.ID()))
		_, err = st.Get(ctx, s.ID())
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, st.Delete(ctx, s.ID()))
	})

	t.Run("expiry", func(t *testing.T) {
		st := newStore(time.Hour)
		defer st.Close()

		snap := newSession(t, mapping.Line).Snapshot()
		require.NoError(t, st.Set(ctx, snap))

		// Simulate an entry written long ago by rewinding its expiry.
		expired := clone(snap)
		expired.ExpiresAt = time.Now().Add(-time.Minute)
		writeRaw(t, st, expired)

		_, err := st.Get(ctx, snap.ID)
		assert.True(t, stderrors.Is(err, ErrExpired) || stderrors.Is(err, ErrNotFound), "err = %v", err)
		assert.NoError(t, st.Cleanup(ctx))
	})
}

// writeRaw stores snap bypassing the store's expiry stamping.
func writeRaw(t *testing.T, st Store, snap *Snapshot) {
	t.Helper()
	switch s := st.(type) {
	case *MemoryStore:
		s.mu.Lock()
		s.snaps[snap.ID] = clone(snap)
		s.mu.Unlock()
	case *FileStore:
		data, err := json.Marshal(snap)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(s.sessionPath(snap.ID), data, 0o600))
	case *RedisStore:
		data, err := json.Marshal(snap)
		require.NoError(t, err)
		require.NoError(t, s.client.Set(context.Background(), s.prefix+snap.ID, data, time.Hour).Err())
	default:
		t.Skipf("cannot write raw entries to %T", st)
	}
}

func TestMemoryStore(t *testing.T) {
	testStore(t, func(ttl time.Duration) Store { return NewMemoryStore(ttl) })
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	testStore(t, func(ttl time.Duration) Store {
		st, err := NewFileStore(dir, ttl)
		require.NoError(t, err)
		return st
	})
}

func TestFileStoreIgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	st, err := NewFileStore(dir, 0)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.json"), []byte("{}"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "00000000-0000-0000-0000-000000000000.json"), []byte("{"), 0o600))

	list, err := st.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = st.Get(context.Background(), "../notes")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = st.SessionPath("../notes")
	assert.Error(t, err)
}

func TestNoExpiryWithoutTTL(t *testing.T) {
	st := NewMemoryStore(0)
	snap := newSession(t, mapping.Line).Snapshot()
	require.NoError(t, st.Set(context.Background(), snap))
	assert.True(t, snap.ExpiresAt.IsZero())
	assert.False(t, snap.IsExpired())
}

// Set CHARTPAD_TEST_REDIS to a redis:// URL to run against a live server.
func TestRedisStore(t *testing.T) {
	url := os.Getenv("CHARTPAD_TEST_REDIS")
	if url == "" {
		t.Skip("CHARTPAD_TEST_REDIS not set")
	}
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	t.Cleanup(func() { client.Close() })

	prefix := "chartpad:test:" + newSession(t, mapping.Line).ID() + ":"
	testStore(t, func(ttl time.Duration) Store {
		return NewRedisStoreFromClient(client, prefix, ttl)
	})
}

// Set CHARTPAD_TEST_MONGO to a mongodb:// URI to run against a live server.
func TestMongoStore(t *testing.T) {
	uri := os.Getenv("CHARTPAD_TEST_MONGO")
	if uri == "" {
		t.Skip("CHARTPAD_TEST_MONGO not set")
	}
	ctx := context.Background()
	st, err := NewMongoStore(ctx, uri, "chartpad_test", "sessions", time.Hour)
	require.NoError(t, err)
	defer st.Close()

	s := newSession(t, mapping.Pie)
	require.NoError(t, st.Set(ctx, s.Snapshot()))
	got, err := st.Get(ctx, s.ID())
	require.NoError(t, err)
	assert.Equal(t, s.ID(), got.ID)

	list, err := st.List(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, list)

	require.NoError(t, st.Delete(ctx, s.ID()))
	_, err = st.Get(ctx, s.ID())
	assert.ErrorIs(t, err, ErrNotFound)
}
