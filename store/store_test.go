package store

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/boltdb/bolt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *BoltStore {
	s, err := NewBoltStore(filepath.Join(t.TempDir(), "packs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutGet(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	data := bytes.Repeat([]byte("assets/minecraft/models/block/stone.json "), 200)

	require.NoError(t, s.Put(ctx, "vanilla", data, 0))
	got, err := s.Get(ctx, "vanilla")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	entries, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "vanilla", entries[0].Key)
	assert.Equal(t, len(data), entries[0].Size)
	assert.True(t, entries[0].Expires.IsZero())

	require.NoError(t, s.Delete(ctx, "vanilla"))
	_, err = s.Get(ctx, "vanilla")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTTL(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	now := time.Unix(1700000000, 0)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Put(ctx, "short", []byte("a"), time.Minute))
	require.NoError(t, s.Put(ctx, "long", []byte("b"), time.Hour))
	require.NoError(t, s.Put(ctx, "forever", []byte("c"), 0))

	got, err := s.Get(ctx, "short")
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), got)

	now = now.Add(2 * time.Minute)
	_, err = s.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrNotFound)

	entries, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	now = now.Add(2 * time.Hour)
	n, err := s.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	entries, err = s.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "forever", entries[0].Key)
}

func TestCancelledContext(t *testing.T) {
	s := openStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Put(ctx, "k", []byte("v"), 0), context.Canceled)
	_, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDecodeValue(t *testing.T) {
	_, _, err := decodeValue("k", []byte{1, 2})
	assert.Error(t, err)

	e := Entry{Size: 3, Stored: time.Unix(5, 0)}
	got, payload, err := decodeValue("k", encodeValue(e, []byte("xyz")))
	require.NoError(t, err)
	assert.Equal(t, "k", got.Key)
	assert.Equal(t, 3, got.Size)
	assert.True(t, got.Stored.Equal(e.Stored))
	assert.Equal(t, []byte("xyz"), payload)

	_, _, err = decodeValue("k", encodeValue(Entry{Size: -1}, []byte("xyz")))
	assert.Error(t, err)
}

func TestGetCorruptSize(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	require.NoError(t, s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(packBucket).Put([]byte("bad"), encodeValue(Entry{Size: -5, Stored: time.Unix(1, 0)}, nil))
	}))
	assert.NotPanics(t, func() {
		_, err := s.Get(ctx, "bad")
		assert.Error(t, err)
	})
	entries, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
