package client

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStoreStableAcrossCalls(t *testing.T) {
	store := NewSessionStore(t.TempDir())

	first := store.GetOrCreate()
	second := store.GetOrCreate()

	require.NotEmpty(t, first)
	assert.Equal(t, first, second)
	assert.True(t, store.Persistent())
}

func TestSessionStorePersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()

	first := NewSessionStore(dir).GetOrCreate()
	second := NewSessionStore(dir).GetOrCreate()

	assert.Equal(t, first, second)

	data, err := os.ReadFile(filepath.Join(dir, sessionFileName))
	require.NoError(t, err)
	assert.Equal(t, first, string(data))
}

func TestSessionStoreClearMintsFreshID(t *testing.T) {
	store := NewSessionStore(t.TempDir())

	first := store.GetOrCreate()
	store.Clear()
	second := store.GetOrCreate()

	assert.NotEqual(t, first, second)
}

func TestSessionStoreNewDiscardsOldID(t *testing.T) {
	dir := t.TempDir()
	store := NewSessionStore(dir)

	first := store.GetOrCreate()
	second := store.New()

	assert.NotEqual(t, first, second)
	assert.Equal(t, second, store.GetOrCreate())

	// 新标识已持久化
	assert.Equal(t, second, NewSessionStore(dir).GetOrCreate())
}

func TestSessionStoreDegradedMode(t *testing.T) {
	// 把普通文件当目录用，持久化必然失败
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	store := NewSessionStore(filepath.Join(blocker, "nested"))

	id := store.GetOrCreate()
	require.NotEmpty(t, id)
	assert.False(t, store.Persistent())

	// 同一实例内仍然稳定
	assert.Equal(t, id, store.GetOrCreate())

	// 但不会跨实例存活
	other := NewSessionStore(filepath.Join(blocker, "nested"))
	assert.NotEqual(t, id, other.GetOrCreate())
}
