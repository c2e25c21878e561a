package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"multichat/internal/model"
)

func newDiskStore(t *testing.T, dir string) *DiskStorage {
	t.Helper()

	store := NewDiskStorage(dir)
	require.NoError(t, store.Init())

	return store
}

func TestDiskPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	store := newDiskStore(t, dir)
	require.NoError(t, store.AppendMessage("s1", model.Message{Role: model.RoleUser, Content: "hi", Timestamp: 1}))
	require.NoError(t, store.AppendMessage("s1", model.Message{Role: model.RoleAssistant, Content: "hello", Timestamp: 2}))
	require.NoError(t, store.PutFile("s1", &model.FileRecord{Kind: model.FileCSV, Filename: "data.csv", Rows: 3}))
	require.NoError(t, store.Close())

	reopened := newDiskStore(t, dir)

	messages, err := reopened.History("s1")
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "hello", messages[1].Content)

	rec, err := reopened.GetFile("s1", model.FileCSV)
	require.NoError(t, err)
	assert.Equal(t, 3, rec.Rows)
}

func TestDiskHistoryUnknownSession(t *testing.T) {
	store := newDiskStore(t, t.TempDir())

	messages, err := store.History("nope")
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestDiskClearHistoryKeepsFiles(t *testing.T) {
	dir := t.TempDir()
	store := newDiskStore(t, dir)

	require.NoError(t, store.AppendMessage("s1", model.Message{Role: model.RoleUser, Content: "a"}))
	require.NoError(t, store.PutFile("s1", &model.FileRecord{Kind: model.FileImage, Filename: "pic.png"}))

	deleted, err := store.ClearHistory("s1")
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	// 清空历史不影响文件槽位
	rec, err := store.GetFile("s1", model.FileImage)
	require.NoError(t, err)
	assert.Equal(t, "pic.png", rec.Filename)

	reopened := newDiskStore(t, dir)
	messages, err := reopened.History("s1")
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestDiskDeleteFile(t *testing.T) {
	dir := t.TempDir()
	store := newDiskStore(t, dir)

	require.NoError(t, store.PutFile("s1", &model.FileRecord{Kind: model.FileDocument, Filename: "doc.pdf"}))

	rec, err := store.DeleteFile("s1", model.FileDocument)
	require.NoError(t, err)
	require.NotNil(t, rec)

	// 删除后重新打开也查不到
	reopened := newDiskStore(t, dir)
	_, err = reopened.GetFile("s1", model.FileDocument)
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestDiskSessionPathSanitized(t *testing.T) {
	dir := t.TempDir()
	store := newDiskStore(t, dir)

	require.NoError(t, store.AppendMessage("../evil/../../etc", model.Message{Role: model.RoleUser, Content: "x"}))

	entries, err := os.ReadDir(filepath.Join(dir, "sessions"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NotContains(t, entries[0].Name(), "/")
	assert.NotContains(t, entries[0].Name(), "..")
}

func TestDiskCorruptSessionFile(t *testing.T) {
	dir := t.TempDir()
	store := newDiskStore(t, dir)

	path := filepath.Join(dir, "sessions", "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := store.History("bad")
	assert.ErrorIs(t, err, ErrInvalidData)
}
