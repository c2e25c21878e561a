package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"multichat/internal/model"
	"multichat/pkg/logger"
)

// DiskStorage 每个会话一个 JSON 文件，写操作同步落盘，读经过内存缓存
type DiskStorage struct {
	dataDir string
	mu      sync.RWMutex
	cache   map[string]*sessionState
}

func NewDiskStorage(dataDir string) *DiskStorage {
	return &DiskStorage{
		dataDir: dataDir,
		cache:   make(map[string]*sessionState),
	}
}

func (d *DiskStorage) Init() error {
	if err := os.MkdirAll(filepath.Join(d.dataDir, "sessions"), 0755); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageInit, err)
	}

	logger.Infof("磁盘存储初始化完成: %s", d.dataDir)
	return nil
}

func (d *DiskStorage) Close() error {
	return nil
}

func (d *DiskStorage) sessionPath(sessionID string) string {
	// 会话ID来自URL路径，清理分隔符避免路径逃逸
	safe := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(sessionID)
	return filepath.Join(d.dataDir, "sessions", safe+".json")
}

// load 返回缓存中的状态，未命中时从磁盘读取；不存在的会话返回 nil
func (d *DiskStorage) load(sessionID string) (*sessionState, error) {
	if state, ok := d.cache[sessionID]; ok {
		return state, nil
	}

	data, err := os.ReadFile(d.sessionPath(sessionID))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	state := newSessionState()
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	if state.Files == nil {
		state.Files = make(map[model.FileKind]*model.FileRecord)
	}

	d.cache[sessionID] = state
	return state, nil
}

// loadOrCreate 同 load，但会为新会话建立状态
func (d *DiskStorage) loadOrCreate(sessionID string) (*sessionState, error) {
	state, err := d.load(sessionID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		state = newSessionState()
		d.cache[sessionID] = state
	}
	return state, nil
}

func (d *DiskStorage) save(sessionID string, state *sessionState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	path := d.sessionPath(sessionID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}

	return os.Rename(tmp, path)
}

func (d *DiskStorage) AppendMessage(sessionID string, msg model.Message) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	state, err := d.loadOrCreate(sessionID)
	if err != nil {
		return err
	}

	state.Messages = append(state.Messages, msg)
	return d.save(sessionID, state)
}

func (d *DiskStorage) History(sessionID string) ([]model.Message, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	state, err := d.load(sessionID)
	if err != nil || state == nil {
		return nil, err
	}

	messages := make([]model.Message, len(state.Messages))
	copy(messages, state.Messages)

	return messages, nil
}

func (d *DiskStorage) ClearHistory(sessionID string) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	state, err := d.load(sessionID)
	if err != nil || state == nil {
		return 0, err
	}

	deleted := len(state.Messages)
	state.Messages = nil

	return deleted, d.save(sessionID, state)
}

func (d *DiskStorage) PutFile(sessionID string, rec *model.FileRecord) error {
	if rec == nil || rec.Kind == "" {
		return ErrInvalidData
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	state, err := d.loadOrCreate(sessionID)
	if err != nil {
		return err
	}

	state.Files[rec.Kind] = rec
	return d.save(sessionID, state)
}

func (d *DiskStorage) GetFile(sessionID string, kind model.FileKind) (*model.FileRecord, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	state, err := d.load(sessionID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, ErrFileNotFound
	}

	rec, exists := state.Files[kind]
	if !exists {
		return nil, ErrFileNotFound
	}

	return rec, nil
}

func (d *DiskStorage) DeleteFile(sessionID string, kind model.FileKind) (*model.FileRecord, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	state, err := d.load(sessionID)
	if err != nil || state == nil {
		return nil, err
	}

	rec, exists := state.Files[kind]
	if !exists {
		return nil, nil
	}

	delete(state.Files, kind)
	return rec, d.save(sessionID, state)
}

func (d *DiskStorage) Files(sessionID string) ([]*model.FileRecord, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	state, err := d.load(sessionID)
	if err != nil || state == nil {
		return nil, err
	}

	files := make([]*model.FileRecord, 0, len(state.Files))
	for _, rec := range state.Files {
		files = append(files, rec)
	}

	sortFilesByUploadTime(files)

	return files, nil
}
