package storage

import (
	"sort"
	"sync"

	"multichat/internal/model"
)

type sessionState struct {
	Messages []model.Message                      `json:"messages"`
	Files    map[model.FileKind]*model.FileRecord `json:"files"`
}

func newSessionState() *sessionState {
	return &sessionState{
		Files: make(map[model.FileKind]*model.FileRecord),
	}
}

type MemoryStorage struct {
	sessions map[string]*sessionState
	mu       sync.RWMutex
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		sessions: make(map[string]*sessionState),
	}
}

func (m *MemoryStorage) Init() error {
	return nil
}

func (m *MemoryStorage) Close() error {
	return nil
}

func (m *MemoryStorage) AppendMessage(sessionID string, msg model.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, exists := m.sessions[sessionID]
	if !exists {
		state = newSessionState()
		m.sessions[sessionID] = state
	}

	state.Messages = append(state.Messages, msg)
	return nil
}

func (m *MemoryStorage) History(sessionID string) ([]model.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, exists := m.sessions[sessionID]
	if !exists {
		return nil, nil
	}

	messages := make([]model.Message, len(state.Messages))
	copy(messages, state.Messages)

	return messages, nil
}

func (m *MemoryStorage) ClearHistory(sessionID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, exists := m.sessions[sessionID]
	if !exists {
		return 0, nil
	}

	deleted := len(state.Messages)
	state.Messages = nil

	return deleted, nil
}

func (m *MemoryStorage) PutFile(sessionID string, rec *model.FileRecord) error {
	if rec == nil || rec.Kind == "" {
		return ErrInvalidData
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	state, exists := m.sessions[sessionID]
	if !exists {
		state = newSessionState()
		m.sessions[sessionID] = state
	}

	state.Files[rec.Kind] = rec
	return nil
}

func (m *MemoryStorage) GetFile(sessionID string, kind model.FileKind) (*model.FileRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, exists := m.sessions[sessionID]
	if !exists {
		return nil, ErrFileNotFound
	}

	rec, exists := state.Files[kind]
	if !exists {
		return nil, ErrFileNotFound
	}

	return rec, nil
}

func (m *MemoryStorage) DeleteFile(sessionID string, kind model.FileKind) (*model.FileRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, exists := m.sessions[sessionID]
	if !exists {
		return nil, nil
	}

	rec, exists := state.Files[kind]
	if !exists {
		return nil, nil
	}

	delete(state.Files, kind)
	return rec, nil
}

func (m *MemoryStorage) Files(sessionID string) ([]*model.FileRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, exists := m.sessions[sessionID]
	if !exists {
		return nil, nil
	}

	files := make([]*model.FileRecord, 0, len(state.Files))
	for _, rec := range state.Files {
		files = append(files, rec)
	}

	sortFilesByUploadTime(files)

	return files, nil
}

// sortFilesByUploadTime 按上传时间排列，供提示词按先后引用
func sortFilesByUploadTime(files []*model.FileRecord) {
	sort.Slice(files, func(i, j int) bool {
		return files[i].UploadedAt < files[j].UploadedAt
	})
}
