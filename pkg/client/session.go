package client

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"multichat/pkg/logger"
)

const sessionFileName = "session_id"

// SessionStore 持有本地持久化的会话标识。
// 标识首次使用时生成并写入状态目录；目录不可用时退化为
// 仅内存模式（页面/进程生命周期内有效），不视为致命错误。
type SessionStore struct {
	mu      sync.Mutex
	dir     string
	id      string
	memOnly bool
}

// NewSessionStore 创建落在 dir 下的会话存储；dir 为空时使用
// 用户配置目录下的 multichat 子目录
func NewSessionStore(dir string) *SessionStore {
	if dir == "" {
		if base, err := os.UserConfigDir(); err == nil {
			dir = filepath.Join(base, "multichat")
		}
	}
	return &SessionStore{dir: dir}
}

// GetOrCreate 返回已持久化的会话标识，不存在时生成并持久化。
// 同一存储状态下重复调用返回相同值。
func (s *SessionStore) GetOrCreate() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.id != "" {
		return s.id
	}

	if id := s.readPersisted(); id != "" {
		s.id = id
		return s.id
	}

	s.id = uuid.NewString()
	s.persist(s.id)

	return s.id
}

// New 无条件生成新标识并持久化，旧标识对应的服务端状态不再可达
func (s *SessionStore) New() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.id = uuid.NewString()
	s.persist(s.id)

	return s.id
}

// Persistent 返回会话标识是否成功落盘；仅内存模式下标识
// 只在当前进程内有效
func (s *SessionStore) Persistent() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.memOnly
}

// Clear 移除持久化的标识；下一次 GetOrCreate 会生成新值
func (s *SessionStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.id = ""
	if s.dir != "" {
		if err := os.Remove(filepath.Join(s.dir, sessionFileName)); err != nil && !os.IsNotExist(err) {
			logger.Warnf("会话标识删除失败: %v", err)
		}
	}
}

func (s *SessionStore) readPersisted() string {
	if s.dir == "" {
		return ""
	}

	data, err := os.ReadFile(filepath.Join(s.dir, sessionFileName))
	if err != nil {
		return ""
	}

	return strings.TrimSpace(string(data))
}

func (s *SessionStore) persist(id string) {
	if s.dir == "" {
		s.memOnly = true
		return
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		s.memOnly = true
		logger.Warnf("会话目录不可用，标识仅保留在内存中: %v", err)
		return
	}

	if err := os.WriteFile(filepath.Join(s.dir, sessionFileName), []byte(id), 0644); err != nil {
		s.memOnly = true
		logger.Warnf("会话标识写入失败，标识仅保留在内存中: %v", err)
		return
	}

	s.memOnly = false
}
