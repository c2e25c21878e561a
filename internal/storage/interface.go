package storage

import (
	"multichat/internal/model"
)

// Store 按会话维度保存聊天记录与上传文件槽位。
// 未知会话读取时返回空值而非错误，与接口层语义一致。
type Store interface {
	// 聊天记录
	AppendMessage(sessionID string, msg model.Message) error
	History(sessionID string) ([]model.Message, error)
	ClearHistory(sessionID string) (int, error)

	// 文件槽位：每类别一个，PutFile 覆盖旧槽位
	PutFile(sessionID string, rec *model.FileRecord) error
	GetFile(sessionID string, kind model.FileKind) (*model.FileRecord, error)
	DeleteFile(sessionID string, kind model.FileKind) (*model.FileRecord, error)
	Files(sessionID string) ([]*model.FileRecord, error)

	// 存储管理
	Init() error
	Close() error
}
