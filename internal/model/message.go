package model

import "time"

// 消息角色
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// FileKind 上传文件类别，每个会话每类只保留一个槽位
type FileKind string

const (
	FileImage    FileKind = "image"
	FileCSV      FileKind = "csv"
	FileDocument FileKind = "document"
)

// Now 当前时间的 Unix 秒（含小数部分），与消息时间戳同一单位
func Now() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}

// Message 会话记录中的单条消息，时间戳为 Unix 秒
type Message struct {
	Role      string  `json:"role"`
	Content   string  `json:"content"`
	Timestamp float64 `json:"timestamp"`
}

// FileRecord 某会话某类别当前持有的文件及其派生元数据
type FileRecord struct {
	Kind       FileKind `json:"kind"`
	Filename   string   `json:"filename"`
	Path       string   `json:"path,omitempty"`
	SizeBytes  int64    `json:"size_bytes"`
	UploadedAt float64  `json:"uploaded_at"`

	// 图片
	Format string `json:"format,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`

	// CSV
	Rows    int                 `json:"rows,omitempty"`
	Columns []string            `json:"columns,omitempty"`
	Sample  []map[string]string `json:"sample,omitempty"`

	// 文档
	Text      string `json:"text,omitempty"`
	CharCount int    `json:"char_count,omitempty"`
	WordCount int    `json:"word_count,omitempty"`
	Preview   string `json:"preview,omitempty"`
}
