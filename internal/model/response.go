package model

type ChatResponse struct {
	Response  string         `json:"response"`
	SessionID string         `json:"session_id"`
	Timestamp float64        `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type ChatHistoryResponse struct {
	SessionID     string    `json:"session_id"`
	TotalMessages int       `json:"total_messages"`
	Messages      []Message `json:"messages"`
}

type ClearHistoryResponse struct {
	Status          string `json:"status"` // cleared | not_found
	MessagesDeleted int    `json:"messages_deleted"`
}

type ImageUploadResponse struct {
	Status     string     `json:"status"`
	SessionID  string     `json:"session_id"`
	Filename   string     `json:"filename"`
	Format     string     `json:"format"`
	Dimensions Dimensions `json:"dimensions"`
	SizeBytes  int64      `json:"size_bytes"`
	PreviewURL string     `json:"preview_url"`
}

type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type CSVUploadResponse struct {
	Status    string              `json:"status"`
	SessionID string              `json:"session_id"`
	Filename  string              `json:"filename"`
	Rows      int                 `json:"rows"`
	Columns   []string            `json:"columns"`
	Sample    []map[string]string `json:"sample,omitempty"`
}

type DocumentUploadResponse struct {
	Status    string           `json:"status"`
	SessionID string           `json:"session_id"`
	Filename  string           `json:"filename"`
	FileType  string           `json:"file_type"`
	SizeBytes int64            `json:"size_bytes"`
	Metadata  DocumentMetadata `json:"metadata"`
}

type DocumentMetadata struct {
	CharCount int    `json:"char_count"`
	WordCount int    `json:"word_count"`
	Preview   string `json:"preview"`
}

type DeleteResponse struct {
	Status    string `json:"status"` // deleted | not_found
	SessionID string `json:"session_id"`
}

type HealthResponse struct {
	Status     string            `json:"status"`
	Version    string            `json:"version"`
	Timestamp  float64           `json:"timestamp"`
	Components map[string]string `json:"components,omitempty"`
}

// ErrorResponse 统一错误响应体
type ErrorResponse struct {
	Error     string  `json:"error"`
	Detail    string  `json:"detail,omitempty"`
	Timestamp float64 `json:"timestamp"`
}

// NewError 构造带当前时间戳的错误响应
func NewError(msg, detail string) ErrorResponse {
	return ErrorResponse{
		Error:     msg,
		Detail:    detail,
		Timestamp: Now(),
	}
}
