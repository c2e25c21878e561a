package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client 是聊天后端的类型化 REST 客户端。
// 所有响应都显式解码，解不开的 2xx 响应按 ErrMalformedResponse 处理。
type Client struct {
	http *resty.Client
}

type Option func(*Client)

// WithTimeout 覆盖默认的请求超时
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.http.SetTimeout(timeout)
	}
}

// New 创建指向 baseURL 的客户端
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(60 * time.Second),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Message 会话中的一条消息，时间戳为 Unix 秒
type Message struct {
	Role      string  `json:"role"`
	Content   string  `json:"content"`
	Timestamp float64 `json:"timestamp"`
}

type ChatResponse struct {
	Response  string         `json:"response"`
	SessionID string         `json:"session_id"`
	Timestamp float64        `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type ChatHistory struct {
	SessionID     string    `json:"session_id"`
	TotalMessages int       `json:"total_messages"`
	Messages      []Message `json:"messages"`
}

type ClearResult struct {
	Status          string `json:"status"`
	MessagesDeleted int    `json:"messages_deleted"`
}

type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type ImageUpload struct {
	Status     string     `json:"status"`
	SessionID  string     `json:"session_id"`
	Filename   string     `json:"filename"`
	Format     string     `json:"format"`
	Dimensions Dimensions `json:"dimensions"`
	SizeBytes  int64      `json:"size_bytes"`
	PreviewURL string     `json:"preview_url"`
}

type CSVUpload struct {
	Status    string              `json:"status"`
	SessionID string              `json:"session_id"`
	Filename  string              `json:"filename"`
	Rows      int                 `json:"rows"`
	Columns   []string            `json:"columns"`
	Sample    []map[string]string `json:"sample,omitempty"`
}

type DocumentMetadata struct {
	CharCount int    `json:"char_count"`
	WordCount int    `json:"word_count"`
	Preview   string `json:"preview"`
}

type DocumentUpload struct {
	Status    string           `json:"status"`
	SessionID string           `json:"session_id"`
	Filename  string           `json:"filename"`
	FileType  string           `json:"file_type"`
	SizeBytes int64            `json:"size_bytes"`
	Metadata  DocumentMetadata `json:"metadata"`
}

type DeleteResult struct {
	Status    string `json:"status"`
	SessionID string `json:"session_id"`
}

type HealthStatus struct {
	Status     string            `json:"status"`
	Version    string            `json:"version"`
	Timestamp  float64           `json:"timestamp"`
	Components map[string]string `json:"components,omitempty"`
}

type errorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

// decode 对响应做封闭式解析：非 2xx 映射为 *APIError，
// 解码失败映射为 ErrMalformedResponse
func decode(res *resty.Response, out any) error {
	if res.IsError() {
		var body errorBody
		apiErr := &APIError{StatusCode: res.StatusCode()}
		if err := json.Unmarshal(res.Body(), &body); err == nil && body.Error != "" {
			apiErr.Message = body.Error
			apiErr.Detail = body.Detail
		} else {
			apiErr.Message = res.Status()
		}
		return apiErr
	}

	if err := json.Unmarshal(res.Body(), out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	return nil
}

// SendChatMessage 发送一条用户消息并返回助手回复
func (c *Client) SendChatMessage(ctx context.Context, sessionID, message string) (*ChatResponse, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"session_id": sessionID,
			"message":    message,
		}).
		Post("/chat")
	if err != nil {
		return nil, fmt.Errorf("send chat message: %w", err)
	}

	var out ChatResponse
	if err := decode(res, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// GetChatHistory 拉取会话的完整历史
func (c *Client) GetChatHistory(ctx context.Context, sessionID string) (*ChatHistory, error) {
	res, err := c.http.R().
		SetContext(ctx).
		Get("/chat/history/" + sessionID)
	if err != nil {
		return nil, fmt.Errorf("get chat history: %w", err)
	}

	var out ChatHistory
	if err := decode(res, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// ClearChatHistory 清空会话历史
func (c *Client) ClearChatHistory(ctx context.Context, sessionID string) (*ClearResult, error) {
	res, err := c.http.R().
		SetContext(ctx).
		Delete("/chat/history/" + sessionID)
	if err != nil {
		return nil, fmt.Errorf("clear chat history: %w", err)
	}

	var out ClearResult
	if err := decode(res, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// UploadImage 以 multipart 上传图片
func (c *Client) UploadImage(ctx context.Context, sessionID, filename string, r io.Reader) (*ImageUpload, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetFileReader("file", filename, r).
		SetFormData(map[string]string{"session_id": sessionID}).
		Post("/upload-image")
	if err != nil {
		return nil, fmt.Errorf("upload image: %w", err)
	}

	var out ImageUpload
	if err := decode(res, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// DeleteImage 删除会话当前的图片槽位
func (c *Client) DeleteImage(ctx context.Context, sessionID string) (*DeleteResult, error) {
	return c.deleteSlot(ctx, "/upload-image/", sessionID)
}

// UploadCSV 以 multipart 上传 CSV
func (c *Client) UploadCSV(ctx context.Context, sessionID, filename string, r io.Reader) (*CSVUpload, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetFileReader("file", filename, r).
		SetFormData(map[string]string{"session_id": sessionID}).
		Post("/upload-csv")
	if err != nil {
		return nil, fmt.Errorf("upload csv: %w", err)
	}

	var out CSVUpload
	if err := decode(res, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// UploadCSVFromURL 让服务端直接从 URL 加载 CSV
func (c *Client) UploadCSVFromURL(ctx context.Context, sessionID, url string) (*CSVUpload, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"session_id": sessionID,
			"url":        url,
		}).
		Post("/upload-csv/url")
	if err != nil {
		return nil, fmt.Errorf("upload csv from url: %w", err)
	}

	var out CSVUpload
	if err := decode(res, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// DeleteCSV 删除会话当前的 CSV 槽位
func (c *Client) DeleteCSV(ctx context.Context, sessionID string) (*DeleteResult, error) {
	return c.deleteSlot(ctx, "/upload-csv/", sessionID)
}

// UploadDocument 以 multipart 上传文档
func (c *Client) UploadDocument(ctx context.Context, sessionID, filename string, r io.Reader) (*DocumentUpload, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetFileReader("file", filename, r).
		SetFormData(map[string]string{"session_id": sessionID}).
		Post("/upload-document")
	if err != nil {
		return nil, fmt.Errorf("upload document: %w", err)
	}

	var out DocumentUpload
	if err := decode(res, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// GetDocumentInfo 查询会话当前文档槽位的元数据
func (c *Client) GetDocumentInfo(ctx context.Context, sessionID string) (*DocumentUpload, error) {
	res, err := c.http.R().
		SetContext(ctx).
		Get("/upload-document/" + sessionID + "/info")
	if err != nil {
		return nil, fmt.Errorf("get document info: %w", err)
	}

	var out DocumentUpload
	if err := decode(res, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// DeleteDocument 删除会话当前的文档槽位
func (c *Client) DeleteDocument(ctx context.Context, sessionID string) (*DeleteResult, error) {
	return c.deleteSlot(ctx, "/upload-document/", sessionID)
}

// Health 查询服务健康状态
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	res, err := c.http.R().
		SetContext(ctx).
		Get("/health")
	if err != nil {
		return nil, fmt.Errorf("health check: %w", err)
	}

	var out HealthStatus
	if err := decode(res, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

func (c *Client) deleteSlot(ctx context.Context, prefix, sessionID string) (*DeleteResult, error) {
	res, err := c.http.R().
		SetContext(ctx).
		Delete(prefix + sessionID)
	if err != nil {
		return nil, fmt.Errorf("delete upload: %w", err)
	}

	var out DeleteResult
	if err := decode(res, &out); err != nil {
		return nil, err
	}

	return &out, nil
}
