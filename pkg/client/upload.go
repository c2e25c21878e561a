package client

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// 本地校验上限，与服务端保持一致
const (
	maxImageBytes    = 10 << 20
	maxDocumentBytes = 20 << 20
)

var (
	imageExts    = map[string]bool{".png": true, ".jpg": true, ".jpeg": true}
	documentExts = map[string]bool{".pdf": true, ".docx": true, ".txt": true, ".md": true}
)

// validateFile 上传前的本地校验：扩展名与大小
func validateFile(path string, exts map[string]bool, maxBytes int64) error {
	ext := strings.ToLower(filepath.Ext(path))
	if !exts[ext] {
		return fmt.Errorf("%w: unsupported file type %q", ErrInvalidFile, ext)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return fmt.Errorf("%w: file too large (%d bytes, max %d)", ErrInvalidFile, info.Size(), maxBytes)
	}

	return nil
}

// ImageUploader 维护会话当前的图片槽位，重新上传前需显式 Remove
type ImageUploader struct {
	api      *Client
	sessions *SessionStore

	mu      sync.Mutex
	current *ImageUpload
}

func NewImageUploader(api *Client, sessions *SessionStore) *ImageUploader {
	return &ImageUploader{api: api, sessions: sessions}
}

// Upload 校验并上传本地图片文件
func (u *ImageUploader) Upload(ctx context.Context, path string) (*ImageUpload, error) {
	if err := validateFile(path, imageExts, maxImageBytes); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	defer f.Close()

	result, err := u.api.UploadImage(ctx, u.sessions.GetOrCreate(), filepath.Base(path), f)
	if err != nil {
		return nil, err
	}

	u.mu.Lock()
	u.current = result
	u.mu.Unlock()

	return result, nil
}

// Current 当前槽位内容，未上传时为 nil
func (u *ImageUploader) Current() *ImageUpload {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.current
}

// Remove 删除服务端槽位并清空本地状态
func (u *ImageUploader) Remove(ctx context.Context) error {
	if _, err := u.api.DeleteImage(ctx, u.sessions.GetOrCreate()); err != nil {
		return err
	}

	u.mu.Lock()
	u.current = nil
	u.mu.Unlock()

	return nil
}

// CSVUploader 维护会话当前的 CSV 槽位，支持本地文件与远端 URL
type CSVUploader struct {
	api      *Client
	sessions *SessionStore

	mu      sync.Mutex
	current *CSVUpload
}

func NewCSVUploader(api *Client, sessions *SessionStore) *CSVUploader {
	return &CSVUploader{api: api, sessions: sessions}
}

func (u *CSVUploader) Upload(ctx context.Context, path string) (*CSVUpload, error) {
	if err := validateFile(path, map[string]bool{".csv": true}, 0); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	defer f.Close()

	result, err := u.api.UploadCSV(ctx, u.sessions.GetOrCreate(), filepath.Base(path), f)
	if err != nil {
		return nil, err
	}

	u.mu.Lock()
	u.current = result
	u.mu.Unlock()

	return result, nil
}

// UploadURL 让服务端直接从 URL 加载
func (u *CSVUploader) UploadURL(ctx context.Context, url string) (*CSVUpload, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, fmt.Errorf("%w: url must start with http:// or https://", ErrInvalidFile)
	}

	result, err := u.api.UploadCSVFromURL(ctx, u.sessions.GetOrCreate(), url)
	if err != nil {
		return nil, err
	}

	u.mu.Lock()
	u.current = result
	u.mu.Unlock()

	return result, nil
}

func (u *CSVUploader) Current() *CSVUpload {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.current
}

func (u *CSVUploader) Remove(ctx context.Context) error {
	if _, err := u.api.DeleteCSV(ctx, u.sessions.GetOrCreate()); err != nil {
		return err
	}

	u.mu.Lock()
	u.current = nil
	u.mu.Unlock()

	return nil
}

// DocumentUploader 维护会话当前的文档槽位
type DocumentUploader struct {
	api      *Client
	sessions *SessionStore

	mu      sync.Mutex
	current *DocumentUpload
}

func NewDocumentUploader(api *Client, sessions *SessionStore) *DocumentUploader {
	return &DocumentUploader{api: api, sessions: sessions}
}

func (u *DocumentUploader) Upload(ctx context.Context, path string) (*DocumentUpload, error) {
	if err := validateFile(path, documentExts, maxDocumentBytes); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	defer f.Close()

	result, err := u.api.UploadDocument(ctx, u.sessions.GetOrCreate(), filepath.Base(path), f)
	if err != nil {
		return nil, err
	}

	u.mu.Lock()
	u.current = result
	u.mu.Unlock()

	return result, nil
}

func (u *DocumentUploader) Current() *DocumentUpload {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.current
}

func (u *DocumentUploader) Remove(ctx context.Context) error {
	if _, err := u.api.DeleteDocument(ctx, u.sessions.GetOrCreate()); err != nil {
		return err
	}

	u.mu.Lock()
	u.current = nil
	u.mu.Unlock()

	return nil
}
