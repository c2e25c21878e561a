package client

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedResponse 服务端返回了无法解析的响应体
	ErrMalformedResponse = errors.New("malformed server response")
	// ErrInvalidFile 本地校验失败（类型、大小）
	ErrInvalidFile = errors.New("invalid file")
)

// APIError 服务端以结构化错误体报告的失败
type APIError struct {
	StatusCode int
	Message    string
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("server error (%d): %s: %s", e.StatusCode, e.Message, e.Detail)
	}
	return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
}

// humanize 把任意失败归纳成可直接展示给用户的一句话
func humanize(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	if errors.Is(err, ErrMalformedResponse) {
		return "服务器返回了无法识别的响应"
	}
	return err.Error()
}
