package utils

import (
	"crypto/tls"
	"net/http"
	"time"
)

// NewHTTPClient 返回带连接池的出站 HTTP 客户端，用于抓取远端 CSV 等场景
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: false,
			},
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}
