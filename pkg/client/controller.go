package client

import (
	"context"
	"strings"
	"sync"
	"time"

	"multichat/pkg/logger"
)

// ChatController 持有会话消息列表与加载/错误状态。
// 发送采用乐观更新：用户消息先入列表，失败时恢复到发送前快照。
// LoadHistory/SendMessage/ClearHistory 之间由操作锁串行化，
// 同一实例不会出现交错的在途请求。
type ChatController struct {
	api      *Client
	sessions *SessionStore

	opMu sync.Mutex // 操作串行化

	mu       sync.RWMutex // 以下状态
	messages []Message
	loading  bool
	lastErr  string
}

func NewChatController(api *Client, sessions *SessionStore) *ChatController {
	return &ChatController{
		api:      api,
		sessions: sessions,
	}
}

// Messages 返回当前消息列表的副本
func (c *ChatController) Messages() []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Message, len(c.messages))
	copy(out, c.messages)

	return out
}

// IsLoading 是否有操作在途
func (c *ChatController) IsLoading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

// Err 最近一次失败的可展示描述，成功的发送会清空它
func (c *ChatController) Err() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

// LoadHistory 用服务端记录整体替换本地消息列表。
// 失败不致命：本地列表保持原值，错误只记日志不写入错误状态。
func (c *ChatController) LoadHistory(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	history, err := c.api.GetChatHistory(ctx, c.sessions.GetOrCreate())
	if err != nil {
		logger.Warnf("历史加载失败: %v", err)
		return err
	}

	c.mu.Lock()
	c.messages = history.Messages
	c.mu.Unlock()

	return nil
}

// SendMessage 发送一条消息。空白内容静默忽略。
// 成功时列表追加用户消息与助手回复各一条；失败时回滚乐观追加的
// 用户消息、记录错误描述并把原始错误返回给调用方。
func (c *ChatController) SendMessage(ctx context.Context, content string) error {
	trimmed := trimContent(content)
	if trimmed == "" {
		return nil
	}

	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	c.loading = true
	c.lastErr = ""
	snapshot := make([]Message, len(c.messages))
	copy(snapshot, c.messages)
	c.messages = append(c.messages, Message{
		Role:      "user",
		Content:   trimmed,
		Timestamp: nowUnix(),
	})
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.loading = false
		c.mu.Unlock()
	}()

	resp, err := c.api.SendChatMessage(ctx, c.sessions.GetOrCreate(), trimmed)
	if err != nil {
		c.mu.Lock()
		c.messages = snapshot
		c.lastErr = humanize(err)
		c.mu.Unlock()
		return err
	}

	// 助手消息的时间戳以服务端为准，与用户消息的本地时间戳不做对齐
	c.mu.Lock()
	c.messages = append(c.messages, Message{
		Role:      "assistant",
		Content:   resp.Response,
		Timestamp: resp.Timestamp,
	})
	c.mu.Unlock()

	return nil
}

// ClearHistory 请求服务端清空会话历史。成功时本地列表清空；
// 失败时列表保持原样、记录错误并返回
func (c *ChatController) ClearHistory(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	c.loading = true
	c.lastErr = ""
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.loading = false
		c.mu.Unlock()
	}()

	if _, err := c.api.ClearChatHistory(ctx, c.sessions.GetOrCreate()); err != nil {
		c.mu.Lock()
		c.lastErr = humanize(err)
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	c.messages = nil
	c.mu.Unlock()

	return nil
}

// Reset 清空本地状态（消息、错误），不触碰服务端；
// 配合 SessionStore.New 切换会话时使用
func (c *ChatController) Reset() {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	c.messages = nil
	c.lastErr = ""
	c.mu.Unlock()
}

func trimContent(content string) string {
	return strings.TrimSpace(content)
}

func nowUnix() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}
