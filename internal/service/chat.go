package service

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"multichat/internal/model"
	"multichat/internal/storage"
	"multichat/pkg/logger"
)

// ChatService 负责一次聊天往返：落库用户消息、拼装文件上下文、
// 调用模型、落库助手回复
type ChatService struct {
	store        storage.Store
	completer    Completer
	systemPrompt string
	maxHistory   int
	maxDocChars  int
}

func NewChatService(store storage.Store, completer Completer, systemPrompt string, maxHistory, maxDocChars int) *ChatService {
	if maxHistory <= 0 {
		maxHistory = 10
	}
	if maxDocChars <= 0 {
		maxDocChars = 4000
	}
	return &ChatService{
		store:        store,
		completer:    completer,
		systemPrompt: systemPrompt,
		maxHistory:   maxHistory,
		maxDocChars:  maxDocChars,
	}
}

func (s *ChatService) GetStore() storage.Store {
	return s.store
}

// Chat 处理一条用户消息并返回助手回复。
// 用户消息在模型调用前落库，与历史接口看到的顺序一致。
func (s *ChatService) Chat(ctx context.Context, sessionID, message string) (*model.ChatResponse, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	userMsg := model.Message{
		Role:      model.RoleUser,
		Content:   message,
		Timestamp: model.Now(),
	}
	if err := s.store.AppendMessage(sessionID, userMsg); err != nil {
		return nil, fmt.Errorf("append user message: %w", err)
	}

	files, err := s.store.Files(sessionID)
	if err != nil {
		return nil, fmt.Errorf("list session files: %w", err)
	}

	history, err := s.store.History(sessionID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	prompt := s.buildMessages(history, files, message)

	reply, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("completion failed: %w", err)
	}

	assistantMsg := model.Message{
		Role:      model.RoleAssistant,
		Content:   reply,
		Timestamp: model.Now(),
	}
	if err := s.store.AppendMessage(sessionID, assistantMsg); err != nil {
		return nil, fmt.Errorf("append assistant message: %w", err)
	}

	counts := countByKind(files)
	logger.Infof("会话 %s 生成回复完成，上下文文件数 %d", sessionID, len(files))

	return &model.ChatResponse{
		Response:  reply,
		SessionID: sessionID,
		Timestamp: assistantMsg.Timestamp,
		Metadata: map[string]any{
			"total_files":    len(files),
			"images_used":    counts[model.FileImage],
			"csvs_used":      counts[model.FileCSV],
			"documents_used": counts[model.FileDocument],
		},
	}, nil
}

// buildMessages 组装发送给模型的消息序列：系统提示 + 文件上下文 +
// 最近 N 条历史（不含刚落库的当前消息）+ 当前消息
func (s *ChatService) buildMessages(history []model.Message, files []*model.FileRecord, current string) []openai.ChatCompletionMessage {
	var system strings.Builder
	if s.systemPrompt != "" {
		system.WriteString(s.systemPrompt)
	}

	if block := s.buildFileContext(files); block != "" {
		if system.Len() > 0 {
			system.WriteString("\n\n")
		}
		system.WriteString(block)
	}

	messages := make([]openai.ChatCompletionMessage, 0, s.maxHistory+2)
	if system.Len() > 0 {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system.String(),
		})
	}

	// history 末尾是当前用户消息，窗口取其之前的 maxHistory 条
	prior := history
	if len(prior) > 0 {
		prior = prior[:len(prior)-1]
	}
	if len(prior) > s.maxHistory {
		prior = prior[len(prior)-s.maxHistory:]
	}
	for _, msg := range prior {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: current,
	})

	return messages
}

// buildFileContext 把会话内的文件槽位渲染成按上传顺序编号的上下文块
func (s *ChatService) buildFileContext(files []*model.FileRecord) string {
	if len(files) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Files uploaded in this session (earliest first):\n")
	for i, f := range files {
		fmt.Fprintf(&b, "[%d] %s → %s\n", i+1, strings.ToUpper(string(f.Kind)), f.Filename)
	}

	for _, f := range files {
		switch f.Kind {
		case model.FileCSV:
			fmt.Fprintf(&b, "\n--- CSV: %s ---\n", f.Filename)
			fmt.Fprintf(&b, "Shape: %d rows, %d columns\n", f.Rows, len(f.Columns))
			fmt.Fprintf(&b, "Columns: %s\n", strings.Join(f.Columns, ", "))
			if len(f.Sample) > 0 {
				b.WriteString("First rows:\n")
				for _, row := range f.Sample {
					for _, col := range f.Columns {
						fmt.Fprintf(&b, "%s=%s ", col, row[col])
					}
					b.WriteString("\n")
				}
			}
		case model.FileDocument:
			fmt.Fprintf(&b, "\n--- Document: %s (%d words) ---\n", f.Filename, f.WordCount)
			b.WriteString(TruncateWords(f.Text, s.maxDocChars))
			b.WriteString("\n")
		case model.FileImage:
			fmt.Fprintf(&b, "\n--- Image: %s (%s, %dx%d) ---\n", f.Filename, f.Format, f.Width, f.Height)
		}
	}

	return b.String()
}

func countByKind(files []*model.FileRecord) map[model.FileKind]int {
	counts := make(map[model.FileKind]int)
	for _, f := range files {
		counts[f.Kind]++
	}
	return counts
}

// History 返回会话全部消息
func (s *ChatService) History(sessionID string) ([]model.Message, error) {
	return s.store.History(sessionID)
}

// ClearHistory 清空会话消息，返回删除条数
func (s *ChatService) ClearHistory(sessionID string) (int, error) {
	return s.store.ClearHistory(sessionID)
}
