package service

import (
	"context"

	openai "github.com/sashabaranov/go-openai"

	"multichat/internal/config"
)

// Completer 抽象一次补全调用，测试中以假实现替换
type Completer interface {
	Complete(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error)
}

type openAICompleter struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

// NewCompleter 基于配置构造 OpenAI 兼容的补全客户端
func NewCompleter(cfg config.OpenAIConfig) Completer {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &openAICompleter{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}
}

func (c *openAICompleter) Complete(ctx context.Context, messages []openai.ChatCompletionMessage) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	return resp.Choices[0].Message.Content, nil
}
