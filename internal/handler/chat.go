package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"multichat/internal/model"
	"multichat/internal/service"
	"multichat/pkg/logger"
)

type ChatHandler struct {
	chatService *service.ChatService
}

func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
	}
}

// Chat 处理 POST /chat
func (h *ChatHandler) Chat(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewError("invalid request", err.Error()))
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, model.NewError("message cannot be empty", ""))
		return
	}

	resp, err := h.chatService.Chat(c.Request.Context(), req.SessionID, req.Message)
	if err != nil {
		if errors.Is(err, service.ErrEmptyMessage) {
			c.JSON(http.StatusBadRequest, model.NewError("message cannot be empty", ""))
			return
		}
		logger.Errorf("会话 %s 聊天失败: %v", req.SessionID, err)
		c.JSON(http.StatusInternalServerError, model.NewError("chat failed", err.Error()))
		return
	}

	c.JSON(http.StatusOK, resp)
}

// History 处理 GET /chat/history/:session_id
func (h *ChatHandler) History(c *gin.Context) {
	sessionID := c.Param("session_id")

	messages, err := h.chatService.History(sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.NewError("failed to load history", err.Error()))
		return
	}

	if messages == nil {
		messages = []model.Message{}
	}

	c.JSON(http.StatusOK, model.ChatHistoryResponse{
		SessionID:     sessionID,
		TotalMessages: len(messages),
		Messages:      messages,
	})
}

// Clear 处理 DELETE /chat/history/:session_id
func (h *ChatHandler) Clear(c *gin.Context) {
	sessionID := c.Param("session_id")

	deleted, err := h.chatService.ClearHistory(sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.NewError("failed to clear history", err.Error()))
		return
	}

	status := "cleared"
	if deleted == 0 {
		status = "not_found"
	}

	logger.Infof("会话 %s 清除了 %d 条消息", sessionID, deleted)

	c.JSON(http.StatusOK, model.ClearHistoryResponse{
		Status:          status,
		MessagesDeleted: deleted,
	})
}
