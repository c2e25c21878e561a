package model

type ChatRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Message   string `json:"message" binding:"required"`
}

type CSVURLRequest struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url" binding:"required"`
}
