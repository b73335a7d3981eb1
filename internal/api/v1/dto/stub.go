package dto

type ChatRequest struct {
	Prompt    string `json:"prompt" validate:"required,max=4000"`
	SessionID string `json:"sessionId,omitempty"`
}

type ChatResponse struct {
	Response      string `json:"response"`
	SessionID     string `json:"session_id"`
	HistoryLength int    `json:"history_length"`
}

type ScanRequest struct {
	Address string `json:"address" validate:"required"`
}

// ErrorResponse is the uniform failure body.
type ErrorResponse struct {
	Error string `json:"error"`
}
