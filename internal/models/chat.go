package models

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// ChatRequest is the payload sent to the chat endpoint. History is the
// client's window of prior turns, already trimmed to the most recent ones.
type ChatRequest struct {
	Message      string        `json:"message"`
	History      []ChatMessage `json:"history"`
	UseWebSearch bool          `json:"useWebSearch"`
}

// ChatResponse is the reply from the chat endpoint. Error replies reuse the
// same shape with Model left empty.
type ChatResponse struct {
	Response string `json:"response"`
	Model    string `json:"model,omitempty"`
}

// ChatReply is the NATS reply envelope; Status mirrors the HTTP status code.
type ChatReply struct {
	ChatResponse
	Status int `json:"status"`
}
