package chat

import (
	"errors"
	"strings"
)

// ErrInvalidChatRequest is returned when sessionId or message is missing.
var ErrInvalidChatRequest = errors.New("sessionId and message are required")

// ChatRequest is the body of the chat endpoints.
type ChatRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

// Validate rejects requests with a blank session id or message.
func (r ChatRequest) Validate() error {
	if strings.TrimSpace(r.SessionID) == "" || strings.TrimSpace(r.Message) == "" {
		return ErrInvalidChatRequest
	}
	return nil
}
