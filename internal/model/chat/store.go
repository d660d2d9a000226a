package chat

import "context"

// Store exposes the session log to HTTP handlers.
type Store interface {
	CreateSession(ctx context.Context) (Session, error)
	AppendMessage(ctx context.Context, sessionID string, message Message) error
	ListMessages(ctx context.Context, sessionID string) ([]Message, error)
	DeleteSession(ctx context.Context, sessionID string) error
}
