package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/zhouzirui/news-rag/backend/internal/apperr"
	"github.com/zhouzirui/news-rag/backend/internal/config"
	"github.com/zhouzirui/news-rag/backend/internal/model/chat"
)

// DefaultSessionTTL is the retention window applied at session creation.
const DefaultSessionTTL = 24 * time.Hour

// Service keeps each session's messages in a Redis list. The expiry is issued
// once, when the session is created, against a key that does not exist yet;
// Redis ignores EXPIRE on a missing key and appends never set one, so in
// practice a session log never expires and is removed only by DeleteSession.
type Service struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

// NewService wraps an existing redis client.
func NewService(rdb redis.UniversalClient, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Service{rdb: rdb, ttl: ttl}
}

// NewRedisClient opens the process-wide redis handle and verifies it.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Username: cfg.Username,
		Password: cfg.Password,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, &apperr.StoreError{Op: "connect", Err: err}
	}
	log.Printf("[store] connected to redis at %s", cfg.Addr())
	return rdb, nil
}

func messagesKey(sessionID string) string {
	return fmt.Sprintf("session:%s:messages", sessionID)
}

// CreateSession provisions an anonymous session. No data is written, so the
// EXPIRE issued here on the empty message key has no effect.
func (s *Service) CreateSession(ctx context.Context) (chat.Session, error) {
	session := chat.Session{ID: uuid.NewString()}

	if err := s.rdb.Expire(ctx, messagesKey(session.ID), s.ttl).Err(); err != nil {
		return chat.Session{}, &apperr.StoreError{Op: "expire", Err: err}
	}
	return session, nil
}

// AppendMessage appends a message to the tail of the session log.
func (s *Service) AppendMessage(ctx context.Context, sessionID string, message chat.Message) error {
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	if err := s.rdb.RPush(ctx, messagesKey(sessionID), data).Err(); err != nil {
		return &apperr.StoreError{Op: "append", Err: err}
	}
	return nil
}

// ListMessages returns the whole log in append order. Unknown sessions
// yield an empty slice.
func (s *Service) ListMessages(ctx context.Context, sessionID string) ([]chat.Message, error) {
	raw, err := s.rdb.LRange(ctx, messagesKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, &apperr.StoreError{Op: "list", Err: err}
	}

	messages := make([]chat.Message, 0, len(raw))
	for i, item := range raw {
		var msg chat.Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			return nil, &apperr.StoreError{Op: "list", Err: fmt.Errorf("decode entry %d: %w", i, err)}
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// DeleteSession removes the session log. Deleting an unknown session is
// not an error.
func (s *Service) DeleteSession(ctx context.Context, sessionID string) error {
	if err := s.rdb.Del(ctx, messagesKey(sessionID)).Err(); err != nil {
		return &apperr.StoreError{Op: "delete", Err: err}
	}
	return nil
}

// Ping checks that the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return &apperr.StoreError{Op: "ping", Err: err}
	}
	return nil
}
