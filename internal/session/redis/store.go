package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AyushDoCode/WhatsappChatbot/internal/domain"
	apperrors "github.com/AyushDoCode/WhatsappChatbot/pkg/errors"
)

const keyPrefix = "search_session:"

// Store implements session.Store using Redis. Each session is one JSON value
// that expires after ttl; a zero ttl keeps sessions until overwritten.
type Store struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewStore creates a Redis-backed session store.
func NewStore(client redis.UniversalClient, ttl time.Duration) *Store {
	return &Store{
		client: client,
		ttl:    ttl,
	}
}

// Get retrieves a conversation's session.
func (s *Store) Get(ctx context.Context, conversationID string) (*domain.PaginationSession, error) {
	data, err := s.client.Get(ctx, keyPrefix+conversationID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFound("search session", conversationID)
		}
		return nil, fmt.Errorf("redis get session: %w", err)
	}

	var sess domain.PaginationSession
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &sess, nil
}

// Save overwrites a conversation's session and resets its expiry.
func (s *Store) Save(ctx context.Context, sess *domain.PaginationSession) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	if err := s.client.Set(ctx, keyPrefix+sess.ConversationID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

// Delete removes a conversation's session.
func (s *Store) Delete(ctx context.Context, conversationID string) error {
	if err := s.client.Del(ctx, keyPrefix+conversationID).Err(); err != nil {
		return fmt.Errorf("redis del session: %w", err)
	}
	return nil
}
