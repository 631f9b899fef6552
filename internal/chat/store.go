package chat

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const historyTTL = 24 * time.Hour

// Store keeps chat session histories in redis as JSON lists with a
// rolling TTL, so idle sessions expire on their own.
type Store struct {
	redis *redis.Client
}

func NewStore(redisClient *redis.Client) *Store {
	return &Store{redis: redisClient}
}

func historyKey(sessionID string) string {
	return "chat:" + sessionID
}

// History returns the session's messages, or an empty history for an
// unknown session.
func (s *Store) History(ctx context.Context, sessionID string) ([]Message, error) {
	data, err := s.redis.Get(ctx, historyKey(sessionID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var msgs []Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (s *Store) Save(ctx context.Context, sessionID string, msgs []Message) error {
	data, err := json.Marshal(msgs)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, historyKey(sessionID), data, historyTTL).Err()
}

// PrependSystem inserts a system context message at the front of the
// history, creating the session if needed.
func (s *Store) PrependSystem(ctx context.Context, sessionID, content string) error {
	msgs, err := s.History(ctx, sessionID)
	if err != nil {
		return err
	}
	msgs = append([]Message{{Role: RoleSystem, Content: content}}, msgs...)
	return s.Save(ctx, sessionID, msgs)
}
