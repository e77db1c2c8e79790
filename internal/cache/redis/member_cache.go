package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	rplatform "birthday-guard-backend/internal/platform/redis"
)

// MemberStatus is the last chat-member state observed for a (chat, user) pair.
type MemberStatus struct {
	ChatID   int64     `json:"chat_id"`
	UserID   int64     `json:"user_id"`
	Status   string    `json:"status"`
	SeenAt   time.Time `json:"seen_at"`
	Username string    `json:"username,omitempty"`
}

// MemberCache provides Redis-based caching of observed chat-member states.
type MemberCache struct {
	client *rplatform.Client
	ttl    time.Duration
}

func NewMemberCache(client *rplatform.Client, ttl time.Duration) *MemberCache {
	return &MemberCache{client: client, ttl: ttl}
}

func (c *MemberCache) key(chatID, userID int64) string {
	return fmt.Sprintf("member:%d:%d", chatID, userID)
}

// Set stores the member state under its (chat, user) key.
func (c *MemberCache) Set(ctx context.Context, m *MemberStatus) error {
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(m.ChatID, m.UserID), b, c.ttl).Err()
}

// Get returns the cached member state, or an error on a miss.
func (c *MemberCache) Get(ctx context.Context, chatID, userID int64) (*MemberStatus, error) {
	v, err := c.client.Get(ctx, c.key(chatID, userID)).Bytes()
	if err != nil {
		return nil, err
	}
	var m MemberStatus
	if err := json.Unmarshal(v, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Invalidate removes the cached entry for the pair.
func (c *MemberCache) Invalidate(ctx context.Context, chatID, userID int64) error {
	return c.client.Del(ctx, c.key(chatID, userID)).Err()
}
