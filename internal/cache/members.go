// Package cache caches membership views in Redis. The cache is a derived
// view only: every membership or invitation mutation invalidates it, and
// readers fall back to the store on any miss or error.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/teamhub/collab-service/internal/domain"
)

// MembersCache хранит списки активных участников по команде
type MembersCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewMembersCache создает кэш поверх существующего клиента Redis
func NewMembersCache(rdb *redis.Client, ttl time.Duration) *MembersCache {
	return &MembersCache{rdb: rdb, ttl: ttl}
}

func membersKey(teamID string) string {
	return fmt.Sprintf("team:%s:members", teamID)
}

// Get возвращает закэшированный список участников. Любая ошибка Redis
// трактуется как промах: источник истины — реляционное хранилище.
func (c *MembersCache) Get(ctx context.Context, teamID string) ([]*domain.Member, bool) {
	raw, err := c.rdb.Get(ctx, membersKey(teamID)).Bytes()
	if err != nil {
		return nil, false
	}

	var members []*domain.Member
	if err := json.Unmarshal(raw, &members); err != nil {
		return nil, false
	}

	return members, true
}

// Set записывает список участников с TTL
func (c *MembersCache) Set(ctx context.Context, teamID string, members []*domain.Member) {
	raw, err := json.Marshal(members)
	if err != nil {
		return
	}
	c.rdb.Set(ctx, membersKey(teamID), raw, c.ttl)
}

// Invalidate сбрасывает представление команды после мутации членства
func (c *MembersCache) Invalidate(ctx context.Context, teamID string) {
	c.rdb.Del(ctx, membersKey(teamID))
}
