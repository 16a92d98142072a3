package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"giveaway-raffle/internal/common/logger"
	dg "giveaway-raffle/internal/domain/giveaway"
	rplatform "giveaway-raffle/internal/platform/redis"
)

// MemberCache caches the gate's per-participant lookups (roles and tenure) in front of a
// membership provider. Draw-time member resolution and role resolution always go to the
// provider, so winners and role healing never act on stale data.
type MemberCache struct {
	client *rplatform.Client
	next   dg.MembershipProvider
	ttl    time.Duration
	log    zerolog.Logger
}

var _ dg.MembershipProvider = (*MemberCache)(nil)

func NewMemberCache(client *rplatform.Client, next dg.MembershipProvider, ttl time.Duration) *MemberCache {
	return &MemberCache{client: client, next: next, ttl: ttl, log: logger.Component("member_cache")}
}

func (c *MemberCache) keyRoles(id string) string  { return fmt.Sprintf("member:roles:%s", id) }
func (c *MemberCache) keyTenure(id string) string { return fmt.Sprintf("member:tenure:%s", id) }

func (c *MemberCache) ResolveMember(ctx context.Context, id string) (*dg.Member, error) {
	return c.next.ResolveMember(ctx, id)
}

func (c *MemberCache) ResolveRole(ctx context.Context, id string) (*dg.Role, error) {
	return c.next.ResolveRole(ctx, id)
}

// MemberRoles returns cached role ids, falling back to the provider on a miss.
func (c *MemberCache) MemberRoles(ctx context.Context, participantID string) ([]string, error) {
	key := c.keyRoles(participantID)
	b, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var roles []string
		if err := json.Unmarshal(b, &roles); err == nil {
			return roles, nil
		}
	} else if !rplatform.IsNil(err) {
		c.log.Warn().Err(err).Str("key", key).Msg("Cache read failed")
	}

	roles, err := c.next.MemberRoles(ctx, participantID)
	if err != nil {
		return nil, err
	}
	if roles == nil {
		roles = []string{}
	}
	if b, err := json.Marshal(roles); err == nil {
		if err := c.client.Set(ctx, key, b, c.ttl).Err(); err != nil {
			c.log.Warn().Err(err).Str("key", key).Msg("Cache write failed")
		}
	}
	return roles, nil
}

// MemberTenureDays returns cached tenure, falling back to the provider on a miss.
func (c *MemberCache) MemberTenureDays(ctx context.Context, participantID string) (int, error) {
	key := c.keyTenure(participantID)
	v, err := c.client.Get(ctx, key).Result()
	if err == nil {
		if days, err := strconv.Atoi(v); err == nil {
			return days, nil
		}
	} else if !rplatform.IsNil(err) {
		c.log.Warn().Err(err).Str("key", key).Msg("Cache read failed")
	}

	days, err := c.next.MemberTenureDays(ctx, participantID)
	if err != nil {
		return 0, err
	}
	if err := c.client.Set(ctx, key, strconv.Itoa(days), c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}
	return days, nil
}

// Invalidate drops everything cached for the participant.
func (c *MemberCache) Invalidate(ctx context.Context, participantID string) error {
	return c.client.Del(ctx, c.keyRoles(participantID), c.keyTenure(participantID)).Err()
}
