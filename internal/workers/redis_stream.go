package workers

import (
	"context"
	"time"

	go_redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"giveaway-raffle/internal/common/logger"
	"giveaway-raffle/internal/platform/redis"
)

// RoleRefresher re-resolves the current giveaway's allowed roles.
type RoleRefresher interface {
	RefreshRoles(ctx context.Context) error
}

// MemberInvalidator drops cached data for a participant.
type MemberInvalidator interface {
	Invalidate(ctx context.Context, participantID string) error
}

const (
	eventRoleDeleted   = "role_deleted"
	eventMemberRemoved = "member_removed"
	eventMemberUpdated = "member_updated"
)

// RedisStreamWorker consumes bot gateway events published to a Redis stream.
type RedisStreamWorker struct {
	rdb      *redis.Client
	stream   string
	group    string
	consumer string
	roles    RoleRefresher
	members  MemberInvalidator
	log      zerolog.Logger
}

func NewRedisStreamWorker(rdb *redis.Client, stream, group, consumer string, roles RoleRefresher, members MemberInvalidator) *RedisStreamWorker {
	return &RedisStreamWorker{
		rdb:      rdb,
		stream:   stream,
		group:    group,
		consumer: consumer,
		roles:    roles,
		members:  members,
		log:      logger.Component("redis_stream_worker"),
	}
}

// Start begins listening to the Redis stream for events. It returns when ctx is done.
func (w *RedisStreamWorker) Start(ctx context.Context) {
	if err := w.rdb.EnsureGroup(ctx, w.stream, w.group); err != nil {
		w.log.Error().Err(err).Str("stream", w.stream).Msg("Error creating consumer group")
	}

	w.log.Info().Str("stream", w.stream).Str("group", w.group).Msg("Starting Redis stream worker")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping Redis stream worker")
			return
		default:
			entries, err := w.rdb.XReadGroup(ctx, &go_redis.XReadGroupArgs{
				Group:    w.group,
				Consumer: w.consumer,
				Streams:  []string{w.stream, ">"},
				Count:    10,
				Block:    5 * time.Second,
			}).Result()
			if err != nil {
				if !redis.IsNil(err) && ctx.Err() == nil {
					w.log.Warn().Err(err).Msg("Error reading from stream")
					time.Sleep(time.Second)
				}
				continue
			}

			for _, stream := range entries {
				for _, msg := range stream.Messages {
					w.processMessage(ctx, msg.Values)
					if err := w.rdb.XAck(ctx, w.stream, w.group, msg.ID).Err(); err != nil {
						w.log.Warn().Err(err).Str("id", msg.ID).Msg("Failed to ack message")
					}
				}
			}
		}
	}
}

func (w *RedisStreamWorker) processMessage(ctx context.Context, values map[string]interface{}) {
	eventType, ok := values["type"].(string)
	if !ok {
		return
	}

	switch eventType {
	case eventRoleDeleted:
		roleID, _ := values["role_id"].(string)
		w.log.Info().Str("role_id", roleID).Msg("Processing role_deleted event")
		if err := w.roles.RefreshRoles(ctx); err != nil {
			w.log.Error().Err(err).Str("role_id", roleID).Msg("Error refreshing allowed roles")
		}
	case eventMemberRemoved, eventMemberUpdated:
		userID, ok := values["user_id"].(string)
		if !ok || userID == "" {
			w.log.Warn().Interface("values", values).Str("type", eventType).Msg("Event without user_id")
			return
		}
		if w.members == nil {
			return
		}
		if err := w.members.Invalidate(ctx, userID); err != nil {
			w.log.Error().Err(err).Str("user_id", userID).Msg("Error invalidating member cache")
		}
	}
}
