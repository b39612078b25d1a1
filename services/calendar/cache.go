package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"caredesk/models"
	"caredesk/services/slots"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// SlotCache memoises computed slot lists per professional and date.
type SlotCache interface {
	Get(ctx context.Context, ref models.ProfessionalRef, date models.DateKey, duration int, visit models.VisitType) ([]slots.Slot, bool)
	Set(ctx context.Context, ref models.ProfessionalRef, date models.DateKey, duration int, visit models.VisitType, list []slots.Slot)
	Invalidate(ctx context.Context, ref models.ProfessionalRef, date models.DateKey)
	InvalidateProfessional(ctx context.Context, ref models.ProfessionalRef)
}

// RedisSlotCache stores one hash per (professional, date); fields are "duration:visitType".
type RedisSlotCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisSlotCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisSlotCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisSlotCache{client: client, ttl: ttl, logger: logger.Named("SlotCache")}
}

func slotKey(ref models.ProfessionalRef, date models.DateKey) string {
	return fmt.Sprintf("slots:%s:%s:%s", ref.Kind, ref.ID, date)
}

func slotField(duration int, visit models.VisitType) string {
	v := string(visit)
	if v == "" {
		v = "any"
	}
	return strconv.Itoa(duration) + ":" + v
}

func (c *RedisSlotCache) Get(ctx context.Context, ref models.ProfessionalRef, date models.DateKey, duration int, visit models.VisitType) ([]slots.Slot, bool) {
	raw, err := c.client.HGet(ctx, slotKey(ref, date), slotField(duration, visit)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("slot cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var list []slots.Slot
	if err := json.Unmarshal(raw, &list); err != nil {
		c.logger.Warn("slot cache entry corrupt", zap.Error(err))
		return nil, false
	}
	return list, true
}

func (c *RedisSlotCache) Set(ctx context.Context, ref models.ProfessionalRef, date models.DateKey, duration int, visit models.VisitType, list []slots.Slot) {
	raw, err := json.Marshal(list)
	if err != nil {
		return
	}
	key := slotKey(ref, date)
	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, key, slotField(duration, visit), raw)
	pipe.Expire(ctx, key, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn("slot cache write failed", zap.Error(err))
	}
}

func (c *RedisSlotCache) Invalidate(ctx context.Context, ref models.ProfessionalRef, date models.DateKey) {
	if err := c.client.Del(ctx, slotKey(ref, date)).Err(); err != nil {
		c.logger.Warn("slot cache invalidation failed", zap.Error(err))
	}
}

func (c *RedisSlotCache) InvalidateProfessional(ctx context.Context, ref models.ProfessionalRef) {
	pattern := fmt.Sprintf("slots:%s:%s:*", ref.Kind, ref.ID)
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn("slot cache scan failed", zap.Error(err))
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("slot cache invalidation failed", zap.Error(err))
	}
}
