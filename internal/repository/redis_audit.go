package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/auditgate/auditgate/internal/config"
	"github.com/auditgate/auditgate/internal/model"
)

// RedisRecentCache keeps a bounded ring of the freshest audit records for
// the staff-only recent feed. Best-effort: the durable trail lives in
// Postgres, this is a convenience mirror.
type RedisRecentCache struct {
	client  *redis.Client
	listKey string
	listMax int
}

func NewRedisClient(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return client, nil
}

func NewRedisRecentCache(client *redis.Client, listKey string, listMax int) *RedisRecentCache {
	if listKey == "" {
		listKey = "audit:recent"
	}
	if listMax <= 0 {
		listMax = 1000
	}
	return &RedisRecentCache{
		client:  client,
		listKey: listKey,
		listMax: listMax,
	}
}

func (c *RedisRecentCache) Push(ctx context.Context, record *model.AuditRecord) error {
	if record == nil {
		return nil
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}
	if err := c.client.LPush(ctx, c.listKey, payload).Err(); err != nil {
		return err
	}
	return c.client.LTrim(ctx, c.listKey, 0, int64(c.listMax-1)).Err()
}

func (c *RedisRecentCache) Recent(ctx context.Context, limit int) ([]*model.AuditRecord, error) {
	if limit <= 0 || limit > c.listMax {
		limit = 100
	}
	items, err := c.client.LRange(ctx, c.listKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	records := make([]*model.AuditRecord, 0, len(items))
	for _, item := range items {
		var record model.AuditRecord
		if err := json.Unmarshal([]byte(item), &record); err != nil {
			continue
		}
		records = append(records, &record)
	}
	return records, nil
}
