package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/faculty-games/models"
	"github.com/redis/go-redis/v9"
)

const TallyKey = "medal_tally:v1"

// TallyCache хранит готовый (уже ранжированный) медальный зачет.
type TallyCache interface {
	// Get reports ok=false on a miss.
	Get(ctx context.Context) (tally []models.MedalTally, ok bool, err error)
	Set(ctx context.Context, tally []models.MedalTally) error
	Invalidate(ctx context.Context) error
}

type redisTallyCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisTallyCache(client *redis.Client, ttl time.Duration) TallyCache {
	return &redisTallyCache{client: client, ttl: ttl}
}

func (c *redisTallyCache) Get(ctx context.Context) ([]models.MedalTally, bool, error) {
	val, err := c.client.Get(ctx, TallyKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read tally cache: %w", err)
	}

	var tally []models.MedalTally
	if err = json.Unmarshal(val, &tally); err != nil {
		return nil, false, fmt.Errorf("failed to decode tally cache: %w", err)
	}
	return tally, true, nil
}

func (c *redisTallyCache) Set(ctx context.Context, tally []models.MedalTally) error {
	data, err := json.Marshal(tally)
	if err != nil {
		return fmt.Errorf("failed to encode tally cache: %w", err)
	}
	if err = c.client.Set(ctx, TallyKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write tally cache: %w", err)
	}
	return nil
}

func (c *redisTallyCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, TallyKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate tally cache: %w", err)
	}
	return nil
}

// NoopTallyCache используется, когда REDIS_URL не задан.
type NoopTallyCache struct{}

func (NoopTallyCache) Get(context.Context) ([]models.MedalTally, bool, error) { return nil, false, nil }
func (NoopTallyCache) Set(context.Context, []models.MedalTally) error         { return nil }
func (NoopTallyCache) Invalidate(context.Context) error                       { return nil }
