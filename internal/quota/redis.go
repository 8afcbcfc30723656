package quota

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AbdulsaboorS/fantasybasketballbot/internal/model"
)

const defaultKeyFormat = "fantasybot:quota:%d:%d" // league, team

// RedisStore keeps QuotaState as a JSON value under a single key.
type RedisStore struct {
	redis *redis.Client
	key   string
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore uses key when set, otherwise a key derived from league and team.
func NewRedisStore(client *redis.Client, key string, leagueID, teamID int) *RedisStore {
	if key == "" {
		key = fmt.Sprintf(defaultKeyFormat, leagueID, teamID)
	}
	return &RedisStore{redis: client, key: key}
}

func (r *RedisStore) Name() string { return "redis" }

func (r *RedisStore) Load(ctx context.Context) (model.QuotaState, error) {
	data, err := r.redis.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.QuotaState{}, nil
	}
	if err != nil {
		return model.QuotaState{}, fmt.Errorf("redis get %s: %w", r.key, err)
	}
	var state model.QuotaState
	if err := json.Unmarshal(data, &state); err != nil {
		return model.QuotaState{}, fmt.Errorf("decode quota state: %w", err)
	}
	return state, nil
}

// Save writes without expiry; the week boundary, not a TTL, governs reset.
func (r *RedisStore) Save(ctx context.Context, state model.QuotaState) error {
	state.UpdatedAt = time.Now()
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal quota state: %w", err)
	}
	if err := r.redis.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.key, err)
	}
	return nil
}
