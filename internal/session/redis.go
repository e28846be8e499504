package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sardorismatullaev707-collab/suprt/pkg/logger"
)

// Redis is a Store backed by Redis with native TTL expiry, for deployments
// that need sessions to survive restarts or to be shared across replicas.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(host string, port int, password string, db int, ttl time.Duration) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	if ttl <= 0 {
		ttl = time.Hour
	}

	logger.Info("Redis session store initialized", zap.String("addr", fmt.Sprintf("%s:%d", host, port)))
	return &Redis{client: client, ttl: ttl}, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) Get(ctx context.Context, conversationID string) (State, error) {
	data, err := r.client.Get(ctx, key(conversationID)).Bytes()
	if err == redis.Nil {
		return State{}, nil
	}
	if err != nil {
		return State{}, fmt.Errorf("failed to get session: %w", err)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return State{}, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return st, nil
}

func (r *Redis) Put(ctx context.Context, conversationID string, st State) error {
	st.UpdatedAt = time.Now()
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := r.client.Set(ctx, key(conversationID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set session: %w", err)
	}
	return nil
}

func key(conversationID string) string {
	return fmt.Sprintf("session:%s", conversationID)
}
