package cache

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/anicoll/pool-monitor/internal/pkg/config"
	"github.com/anicoll/pool-monitor/internal/pkg/model"
)

const sessionKey = "pool-monitor:session"

// SessionCache keeps the vendor session in redis instead of postgres.
type SessionCache struct {
	client *redis.Client
}

func New(cfg config.RedisConfig) *SessionCache {
	return &SessionCache{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
	}
}

func (c *SessionCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *SessionCache) Close() error {
	return c.client.Close()
}

// GetSession returns the stored session, or nil when the key is absent.
func (c *SessionCache) GetSession(ctx context.Context) (*model.Session, error) {
	data, err := c.client.Get(ctx, sessionKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	session := &model.Session{}
	if err := json.Unmarshal(data, session); err != nil {
		return nil, err
	}
	return session, nil
}

// PutSession overwrites the stored session. It never expires; a dead session
// is replaced by the next refresh.
func (c *SessionCache) PutSession(ctx context.Context, session *model.Session) error {
	if !session.Usable() {
		return model.ErrIncompleteSession
	}
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, sessionKey, data, 0).Err()
}
