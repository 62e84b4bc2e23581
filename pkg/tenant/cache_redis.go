package tenant

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// redisCache shares tenant records across instances through Redis. Useful
// when many router replicas sit behind one load balancer and a registry
// lookup per replica per TTL window is too much.
type redisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache creates a Redis-backed Cache. The client is owned by the
// caller and is not closed by Close. Keys are stored as "<prefix><subdomain>".
func NewRedisCache(client *redis.Client, keyPrefix string) Cache {
	if keyPrefix == "" {
		keyPrefix = "tenant:"
	}
	return &redisCache{client: client, prefix: keyPrefix}
}

// cachedTenant is the wire form of a record in Redis. The locator is included
// deliberately: unlike API responses, cache entries never leave the backend.
type cachedTenant struct {
	ID          uuid.UUID     `json:"id"`
	Name        string        `json:"name"`
	Subdomain   string        `json:"subdomain"`
	DBName      string        `json:"db_name"`
	Locator     string        `json:"locator"`
	Status      Status        `json:"status"`
	AdminUserID uuid.NullUUID `json:"admin_user_id"`
	CreatedAt   time.Time     `json:"created_at"`
}

func (c *redisCache) Get(ctx context.Context, key string) (*Tenant, bool) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		// Treat every failure as a miss; the registry stays authoritative.
		return nil, false
	}

	var rec cachedTenant
	if err := json.Unmarshal(data, &rec); err != nil {
		_ = c.client.Del(ctx, c.prefix+key).Err()
		return nil, false
	}

	return &Tenant{
		ID:          rec.ID,
		Name:        rec.Name,
		Subdomain:   rec.Subdomain,
		DBName:      rec.DBName,
		Locator:     rec.Locator,
		Status:      rec.Status,
		AdminUserID: rec.AdminUserID,
		CreatedAt:   rec.CreatedAt,
	}, true
}

func (c *redisCache) Set(ctx context.Context, key string, tenant *Tenant, ttl time.Duration) {
	if tenant == nil || ttl <= 0 {
		return
	}

	data, err := json.Marshal(cachedTenant{
		ID:          tenant.ID,
		Name:        tenant.Name,
		Subdomain:   tenant.Subdomain,
		DBName:      tenant.DBName,
		Locator:     tenant.Locator,
		Status:      tenant.Status,
		AdminUserID: tenant.AdminUserID,
		CreatedAt:   tenant.CreatedAt,
	})
	if err != nil {
		return
	}

	_ = c.client.Set(ctx, c.prefix+key, data, ttl).Err()
}

func (c *redisCache) Delete(ctx context.Context, key string) {
	_ = c.client.Del(ctx, c.prefix+key).Err()
}

func (c *redisCache) Close() error {
	return nil
}
