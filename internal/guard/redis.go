package guard

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisKeyPrefix - префикс ключей в Redis.
const DefaultRedisKeyPrefix = "guard:"

// acquireScript сравнивает token и сохраняет новую пару {token, lease} за один
// шаг на сервере. 0 - дубликат, 1 - Lease сохранён.
var acquireScript = redis.NewScript(`
local current = redis.call('HGET', KEYS[1], 'token')
if current == ARGV[1] then
	return 0
end
redis.call('HSET', KEYS[1], 'token', ARGV[1], 'lease', ARGV[2])
return 1
`)

// releaseScript удаляет ключ, только пока в нём лежит этот lease id.
var releaseScript = redis.NewScript(`
if redis.call('HGET', KEYS[1], 'lease') == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

// RedisRegistry - Registry, общий для всех экземпляров на одном Redis.
// Записи без TTL, как и в MemoryRegistry.
type RedisRegistry struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisRegistry создаёт registry поверх client. Пустой prefix заменяется
// на DefaultRedisKeyPrefix.
func NewRedisRegistry(client redis.UniversalClient, prefix string) *RedisRegistry {
	if prefix == "" {
		prefix = DefaultRedisKeyPrefix
	}
	return &RedisRegistry{client: client, prefix: prefix}
}

func (r *RedisRegistry) key(key RouteKey) string {
	return r.prefix + string(key)
}

// Acquire реализует Registry.
func (r *RedisRegistry) Acquire(ctx context.Context, key RouteKey, token string) (Lease, error) {
	lease := Lease{Key: key, Token: token, ID: uuid.NewString()}

	stored, err := acquireScript.Run(ctx, r.client, []string{r.key(key)}, token, lease.ID).Int()
	if err != nil {
		return Lease{}, fmt.Errorf("acquire %s: %w", key, err)
	}
	if stored == 0 {
		return Lease{}, ErrDuplicateRequest
	}
	return lease, nil
}

// Release реализует Registry.
func (r *RedisRegistry) Release(ctx context.Context, lease Lease) (bool, error) {
	deleted, err := releaseScript.Run(ctx, r.client, []string{r.key(lease.Key)}, lease.ID).Int()
	if err != nil {
		return false, fmt.Errorf("release %s: %w", lease.Key, err)
	}
	return deleted > 0, nil
}

// Current реализует Registry.
func (r *RedisRegistry) Current(ctx context.Context, key RouteKey) (Lease, bool, error) {
	values, err := r.client.HMGet(ctx, r.key(key), "token", "lease").Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Lease{}, false, nil
		}
		return Lease{}, false, fmt.Errorf("current %s: %w", key, err)
	}

	token, _ := values[0].(string)
	id, _ := values[1].(string)
	if id == "" {
		return Lease{}, false, nil
	}
	return Lease{Key: key, Token: token, ID: id}, true, nil
}

// Ping проверяет соединение, нужен для /ready.
func (r *RedisRegistry) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
