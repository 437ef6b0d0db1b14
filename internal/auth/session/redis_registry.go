package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// swapScript is a compare-and-swap on the registry entry. Running it
// server-side keeps renewal rotation atomic without multi-key
// transactions.
var swapScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	redis.call("SET", KEYS[1], ARGV[2])
	return 1
end
return 0
`)

// RedisRegistry is the production Registry. Entries carry no TTL: they
// are overwritten on login/renewal and deleted on logout, never
// expired.
type RedisRegistry struct {
	client *redis.Client
	prefix string
}

func NewRedisRegistry(client *redis.Client) *RedisRegistry {
	return &RedisRegistry{
		client: client,
		prefix: "session:",
	}
}

func (r *RedisRegistry) key(principalID string) string {
	return r.prefix + principalID
}

func (r *RedisRegistry) Put(ctx context.Context, principalID, sessionID string) error {
	if principalID == "" || sessionID == "" {
		return fmt.Errorf("session: missing principal_id or session_id")
	}
	return r.client.Set(ctx, r.key(principalID), sessionID, 0).Err()
}

func (r *RedisRegistry) Validate(ctx context.Context, principalID, sessionID string) error {
	val, err := r.client.Get(ctx, r.key(principalID)).Result()
	if errors.Is(err, redis.Nil) {
		return ErrSessionInvalid
	}
	if err != nil {
		return err
	}

	if val != sessionID {
		return ErrSessionInvalid
	}
	return nil
}

func (r *RedisRegistry) Swap(ctx context.Context, principalID, oldID, newID string) error {
	res, err := swapScript.Run(ctx, r.client, []string{r.key(principalID)}, oldID, newID).Int()
	if err != nil {
		return err
	}
	if res != 1 {
		return ErrSessionInvalid
	}
	return nil
}

func (r *RedisRegistry) Invalidate(ctx context.Context, principalID string) error {
	return r.client.Del(ctx, r.key(principalID)).Err()
}
