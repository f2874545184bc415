package identity

import (
	"context"
	"encoding/json"
	"fmt"

	"mentor-portal/internal/auth"
	"mentor-portal/internal/logger"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps one browser's record under portal:<device>:<entry>.
// Entries carry no TTL; they only disappear through Purge.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a Redis-backed identity store for one device.
func NewRedisStore(client *redis.Client, deviceID string) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "portal:" + deviceID + ":",
	}
}

func (r *RedisStore) key(entry string) string {
	return r.prefix + entry
}

func (r *RedisStore) Read(ctx context.Context) (auth.Claim, bool) {
	val, err := r.client.Get(ctx, r.key(EntryUser)).Result()
	if err == redis.Nil {
		return auth.Claim{}, false
	}
	if err != nil {
		logger.Warn("identity store read failed", map[string]any{
			"error": err.Error(),
		})
		return auth.Claim{}, false
	}

	claim, err := auth.DecodeClaim(val)
	if err != nil {
		logger.Debug("identity store holds malformed claim", map[string]any{
			"error": err.Error(),
		})
		return auth.Claim{}, false
	}

	return claim, true
}

// Write replaces the claim and drops the profiles cached under the previous
// one in a single MULTI/EXEC.
func (r *RedisStore) Write(ctx context.Context, claim auth.Claim) error {
	if !claim.HasEmail() {
		return ErrMissingEmail
	}

	data, err := auth.EncodeClaim(claim)
	if err != nil {
		return err
	}

	profiles := make([]string, 0, len(ProfileKinds))
	for _, k := range ProfileKinds {
		profiles = append(profiles, r.key(string(k)))
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, profiles...)
		pipe.Set(ctx, r.key(EntryUser), data, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("identity: failed to write claim: %w", err)
	}
	return nil
}

// Purge deletes every entry with a single DEL, which Redis applies atomically.
func (r *RedisStore) Purge(ctx context.Context) error {
	names := entryNames()
	keys := make([]string, 0, len(names))
	for _, n := range names {
		keys = append(keys, r.key(n))
	}

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("identity: failed to purge: %w", err)
	}
	return nil
}

func (r *RedisStore) ReadProfile(ctx context.Context, kind ProfileKind) (json.RawMessage, bool) {
	if _, err := ParseProfileKind(string(kind)); err != nil {
		return nil, false
	}

	val, err := r.client.Get(ctx, r.key(string(kind))).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		logger.Warn("identity store profile read failed", map[string]any{
			"profile": string(kind),
			"error":   err.Error(),
		})
		return nil, false
	}

	if !json.Valid(val) {
		return nil, false
	}
	return json.RawMessage(val), true
}

func (r *RedisStore) WriteProfile(ctx context.Context, kind ProfileKind, blob json.RawMessage) error {
	if err := validateProfile(kind, blob); err != nil {
		return err
	}

	if err := r.client.Set(ctx, r.key(string(kind)), []byte(blob), 0).Err(); err != nil {
		return fmt.Errorf("identity: failed to write %s: %w", kind, err)
	}
	return nil
}

// RedisFactory hands out RedisStores sharing one client.
type RedisFactory struct {
	client *redis.Client
}

func NewRedisFactory(client *redis.Client) *RedisFactory {
	return &RedisFactory{client: client}
}

func (f *RedisFactory) ForDevice(deviceID string) Store {
	return NewRedisStore(f.client, deviceID)
}
