package redisinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "magic_link:"

// compareAndDelete atomically removes the key only when the stored code
// matches the submitted one. A plain GET followed by DEL leaves a window
// where two concurrent verifications of the same code both succeed.
var compareAndDelete = redis.NewScript(`
local v = redis.call("GET", KEYS[1])
if not v then
	return 0
end
local sep = string.find(v, ":", 1, true)
if not sep then
	return 0
end
if string.sub(v, 1, sep - 1) == ARGV[1] then
	redis.call("DEL", KEYS[1])
	return 1
end
return 0
`)

// CodeStore keeps one-time login codes in Redis, one live code per email.
// Entries expire server-side via the key TTL; nothing is ever written to
// durable storage. Value format: "<code>:<RFC3339 issue time>".
type CodeStore struct {
	client *redis.Client
}

func NewCodeStore(client *redis.Client) *CodeStore {
	return &CodeStore{client: client}
}

func key(email string) string { return keyPrefix + email }

// Set stores code for email with the given TTL, replacing any prior code.
func (s *CodeStore) Set(ctx context.Context, email, code string, ttl time.Duration) error {
	value := fmt.Sprintf("%s:%s", code, time.Now().UTC().Format(time.RFC3339))
	if err := s.client.Set(ctx, key(email), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// CompareAndDelete reports whether code matches the live entry for email,
// consuming it on a match. A mismatch leaves the entry in place so further
// attempts remain possible until it expires.
func (s *CodeStore) CompareAndDelete(ctx context.Context, email, code string) (bool, error) {
	n, err := compareAndDelete.Run(ctx, s.client, []string{key(email)}, code).Int()
	if err != nil {
		return false, fmt.Errorf("redis eval: %w", err)
	}
	return n == 1, nil
}

// Delete force-removes any live code for email, reporting whether one existed.
func (s *CodeStore) Delete(ctx context.Context, email string) (bool, error) {
	n, err := s.client.Del(ctx, key(email)).Result()
	if err != nil {
		return false, fmt.Errorf("redis del: %w", err)
	}
	return n > 0, nil
}

// TTL returns the remaining lifetime of the live code for email, and whether
// one exists. Redis reports -2 for a missing key and -1 for no expiry; both
// mean no usable code.
func (s *CodeStore) TTL(ctx context.Context, email string) (time.Duration, bool, error) {
	d, err := s.client.TTL(ctx, key(email)).Result()
	if err != nil {
		return 0, false, fmt.Errorf("redis ttl: %w", err)
	}
	if d < 0 {
		return 0, false, nil
	}
	return d, true, nil
}
