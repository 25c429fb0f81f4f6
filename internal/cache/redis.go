package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "gridtip:"

// RedisCache is a Cache shared between instances through redis.
// Each tag is a set of the value keys filed under it.
type RedisCache struct {
	client *redis.Client
}

var _ Cache = (*RedisCache)(nil)

// NewRedisCache connects to redis at addr and verifies the connection
func NewRedisCache(ctx context.Context, addr, password string, db int) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return &RedisCache{client: client}, nil
}

// NewRedisCacheFromClient wraps an existing client
func NewRedisCacheFromClient(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func valueKey(key string) string { return keyPrefix + "v:" + key }
func tagKey(tag string) string   { return keyPrefix + "t:" + tag }

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := c.client.Get(ctx, valueKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// setScript stores a value and files it under its tags. A tag set lives as long as its
// longest-lived member: it never expires while it holds a key without a ttl.
//
// KEYS[1] value key, KEYS[2..] tag keys; ARGV[1] value, ARGV[2] ttl in ms (0 = none)
var setScript = redis.NewScript(`
local ttl = tonumber(ARGV[2])
if ttl > 0 then
	redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
else
	redis.call('SET', KEYS[1], ARGV[1])
end
for i = 2, #KEYS do
	local current = redis.call('PTTL', KEYS[i])
	redis.call('SADD', KEYS[i], KEYS[1])
	if ttl <= 0 then
		redis.call('PERSIST', KEYS[i])
	elseif current == -2 or (current >= 0 and current < ttl) then
		redis.call('PEXPIRE', KEYS[i], ARGV[2])
	end
end
return 1
`)

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration, tags ...string) error {
	ms := ttl.Milliseconds()
	if ttl > 0 && ms == 0 {
		ms = 1
	}
	keys := make([]string, 0, len(tags)+1)
	keys = append(keys, valueKey(key))
	for _, tag := range tags {
		keys = append(keys, tagKey(tag))
	}
	return setScript.Run(ctx, c.client, keys, value, ms).Err()
}

func (c *RedisCache) InvalidateTags(ctx context.Context, tags ...string) error {
	for _, tag := range tags {
		members, err := c.client.SMembers(ctx, tagKey(tag)).Result()
		if err != nil {
			return err
		}
		keys := append(members, tagKey(tag))
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			return err
		}
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
