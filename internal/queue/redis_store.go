package queue

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// insertScript performs the whole O2/O3/O4 insert decision as one Lua
// script, so the read of the current key set and the write of the new
// entry happen inside a single Redis-side transaction instead of a
// client-side WATCH/MULTI loop.
//
// KEYS[1] = index zset (member = stringified key, score = key)
// KEYS[2] = values hash (field = stringified key, value = entry bytes)
// ARGV[1] = maxSize
// ARGV[2] = "1" for head insert, "0" for tail insert
// ARGV[3] = value bytes
var insertScript = redis.NewScript(`
local idxKey = KEYS[1]
local valKey = KEYS[2]
local maxSize = tonumber(ARGV[1])
local toStart = ARGV[2] == "1"
local value = ARGV[3]

if redis.call('ZCARD', idxKey) >= maxSize then
	return 0
end

local newKey
if toStart then
	local head = redis.call('ZRANGE', idxKey, 0, 0, 'WITHSCORES')
	if #head == 0 then
		newKey = 0
	else
		newKey = tonumber(head[2]) - 1
	end
else
	local tail = redis.call('ZRANGE', idxKey, -1, -1, 'WITHSCORES')
	if #tail == 0 then
		newKey = 1
	else
		newKey = tonumber(tail[2]) + 1
	end
end

redis.call('ZADD', idxKey, newKey, tostring(newKey))
redis.call('HSET', valKey, tostring(newKey), value)
return 1
`)

// popScript reads the key at the requested ascending-order offset and
// deletes it in the same transaction, matching the "delete is unconditional
// at the supplied offset" rule from the durable queue's pop operation.
//
// KEYS[1] = index zset
// KEYS[2] = values hash
// ARGV[1] = offset
var popScript = redis.NewScript(`
local idxKey = KEYS[1]
local valKey = KEYS[2]
local offset = tonumber(ARGV[1])

local members = redis.call('ZRANGE', idxKey, offset, offset)
if #members == 0 then
	return false
end

local member = members[1]
local value = redis.call('HGET', valKey, member)
redis.call('ZREM', idxKey, member)
redis.call('HDEL', valKey, member)
return value
`)

// RedisStore is the production OrderedStore backed by a Redis sorted set
// (ordering, O1) plus a companion hash (values), the same driver
// (github.com/redis/go-redis/v9) the job queue this package is descended
// from used for its stream and retry/scheduled sets.
type RedisStore struct {
	client    *redis.Client
	indexKey  string
	valuesKey string
}

// NewRedisStore builds the (dbName, storeName) keyspace for a single durable
// queue. Multiple queues on the same client get independent keys as long as
// the (dbName, storeName) pairs differ.
func NewRedisStore(client *redis.Client, dbName, storeName string) *RedisStore {
	prefix := fmt.Sprintf("%s:%s", dbName, storeName)
	return &RedisStore{
		client:    client,
		indexKey:  prefix + ":index",
		valuesKey: prefix + ":values",
	}
}

// NewRedisStoreFactory adapts NewRedisStore to the transport.StoreFactory
// shape consumed by transport.WithStore.
func NewRedisStoreFactory(client *redis.Client) func(dbName, storeName string) (OrderedStore, error) {
	return func(dbName, storeName string) (OrderedStore, error) {
		return NewRedisStore(client, dbName, storeName), nil
	}
}

func (s *RedisStore) Insert(ctx context.Context, value []byte, maxSize int, toStart bool) error {
	flag := "0"
	if toStart {
		flag = "1"
	}
	_, err := insertScript.Run(ctx, s.client, []string{s.indexKey, s.valuesKey}, maxSize, flag, value).Result()
	if err != nil {
		return fmt.Errorf("%w: insert: %s", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *RedisStore) Pop(ctx context.Context, offset int) ([]byte, bool, error) {
	res, err := popScript.Run(ctx, s.client, []string{s.indexKey, s.valuesKey}, offset).Result()
	if err == redis.Nil {
		// The script's Lua false (no entry at offset) comes back from
		// go-redis as redis.Nil.
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: pop: %s", ErrStoreUnavailable, err)
	}
	switch v := res.(type) {
	case nil:
		return nil, false, nil
	case bool:
		// Lua false surfaces as redis.Nil, already handled above; this
		// branch only guards against an explicit boolean false result.
		return nil, false, nil
	case string:
		return []byte(v), true, nil
	default:
		return nil, false, fmt.Errorf("%w: pop: unexpected reply type %T", ErrStoreUnavailable, v)
	}
}

func (s *RedisStore) Size(ctx context.Context) (int, error) {
	n, err := s.client.ZCard(ctx, s.indexKey).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: size: %s", ErrStoreUnavailable, err)
	}
	return int(n), nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.indexKey, s.valuesKey).Err(); err != nil {
		return fmt.Errorf("%w: clear: %s", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
