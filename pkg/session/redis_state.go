package session

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/kadirpekel/tribunal/pkg/agent"
)

// appendScript moves a scalar stored under the field into the list before
// pushing, so Append behaves like MemoryState in a single round trip.
var appendScript = backend.NewScript(`
local scalar = redis.call('HGET', KEYS[1], ARGV[1])
if scalar then
  redis.call('HDEL', KEYS[1], ARGV[1])
  redis.call('RPUSH', KEYS[2], scalar)
end
redis.call('SADD', KEYS[3], ARGV[1])
return redis.call('RPUSH', KEYS[2], ARGV[2])
`)

// RedisState is an agent.State kept in Redis.
//
// Per session it uses a hash for scalar fields, one list per accumulator
// field and a set indexing field names. Appends are RPUSHes and therefore
// atomic across processes sharing the session.
type RedisState struct {
	base      context.Context
	client    *backend.Client
	prefix    string
	sessionID string
	ttl       time.Duration
	timeout   time.Duration
}

// RedisOption configures a RedisState.
type RedisOption func(*RedisState)

// WithRedisPrefix sets the key prefix.
func WithRedisPrefix(prefix string) RedisOption {
	return func(s *RedisState) {
		s.prefix = prefix
	}
}

// WithRedisTTL expires session keys after ttl of inactivity.
func WithRedisTTL(ttl time.Duration) RedisOption {
	return func(s *RedisState) {
		s.ttl = ttl
	}
}

// WithRedisContext sets the context every round trip derives from, so
// cancelling it aborts pending and later calls.
func WithRedisContext(ctx context.Context) RedisOption {
	return func(s *RedisState) {
		s.base = ctx
	}
}

// WithRedisTimeout bounds every Redis round trip.
func WithRedisTimeout(timeout time.Duration) RedisOption {
	return func(s *RedisState) {
		s.timeout = timeout
	}
}

// NewRedisState returns the state of sessionID stored through client.
func NewRedisState(client *backend.Client, sessionID string, opts ...RedisOption) *RedisState {
	s := &RedisState{
		base:      context.Background(),
		client:    client,
		prefix:    "tribunal:",
		sessionID: sessionID,
		timeout:   5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RedisStateFactory returns a StateFactory creating RedisState values that
// share client. Each state's round trips derive from the context the
// session was created with.
func RedisStateFactory(client *backend.Client, opts ...RedisOption) StateFactory {
	return func(ctx context.Context, sessionID string) (agent.State, error) {
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis unavailable: %w", err)
		}
		return NewRedisState(client, sessionID, append([]RedisOption{WithRedisContext(ctx)}, opts...)...), nil
	}
}

func (s *RedisState) scalarsKey() string { return s.prefix + s.sessionID + ":scalars" }
func (s *RedisState) fieldsKey() string  { return s.prefix + s.sessionID + ":fields" }
func (s *RedisState) listKey(field string) string {
	return s.prefix + s.sessionID + ":list:" + field
}

func (s *RedisState) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(s.base, s.timeout)
}

// Get returns a string for scalar fields, a []string for accumulators and
// nil for fields never written.
func (s *RedisState) Get(key string) (any, error) {
	ctx, cancel := s.ctx()
	defer cancel()
	return s.get(ctx, key)
}

func (s *RedisState) get(ctx context.Context, key string) (any, error) {
	scalar, err := s.client.HGet(ctx, s.scalarsKey(), key).Result()
	if err == nil {
		return scalar, nil
	}
	if !errors.Is(err, backend.Nil) {
		return nil, fmt.Errorf("failed to read field %q: %w", key, err)
	}

	list, err := s.client.LRange(ctx, s.listKey(key), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read field %q: %w", key, err)
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list, nil
}

// Set overwrites a field. []string values are stored as accumulators,
// anything else as its string form.
func (s *RedisState) Set(key string, val any) error {
	ctx, cancel := s.ctx()
	defer cancel()

	_, err := s.client.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
		pipe.HDel(ctx, s.scalarsKey(), key)
		pipe.Del(ctx, s.listKey(key))
		if list, ok := val.([]string); ok {
			if len(list) > 0 {
				pipe.RPush(ctx, s.listKey(key), toAny(list)...)
			}
		} else {
			pipe.HSet(ctx, s.scalarsKey(), key, Text(val))
		}
		pipe.SAdd(ctx, s.fieldsKey(), key)
		s.expire(ctx, pipe, key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to set field %q: %w", key, err)
	}

	logMutation("State set", key, val)
	return nil
}

// Append pushes value onto the accumulator field key.
func (s *RedisState) Append(key string, value string) error {
	ctx, cancel := s.ctx()
	defer cancel()

	keys := []string{s.scalarsKey(), s.listKey(key), s.fieldsKey()}
	if err := appendScript.Run(ctx, s.client, keys, key, value).Err(); err != nil {
		return fmt.Errorf("failed to append to field %q: %w", key, err)
	}
	if s.ttl > 0 {
		pipe := s.client.Pipeline()
		s.expire(ctx, pipe, key)
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("failed to refresh ttl: %w", err)
		}
	}

	logMutation("State appended", key, value)
	return nil
}

// Delete removes a field.
func (s *RedisState) Delete(key string) error {
	ctx, cancel := s.ctx()
	defer cancel()

	pipe := s.client.TxPipeline()
	pipe.HDel(ctx, s.scalarsKey(), key)
	pipe.Del(ctx, s.listKey(key))
	pipe.SRem(ctx, s.fieldsKey(), key)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete field %q: %w", key, err)
	}
	return nil
}

// All yields every field in key order. Read errors end the sequence.
func (s *RedisState) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		ctx, cancel := s.ctx()
		defer cancel()

		fields, err := s.client.SMembers(ctx, s.fieldsKey()).Result()
		if err != nil {
			return
		}
		slices.Sort(fields)
		for _, field := range fields {
			val, err := s.get(ctx, field)
			if err != nil {
				return
			}
			if val == nil {
				continue
			}
			if !yield(field, val) {
				return
			}
		}
	}
}

func (s *RedisState) expire(ctx context.Context, pipe backend.Pipeliner, field string) {
	if s.ttl <= 0 {
		return
	}
	pipe.Expire(ctx, s.scalarsKey(), s.ttl)
	pipe.Expire(ctx, s.fieldsKey(), s.ttl)
	pipe.Expire(ctx, s.listKey(field), s.ttl)
}

func toAny(list []string) []any {
	out := make([]any, len(list))
	for i, v := range list {
		out[i] = v
	}
	return out
}

var _ agent.State = (*RedisState)(nil)
