package testutil

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// MemRedis is an in-memory stand-in for the string commands the Redis sink
// issues. Commands queued in TxPipelined are applied together under one lock,
// like MULTI/EXEC.
type MemRedis struct {
	mu     sync.Mutex
	values map[string]string
	ttl    map[string]time.Duration
	calls  []string
	fail   map[string]error
}

// NewMemRedis creates an empty MemRedis.
func NewMemRedis() *MemRedis {
	return &MemRedis{
		values: map[string]string{},
		ttl:    map[string]time.Duration{},
		fail:   map[string]error{},
	}
}

// FailOn makes every later cmd (APPEND, DEL, EXPIRE, PERSIST, RENAME) fail with err.
func (m *MemRedis) FailOn(cmd string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail[cmd] = err
}

// Set stores value under key.
func (m *MemRedis) Set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}

// Get returns the value stored under key.
func (m *MemRedis) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok
}

// TTL returns the expiry set on key, zero when it has none.
func (m *MemRedis) TTL(key string) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ttl[key]
}

// Keys returns the stored keys with the given prefix, sorted.
func (m *MemRedis) Keys(prefix string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for k := range m.values {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys
}

// Calls returns the commands issued so far. Transactions appear as MULTI ... EXEC.
func (m *MemRedis) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.calls)
}

// Append implements the APPEND command.
func (m *MemRedis) Append(_ context.Context, key, value string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, err := m.apply(memCmd{name: "APPEND", key: key, value: value})
	return redis.NewIntResult(n, err)
}

// TxPipelined queues the commands fn issues and applies them atomically. The
// first failing command's error is returned; the others still apply.
func (m *MemRedis) TxPipelined(ctx context.Context, fn func(redis.Pipeliner) error) ([]redis.Cmder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pipe := &memPipe{}
	if err := fn(pipe); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "MULTI")
	var first error
	for _, c := range pipe.queued {
		if _, err := m.apply(c); err != nil && first == nil {
			first = err
		}
	}
	m.calls = append(m.calls, "EXEC")
	return nil, first
}

type memCmd struct {
	name, key, value string
	ttl              time.Duration
}

// apply runs c; m.mu must be held.
func (m *MemRedis) apply(c memCmd) (int64, error) {
	m.calls = append(m.calls, c.name)
	if err := m.fail[c.name]; err != nil {
		return 0, err
	}

	switch c.name {
	case "APPEND":
		m.values[c.key] += c.value
		return int64(len(m.values[c.key])), nil
	case "DEL":
		_, ok := m.values[c.key]
		delete(m.values, c.key)
		delete(m.ttl, c.key)
		if ok {
			return 1, nil
		}
		return 0, nil
	case "EXPIRE":
		if _, ok := m.values[c.key]; !ok {
			return 0, nil
		}
		m.ttl[c.key] = c.ttl
		return 1, nil
	case "PERSIST":
		delete(m.ttl, c.key)
		return 1, nil
	case "RENAME":
		v, ok := m.values[c.key]
		if !ok {
			return 0, errors.New("ERR no such key")
		}
		ttl, hasTTL := m.ttl[c.key]
		delete(m.values, c.key)
		delete(m.ttl, c.key)
		m.values[c.value] = v
		delete(m.ttl, c.value)
		if hasTTL {
			m.ttl[c.value] = ttl
		}
		return 1, nil
	}
	return 0, errors.New("ERR unknown command " + c.name)
}

// memPipe records the commands of a transaction. Commands the sink never
// issues are left to the embedded nil Pipeliner and panic if called.
type memPipe struct {
	redis.Pipeliner
	queued []memCmd
}

func (p *memPipe) Append(_ context.Context, key, value string) *redis.IntCmd {
	p.queued = append(p.queued, memCmd{name: "APPEND", key: key, value: value})
	return redis.NewIntResult(0, nil)
}

func (p *memPipe) Del(_ context.Context, keys ...string) *redis.IntCmd {
	for _, k := range keys {
		p.queued = append(p.queued, memCmd{name: "DEL", key: k})
	}
	return redis.NewIntResult(0, nil)
}

func (p *memPipe) Expire(_ context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	p.queued = append(p.queued, memCmd{name: "EXPIRE", key: key, ttl: expiration})
	return redis.NewBoolResult(false, nil)
}

func (p *memPipe) Persist(_ context.Context, key string) *redis.BoolCmd {
	p.queued = append(p.queued, memCmd{name: "PERSIST", key: key})
	return redis.NewBoolResult(false, nil)
}

func (p *memPipe) Rename(_ context.Context, key, newkey string) *redis.StatusCmd {
	p.queued = append(p.queued, memCmd{name: "RENAME", key: key, value: newkey})
	return redis.NewStatusResult("", nil)
}
