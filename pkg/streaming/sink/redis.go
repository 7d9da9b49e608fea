package sink

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	rfctx "github.com/AdamDotNet/recflow/pkg/common/context"
	rferrors "github.com/AdamDotNet/recflow/pkg/common/errors"
	"github.com/AdamDotNet/recflow/pkg/common/validation"
)

// DefaultStagingTTL bounds how long the staging data of an interrupted export
// survives.
const DefaultStagingTTL = time.Hour

// RedisClient is the subset of redis.Cmdable the Redis sink needs.
// *redis.Client and *redis.ClusterClient satisfy it.
type RedisClient interface {
	Append(ctx context.Context, key, value string) *redis.IntCmd
	TxPipelined(ctx context.Context, fn func(redis.Pipeliner) error) ([]redis.Cmder, error)
}

// RedisConfig configures a Redis sink.
type RedisConfig struct {
	// Key receives the finished document when the sink is closed.
	Key string

	// StagingKey accumulates chunks while writing. Sinks sharing a staging
	// key overwrite each other.
	// Default: Key + ":staging:" + a random UUID
	StagingKey string

	// StagingTTL expires staging data left behind by an export that never
	// closed.
	// Default: DefaultStagingTTL
	StagingTTL time.Duration

	// TTL is applied to Key after publishing. Zero keeps the key forever.
	TTL time.Duration
}

// Redis accumulates a document in its own staging string key with APPEND and
// publishes it under the final key on close with RENAME, so readers never see
// a partial export and concurrent exports to the same key do not mix.
type Redis struct {
	client  RedisClient
	config  RedisConfig
	started bool
	closed  bool
}

// NewRedis creates a Redis sink.
func NewRedis(client RedisClient, config RedisConfig) (*Redis, error) {
	if err := validation.ValidateNotNil("sink", "client", client); err != nil {
		return nil, err
	}
	if err := validation.ValidateNotEmpty("sink", "key", config.Key); err != nil {
		return nil, err
	}
	if err := validation.ValidateNonNegativeDuration("sink", "ttl", config.TTL); err != nil {
		return nil, err
	}
	if err := validation.ValidateNonNegativeDuration("sink", "staging_ttl", config.StagingTTL); err != nil {
		return nil, err
	}
	if config.StagingKey == "" {
		config.StagingKey = config.Key + ":staging:" + uuid.NewString()
	}
	if config.StagingKey == config.Key {
		return nil, rferrors.NewValidationError("sink", "staging_key", config.StagingKey, "must differ from key")
	}
	if config.StagingTTL == 0 {
		config.StagingTTL = DefaultStagingTTL
	}
	return &Redis{client: client, config: config}, nil
}

// WriteContext appends p to the staging key. The first write also clears
// leftovers under an explicitly configured staging key and sets its expiry.
func (r *Redis) WriteContext(ctx context.Context, p []byte) error {
	if r.closed {
		return rferrors.ErrClosed
	}
	if err := rfctx.Check(ctx); err != nil {
		return err
	}
	if r.started {
		return r.client.Append(ctx, r.config.StagingKey, string(p)).Err()
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.config.StagingKey)
		pipe.Append(ctx, r.config.StagingKey, string(p))
		pipe.Expire(ctx, r.config.StagingKey, r.config.StagingTTL)
		return nil
	})
	if err != nil {
		return err
	}
	r.started = true
	return nil
}

// FlushContext has nothing to push: every APPEND is already durable on the server.
func (r *Redis) FlushContext(ctx context.Context) error {
	if r.closed {
		return rferrors.ErrClosed
	}
	return rfctx.Check(ctx)
}

// CloseContext renames the staging key to the final key and sets the final
// expiry in the same MULTI/EXEC. Closing a sink that never received data
// publishes nothing.
func (r *Redis) CloseContext(ctx context.Context) error {
	if r.closed {
		return nil
	}
	r.closed = true

	if !r.started {
		return nil
	}
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Rename(ctx, r.config.StagingKey, r.config.Key)
		// RENAME carries the staging expiry over
		if r.config.TTL > 0 {
			pipe.Expire(ctx, r.config.Key, r.config.TTL)
		} else {
			pipe.Persist(ctx, r.config.Key)
		}
		return nil
	})
	return err
}

// Discard drops the staged data without publishing it and closes the sink.
func (r *Redis) Discard(ctx context.Context) error {
	if r.closed {
		return nil
	}
	r.closed = true

	if !r.started {
		return nil
	}
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.config.StagingKey)
		return nil
	})
	return err
}

// Key returns the key the document is published under.
func (r *Redis) Key() string { return r.config.Key }

// StagingKey returns the key chunks are appended to.
func (r *Redis) StagingKey() string { return r.config.StagingKey }
