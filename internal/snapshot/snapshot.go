// Package snapshot exports the demo record set to Redis on a schedule.
package snapshot

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/AdamDotNet/recflow/internal/demo"
	"github.com/AdamDotNet/recflow/pkg/common/validation"
	"github.com/AdamDotNet/recflow/pkg/streaming/csvwriter"
	"github.com/AdamDotNet/recflow/pkg/streaming/sink"
)

// Config holds snapshot settings.
type Config struct {
	// Key receives the finished CSV document.
	Key string
	// TTL expires the published key. Zero keeps it.
	TTL time.Duration
	// Count is the number of demo records per snapshot.
	Count int
	// Writer configures the record writer. OwnsSink is ignored: the Redis
	// sink is only published after the writer closed cleanly.
	Writer csvwriter.Config
}

// Exporter writes one snapshot per Run. It satisfies scheduler.Job.
type Exporter struct {
	client sink.RedisClient
	config Config
	logger zerolog.Logger
}

// New creates an Exporter.
func New(client sink.RedisClient, config Config, logger zerolog.Logger) (*Exporter, error) {
	if err := validation.ValidateNotNil("snapshot", "client", client); err != nil {
		return nil, err
	}
	if err := validation.ValidateNotEmpty("snapshot", "key", config.Key); err != nil {
		return nil, err
	}
	if err := validation.ValidatePositive("snapshot", "count", config.Count); err != nil {
		return nil, err
	}
	if err := config.Writer.Validate(); err != nil {
		return nil, err
	}
	config.Writer.OwnsSink = false
	return &Exporter{client: client, config: config, logger: logger}, nil
}

// Run writes the header and Count records to a staging key and publishes it
// under Key. A failed run leaves the previous snapshot in place.
func (e *Exporter) Run(ctx context.Context) error {
	start := time.Now()

	rs, err := sink.NewRedis(e.client, sink.RedisConfig{Key: e.config.Key, TTL: e.config.TTL})
	if err != nil {
		return err
	}

	w, err := csvwriter.New[demo.Record](e.config.Writer)
	if err != nil {
		return err
	}
	if err := w.Open(rs, nil); err != nil {
		return err
	}

	err = e.write(ctx, w)
	if cerr := w.Close(ctx); err == nil {
		err = cerr
	}
	if err != nil {
		e.discard(ctx, rs)
		return err
	}
	if err := rs.CloseContext(ctx); err != nil {
		return err
	}

	stats := w.Stats()
	e.logger.Info().
		Str("key", rs.Key()).
		Int64("records", stats.Records).
		Int64("bytes", stats.BytesWritten).
		Dur("duration", time.Since(start)).
		Msg("snapshot published")
	return nil
}

// discard drops the staged chunks of a failed run. It runs even when ctx was
// canceled; the staging expiry covers the case where Redis is unreachable.
func (e *Exporter) discard(ctx context.Context, rs *sink.Redis) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), discardTimeout)
	defer cancel()
	if err := rs.Discard(ctx); err != nil {
		e.logger.Warn().Err(err).Str("staging_key", rs.StagingKey()).Msg("staging data left to expire")
	}
}

const discardTimeout = 5 * time.Second

func (e *Exporter) write(ctx context.Context, w *csvwriter.Writer[demo.Record]) error {
	if err := w.WriteHeader(ctx); err != nil {
		return err
	}
	return w.WriteSeq(ctx, demo.Seq(e.config.Count))
}
