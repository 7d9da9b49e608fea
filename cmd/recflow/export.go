package main

import (
	"context"
	"errors"
	"io"
	"iter"
	"os"
	"slices"

	"github.com/klauspost/compress/gzip"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/AdamDotNet/recflow/internal/config"
	"github.com/AdamDotNet/recflow/internal/demo"
	"github.com/AdamDotNet/recflow/internal/snapshot"
	rfctx "github.com/AdamDotNet/recflow/pkg/common/context"
	"github.com/AdamDotNet/recflow/pkg/streaming/csvwriter"
	"github.com/AdamDotNet/recflow/pkg/streaming/sink"
	"github.com/AdamDotNet/recflow/pkg/streaming/writer"
)

type exportOptions struct {
	output string
	small  bool
	gzip   bool
	redis  bool
}

func newExportCommand() *cobra.Command {
	var opts exportOptions

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a demo record set to a file, stdout or Redis",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := rfctx.WithTimeoutOrCancel(cmd.Context(), cfg.WriteTimeout)
			defer cancel()

			if opts.redis {
				return exportRedis(ctx, cfg, logger)
			}
			return exportFile(ctx, cmd.OutOrStdout(), cfg, opts, logger)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.output, "output", "o", "-", `destination file, "-" for stdout`)
	flags.BoolVar(&opts.small, "small", false, "export the three-record set instead of --record-count records")
	flags.BoolVar(&opts.gzip, "gzip", false, "gzip the output")
	flags.BoolVar(&opts.redis, "redis", false, "publish to --redis-key on --redis-addr instead of a file")
	return cmd
}

func exportRedis(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	if cfg.RedisAddr == "" {
		return errors.New("--redis requires --redis-addr")
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer client.Close()

	exporter, err := snapshot.New(client, snapshot.Config{
		Key:    cfg.RedisKey,
		TTL:    cfg.SnapshotTTL,
		Count:  cfg.RecordCount,
		Writer: writerConfig(cfg),
	}, logger)
	if err != nil {
		return err
	}
	return exporter.Run(ctx)
}

// exportFile writes through the async adapter so that the record writer never
// touches the blocking file or stdout handle itself.
func exportFile(ctx context.Context, stdout io.Writer, cfg config.Config, opts exportOptions, logger zerolog.Logger) (err error) {
	dest := stdout
	toFile := opts.output != "" && opts.output != "-"
	if toFile {
		f, err := os.Create(opts.output)
		if err != nil {
			return err
		}
		dest = f
	}

	aw, err := writer.NewWithConfig(dest, writer.Config{CloseUnderlying: toFile})
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, aw.CloseContext(ctx))
	}()

	var out sink.Sink = aw
	var gz *sink.Gzip
	if opts.gzip {
		if gz, err = sink.NewGzip(aw, gzip.DefaultCompression); err != nil {
			return err
		}
		out = gz
	}

	w, err := csvwriter.New[demo.Record](writerConfig(cfg))
	if err != nil {
		return err
	}
	if err := w.Open(out, nil); err != nil {
		return err
	}

	var records iter.Seq[demo.Record] = demo.Seq(cfg.RecordCount)
	if opts.small {
		records = slices.Values(demo.Small())
	}

	err = w.WriteHeader(ctx)
	if err == nil {
		err = w.WriteSeq(ctx, records)
	}
	err = errors.Join(err, w.Close(ctx))
	if gz != nil {
		err = errors.Join(err, gz.CloseContext(ctx))
	}
	if err != nil {
		return err
	}

	stats := w.Stats()
	logger.Debug().
		Str("output", opts.output).
		Int64("records", stats.Records).
		Int64("bytes", stats.BytesWritten).
		Msg("export finished")
	return nil
}
