// Package config loads recflow service settings from flags and RECFLOW_*
// environment variables.
package config

import (
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	rferrors "github.com/AdamDotNet/recflow/pkg/common/errors"
	"github.com/AdamDotNet/recflow/pkg/common/validation"
	"github.com/AdamDotNet/recflow/pkg/scheduling/scheduler"
)

// EnvPrefix prefixes every environment variable, e.g. RECFLOW_LISTEN_ADDR.
const EnvPrefix = "RECFLOW"

// Flag names. Environment variables use the upper-cased name with dashes
// replaced by underscores.
const (
	FlagListenAddr       = "listen-addr"
	FlagLogLevel         = "log-level"
	FlagLogFormat        = "log-format"
	FlagMetrics          = "metrics"
	FlagBufferSize       = "buffer-size"
	FlagRecordCount      = "record-count"
	FlagMaxRecordCount   = "max-record-count"
	FlagWriteTimeout     = "write-timeout"
	FlagMaxExports       = "max-concurrent-exports"
	FlagQueueTimeout     = "queue-timeout"
	FlagShutdownTimeout  = "shutdown-timeout"
	FlagRedisAddr        = "redis-addr"
	FlagRedisKey         = "redis-key"
	FlagSnapshotSchedule = "snapshot-schedule"
	FlagSnapshotTTL      = "snapshot-ttl"
)

// Config holds service configuration.
type Config struct {
	ListenAddr string
	LogLevel   string
	LogFormat  string
	Metrics    bool

	// BufferSize is the record writer buffer in bytes.
	BufferSize int
	// RecordCount is the default size of the large export.
	RecordCount int
	// MaxRecordCount bounds the ?count= override.
	MaxRecordCount int
	// WriteTimeout bounds a single export.
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	// MaxConcurrentExports caps exports in flight; QueueTimeout is how long
	// a request waits for a slot.
	MaxConcurrentExports int
	QueueTimeout         time.Duration

	// RedisAddr enables Redis snapshots when non-empty.
	RedisAddr        string
	RedisKey         string
	SnapshotSchedule string
	SnapshotTTL      time.Duration
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		ListenAddr:       ":8080",
		LogLevel:         "info",
		LogFormat:        "console",
		Metrics:          true,
		BufferSize:       4096,
		RecordCount:      1000,
		MaxRecordCount:   1_000_000,
		WriteTimeout:     30 * time.Second,
		ShutdownTimeout:  10 * time.Second,
		RedisKey:         "recflow:demo",
		SnapshotSchedule: "@every 5m",
		SnapshotTTL:      time.Hour,

		MaxConcurrentExports: 8,
		QueueTimeout:         5 * time.Second,
	}
}

// BindFlags registers every setting on flags with its default value.
func BindFlags(flags *pflag.FlagSet) {
	d := DefaultConfig()
	flags.String(FlagListenAddr, d.ListenAddr, "HTTP listen address")
	flags.String(FlagLogLevel, d.LogLevel, "log level (trace, debug, info, warn, error)")
	flags.String(FlagLogFormat, d.LogFormat, "log format (console, json)")
	flags.Bool(FlagMetrics, d.Metrics, "record Prometheus metrics and serve /metrics")
	flags.Int(FlagBufferSize, d.BufferSize, "record writer buffer size in bytes")
	flags.Int(FlagRecordCount, d.RecordCount, "records written by /WriteRecords and snapshots")
	flags.Int(FlagMaxRecordCount, d.MaxRecordCount, "largest count accepted by /WriteRecords?count=")
	flags.Duration(FlagWriteTimeout, d.WriteTimeout, "deadline for a single export")
	flags.Int(FlagMaxExports, d.MaxConcurrentExports, "exports served at the same time")
	flags.Duration(FlagQueueTimeout, d.QueueTimeout, "wait for a free export slot before answering 503")
	flags.Duration(FlagShutdownTimeout, d.ShutdownTimeout, "grace period for in-flight requests on shutdown")
	flags.String(FlagRedisAddr, d.RedisAddr, "Redis address for snapshots, empty disables them")
	flags.String(FlagRedisKey, d.RedisKey, "Redis key holding the latest snapshot")
	flags.String(FlagSnapshotSchedule, d.SnapshotSchedule, "cron expression for Redis snapshots")
	flags.Duration(FlagSnapshotTTL, d.SnapshotTTL, "expiry of the snapshot key, 0 keeps it forever")
}

// Load resolves the configuration. Explicitly set flags win over environment
// variables, which win over flag defaults.
func Load(flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(flags); err != nil {
		return Config{}, rferrors.NewOperationError("config", "Load", err)
	}

	c := Config{
		ListenAddr:       v.GetString(FlagListenAddr),
		LogLevel:         v.GetString(FlagLogLevel),
		LogFormat:        v.GetString(FlagLogFormat),
		Metrics:          v.GetBool(FlagMetrics),
		BufferSize:       v.GetInt(FlagBufferSize),
		RecordCount:      v.GetInt(FlagRecordCount),
		MaxRecordCount:   v.GetInt(FlagMaxRecordCount),
		WriteTimeout:     v.GetDuration(FlagWriteTimeout),
		ShutdownTimeout:  v.GetDuration(FlagShutdownTimeout),
		RedisAddr:        strings.TrimSpace(v.GetString(FlagRedisAddr)),
		RedisKey:         v.GetString(FlagRedisKey),
		SnapshotSchedule: v.GetString(FlagSnapshotSchedule),
		SnapshotTTL:      v.GetDuration(FlagSnapshotTTL),

		MaxConcurrentExports: v.GetInt(FlagMaxExports),
		QueueTimeout:         v.GetDuration(FlagQueueTimeout),
	}
	return c, c.Validate()
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := validation.ValidateNotEmpty("config", FlagListenAddr, c.ListenAddr); err != nil {
		return err
	}
	if err := validation.ValidatePositive("config", FlagBufferSize, c.BufferSize); err != nil {
		return err
	}
	if err := validation.ValidatePositive("config", FlagRecordCount, c.RecordCount); err != nil {
		return err
	}
	if err := validation.ValidatePositive("config", FlagMaxRecordCount, c.MaxRecordCount); err != nil {
		return err
	}
	if c.RecordCount > c.MaxRecordCount {
		return rferrors.NewValidationError("config", FlagRecordCount, c.RecordCount, "exceeds "+FlagMaxRecordCount)
	}
	if err := validation.ValidateNonNegativeDuration("config", FlagWriteTimeout, c.WriteTimeout); err != nil {
		return err
	}
	if err := validation.ValidateNonNegativeDuration("config", FlagShutdownTimeout, c.ShutdownTimeout); err != nil {
		return err
	}
	if err := validation.ValidatePositive("config", FlagMaxExports, c.MaxConcurrentExports); err != nil {
		return err
	}
	if err := validation.ValidateNonNegativeDuration("config", FlagQueueTimeout, c.QueueTimeout); err != nil {
		return err
	}
	if c.RedisAddr == "" {
		return nil
	}
	if err := validation.ValidateNotEmpty("config", FlagRedisKey, c.RedisKey); err != nil {
		return err
	}
	if err := validation.ValidateNonNegativeDuration("config", FlagSnapshotTTL, c.SnapshotTTL); err != nil {
		return err
	}
	return scheduler.ValidateCronExpression(c.SnapshotSchedule)
}
