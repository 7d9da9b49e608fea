package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/AdamDotNet/recflow/internal/testutil"
	rferrors "github.com/AdamDotNet/recflow/pkg/common/errors"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(flags)
	testutil.AssertNoError(t, flags.Parse(args))
	return flags
}

func TestLoad_Defaults(t *testing.T) {
	c, err := Load(newFlags(t))
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, c, DefaultConfig())
}

func TestLoad_Flags(t *testing.T) {
	c, err := Load(newFlags(t,
		"--listen-addr=127.0.0.1:9000",
		"--record-count=50",
		"--write-timeout=2s",
		"--metrics=false",
		"--max-concurrent-exports=2",
	))
	testutil.AssertNoError(t, err)

	testutil.AssertEqual(t, c.ListenAddr, "127.0.0.1:9000")
	testutil.AssertEqual(t, c.RecordCount, 50)
	testutil.AssertEqual(t, c.WriteTimeout, 2*time.Second)
	testutil.AssertEqual(t, c.Metrics, false)
	testutil.AssertEqual(t, c.MaxConcurrentExports, 2)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("RECFLOW_LISTEN_ADDR", ":7000")
	t.Setenv("RECFLOW_BUFFER_SIZE", "8192")
	t.Setenv("RECFLOW_REDIS_ADDR", "localhost:6379")
	t.Setenv("RECFLOW_SNAPSHOT_TTL", "90s")
	t.Setenv("RECFLOW_QUEUE_TIMEOUT", "250ms")

	c, err := Load(newFlags(t))
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, c.ListenAddr, ":7000")
	testutil.AssertEqual(t, c.BufferSize, 8192)
	testutil.AssertEqual(t, c.RedisAddr, "localhost:6379")
	testutil.AssertEqual(t, c.SnapshotTTL, 90*time.Second)
	testutil.AssertEqual(t, c.QueueTimeout, 250*time.Millisecond)
}

func TestLoad_FlagBeatsEnv(t *testing.T) {
	t.Setenv("RECFLOW_LOG_LEVEL", "debug")

	c, err := Load(newFlags(t, "--log-level=warn"))
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, c.LogLevel, "warn")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty listen addr", func(c *Config) { c.ListenAddr = "" }},
		{"zero buffer", func(c *Config) { c.BufferSize = 0 }},
		{"zero records", func(c *Config) { c.RecordCount = 0 }},
		{"records above max", func(c *Config) { c.RecordCount = c.MaxRecordCount + 1 }},
		{"negative timeout", func(c *Config) { c.WriteTimeout = -time.Second }},
		{"no export slots", func(c *Config) { c.MaxConcurrentExports = 0 }},
		{"negative queue timeout", func(c *Config) { c.QueueTimeout = -time.Second }},
		{"bad schedule", func(c *Config) { c.RedisAddr = "localhost:6379"; c.SnapshotSchedule = "whenever" }},
		{"empty redis key", func(c *Config) { c.RedisAddr = "localhost:6379"; c.RedisKey = "" }},
	}

	testutil.AssertNoError(t, DefaultConfig().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(&c)
			if err := c.Validate(); !rferrors.IsValidationError(err) {
				t.Fatalf("Validate() = %v, want ValidationError", err)
			}
		})
	}
}
