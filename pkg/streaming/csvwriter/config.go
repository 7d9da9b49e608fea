package csvwriter

import (
	"github.com/AdamDotNet/recflow/pkg/common/validation"
	"github.com/AdamDotNet/recflow/pkg/metrics"
)

// Config holds configuration for a record Writer.
type Config struct {
	// Delimiter separates fields within a line.
	// Default: ","
	Delimiter string

	// Quote wraps fields that contain the delimiter, the quote itself or a
	// line break. Quotes inside such a field are doubled.
	// Default: "\""
	Quote string

	// Terminator ends every line, including the header.
	// Default: "\r\n"
	Terminator string

	// BufferSize is the number of bytes collected before they are handed to
	// the sink. A single line longer than this is written on its own.
	// Default: 4096
	BufferSize int

	// OwnsSink makes Close also close the sink (when it implements
	// sink.Closer). Left false, the sink stays usable by the caller.
	OwnsSink bool

	// Name labels the writer's metrics.
	// Default: "csv"
	Name string

	// Metrics selects where counters are recorded. The zero value disables them.
	Metrics metrics.Config
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		Delimiter:  ",",
		Quote:      `"`,
		Terminator: "\r\n",
		BufferSize: 4096,
		Name:       "csv",
	}
}

// Validate checks that the configuration can produce unambiguous output.
func (c Config) Validate() error {
	const module = "csvwriter"

	if err := validation.ValidateNotEmpty(module, "delimiter", c.Delimiter); err != nil {
		return err
	}
	if err := validation.ValidateNotEmpty(module, "quote", c.Quote); err != nil {
		return err
	}
	if err := validation.ValidateNotEmpty(module, "terminator", c.Terminator); err != nil {
		return err
	}
	if err := validation.ValidateExcludes(module, "delimiter", c.Delimiter, "\r\n"); err != nil {
		return err
	}
	if err := validation.ValidateExcludes(module, "quote", c.Quote, "\r\n"); err != nil {
		return err
	}
	if err := validation.ValidateDisjoint(module, "delimiter", c.Delimiter, "quote", c.Quote); err != nil {
		return err
	}
	if err := validation.ValidateDisjoint(module, "terminator", c.Terminator, "delimiter", c.Delimiter); err != nil {
		return err
	}
	if err := validation.ValidateDisjoint(module, "terminator", c.Terminator, "quote", c.Quote); err != nil {
		return err
	}
	return validation.ValidatePositive(module, "buffer_size", c.BufferSize)
}
