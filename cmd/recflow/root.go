package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/AdamDotNet/recflow/internal/config"
	"github.com/AdamDotNet/recflow/internal/logging"
	"github.com/AdamDotNet/recflow/pkg/streaming/csvwriter"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "recflow",
		Short:         "Stream record sets as CSV without blocking writes",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().SortFlags = true
	config.BindFlags(root.PersistentFlags())

	root.AddCommand(newServeCommand(), newExportCommand())
	return root
}

// setup loads the configuration and builds the logger shared by all commands.
func setup(cmd *cobra.Command) (config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return cfg, zerolog.Nop(), err
	}
	logger, err := logging.New(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: cmd.ErrOrStderr(),
	})
	return cfg, logger, err
}

func writerConfig(cfg config.Config) csvwriter.Config {
	wc := csvwriter.DefaultConfig()
	wc.BufferSize = cfg.BufferSize
	return wc
}
