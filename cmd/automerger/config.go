package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/simplesurance/automerger/internal/cfg"
)

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "validate the configuration file and print the effective configuration",
		Long: "Load and validate the configuration file and print it in TOML " +
			"format, including the defaults of unset keys.\n" +
			"Secrets are replaced by a placeholder.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			config, err := cfg.LoadFile(args.ConfigFile)
			if err != nil {
				return fmt.Errorf("could not load configuration file %s: %w", args.ConfigFile, err)
			}

			if err := config.Validate(); err != nil {
				return fmt.Errorf("invalid configuration file %s: %w", args.ConfigFile, err)
			}

			return config.Redacted().Marshal(cmd.OutOrStdout())
		},
	}
}
