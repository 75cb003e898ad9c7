// Package cli implements the pidigits command line.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/pidigits/config"
)

// NewRootCmd creates the root command with the serve, digits and range
// subcommands.
func NewRootCmd(ver string) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "pidigits",
		Short:        "Compute and serve decimal digits of pi",
		Version:      ver,
		Example:      rootCmdExample,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("config", "", "path to a YAML configuration file")
	cmd.AddCommand(newServeCmd(), newDigitsCmd(), newRangeCmd())

	return cmd
}

const rootCmdExample = `  # Serve the HTTP API with defaults on :8080
  pidigits serve

  # Serve with a configuration file on another address
  pidigits serve --config pidigits.yaml --addr :9090

  # Print pi to 50 decimal places
  pidigits digits 50

  # Print digits 1000..1099 after the decimal point
  pidigits range --start 1000 --count 100`

// loadConfig reads --config when set and returns validated defaults otherwise.
func loadConfig(ctx context.Context, cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		cfg := config.Default()
		return cfg, cfg.Validate()
	}
	return config.Load(ctx, path)
}
