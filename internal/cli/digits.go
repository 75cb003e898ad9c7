package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/pidigits/api"
	"github.com/jonwraymond/pidigits/spigot"
)

func newDigitsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "digits N",
		Short:   "Print pi to N decimal places",
		Args:    cobra.ExactArgs(1),
		Example: "  pidigits digits 10   # 3.1415926535",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("digit count must be an integer, got %q", args[0])
			}

			cfg, err := loadConfig(cmd.Context(), cmd)
			if err != nil {
				return err
			}

			digits, err := spigot.New(cfg.Engine()).Generate(n)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "3.%s\n", digits)
			return err
		},
	}
}

func newRangeCmd() *cobra.Command {
	var start, count int

	cmd := &cobra.Command{
		Use:   "range",
		Short: "Print a chunk of digits after the decimal point",
		Long: "Print the digits in [start, start+count) after the decimal point, " +
			"clamped the same way as GET /api/pi.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd.Context(), cmd)
			if err != nil {
				return err
			}

			window := api.HandlerConfig{
				MaxDigits: cfg.Digits.MaxDigits,
				MaxBatch:  cfg.Digits.MaxBatch,
			}
			from, to := window.Window(start, count)
			if from == to {
				_, err = fmt.Fprintln(cmd.OutOrStdout())
				return err
			}

			digits, err := spigot.New(cfg.Engine()).Generate(to)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), digits[from:to])
			return err
		},
	}

	cmd.Flags().IntVar(&start, "start", 0, "zero-based offset after the decimal point")
	cmd.Flags().IntVar(&count, "count", api.DefaultCount, "number of digits")
	return cmd
}
