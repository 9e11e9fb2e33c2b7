package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"threadscrape/internal/components/chrono"
	"threadscrape/internal/components/telemetry"
	"threadscrape/lib/configutil"
	libtelemetry "threadscrape/lib/telemetry"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool

	cfg   Config
	clock chrono.API
	tel   telemetry.API = telemetry.SlogAPI{}
)

var rootCmd = &cobra.Command{
	Use:   "threadscrape",
	Short: "threadscrape scrapes facebook page feeds and vnexpress comment threads with a real browser.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		libtelemetry.InitSlog(verbose)

		loaded, err := configutil.ReadConfig[Config](configPath)
		if errors.Is(err, os.ErrNotExist) {
			slog.Debug("no config file found, using defaults", "path", configPath)
		} else if err != nil {
			return fmt.Errorf("read config: %w", err)
		}
		cfg = loaded

		clock, err = chrono.NewStandardImpl(cfg.Timezone)
		if err != nil {
			return fmt.Errorf("load timezone: %w", err)
		}
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.json5", "The config file, .json5 or .yaml. A <name>.local.<ext> file next to it is merged over it.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug reports.")
}

// ExecuteContext runs the command line and returns the exit code.
func ExecuteContext(ctx context.Context) int {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("command failed", "err", err.Error())
		return 1
	}
	return 0
}
