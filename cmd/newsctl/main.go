// Command newsctl queries the news pipeline from the terminal without
// running the HTTP server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/hoanghai1803/newswire/internal/app"
	"github.com/hoanghai1803/newswire/internal/config"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	asJSON     bool
	verbose    bool
	timeout    time.Duration

	pipeline *app.Pipeline
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "newsctl",
		Short:         "Fetch, rank and search Australian news",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelWarn
			if opts.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			opts.pipeline = app.NewPipeline(cfg, nil)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "config.toml", "path to config file")
	cmd.PersistentFlags().BoolVar(&opts.asJSON, "json", false, "print JSON instead of a table")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log adapter activity to stderr")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", time.Minute, "overall deadline for the command")

	cmd.AddCommand(
		newNewsCommand(opts),
		newSearchCommand(opts),
		newSourcesCommand(opts),
		newParliamentariansCommand(opts),
	)
	return cmd
}

// deadline returns the command context bounded by --timeout.
func (o *rootOptions) deadline(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), o.timeout)
}
