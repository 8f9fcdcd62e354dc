package main

import (
	"encoding/json"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/smartswap/backend/config"
	"github.com/smartswap/backend/internal/app"
	"github.com/smartswap/backend/internal/observability"
)

// cli carries state shared by the subcommands
type cli struct {
	logLevel string
	logger   zerolog.Logger
	app      *app.App
}

func newRootCmd() (*cobra.Command, *cli) {
	c := &cli{}

	root := &cobra.Command{
		Use:           "swapctl",
		Short:         "Smart Swap administration tool",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if c.logLevel == "" {
				c.logLevel = cfg.Log.Level
			}
			c.logger = observability.NewLogger(observability.LogConfig{
				Level:       c.logLevel,
				Format:      "console",
				Output:      cmd.ErrOrStderr(),
				ServiceName: "swapctl",
			})

			c.app, err = app.New(cmd.Context(), cfg, c.logger, app.Providers{})
			return err
		},
	}

	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		newSeedCmd(c),
		newEmbedCmd(c),
		newStatsCmd(c),
	)
	return root, c
}

// close releases the application; it runs even when a command fails
func (c *cli) close() error {
	if c.app == nil {
		return nil
	}
	err := c.app.Close()
	c.app = nil
	return err
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
