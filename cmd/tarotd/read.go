package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/randomtoy/arcana/internal/app"
	"github.com/randomtoy/arcana/internal/config"
	"github.com/randomtoy/arcana/internal/logging"
)

func newReadCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "read <question>",
		Short: "Draw a spread and stream its interpretation to stdout",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			level := slog.LevelWarn
			if verbose {
				level = cfg.LogLevel
			}
			logger := logging.New(cmd.ErrOrStderr(), level, "text")

			svc, err := newService(cfg, logger, nil)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			reading, err := svc.Open(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}

			printHand(cmd.ErrOrStderr(), reading.Hand)
			fmt.Fprintln(cmd.ErrOrStderr())

			out := cmd.OutOrStdout()
			_, err = svc.Relay(ctx, reading, app.SinkFunc(func(text string) error {
				_, err := io.WriteString(out, text)
				return err
			}))
			fmt.Fprintln(out)
			return err
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log at the configured LOG_LEVEL instead of warn")
	return cmd
}
