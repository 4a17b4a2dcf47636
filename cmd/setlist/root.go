// Setlist - Music Library Enrichment for Playlist Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/setlist

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tomtom215/setlist/internal/config"
	"github.com/tomtom215/setlist/internal/logging"
	"github.com/tomtom215/setlist/internal/pipeline"
)

const (
	exitOK    = 0
	exitFatal = 1
	exitUsage = 2
)

// usageError marks command-line mistakes.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return usageError{err: fmt.Errorf(format, args...)}
}

// noArgs rejects positional arguments with a usage error.
func noArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.NoArgs(cmd, args); err != nil {
		return usageError{err: err}
	}
	return nil
}

// subcommandArgs rejects arguments to a command that only groups
// subcommands, so an unknown subcommand is a usage error.
func subcommandArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return usagef("unknown command %q for %q", args[0], cmd.CommandPath())
	}
	return nil
}

// execute runs the CLI and returns the process exit code.
func execute(parent context.Context, args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	code := exitCode(err)
	if err != nil && code != exitOK {
		fmt.Fprintln(stderr, "setlist:", err)
	}
	return code
}

// exitCode maps a command error to an exit status. Cancellation and an
// overlapping run are not failures of the process.
func exitCode(err error) int {
	var ue usageError
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &ue):
		return exitUsage
	case !pipeline.IsFatal(err):
		return exitOK
	default:
		return exitFatal
	}
}

type commandContext struct {
	configFlag string
	jsonFlag   bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

// ensureConfig loads configuration once and initializes logging from it.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, err := config.Load(strings.TrimSpace(c.configFlag))
		if err != nil {
			c.configErr = fmt.Errorf("load configuration: %w", err)
			return
		}
		logging.Init(logging.Config{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
			Caller: cfg.Logging.Caller,
		})
		c.config = cfg
	})
	return c.config, c.configErr
}

// withApp builds the application for one command and closes it after fn.
func (c *commandContext) withApp(requireLibrary bool, fn func(*app) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cfg, requireLibrary)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "setlist",
		Short:         "Enrich a Plex music library for playlist discovery",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          subcommandArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err: err}
	})

	rootCmd.PersistentFlags().StringVarP(&ctx.configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().BoolVar(&ctx.jsonFlag, "json", false, "Print machine-readable JSON")

	rootCmd.AddCommand(newRunCommand(ctx))
	rootCmd.AddCommand(newUpdateCommand(ctx))
	rootCmd.AddCommand(newRefreshCommand(ctx))
	rootCmd.AddCommand(newStatusCommand(ctx))
	rootCmd.AddCommand(newValidateCommand(ctx))
	rootCmd.AddCommand(newDaemonCommand(ctx))
	rootCmd.AddCommand(newCacheCommand(ctx))

	return rootCmd
}
