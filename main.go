// Package main implements the main entry point of the reverse engineering
// debugger game.
package main

import (
	"context"
	"errors"
	"os"

	"github.com/NeonFoundry/RevGame/internal/app"
	"github.com/NeonFoundry/RevGame/internal/cli"
	"github.com/NeonFoundry/RevGame/internal/config"
	"github.com/NeonFoundry/RevGame/internal/pipeline"
	retroapp "github.com/retroenv/retrogolib/app"
	"github.com/retroenv/retrogolib/log"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

func main() {
	ctx := retroapp.Context()

	opts, err := cli.ParseFlags()
	if err != nil {
		logger := config.CreateLogger(opts.Debug, opts.Quiet)
		var usageErr *cli.UsageError
		if errors.As(err, &usageErr) {
			app.PrintBanner(logger, "revgame", opts.Quiet, version, commit, date)
			usageErr.ShowUsage()
		} else {
			logger.Fatal(err.Error())
		}
		os.Exit(1)
	}

	logger := config.CreateLogger(opts.Debug, opts.Quiet)
	app.PrintBanner(logger, "revgame", opts.Quiet, version, commit, date)

	if _, err := pipeline.New(logger).Execute(ctx, opts, os.Stdin, os.Stdout); err != nil {
		// Handle context cancellation (Ctrl+C) gracefully
		if errors.Is(err, context.Canceled) {
			logger.Info("Operation cancelled")
			return
		}
		logger.Error("Session failed", log.Err(err))
		os.Exit(1)
	}
}
