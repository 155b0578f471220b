// Package cli handles command line interface logic
package cli

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/NeonFoundry/RevGame/internal/config"
	"github.com/NeonFoundry/RevGame/internal/debugger"
	"github.com/NeonFoundry/RevGame/internal/detector"
	"github.com/NeonFoundry/RevGame/internal/options"
)

// ParseFlags parses command line flags and returns the program options
func ParseFlags() (options.Program, error) {
	flags := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	opts := options.Program{Layout: config.DefaultLayout()}
	readOptionFlags(flags, &opts)

	err := flags.Parse(os.Args[1:])
	args := flags.Args()
	if err != nil || (len(args) == 0 && opts.Input == "") {
		return opts, &UsageError{flags: flags}
	}

	if err := validateArgs(args); err != nil {
		return opts, err
	}

	if opts.Input == "" {
		opts.Input = args[0]
	}

	if err := normalizeOptions(&opts); err != nil {
		return opts, err
	}
	return opts, nil
}

// UsageError represents an error that should show usage information
type UsageError struct {
	flags *flag.FlagSet
	msg   string
}

func (e *UsageError) Error() string {
	return e.msg
}

func (e *UsageError) ShowUsage() {
	fmt.Printf("usage: revgame [options] <code image>\n\n")
	if e.flags != nil {
		e.flags.PrintDefaults()
	}
	fmt.Println()
}

// validateArgs checks if arguments are in correct order
func validateArgs(args []string) error {
	for i, arg := range args {
		if i > 0 && arg[0] == '-' {
			return &UsageError{
				msg: fmt.Sprintf("Potential argument %s found after code image, please pass the code image as last argument", arg),
			}
		}
	}
	return nil
}

// normalizeOptions normalizes and validates option values
func normalizeOptions(opts *options.Program) error {
	opts.Format = strings.ToLower(opts.Format)
	if opts.Format != "" {
		if _, err := detector.ParseFormat(opts.Format); err != nil {
			return err
		}
	}

	if opts.Budget < 0 {
		return fmt.Errorf("invalid budget %d, must not be negative", opts.Budget)
	}
	return nil
}

func readOptionFlags(flags *flag.FlagSet, opts *options.Program) {
	flags.StringVar(&opts.Input, "i", "", "name of the code image file")
	flags.StringVar(&opts.Data, "data", "", "name of the data image file loaded at the data region")
	flags.StringVar(&opts.Script, "script", "", "Lua script to run against the session before the console starts")
	flags.StringVar(&opts.Exec, "exec", "", "semicolon separated debugger commands to run, for example \"run;regs\"")
	flags.StringVar(&opts.Format, "f", "", "image format (raw, hex) - if not auto-detected from the file")
	flags.IntVar(&opts.Budget, "budget", debugger.DefaultBudget, "maximum number of instructions a single run executes")
	flags.StringVar(&opts.Entry, "entry", "", "entry point offset into the code region, hex")
	flags.StringVar(&opts.Breakpoints, "b", "", "comma separated list of breakpoint addresses, hex")
	flags.BoolVar(&opts.ResetBreakpoints, "reset-breakpoints", false, "restore the initial breakpoints when the session is reset")
	flags.BoolVar(&opts.Batch, "batch", false, "do not start the interactive console")
	flags.BoolVar(&opts.Debug, "debug", false, "enable debugging options for extended logging")
	flags.BoolVar(&opts.Quiet, "q", false, "perform operations quietly")
}
