// Package config handles application configuration and setup
package config

import (
	"github.com/NeonFoundry/RevGame/internal/options"
	"github.com/retroenv/retrogolib/log"
)

// CreateLogger creates a logger with appropriate settings
func CreateLogger(debug, quiet bool) *log.Logger {
	cfg := log.DefaultConfig()
	if debug {
		cfg.Level = log.DebugLevel
	} else if quiet {
		cfg.Level = log.ErrorLevel
	}
	return log.NewWithConfig(cfg)
}

// DefaultLayout returns the memory layout used for puzzles: 64 KiB of
// memory with adjacent code, data and stack regions of 4 KiB each.
func DefaultLayout() options.Layout {
	return options.Layout{
		MemorySize: 0x10000,
		CodeStart:  0x1000,
		CodeSize:   0x1000,
		DataStart:  0x2000,
		DataSize:   0x1000,
		StackStart: 0x3000,
		StackSize:  0x1000,
	}
}
