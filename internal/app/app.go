// Package app provides the main application helpers of the debugger.
package app

import (
	"fmt"
	"strings"

	"github.com/NeonFoundry/RevGame/internal/debugger"
	"github.com/NeonFoundry/RevGame/internal/options"
	"github.com/retroenv/retrogolib/log"
)

// PrintBanner prints application version information.
func PrintBanner(logger *log.Logger, name string, quiet bool, version, commit, date string) {
	if quiet {
		return
	}

	versionString := version
	if commit != "" {
		if len(commit) > 7 {
			commit = commit[:7]
		}
		versionString += fmt.Sprintf(" (%s)", commit)
	}

	logger.Info(name, log.String("version", versionString))

	if date != "" && !strings.Contains(date, "unknown") {
		logger.Info("Build", log.String("date", date))
	}
}

// PrintInfo prints the information about the loaded session.
func PrintInfo(logger *log.Logger, opts options.Program, session *debugger.Debugger) {
	if opts.Quiet {
		return
	}

	state := session.CPU()
	logger.Info("Loaded puzzle",
		log.String("file", opts.Input),
		log.Hex("entry", state.EIP),
		log.Int("breakpoints", len(session.Breakpoints())),
	)
	for _, r := range session.Regions() {
		logger.Debug("Memory region", log.Stringer("region", r))
	}
}
