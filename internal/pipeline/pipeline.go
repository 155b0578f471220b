// Package pipeline orchestrates the stages of a debugging session.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/NeonFoundry/RevGame/internal/app"
	"github.com/NeonFoundry/RevGame/internal/console"
	"github.com/NeonFoundry/RevGame/internal/debugger"
	"github.com/NeonFoundry/RevGame/internal/detector"
	"github.com/NeonFoundry/RevGame/internal/loader"
	"github.com/NeonFoundry/RevGame/internal/options"
	"github.com/NeonFoundry/RevGame/internal/script"
	"github.com/retroenv/retrogolib/log"
)

// Pipeline orchestrates the complete session workflow.
type Pipeline struct {
	logger   *log.Logger
	detector *detector.Detector
	loader   *loader.Loader
}

// New creates a new session pipeline.
func New(logger *log.Logger) *Pipeline {
	det := detector.New(logger)
	return &Pipeline{
		logger:   logger,
		detector: det,
		loader:   loader.New(det),
	}
}

// Execute loads the images named in the options and runs the session.
func (p *Pipeline) Execute(ctx context.Context, opts options.Program, in io.Reader, out io.Writer) (*debugger.Debugger, error) {
	cfg, err := p.loader.Load(opts)
	if err != nil {
		return nil, fmt.Errorf("loading images: %w", err)
	}
	return p.ExecuteWithConfig(ctx, cfg, opts, in, out)
}

// ExecuteWithConfig runs the session for a prepared configuration: the
// optional script runs first, then the command list and finally the
// interactive console unless batch mode is set.
func (p *Pipeline) ExecuteWithConfig(ctx context.Context, cfg debugger.Config, opts options.Program,
	in io.Reader, out io.Writer) (*debugger.Debugger, error) {

	session, err := debugger.New(p.logger, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	if err := session.Start(); err != nil {
		return nil, fmt.Errorf("starting session: %w", err)
	}
	app.PrintInfo(p.logger, opts, session)

	if opts.Script != "" {
		runner := script.New(p.logger, session, out)
		if err := runner.RunFile(ctx, opts.Script); err != nil {
			return session, err
		}
	}

	con := console.New(p.logger, session, out)
	if opts.Exec != "" {
		if err := con.ExecuteAll(ctx, opts.Exec); err != nil {
			return session, fmt.Errorf("executing commands: %w", err)
		}
	}

	if opts.Batch {
		return session, nil
	}
	if err := p.runConsole(ctx, con, in, out); err != nil {
		return session, fmt.Errorf("running console: %w", err)
	}
	return session, nil
}

// runConsole uses the terminal mode when both ends are files.
func (p *Pipeline) runConsole(ctx context.Context, con *console.Console, in io.Reader, out io.Writer) error {
	inFile, inOK := in.(*os.File)
	outFile, outOK := out.(*os.File)
	if inOK && outOK {
		return con.RunTerminal(ctx, inFile, outFile)
	}
	return con.Run(ctx, in)
}
