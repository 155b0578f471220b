// Package debugger implements a debugger session that drives the emulated
// x86 processor and exposes the command and query surface of the game.
package debugger

import (
	"context"
	"errors"
	"fmt"

	"github.com/NeonFoundry/RevGame/internal/arch/x86"
	"github.com/NeonFoundry/RevGame/internal/breakpoint"
	"github.com/NeonFoundry/RevGame/internal/cpu"
	"github.com/NeonFoundry/RevGame/internal/executor"
	"github.com/NeonFoundry/RevGame/internal/history"
	"github.com/NeonFoundry/RevGame/internal/instruction"
	"github.com/NeonFoundry/RevGame/internal/memory"
	"github.com/retroenv/retrogolib/log"
)

// Checkpoint is the session state that is recorded with every patch and
// every step. It is restored when the patch is undone or redone and when
// the step is stepped back.
type Checkpoint struct {
	CPU   cpu.State
	State State
	// Steps is the executed instruction count at the time of the checkpoint.
	Steps       uint64
	Previous    instruction.Instruction
	HasPrevious bool
}

// Report is the result of a command.
type Report struct {
	State  State
	Reason StopReason
	CPU    cpu.State
	// Steps is the number of instructions executed by the command.
	Steps int
	// Instruction is the last executed instruction, valid if Steps > 0.
	Instruction instruction.Instruction
	// Changed lists the registers that the command modified.
	Changed []cpu.Register
	// Breakpoint is set if the instruction pointer is at a breakpoint.
	Breakpoint bool
}

// Debugger is a single debugger session. It is not safe for concurrent use,
// see Shared for a locked wrapper.
type Debugger struct {
	logger *log.Logger
	cfg    Config

	mem         *memory.Memory
	cpu         cpu.State
	state       State
	breakpoints *breakpoint.Set
	history     *history.History[Checkpoint]
	stepLog     *stepRing

	initialMemory []byte
	initialCPU    cpu.State

	previous    instruction.Instruction
	hasPrevious bool
	steps       uint64
	fault       error
}

// New loads a session from the configuration. The session starts in the
// Ready state.
func New(logger *log.Logger, cfg Config) (*Debugger, error) {
	mem, err := memory.New(cfg.MemorySize, cfg.Regions)
	if err != nil {
		return nil, fmt.Errorf("creating memory: %w", err)
	}
	for _, seg := range cfg.Segments {
		if err := mem.Load(seg.Address, seg.Data); err != nil {
			return nil, fmt.Errorf("loading segment at 0x%08x: %w", seg.Address, err)
		}
	}

	state, err := cfg.initialState(mem)
	if err != nil {
		return nil, err
	}

	d := &Debugger{
		logger:        logger,
		cfg:           cfg,
		mem:           mem,
		cpu:           state,
		state:         Ready,
		breakpoints:   breakpoint.New(cfg.Breakpoints...),
		history:       history.New[Checkpoint](cfg.historyCapacity()),
		stepLog:       newStepRing(cfg.stepBackCapacity()),
		initialMemory: mem.Snapshot(),
		initialCPU:    state,
	}
	logger.Debug("Session loaded",
		log.Hex("entry", state.EIP),
		log.Hex("stack", state.Register(cpu.ESP)),
		log.Int("regions", len(cfg.Regions)))
	return d, nil
}

// Start moves a loaded session to the Paused state.
func (d *Debugger) Start() error {
	if d.state != Ready {
		return fmt.Errorf("%w: session is %s", ErrNotRunnable, d.state)
	}
	d.state = Paused
	d.logger.Info("Session started", log.Hex("eip", d.cpu.EIP))
	return nil
}

// Step executes a single instruction. A failing instruction leaves the
// processor unchanged and moves the session to the Faulted state.
func (d *Debugger) Step() (Report, error) {
	if d.state != Paused {
		return d.report(ReasonNone, d.cpu), fmt.Errorf("%w: session is %s", ErrNotRunnable, d.state)
	}

	before := d.cpu
	result, err := d.step()
	if err != nil {
		return d.report(ReasonFaulted, before), err
	}

	report := d.report(d.handle(result), before)
	report.Steps = 1
	report.Instruction = d.previous
	return report, nil
}

// Run executes instructions until a breakpoint is reached, the program halts
// or traps, an instruction faults, the context is cancelled or the
// instruction budget is used up. The breakpoint at the starting address is
// ignored so that a run can continue from a breakpoint.
func (d *Debugger) Run(ctx context.Context) (Report, error) {
	return d.run(ctx, 0)
}

// RunN executes up to count instructions and stops earlier on the same
// conditions as Run. Executing all of them stops with ReasonCount. The
// instruction budget still applies to counts above it.
func (d *Debugger) RunN(ctx context.Context, count int) (Report, error) {
	if count < 1 {
		return d.report(ReasonNone, d.cpu), fmt.Errorf("%w: %d", ErrInvalidCount, count)
	}
	return d.run(ctx, count)
}

// run executes instructions, a count of 0 runs until the budget is used up.
func (d *Debugger) run(ctx context.Context, count int) (Report, error) {
	if d.state != Paused {
		return d.report(ReasonNone, d.cpu), fmt.Errorf("%w: session is %s", ErrNotRunnable, d.state)
	}

	before := d.cpu
	budget := d.cfg.budget()
	d.state = Running
	d.logger.Debug("Run started",
		log.Hex("eip", d.cpu.EIP),
		log.Int("budget", budget),
		log.Int("count", count))

	executed := 0
	finish := func(reason StopReason) Report {
		report := d.report(reason, before)
		report.Steps = executed
		if executed > 0 {
			report.Instruction = d.previous
		}
		d.logger.Info("Run stopped",
			log.Stringer("reason", reason),
			log.Int("steps", executed),
			log.Hex("eip", d.cpu.EIP))
		return report
	}

	for {
		if count > 0 && executed >= count {
			d.state = Paused
			return finish(ReasonCount), nil
		}
		if executed >= budget {
			d.state = Paused
			d.logger.Warn("Execution budget exceeded", log.Int("budget", budget))
			return finish(ReasonBudget), fmt.Errorf("%w: %d instructions", ErrExecutionBudgetExceeded, budget)
		}
		if ctx.Err() != nil {
			d.state = Paused
			return finish(ReasonStopped), nil
		}

		result, err := d.step()
		if err != nil {
			return finish(ReasonFaulted), err
		}
		executed++

		if reason := d.handle(result); reason != ReasonStep {
			return finish(reason), nil
		}
		if d.breakpoints.Contains(d.cpu.EIP) {
			d.state = Paused
			return finish(ReasonBreakpoint), nil
		}
	}
}

// Reset restores memory and processor to the state after loading and clears
// the patch history. The session is Paused afterwards.
func (d *Debugger) Reset() error {
	if d.state == Running {
		return ErrRunning
	}
	if err := d.mem.Restore(d.initialMemory); err != nil {
		return fmt.Errorf("restoring memory: %w", err)
	}
	d.cpu = d.initialCPU
	d.state = Paused
	d.history.Clear()
	d.stepLog.clear()
	d.hasPrevious = false
	d.previous = instruction.Instruction{}
	d.fault = nil
	d.steps = 0
	if d.cfg.ResetBreakpoints {
		d.breakpoints.Replace(d.cfg.Breakpoints)
	}
	d.logger.Info("Session reset", log.Hex("eip", d.cpu.EIP))
	return nil
}

// step decodes and executes the instruction at the instruction pointer. A
// failing instruction leaves processor and memory unchanged, a successful one
// is recorded in the step back log.
func (d *Debugger) step() (executor.Result, error) {
	address := d.cpu.EIP
	ins, err := x86.Decode(d.mem, address)
	if err != nil {
		return executor.Continue, d.faulted(fmt.Errorf("decoding instruction at 0x%08x: %w", address, err))
	}

	saved := d.checkpoint()
	bus := &recordingBus{mem: d.mem}
	result, err := executor.Execute(ins, &d.cpu, bus)
	if err != nil {
		d.cpu = saved.CPU
		if revertErr := revertWrites(d.mem, bus.writes); revertErr != nil {
			err = errors.Join(err, revertErr)
		}
		return executor.Continue, d.faulted(fmt.Errorf("executing '%s' at 0x%08x: %w", ins, address, err))
	}

	d.stepLog.push(stepRecord{checkpoint: saved, writes: bus.writes})
	d.steps++
	d.previous = ins
	d.hasPrevious = true
	d.logger.Debug("Step",
		log.Hex("address", address),
		log.Stringer("instruction", ins),
		log.String("result", result.String()))
	return result, nil
}

// handle applies the result of an executed instruction to the session state.
func (d *Debugger) handle(result executor.Result) StopReason {
	switch result {
	case executor.Halted:
		d.state = Halted
		d.logger.Info("Program halted", log.Hex("eip", d.cpu.EIP))
		return ReasonHalted
	case executor.Trap:
		d.state = Paused
		return ReasonTrap
	default:
		d.state = Paused
		return ReasonStep
	}
}

func (d *Debugger) faulted(err error) error {
	d.state = Faulted
	d.fault = err
	d.logger.Warn("Execution faulted", log.Hex("eip", d.cpu.EIP), log.Err(err))
	return err
}

func (d *Debugger) report(reason StopReason, before cpu.State) Report {
	return Report{
		State:      d.state,
		Reason:     reason,
		CPU:        d.cpu,
		Changed:    before.Changed(d.cpu),
		Breakpoint: d.breakpoints.Contains(d.cpu.EIP),
	}
}
