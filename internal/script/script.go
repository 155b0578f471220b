// Package script runs Lua scripts against a debugger session. Scripts see a
// global dbg table with the commands and queries of the session.
package script

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/NeonFoundry/RevGame/internal/cpu"
	"github.com/NeonFoundry/RevGame/internal/debugger"
	"github.com/NeonFoundry/RevGame/internal/hexbytes"
	"github.com/retroenv/retrogolib/log"
	lua "github.com/yuin/gopher-lua"
)

// Runner executes scripts against a session.
type Runner struct {
	logger  *log.Logger
	session *debugger.Debugger
	out     io.Writer
}

// New returns a script runner for the session. The Lua print function writes
// to out.
func New(logger *log.Logger, session *debugger.Debugger, out io.Writer) *Runner {
	return &Runner{
		logger:  logger,
		session: session,
		out:     out,
	}
}

// RunFile executes a Lua script file.
func (r *Runner) RunFile(ctx context.Context, path string) error {
	L := r.newState(ctx)
	defer L.Close()

	r.logger.Debug("Running script", log.String("file", path))
	if err := L.DoFile(path); err != nil {
		return fmt.Errorf("running script '%s': %w", path, err)
	}
	return nil
}

// RunString executes Lua source code.
func (r *Runner) RunString(ctx context.Context, source string) error {
	L := r.newState(ctx)
	defer L.Close()

	if err := L.DoString(source); err != nil {
		return fmt.Errorf("running script: %w", err)
	}
	return nil
}

func (r *Runner) newState(ctx context.Context) *lua.LState {
	L := lua.NewState()
	L.SetContext(ctx)

	dbg := L.NewTable()
	L.SetFuncs(dbg, map[string]lua.LGFunction{
		"step":       r.step,
		"run":        r.run,
		"run_n":      r.runN,
		"step_back":  r.stepBack,
		"patch":      r.patch,
		"undo":       r.undo,
		"redo":       r.redo,
		"reset":      r.reset,
		"breakpoint": r.breakpoint,
		"reg":        r.register,
		"flag":       r.flag,
		"read":       r.read,
		"state":      r.state,
		"halted":     r.halted,
		"current":    r.current,
		"steps":      r.steps,
	})
	L.SetGlobal("dbg", dbg)
	L.SetGlobal("print", L.NewFunction(r.print))
	return L
}

// raise aborts the script with the error and its kind.
func raise(L *lua.LState, err error) int {
	L.RaiseError("[%s] %s", debugger.KindOf(err), err)
	return 0
}

func checkAddress(L *lua.LState, n int) uint32 {
	v := L.CheckInt64(n)
	if v < 0 || v > int64(^uint32(0)) {
		L.ArgError(n, "address out of range")
	}
	return uint32(v)
}

// pushReport returns the state, the stop reason and the executed steps.
func pushReport(L *lua.LState, report debugger.Report) int {
	L.Push(lua.LString(report.State.String()))
	L.Push(lua.LString(report.Reason.String()))
	L.Push(lua.LNumber(report.Steps))
	return 3
}

func (r *Runner) step(L *lua.LState) int {
	report, err := r.session.Step()
	if err != nil {
		return raise(L, err)
	}
	return pushReport(L, report)
}

func (r *Runner) run(L *lua.LState) int {
	report, err := r.session.Run(L.Context())
	if err != nil {
		return raise(L, err)
	}
	return pushReport(L, report)
}

func (r *Runner) runN(L *lua.LState) int {
	report, err := r.session.RunN(L.Context(), L.CheckInt(1))
	if err != nil {
		return raise(L, err)
	}
	return pushReport(L, report)
}

func (r *Runner) stepBack(L *lua.LState) int {
	report, err := r.session.StepBack()
	if err != nil {
		return raise(L, err)
	}
	return pushReport(L, report)
}

func (r *Runner) patch(L *lua.LState) int {
	address := checkAddress(L, 1)
	text := L.CheckString(2)
	if _, err := r.session.PatchHex(address, text); err != nil {
		return raise(L, err)
	}
	return 0
}

func (r *Runner) undo(L *lua.LState) int {
	if _, err := r.session.Undo(); err != nil {
		return raise(L, err)
	}
	return 0
}

func (r *Runner) redo(L *lua.LState) int {
	if _, err := r.session.Redo(); err != nil {
		return raise(L, err)
	}
	return 0
}

func (r *Runner) reset(L *lua.LState) int {
	if err := r.session.Reset(); err != nil {
		return raise(L, err)
	}
	return 0
}

func (r *Runner) breakpoint(L *lua.LState) int {
	address := checkAddress(L, 1)
	L.Push(lua.LBool(r.session.ToggleBreakpoint(address)))
	return 1
}

func (r *Runner) register(L *lua.LState) int {
	value, err := r.session.Register(L.CheckString(1))
	if err != nil {
		return raise(L, err)
	}
	L.Push(lua.LNumber(value))
	return 1
}

func (r *Runner) flag(L *lua.LState) int {
	name := L.CheckString(1)
	f, ok := cpu.ParseFlag(name)
	if !ok {
		L.ArgError(1, fmt.Sprintf("unknown flag '%s'", name))
		return 0
	}
	L.Push(lua.LBool(r.session.Flag(f)))
	return 1
}

// read returns the memory range as hex text.
func (r *Runner) read(L *lua.LState) int {
	address := checkAddress(L, 1)
	length := L.OptInt(2, 1)
	data, err := r.session.ReadMemory(address, length)
	if err != nil {
		return raise(L, err)
	}
	L.Push(lua.LString(hexbytes.Format(data)))
	return 1
}

func (r *Runner) state(L *lua.LState) int {
	L.Push(lua.LString(r.session.State().String()))
	return 1
}

func (r *Runner) halted(L *lua.LState) int {
	L.Push(lua.LBool(r.session.Halted()))
	return 1
}

func (r *Runner) current(L *lua.LState) int {
	ins, err := r.session.Current()
	if err != nil {
		return raise(L, err)
	}
	L.Push(lua.LString(ins.String()))
	return 1
}

func (r *Runner) steps(L *lua.LState) int {
	L.Push(lua.LNumber(r.session.Steps()))
	return 1
}

func (r *Runner) print(L *lua.LState) int {
	args := make([]string, L.GetTop())
	for i := range args {
		args[i] = L.Get(i + 1).String()
	}
	_, _ = fmt.Fprintln(r.out, strings.Join(args, "\t"))
	return 0
}
