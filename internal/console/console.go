// Package console implements the text command interface of the debugger.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/NeonFoundry/RevGame/internal/bookmarks"
	"github.com/NeonFoundry/RevGame/internal/debugger"
	"github.com/NeonFoundry/RevGame/internal/hexbytes"
	"github.com/NeonFoundry/RevGame/internal/search"
	"github.com/retroenv/retrogolib/log"
)

// ErrQuit is returned by Execute for the quit command.
var ErrQuit = errors.New("quit")

// ErrUsage is returned for commands with missing or malformed arguments.
var ErrUsage = errors.New("invalid command usage")

const (
	defaultMemoryLength = 64
	defaultListing      = 8
	defaultStringLength = 4
	maxSteps            = 1_000_000
)

type handler func(ctx context.Context, c *Console, args []string) error

type command struct {
	usage   string
	help    string
	handler handler
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"step":   {"step [count]", "execute instructions one by one", cmdStep},
		"run":    {"run [count]", "execute until a breakpoint, halt, fault, the count or the budget", cmdRun},
		"back":   {"back [count]", "revert executed instructions", cmdStepBack},
		"patch":  {"patch <address> <bytes>", "write hex bytes to memory", cmdPatch},
		"break":  {"break <address>", "toggle a breakpoint", cmdBreak},
		"bps":    {"bps", "list breakpoints", cmdBreakpoints},
		"reset":  {"reset", "restore the session to its initial state", cmdReset},
		"undo":   {"undo", "revert the last patch", cmdUndo},
		"redo":   {"redo", "reapply the last reverted patch", cmdRedo},
		"regs":   {"regs", "show registers and flags", cmdRegisters},
		"mem":    {"mem <address> [length]", "show a memory dump", cmdMemory},
		"dis":    {"dis [address] [count]", "disassemble instructions", cmdDisassemble},
		"search": {"search bytes <hex> | string <text> | strings [min]", "search memory", cmdSearch},
		"mark":   {"mark [address [note]]", "toggle a bookmark or list bookmarks", cmdMark},
		"digest": {"digest", "show the machine state hash", cmdDigest},
		"state":  {"state", "show the session state", cmdState},
		"help":   {"help", "list commands", cmdHelp},
		"quit":   {"quit", "leave the console", cmdQuit},
	}
}

var aliases = map[string]string{
	"s":  "step",
	"r":  "run",
	"sb": "back",
	"b":  "break",
	"q":  "quit",
	"x":  "mem",
	"u":  "dis",
}

// Console executes text commands against a debugger session.
type Console struct {
	logger  *log.Logger
	session *debugger.Debugger
	marks   *bookmarks.Manager
	out     io.Writer
}

// New returns a console for the session that writes its output to out.
func New(logger *log.Logger, session *debugger.Debugger, out io.Writer) *Console {
	return &Console{
		logger:  logger,
		session: session,
		marks:   bookmarks.New(),
		out:     out,
	}
}

// Bookmarks returns the bookmarks of the console.
func (c *Console) Bookmarks() *bookmarks.Manager {
	return c.marks
}

// Execute runs a single command line.
func (c *Console) Execute(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	name := strings.ToLower(fields[0])
	if alias, ok := aliases[name]; ok {
		name = alias
	}
	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("unknown command '%s', type help for a list of commands", fields[0])
	}

	c.logger.Debug("Executing command", log.String("command", name))
	if err := cmd.handler(ctx, c, fields[1:]); err != nil {
		if errors.Is(err, ErrUsage) {
			return fmt.Errorf("%w, usage: %s", err, cmd.usage)
		}
		return err
	}
	return nil
}

// ExecuteAll runs a list of commands separated by semicolons or newlines and
// stops at the first error.
func (c *Console) ExecuteAll(ctx context.Context, script string) error {
	lines := strings.FieldsFunc(script, func(r rune) bool {
		return r == ';' || r == '\n'
	})
	for _, line := range lines {
		if err := c.Execute(ctx, line); err != nil {
			return fmt.Errorf("command '%s': %w", strings.TrimSpace(line), err)
		}
	}
	return nil
}

// printError writes a command error including its kind.
func (c *Console) printError(err error) {
	kind := debugger.KindOf(err)
	if kind == debugger.KindOther {
		c.printf("error: %s\n", err)
		return
	}
	c.printf("error [%s]: %s\n", kind, err)
}

func (c *Console) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(c.out, format, args...)
}

func (c *Console) printReport(report debugger.Report) {
	c.printf("%s", report.State)
	if report.Reason != debugger.ReasonNone && report.Reason != debugger.ReasonStep {
		c.printf(" (%s)", report.Reason)
	}
	c.printf("  steps=%d  eip=%08x", report.Steps, report.CPU.EIP)
	if report.Steps > 0 {
		c.printf("  last: %s", report.Instruction)
	}
	if len(report.Changed) > 0 {
		names := make([]string, len(report.Changed))
		for i, r := range report.Changed {
			names[i] = r.String()
		}
		c.printf("  changed: %s", strings.Join(names, ","))
	}
	if report.Breakpoint {
		c.printf("  [breakpoint]")
	}
	c.printf("\n")
}

// parseCount parses the optional instruction count argument.
func parseCount(args []string) (int, error) {
	if len(args) == 0 {
		return 1, nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > maxSteps {
		return 0, fmt.Errorf("%w: invalid count '%s'", ErrUsage, args[0])
	}
	return n, nil
}

func cmdStep(ctx context.Context, c *Console, args []string) error {
	count, err := parseCount(args)
	if err != nil {
		return err
	}

	for range count {
		if ctx.Err() != nil {
			break
		}
		report, err := c.session.Step()
		if err != nil {
			c.printReport(report)
			return err
		}
		c.printReport(report)
		if report.State != debugger.Paused || report.Reason == debugger.ReasonTrap {
			break
		}
	}
	return nil
}

func cmdRun(ctx context.Context, c *Console, args []string) error {
	var report debugger.Report
	var err error
	if len(args) == 0 {
		report, err = c.session.Run(ctx)
	} else {
		count, perr := parseCount(args)
		if perr != nil {
			return perr
		}
		report, err = c.session.RunN(ctx, count)
	}
	c.printReport(report)
	return err
}

func cmdStepBack(ctx context.Context, c *Console, args []string) error {
	count, err := parseCount(args)
	if err != nil {
		return err
	}

	for range count {
		if ctx.Err() != nil {
			break
		}
		report, err := c.session.StepBack()
		if err != nil {
			return err
		}
		c.printReport(report)
	}
	return nil
}

func cmdPatch(_ context.Context, c *Console, args []string) error {
	if len(args) < 2 {
		return ErrUsage
	}
	address, err := hexbytes.ParseAddress(args[0])
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}

	entry, err := c.session.PatchHex(address, strings.Join(args[1:], " "))
	if err != nil {
		return err
	}
	c.printf("patched %08x: %s -> %s\n", entry.Address, hexbytes.Format(entry.Previous), hexbytes.Format(entry.New))
	return nil
}

func cmdBreak(_ context.Context, c *Console, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	address, err := hexbytes.ParseAddress(args[0])
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}

	if c.session.ToggleBreakpoint(address) {
		c.printf("breakpoint set at %08x\n", address)
	} else {
		c.printf("breakpoint removed at %08x\n", address)
	}
	return nil
}

func cmdBreakpoints(_ context.Context, c *Console, _ []string) error {
	addresses := c.session.Breakpoints()
	if len(addresses) == 0 {
		c.printf("no breakpoints\n")
		return nil
	}
	for _, address := range addresses {
		c.printf("%08x\n", address)
	}
	return nil
}

func cmdReset(_ context.Context, c *Console, _ []string) error {
	if err := c.session.Reset(); err != nil {
		return err
	}
	state := c.session.CPU()
	c.printf("session reset, eip=%08x\n", state.EIP)
	return nil
}

func cmdUndo(_ context.Context, c *Console, _ []string) error {
	entry, err := c.session.Undo()
	if err != nil {
		return err
	}
	c.printf("undone patch at %08x, %d left\n", entry.Address, c.session.UndoCount())
	return nil
}

func cmdRedo(_ context.Context, c *Console, _ []string) error {
	entry, err := c.session.Redo()
	if err != nil {
		return err
	}
	c.printf("redone patch at %08x, %d left\n", entry.Address, c.session.RedoCount())
	return nil
}

func cmdRegisters(_ context.Context, c *Console, _ []string) error {
	state := c.session.CPU()
	c.printf("%s\n", state)
	return nil
}

func cmdMemory(_ context.Context, c *Console, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return ErrUsage
	}
	address, err := hexbytes.ParseAddress(args[0])
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}
	length := defaultMemoryLength
	if len(args) == 2 {
		n, err := hexbytes.ParseAddress(args[1])
		if err != nil || n == 0 {
			return fmt.Errorf("%w: invalid length '%s'", ErrUsage, args[1])
		}
		length = int(n)
	}

	data, err := c.session.ReadMemory(address, length)
	if err != nil {
		return err
	}
	c.printf("%s", Dump(address, data))
	return nil
}

func cmdDisassemble(_ context.Context, c *Console, args []string) error {
	state := c.session.CPU()
	address := state.EIP
	count := defaultListing
	if len(args) > 0 {
		a, err := hexbytes.ParseAddress(args[0])
		if err != nil {
			return fmt.Errorf("%w: %w", ErrUsage, err)
		}
		address = a
	}
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 1 {
			return fmt.Errorf("%w: invalid count '%s'", ErrUsage, args[1])
		}
		count = n
	}

	for _, line := range c.session.Disassemble(address, count) {
		marker := "  "
		switch {
		case line.Instruction.Address == state.EIP:
			marker = "=>"
		case c.session.IsBreakpoint(line.Instruction.Address):
			marker = "* "
		}
		c.printf("%s %s", marker, line)
		if mark, ok := c.marks.Get(line.Instruction.Address); ok && mark.Note != "" {
			c.printf("  ; %s", mark.Note)
		}
		c.printf("\n")
	}
	return nil
}

func cmdSearch(_ context.Context, c *Console, args []string) error {
	if len(args) < 1 {
		return ErrUsage
	}

	var results []search.Result
	var err error
	switch strings.ToLower(args[0]) {
	case "bytes":
		if len(args) < 2 {
			return ErrUsage
		}
		pattern, perr := hexbytes.Parse(strings.Join(args[1:], " "))
		if perr != nil {
			return perr
		}
		results, err = c.session.FindBytes(pattern)
	case "string":
		if len(args) < 2 {
			return ErrUsage
		}
		results, err = c.session.FindString(strings.Join(args[1:], " "), false)
	case "strings":
		minLength := defaultStringLength
		if len(args) > 1 {
			n, aerr := strconv.Atoi(args[1])
			if aerr != nil || n < 1 {
				return fmt.Errorf("%w: invalid minimum length '%s'", ErrUsage, args[1])
			}
			minLength = n
		}
		results, err = c.session.Strings(minLength)
	default:
		return ErrUsage
	}
	if err != nil {
		return err
	}

	for _, result := range results {
		if strings.ToLower(args[0]) == "bytes" {
			c.printf("%08x  %s\n", result.Address, hexbytes.Format(result.Data))
		} else {
			c.printf("%08x  %q\n", result.Address, result.Data)
		}
	}
	c.printf("%d matches\n", len(results))
	return nil
}

func cmdMark(_ context.Context, c *Console, args []string) error {
	if len(args) == 0 {
		for _, mark := range c.marks.List() {
			c.printf("%08x  %s\n", mark.Address, mark.Note)
		}
		return nil
	}

	address, err := hexbytes.ParseAddress(args[0])
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}
	note := strings.Join(args[1:], " ")
	if note != "" && c.marks.Has(address) {
		c.marks.UpdateNote(address, note)
		c.printf("bookmark updated at %08x\n", address)
		return nil
	}
	if c.marks.Toggle(address, note) {
		c.printf("bookmark set at %08x\n", address)
	} else {
		c.printf("bookmark removed at %08x\n", address)
	}
	return nil
}

func cmdDigest(_ context.Context, c *Console, _ []string) error {
	digest, err := c.session.Digest()
	if err != nil {
		return err
	}
	c.printf("%s\n", digest)
	return nil
}

func cmdState(_ context.Context, c *Console, _ []string) error {
	c.printf("state=%s steps=%d back=%d undo=%d redo=%d breakpoints=%d\n",
		c.session.State(), c.session.Steps(), c.session.StepBackCount(), c.session.UndoCount(),
		c.session.RedoCount(), len(c.session.Breakpoints()))
	if fault := c.session.Fault(); fault != nil {
		c.printf("fault: %s\n", fault)
	}
	if previous, ok := c.session.Previous(); ok {
		c.printf("previous: %08x  %s\n", previous.Address, previous)
	}
	if current, err := c.session.Current(); err == nil {
		c.printf("current:  %08x  %s\n", current.Address, current)
	}
	return nil
}

func cmdHelp(_ context.Context, c *Console, _ []string) error {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		cmd := commands[name]
		c.printf("%-50s %s\n", cmd.usage, cmd.help)
	}
	return nil
}

func cmdQuit(context.Context, *Console, []string) error {
	return ErrQuit
}
