package debugger

import (
	"fmt"

	"github.com/NeonFoundry/RevGame/internal/arch/x86"
	"github.com/NeonFoundry/RevGame/internal/cpu"
	"github.com/NeonFoundry/RevGame/internal/instruction"
	"github.com/NeonFoundry/RevGame/internal/memory"
	"github.com/NeonFoundry/RevGame/internal/search"
	"github.com/retroenv/retrogolib/log"
)

// CPU returns a copy of the processor state.
func (d *Debugger) CPU() cpu.State {
	return d.cpu
}

// State returns the session state.
func (d *Debugger) State() State {
	return d.state
}

// Fault returns the error that moved the session to the Faulted state.
func (d *Debugger) Fault() error {
	return d.fault
}

// Steps returns the number of instructions executed since loading or the
// last reset.
func (d *Debugger) Steps() uint64 {
	return d.steps
}

// Regions returns the memory layout.
func (d *Debugger) Regions() []memory.Region {
	return d.mem.Regions()
}

// ReadMemory returns a copy of a memory range. Only the range has to be
// mapped, read permission is not required.
func (d *Debugger) ReadMemory(address uint32, length int) ([]byte, error) {
	data, err := d.mem.Peek(address, length)
	if err != nil {
		return nil, fmt.Errorf("reading memory: %w", err)
	}
	return data, nil
}

// Current decodes the instruction at the instruction pointer.
func (d *Debugger) Current() (instruction.Instruction, error) {
	ins, err := x86.Decode(d.mem, d.cpu.EIP)
	if err != nil {
		return instruction.Instruction{}, fmt.Errorf("decoding current instruction: %w", err)
	}
	return ins, nil
}

// Previous returns the last executed instruction.
func (d *Debugger) Previous() (instruction.Instruction, bool) {
	return d.previous, d.hasPrevious
}

// Disassemble returns a listing of count instructions starting at address.
func (d *Debugger) Disassemble(address uint32, count int) []x86.Line {
	return x86.Disassemble(d.mem, address, count)
}

// Breakpoints returns the breakpoint addresses in ascending order.
func (d *Debugger) Breakpoints() []uint32 {
	return d.breakpoints.List()
}

// IsBreakpoint returns whether a breakpoint is set at the address.
func (d *Debugger) IsBreakpoint(address uint32) bool {
	return d.breakpoints.Contains(address)
}

// ToggleBreakpoint sets or clears a breakpoint and returns whether it is set.
func (d *Debugger) ToggleBreakpoint(address uint32) bool {
	set := d.breakpoints.Toggle(address)
	if set {
		d.logger.Debug("Breakpoint added", log.Hex("address", address))
	} else {
		d.logger.Debug("Breakpoint removed", log.Hex("address", address))
	}
	return set
}

// AddBreakpoint sets a breakpoint.
func (d *Debugger) AddBreakpoint(address uint32) {
	d.breakpoints.Add(address)
	d.logger.Debug("Breakpoint added", log.Hex("address", address))
}

// RemoveBreakpoint clears a breakpoint.
func (d *Debugger) RemoveBreakpoint(address uint32) {
	d.breakpoints.Remove(address)
	d.logger.Debug("Breakpoint removed", log.Hex("address", address))
}

// ClearBreakpoints removes all breakpoints.
func (d *Debugger) ClearBreakpoints() {
	d.breakpoints.Clear()
}

// Register returns a register value by name, eip and eflags are accepted.
func (d *Debugger) Register(name string) (uint32, error) {
	value, err := d.cpu.Get(name)
	if err != nil {
		return 0, fmt.Errorf("reading register: %w", err)
	}
	return value, nil
}

// Flag returns the state of a processor flag.
func (d *Debugger) Flag(f cpu.Flag) bool {
	return d.cpu.Flag(f)
}

// Memory returns a memory range for comparison against expected values.
func (d *Debugger) Memory(address uint32, length int) ([]byte, error) {
	return d.ReadMemory(address, length)
}

// Halted returns whether the program stopped by itself.
func (d *Debugger) Halted() bool {
	return d.state == Halted
}

// FindBytes searches all regions for a byte pattern.
func (d *Debugger) FindBytes(pattern []byte) ([]search.Result, error) {
	return search.InRegions(d.mem, func(start, end uint32) ([]search.Result, error) {
		return search.Bytes(d.mem, pattern, start, end)
	})
}

// FindString searches all regions for a string.
func (d *Debugger) FindString(text string, caseSensitive bool) ([]search.Result, error) {
	return search.InRegions(d.mem, func(start, end uint32) ([]search.Result, error) {
		return search.String(d.mem, text, start, end, caseSensitive)
	})
}

// Strings returns all printable null terminated strings in all regions.
func (d *Debugger) Strings(minLength int) ([]search.Result, error) {
	return search.InRegions(d.mem, func(start, end uint32) ([]search.Result, error) {
		return search.Strings(d.mem, minLength, start, end)
	})
}
