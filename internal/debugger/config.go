package debugger

import (
	"fmt"

	"github.com/NeonFoundry/RevGame/internal/cpu"
	"github.com/NeonFoundry/RevGame/internal/history"
	"github.com/NeonFoundry/RevGame/internal/memory"
)

// DefaultBudget is the maximum number of instructions a single run executes.
const DefaultBudget = 100_000

// DefaultStepBackCapacity is the number of executed instructions that can be
// stepped back.
const DefaultStepBackCapacity = 1000

// Segment is initial memory content.
type Segment struct {
	Address uint32
	Data    []byte
}

// Config describes a session to load.
type Config struct {
	MemorySize uint32
	Regions    []memory.Region
	Segments   []Segment

	// Registers holds initial register values. ESP defaults to the end of
	// the first stack region.
	Registers map[cpu.Register]uint32
	// EntryOffset is the offset of the first instruction from the start of
	// the first code region.
	EntryOffset uint32

	// Budget is the instruction limit of a run, DefaultBudget if zero.
	Budget int
	// HistoryCapacity is the patch history size, history.DefaultCapacity if zero.
	HistoryCapacity int
	// StepBackCapacity is the step back log size, DefaultStepBackCapacity
	// if zero.
	StepBackCapacity int

	// Breakpoints are set when the session is loaded.
	Breakpoints []uint32
	// ResetBreakpoints restores the loaded breakpoints on reset instead of
	// keeping the current ones.
	ResetBreakpoints bool
}

func (c Config) budget() int {
	if c.Budget > 0 {
		return c.Budget
	}
	return DefaultBudget
}

func (c Config) historyCapacity() int {
	if c.HistoryCapacity > 0 {
		return c.HistoryCapacity
	}
	return history.DefaultCapacity
}

func (c Config) stepBackCapacity() int {
	if c.StepBackCapacity > 0 {
		return c.StepBackCapacity
	}
	return DefaultStepBackCapacity
}

// initialState computes the processor state at session start.
func (c Config) initialState(mem *memory.Memory) (cpu.State, error) {
	var code, stack *memory.Region
	regions := mem.Regions()
	for i := range regions {
		r := &regions[i]
		if r.Kind == memory.Code && code == nil {
			code = r
		}
		if r.Kind == memory.Stack && stack == nil {
			stack = r
		}
	}
	if code == nil {
		return cpu.State{}, fmt.Errorf("%w: no code region", ErrInvalidConfig)
	}

	entry := code.Start + c.EntryOffset
	if c.EntryOffset >= code.Length {
		return cpu.State{}, fmt.Errorf("%w: entry offset 0x%x outside of code region %s",
			ErrInvalidConfig, c.EntryOffset, code)
	}

	var esp uint32
	if stack != nil {
		esp = uint32(stack.End())
	}
	state := cpu.New(entry, esp)
	for r, v := range c.Registers {
		if int(r) >= cpu.NumRegisters {
			return cpu.State{}, fmt.Errorf("%w: register %d", cpu.ErrInvalidRegister, r)
		}
		state.SetRegister(r, v)
	}
	return state, nil
}
