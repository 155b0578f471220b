package debugger

import "fmt"

// State is the execution state of a debugger session.
type State int

// Session states.
const (
	// Ready is the state after loading, before the session is started.
	Ready State = iota
	// Running means a run command is executing instructions.
	Running
	// Paused means the session waits for the next command.
	Paused
	// Halted means the program stopped by itself, only reset, patch and
	// undo/redo can leave it.
	Halted
	// Faulted means execution failed at the current instruction.
	Faulted
)

var stateNames = map[State]string{
	Ready:   "ready",
	Running: "running",
	Paused:  "paused",
	Halted:  "halted",
	Faulted: "faulted",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// StopReason tells why a step or run command returned.
type StopReason int

// Stop reasons.
const (
	ReasonNone StopReason = iota
	ReasonStep
	ReasonBreakpoint
	ReasonTrap
	ReasonHalted
	ReasonFaulted
	ReasonStopped
	ReasonBudget
	ReasonCount
	ReasonStepBack
)

var reasonNames = map[StopReason]string{
	ReasonNone:       "none",
	ReasonStep:       "step",
	ReasonBreakpoint: "breakpoint",
	ReasonTrap:       "trap",
	ReasonHalted:     "halted",
	ReasonFaulted:    "faulted",
	ReasonStopped:    "stopped",
	ReasonBudget:     "budget exceeded",
	ReasonCount:      "count reached",
	ReasonStepBack:   "step back",
}

func (r StopReason) String() string {
	if name, ok := reasonNames[r]; ok {
		return name
	}
	return fmt.Sprintf("reason(%d)", int(r))
}
