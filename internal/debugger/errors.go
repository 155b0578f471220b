package debugger

import (
	"errors"

	"github.com/NeonFoundry/RevGame/internal/arch/x86"
	"github.com/NeonFoundry/RevGame/internal/cpu"
	"github.com/NeonFoundry/RevGame/internal/executor"
	"github.com/NeonFoundry/RevGame/internal/hexbytes"
	"github.com/NeonFoundry/RevGame/internal/history"
	"github.com/NeonFoundry/RevGame/internal/memory"
)

var (
	// ErrExecutionBudgetExceeded is returned by Run when the instruction
	// budget is used up without reaching a stop condition.
	ErrExecutionBudgetExceeded = errors.New("execution budget exceeded")
	// ErrNotRunnable is returned for step and run commands outside of the
	// paused state.
	ErrNotRunnable = errors.New("session is not runnable")
	// ErrRunning is returned for commands that are not allowed while running.
	ErrRunning = errors.New("session is running")
	// ErrEmptyPatch is returned for patches without bytes.
	ErrEmptyPatch = errors.New("empty patch")
	// ErrInvalidCount is returned by RunN for counts below one.
	ErrInvalidCount = errors.New("invalid instruction count")
	// ErrInvalidConfig is returned by New for unusable session configurations.
	ErrInvalidConfig = errors.New("invalid session configuration")
)

// Kind is the stable name of an error category reported to the player.
type Kind string

// Error kinds.
const (
	KindNone                    Kind = ""
	KindOutOfBounds             Kind = "OutOfBounds"
	KindPermissionDenied        Kind = "PermissionDenied"
	KindInvalidRegister         Kind = "InvalidRegister"
	KindUnsupportedOpcode       Kind = "UnsupportedOpcode"
	KindTruncatedInstruction    Kind = "TruncatedInstruction"
	KindExecutionBudgetExceeded Kind = "ExecutionBudgetExceeded"
	KindNothingToUndo           Kind = "NothingToUndo"
	KindNothingToRedo           Kind = "NothingToRedo"
	KindNothingToStepBack       Kind = "NothingToStepBack"
	KindDivideError             Kind = "DivideError"
	KindInvalidPatch            Kind = "InvalidPatch"
	KindInvalidState            Kind = "InvalidState"
	KindOther                   Kind = "Other"
)

var kinds = []struct {
	err  error
	kind Kind
}{
	// truncation wraps the memory error, so it has to be checked first
	{x86.ErrTruncatedInstruction, KindTruncatedInstruction},
	{x86.ErrUnsupportedOpcode, KindUnsupportedOpcode},
	{memory.ErrOutOfBounds, KindOutOfBounds},
	{memory.ErrPermissionDenied, KindPermissionDenied},
	{cpu.ErrInvalidRegister, KindInvalidRegister},
	{ErrExecutionBudgetExceeded, KindExecutionBudgetExceeded},
	{history.ErrNothingToUndo, KindNothingToUndo},
	{history.ErrNothingToRedo, KindNothingToRedo},
	{ErrNothingToStepBack, KindNothingToStepBack},
	{executor.ErrDivideError, KindDivideError},
	{hexbytes.ErrInvalidHex, KindInvalidPatch},
	{ErrEmptyPatch, KindInvalidPatch},
	{ErrNotRunnable, KindInvalidState},
	{ErrRunning, KindInvalidState},
	{ErrInvalidCount, KindInvalidState},
}

// KindOf returns the category of an error returned by the debugger.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindOther
}
