package debugger

import (
	"context"
	"sync"

	"github.com/NeonFoundry/RevGame/internal/cpu"
	"github.com/NeonFoundry/RevGame/internal/history"
)

// Shared guards a session with a mutex so that it can be used from multiple
// goroutines. A run holds the lock until it stops, cancel its context to
// stop it from another goroutine.
type Shared struct {
	mu sync.Mutex
	d  *Debugger
}

// NewShared wraps a session.
func NewShared(d *Debugger) *Shared {
	return &Shared{d: d}
}

// Do calls fn with exclusive access to the session.
func (s *Shared) Do(fn func(d *Debugger) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.d)
}

// Step executes a single instruction.
func (s *Shared) Step() (Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.Step()
}

// Run executes instructions until a stop condition is reached.
func (s *Shared) Run(ctx context.Context) (Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.Run(ctx)
}

// RunN executes up to count instructions.
func (s *Shared) RunN(ctx context.Context, count int) (Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.RunN(ctx, count)
}

// StepBack reverts the last executed instruction.
func (s *Shared) StepBack() (Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.StepBack()
}

// Patch applies a patch.
func (s *Shared) Patch(address uint32, data []byte) (history.Entry[Checkpoint], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.Patch(address, data)
}

// Undo reverts the last patch.
func (s *Shared) Undo() (history.Entry[Checkpoint], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.Undo()
}

// Redo reapplies the last undone patch.
func (s *Shared) Redo() (history.Entry[Checkpoint], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.Redo()
}

// Reset restores the session to the state after loading.
func (s *Shared) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.Reset()
}

// ToggleBreakpoint sets or clears a breakpoint.
func (s *Shared) ToggleBreakpoint(address uint32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.ToggleBreakpoint(address)
}

// CPU returns a copy of the processor state.
func (s *Shared) CPU() cpu.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.CPU()
}

// State returns the session state.
func (s *Shared) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.State()
}

// ReadMemory returns a copy of a memory range.
func (s *Shared) ReadMemory(address uint32, length int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.ReadMemory(address, length)
}

// Breakpoints returns the breakpoint addresses in ascending order.
func (s *Shared) Breakpoints() []uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.d.Breakpoints()
}
