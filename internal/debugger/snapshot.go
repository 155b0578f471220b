package debugger

import (
	"fmt"

	"github.com/NeonFoundry/RevGame/internal/cpu"
	"github.com/NeonFoundry/RevGame/internal/digest"
	"github.com/NeonFoundry/RevGame/internal/history"
	"github.com/NeonFoundry/RevGame/internal/instruction"
)

// Snapshot is the complete mutable state of a session. It can be restored
// into a session that was loaded from the same configuration.
type Snapshot struct {
	Memory        []byte
	CPU           cpu.State
	State         State
	Steps         uint64
	Breakpoints   []uint32
	Patches       []history.Entry[Checkpoint]
	HistoryCursor int
}

// Snapshot captures the session state.
func (d *Debugger) Snapshot() Snapshot {
	return Snapshot{
		Memory:        d.mem.Snapshot(),
		CPU:           d.cpu,
		State:         d.state,
		Steps:         d.steps,
		Breakpoints:   d.breakpoints.List(),
		Patches:       d.history.Entries(),
		HistoryCursor: d.history.Cursor(),
	}
}

// Restore replaces the session state with a snapshot. A running session can
// not be restored, a snapshot taken while running is restored as paused.
func (d *Debugger) Restore(s Snapshot) error {
	if d.state == Running {
		return ErrRunning
	}
	if uint64(len(s.Memory)) != uint64(d.mem.Size()) {
		return fmt.Errorf("snapshot memory size 0x%x does not match session memory size 0x%x",
			len(s.Memory), d.mem.Size())
	}
	if err := d.history.Restore(s.Patches, s.HistoryCursor); err != nil {
		return fmt.Errorf("restoring history: %w", err)
	}
	if err := d.mem.Restore(s.Memory); err != nil {
		return fmt.Errorf("restoring memory: %w", err)
	}

	d.cpu = s.CPU
	d.state = s.State
	if d.state == Running {
		d.state = Paused
	}
	d.steps = s.Steps
	d.breakpoints.Replace(s.Breakpoints)
	d.stepLog.clear()
	d.hasPrevious = false
	d.previous = instruction.Instruction{}
	d.fault = nil
	return nil
}

// Digest returns a hash over memory and processor state. Two sessions with
// equal digests have identical machines.
func (d *Debugger) Digest() (digest.Digest, error) {
	return digest.Machine(d.mem.Snapshot(), d.cpu)
}
