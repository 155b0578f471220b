package debugger

import (
	"fmt"

	"github.com/NeonFoundry/RevGame/internal/hexbytes"
	"github.com/NeonFoundry/RevGame/internal/history"
	"github.com/retroenv/retrogolib/log"
)

// Patch writes bytes to memory and records the change in the patch history.
// Code regions can be patched although the guest can not write to them. A
// failed patch leaves the session unchanged.
func (d *Debugger) Patch(address uint32, data []byte) (history.Entry[Checkpoint], error) {
	if d.state == Running {
		return history.Entry[Checkpoint]{}, ErrRunning
	}
	if len(data) == 0 {
		return history.Entry[Checkpoint]{}, ErrEmptyPatch
	}

	entry, err := d.history.Apply(d.mem, address, data, d.checkpoint())
	if err != nil {
		return history.Entry[Checkpoint]{}, fmt.Errorf("patching 0x%08x: %w", address, err)
	}
	d.stepLog.clear()
	d.logger.Debug("Patch applied",
		log.Hex("address", address),
		log.String("previous", hexbytes.Format(entry.Previous)),
		log.String("new", hexbytes.Format(entry.New)))
	return entry, nil
}

// PatchHex parses the hex text and applies it as a patch.
func (d *Debugger) PatchHex(address uint32, text string) (history.Entry[Checkpoint], error) {
	data, err := hexbytes.Parse(text)
	if err != nil {
		return history.Entry[Checkpoint]{}, fmt.Errorf("parsing patch: %w", err)
	}
	return d.Patch(address, data)
}

// Undo reverts the last applied patch and restores the processor and
// session state from the time the patch was applied. Patching, undo and redo
// clear the step back log.
func (d *Debugger) Undo() (history.Entry[Checkpoint], error) {
	if d.state == Running {
		return history.Entry[Checkpoint]{}, ErrRunning
	}
	entry, err := d.history.Undo(d.mem)
	if err != nil {
		return history.Entry[Checkpoint]{}, err
	}
	d.restoreCheckpoint(entry.State)
	d.stepLog.clear()
	d.logger.Debug("Patch undone", log.Hex("address", entry.Address), log.Int("remaining", d.history.UndoCount()))
	return entry, nil
}

// Redo reapplies the last undone patch.
func (d *Debugger) Redo() (history.Entry[Checkpoint], error) {
	if d.state == Running {
		return history.Entry[Checkpoint]{}, ErrRunning
	}
	entry, err := d.history.Redo(d.mem)
	if err != nil {
		return history.Entry[Checkpoint]{}, err
	}
	d.restoreCheckpoint(entry.State)
	d.stepLog.clear()
	d.logger.Debug("Patch redone", log.Hex("address", entry.Address), log.Int("remaining", d.history.RedoCount()))
	return entry, nil
}

// CanUndo returns whether a patch can be undone.
func (d *Debugger) CanUndo() bool {
	return d.history.CanUndo()
}

// CanRedo returns whether a patch can be redone.
func (d *Debugger) CanRedo() bool {
	return d.history.CanRedo()
}

// UndoCount returns the number of patches that can be undone.
func (d *Debugger) UndoCount() int {
	return d.history.UndoCount()
}

// RedoCount returns the number of patches that can be redone.
func (d *Debugger) RedoCount() int {
	return d.history.RedoCount()
}

// Patches returns the recorded patches in application order.
func (d *Debugger) Patches() []history.Entry[Checkpoint] {
	return d.history.Entries()
}

func (d *Debugger) checkpoint() Checkpoint {
	return Checkpoint{
		CPU:         d.cpu,
		State:       d.state,
		Steps:       d.steps,
		Previous:    d.previous,
		HasPrevious: d.hasPrevious,
	}
}

func (d *Debugger) restoreCheckpoint(c Checkpoint) {
	d.cpu = c.CPU
	d.state = c.State
	d.steps = c.Steps
	d.previous = c.Previous
	d.hasPrevious = c.HasPrevious
	if c.State != Faulted {
		d.fault = nil
	}
}
