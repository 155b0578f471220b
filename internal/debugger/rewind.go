package debugger

import (
	"errors"
	"fmt"

	"github.com/NeonFoundry/RevGame/internal/memory"
	"github.com/retroenv/retrogolib/log"
)

// ErrNothingToStepBack is returned by StepBack when no executed instruction
// is recorded.
var ErrNothingToStepBack = errors.New("nothing to step back")

// memoryWrite is the previous content of a guest memory write.
type memoryWrite struct {
	address  uint32
	previous []byte
}

// stepRecord is the session state before an executed instruction and the
// memory it overwrote.
type stepRecord struct {
	checkpoint Checkpoint
	writes     []memoryWrite
}

// stepRing is a ring of the most recent step records, the oldest record is
// dropped when the ring is full.
type stepRing struct {
	records []stepRecord
	start   int
	count   int
}

func newStepRing(capacity int) *stepRing {
	return &stepRing{records: make([]stepRecord, capacity)}
}

func (l *stepRing) push(r stepRecord) {
	i := (l.start + l.count) % len(l.records)
	l.records[i] = r
	if l.count == len(l.records) {
		l.start = (l.start + 1) % len(l.records)
		return
	}
	l.count++
}

func (l *stepRing) pop() (stepRecord, bool) {
	if l.count == 0 {
		return stepRecord{}, false
	}
	l.count--
	i := (l.start + l.count) % len(l.records)
	r := l.records[i]
	l.records[i] = stepRecord{}
	return r, true
}

func (l *stepRing) clear() {
	clear(l.records)
	l.start = 0
	l.count = 0
}

// recordingBus is the guest view of the memory that remembers the previous
// content of every successful write.
type recordingBus struct {
	mem    *memory.Memory
	writes []memoryWrite
}

func (b *recordingBus) Read(address uint32, length int) ([]byte, error) {
	return b.mem.Read(address, length)
}

func (b *recordingBus) Write(address uint32, data []byte) error {
	previous, err := b.mem.Peek(address, len(data))
	if err != nil {
		// the write fails with the permission checked error
		return b.mem.Write(address, data)
	}
	if err := b.mem.Write(address, data); err != nil {
		return err
	}
	b.writes = append(b.writes, memoryWrite{address: address, previous: previous})
	return nil
}

// revertWrites restores the recorded writes in reverse order.
func revertWrites(mem *memory.Memory, writes []memoryWrite) error {
	for i := len(writes) - 1; i >= 0; i-- {
		w := writes[i]
		if err := mem.Load(w.address, w.previous); err != nil {
			return fmt.Errorf("reverting write at 0x%08x: %w", w.address, err)
		}
	}
	return nil
}

// StepBack reverts the last executed instruction. Processor, memory, step
// count and session state return to what they were before the instruction,
// which also leaves a Halted or Faulted session. Patches and resets clear
// the recorded steps.
func (d *Debugger) StepBack() (Report, error) {
	if d.state == Running {
		return d.report(ReasonNone, d.cpu), ErrRunning
	}
	record, ok := d.stepLog.pop()
	if !ok {
		return d.report(ReasonNone, d.cpu), ErrNothingToStepBack
	}
	if err := revertWrites(d.mem, record.writes); err != nil {
		return d.report(ReasonNone, d.cpu), err
	}

	before := d.cpu
	d.restoreCheckpoint(record.checkpoint)
	// instructions only execute from a paused or running session
	d.state = Paused
	d.fault = nil
	d.logger.Debug("Stepped back",
		log.Hex("eip", d.cpu.EIP),
		log.Int("remaining", d.stepLog.count))
	return d.report(ReasonStepBack, before), nil
}

// CanStepBack returns whether an executed instruction can be stepped back.
func (d *Debugger) CanStepBack() bool {
	return d.stepLog.count > 0
}

// StepBackCount returns the number of instructions that can be stepped back.
func (d *Debugger) StepBackCount() int {
	return d.stepLog.count
}
