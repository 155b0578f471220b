// Package history implements the linear undo and redo log of memory patches.
package history

import (
	"errors"
	"fmt"
)

// DefaultCapacity is the number of patches that are kept before the oldest
// entries are evicted.
const DefaultCapacity = 100

var (
	// ErrNothingToUndo is returned by Undo when no patch is before the cursor.
	ErrNothingToUndo = errors.New("nothing to undo")
	// ErrNothingToRedo is returned by Redo when no patch is after the cursor.
	ErrNothingToRedo = errors.New("nothing to redo")
)

// Patcher is the debugger view of the memory that patches are applied to.
type Patcher interface {
	Peek(address uint32, length int) ([]byte, error)
	Poke(address uint32, data []byte) error
}

// Entry is a single applied patch. State is the machine state that was
// current when the patch was applied, it is restored by undo and redo.
type Entry[S any] struct {
	Sequence uint64
	Address  uint32
	Previous []byte
	New      []byte
	State    S
}

// History is a capped linear log of patches with a cursor. Entries before
// the cursor are applied, entries at or after the cursor have been undone.
type History[S any] struct {
	entries  []Entry[S]
	cursor   int
	capacity int
	sequence uint64
}

// New returns an empty history that keeps at most capacity entries.
func New[S any](capacity int) *History[S] {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &History[S]{capacity: capacity}
}

// Apply writes the patch to memory and records it. Any undone entries after
// the cursor are discarded. If the memory rejects the write nothing is
// recorded.
func (h *History[S]) Apply(mem Patcher, address uint32, data []byte, state S) (Entry[S], error) {
	previous, err := mem.Peek(address, len(data))
	if err != nil {
		return Entry[S]{}, fmt.Errorf("reading patch target: %w", err)
	}
	if err := mem.Poke(address, data); err != nil {
		return Entry[S]{}, fmt.Errorf("writing patch: %w", err)
	}

	h.sequence++
	entry := Entry[S]{
		Sequence: h.sequence,
		Address:  address,
		Previous: previous,
		New:      append([]byte(nil), data...),
		State:    state,
	}

	h.entries = append(h.entries[:h.cursor], entry)
	if len(h.entries) > h.capacity {
		evict := len(h.entries) - h.capacity
		h.entries = append([]Entry[S](nil), h.entries[evict:]...)
	}
	h.cursor = len(h.entries)
	return entry, nil
}

// Undo restores the bytes of the entry before the cursor and moves the
// cursor back. The entry is returned so that the caller can restore its
// state.
func (h *History[S]) Undo(mem Patcher) (Entry[S], error) {
	if h.cursor == 0 {
		return Entry[S]{}, ErrNothingToUndo
	}
	entry := h.entries[h.cursor-1]
	if err := mem.Poke(entry.Address, entry.Previous); err != nil {
		return Entry[S]{}, fmt.Errorf("undoing patch %d: %w", entry.Sequence, err)
	}
	h.cursor--
	return entry, nil
}

// Redo reapplies the entry at the cursor and moves the cursor forward.
func (h *History[S]) Redo(mem Patcher) (Entry[S], error) {
	if h.cursor == len(h.entries) {
		return Entry[S]{}, ErrNothingToRedo
	}
	entry := h.entries[h.cursor]
	if err := mem.Poke(entry.Address, entry.New); err != nil {
		return Entry[S]{}, fmt.Errorf("redoing patch %d: %w", entry.Sequence, err)
	}
	h.cursor++
	return entry, nil
}

// Len returns the number of recorded entries.
func (h *History[S]) Len() int {
	return len(h.entries)
}

// Cursor returns the number of currently applied entries.
func (h *History[S]) Cursor() int {
	return h.cursor
}

// Capacity returns the maximum number of entries.
func (h *History[S]) Capacity() int {
	return h.capacity
}

// CanUndo returns whether an entry can be undone.
func (h *History[S]) CanUndo() bool {
	return h.cursor > 0
}

// CanRedo returns whether an entry can be redone.
func (h *History[S]) CanRedo() bool {
	return h.cursor < len(h.entries)
}

// UndoCount returns the number of entries that can be undone.
func (h *History[S]) UndoCount() int {
	return h.cursor
}

// RedoCount returns the number of entries that can be redone.
func (h *History[S]) RedoCount() int {
	return len(h.entries) - h.cursor
}

// Entries returns a copy of all entries in application order.
func (h *History[S]) Entries() []Entry[S] {
	entries := make([]Entry[S], len(h.entries))
	copy(entries, h.entries)
	return entries
}

// Clear removes all entries.
func (h *History[S]) Clear() {
	h.entries = nil
	h.cursor = 0
}

// Restore replaces the log with previously saved entries and cursor. The
// memory is not modified, it is expected to match the saved cursor.
func (h *History[S]) Restore(entries []Entry[S], cursor int) error {
	if cursor < 0 || cursor > len(entries) {
		return fmt.Errorf("history cursor %d out of range 0-%d", cursor, len(entries))
	}
	if len(entries) > h.capacity {
		return fmt.Errorf("history of %d entries exceeds capacity %d", len(entries), h.capacity)
	}
	h.entries = append([]Entry[S](nil), entries...)
	h.cursor = cursor
	for _, e := range entries {
		h.sequence = max(h.sequence, e.Sequence)
	}
	return nil
}
