package history

import (
	"errors"
	"testing"

	"github.com/NeonFoundry/RevGame/internal/memory"
	"github.com/retroenv/retrogolib/assert"
)

func newMemory(t *testing.T) *memory.Memory {
	t.Helper()
	mem, err := memory.New(0x4000, []memory.Region{
		{Start: 0x1000, Length: 0x1000, Kind: memory.Code, Perm: memory.ReadExecute},
		{Start: 0x2000, Length: 0x100, Kind: memory.Data, Perm: memory.ReadOnly},
	})
	assert.NoError(t, err)
	assert.NoError(t, mem.Load(0x1000, []byte{0x74, 0x05, 0xb8, 0x00}))
	return mem
}

func peek(t *testing.T, mem *memory.Memory, address uint32, length int) []byte {
	t.Helper()
	b, err := mem.Peek(address, length)
	assert.NoError(t, err)
	return b
}

func TestApplyUndoRedo(t *testing.T) {
	mem := newMemory(t)
	h := New[string](DefaultCapacity)

	_, err := h.Undo(mem)
	assert.True(t, errors.Is(err, ErrNothingToUndo))
	_, err = h.Redo(mem)
	assert.True(t, errors.Is(err, ErrNothingToRedo))

	entry, err := h.Apply(mem, 0x1000, []byte{0x75}, "before")
	assert.NoError(t, err)
	assert.Equal(t, []byte{0x74}, entry.Previous)
	assert.Equal(t, []byte{0x75, 0x05}, peek(t, mem, 0x1000, 2))
	assert.Equal(t, 1, h.Cursor())

	entry, err = h.Undo(mem)
	assert.NoError(t, err)
	assert.Equal(t, "before", entry.State)
	assert.Equal(t, []byte{0x74, 0x05}, peek(t, mem, 0x1000, 2))
	assert.False(t, h.CanUndo())
	assert.True(t, h.CanRedo())

	_, err = h.Redo(mem)
	assert.NoError(t, err)
	assert.Equal(t, []byte{0x75, 0x05}, peek(t, mem, 0x1000, 2))

	_, err = h.Redo(mem)
	assert.True(t, errors.Is(err, ErrNothingToRedo))
}

func TestApplyDiscardsRedoTail(t *testing.T) {
	mem := newMemory(t)
	h := New[int](DefaultCapacity)

	_, err := h.Apply(mem, 0x1000, []byte{0x90}, 1)
	assert.NoError(t, err)
	_, err = h.Apply(mem, 0x1001, []byte{0x90}, 2)
	assert.NoError(t, err)
	_, err = h.Undo(mem)
	assert.NoError(t, err)
	assert.Equal(t, 1, h.UndoCount())
	assert.Equal(t, 1, h.RedoCount())

	_, err = h.Apply(mem, 0x1002, []byte{0x90}, 3)
	assert.NoError(t, err)
	assert.Equal(t, 2, h.Len())
	assert.False(t, h.CanRedo())
	assert.Equal(t, []byte{0x90, 0x05, 0x90}, peek(t, mem, 0x1000, 3))
}

func TestFailedApplyRecordsNothing(t *testing.T) {
	mem := newMemory(t)
	h := New[int](DefaultCapacity)

	_, err := h.Apply(mem, 0x2000, []byte{0x90}, 0)
	assert.True(t, errors.Is(err, memory.ErrPermissionDenied))
	_, err = h.Apply(mem, 0x1fff, []byte{0x90, 0x90}, 0)
	assert.True(t, errors.Is(err, memory.ErrPermissionDenied))
	_, err = h.Apply(mem, 0x3000, []byte{0x90}, 0)
	assert.True(t, errors.Is(err, memory.ErrOutOfBounds))

	assert.Equal(t, 0, h.Len())
	assert.Equal(t, 0, h.Cursor())
}

func TestEviction(t *testing.T) {
	mem := newMemory(t)
	h := New[int](DefaultCapacity)

	for i := range DefaultCapacity + 5 {
		_, err := h.Apply(mem, 0x1100+uint32(i), []byte{byte(i)}, i)
		assert.NoError(t, err)
	}
	assert.Equal(t, DefaultCapacity, h.Len())
	assert.Equal(t, DefaultCapacity, h.Cursor())

	entries := h.Entries()
	assert.Equal(t, uint32(0x1105), entries[0].Address)
	assert.Equal(t, uint64(6), entries[0].Sequence)

	for range DefaultCapacity {
		_, err := h.Undo(mem)
		assert.NoError(t, err)
	}
	_, err := h.Undo(mem)
	assert.True(t, errors.Is(err, ErrNothingToUndo))
	// the evicted patches stay applied
	assert.Equal(t, []byte{0, 1, 2, 3, 4, 0}, peek(t, mem, 0x1100, 6))
}

func TestRestore(t *testing.T) {
	mem := newMemory(t)
	h := New[int](4)
	_, err := h.Apply(mem, 0x1000, []byte{0x90}, 0)
	assert.NoError(t, err)

	saved := h.Entries()
	other := New[int](4)
	assert.NoError(t, other.Restore(saved, 1))
	assert.Equal(t, 1, other.Cursor())

	entry, err := other.Apply(mem, 0x1001, []byte{0x90}, 0)
	assert.NoError(t, err)
	assert.Equal(t, uint64(2), entry.Sequence)

	assert.Error(t, other.Restore(saved, 2))
	assert.Error(t, New[int](0).Restore(make([]Entry[int], DefaultCapacity+1), 0))

	other.Clear()
	assert.Equal(t, 0, other.Len())
}
