package digest

import (
	"testing"

	"github.com/NeonFoundry/RevGame/internal/cpu"
	"github.com/retroenv/retrogolib/assert"
)

func TestMachine(t *testing.T) {
	mem := make([]byte, 0x100)
	state := cpu.New(0x1000, 0x4000)

	a, err := Machine(mem, state)
	assert.NoError(t, err)
	b, err := Machine(append([]byte(nil), mem...), state)
	assert.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a.String(), Size*2)
	assert.Len(t, a.Short(), 16)

	mem[0x80] = 1
	c, err := Machine(mem, state)
	assert.NoError(t, err)
	assert.True(t, a != c)

	mem[0x80] = 0
	state.SetFlag(cpu.Zero, true)
	d, err := Machine(mem, state)
	assert.NoError(t, err)
	assert.True(t, a != d)
}
