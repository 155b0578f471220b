package cpu

import (
	"errors"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestGetSetByName(t *testing.T) {
	s := New(0x1000, 0x4000)
	assert.Equal(t, uint32(0x1000), s.EIP)
	assert.Equal(t, uint32(0x4000), s.Register(ESP))

	assert.NoError(t, s.Set("EAX", 0x1337))
	v, err := s.Get("eax")
	assert.NoError(t, err)
	assert.Equal(t, uint32(0x1337), v)

	assert.NoError(t, s.Set(" Edi ", 7))
	assert.Equal(t, uint32(7), s.Register(EDI))

	assert.NoError(t, s.Set("eip", 0x1234))
	v, err = s.Get("EIP")
	assert.NoError(t, err)
	assert.Equal(t, uint32(0x1234), v)

	_, err = s.Get("rax")
	assert.True(t, errors.Is(err, ErrInvalidRegister))
	assert.True(t, errors.Is(s.Set("ax", 1), ErrInvalidRegister))
}

func TestRegister8(t *testing.T) {
	var s State
	s.SetRegister(EAX, 0x11223344)
	s.SetRegister(EBX, 0xaabbccdd)

	assert.Equal(t, uint8(0x44), s.Register8(0))
	assert.Equal(t, uint8(0x33), s.Register8(4))
	assert.Equal(t, uint8(0xdd), s.Register8(3))
	assert.Equal(t, uint8(0xcc), s.Register8(7))

	s.SetRegister8(0, 0xff)
	assert.Equal(t, uint32(0x112233ff), s.Register(EAX))
	s.SetRegister8(7, 0x01)
	assert.Equal(t, uint32(0xaabb01dd), s.Register(EBX))

	assert.Equal(t, "ah", Register(4).Name8())
}

func TestFlags(t *testing.T) {
	var s State
	s.SetFlag(Zero, true)
	s.SetFlag(Overflow, true)
	assert.True(t, s.Flag(Zero))
	assert.False(t, s.Flag(Carry))
	assert.Equal(t, Flags(0x840), s.Flags)
	assert.Equal(t, "[ ZF OF ]", s.Flags.String())

	s.SetFlag(Zero, false)
	assert.Equal(t, "[ OF ]", s.Flags.String())

	f, ok := ParseFlag("cf")
	assert.True(t, ok)
	assert.Equal(t, Carry, f)
	_, ok = ParseFlag("xf")
	assert.False(t, ok)
}

func TestAdvanceIPWraps(t *testing.T) {
	s := New(0xfffffffe, 0)
	s.AdvanceIP(5)
	assert.Equal(t, uint32(3), s.EIP)
}

func TestChanged(t *testing.T) {
	before := New(0x1000, 0x4000)
	after := before
	after.SetRegister(EAX, 1)
	after.SetRegister(ESP, 0x3ffc)
	after.EIP = 0x1005

	assert.Equal(t, []Register{EAX, ESP}, after.Changed(before))
	assert.Empty(t, before.Changed(before))
}

func TestReadOnlyMethodsOnReturnedValue(t *testing.T) {
	s := New(0x1000, 0x4000)
	s.SetRegister(EAX, 0x1234)
	s.SetFlag(Zero, true)
	copyOf := func() State { return s }

	assert.Equal(t, uint32(0x1234), copyOf().Register(EAX))
	assert.Equal(t, uint8(0x12), copyOf().Register8(4))
	assert.True(t, copyOf().Flag(Zero))
	v, err := copyOf().Get("esp")
	assert.NoError(t, err)
	assert.Equal(t, uint32(0x4000), v)
	assert.Empty(t, copyOf().Changed(s))
}
