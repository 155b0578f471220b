package x86

import (
	"encoding/binary"
	"fmt"

	"github.com/NeonFoundry/RevGame/internal/cpu"
	"github.com/NeonFoundry/RevGame/internal/instruction"
	"github.com/retroenv/retrogolib/arch/cpu/x86"
)

// reader fetches the bytes of a single instruction one at a time.
type reader struct {
	mem   Fetcher
	start uint32
	buf   []byte
}

func (r *reader) pos() uint32 {
	return uint32(len(r.buf))
}

// next fetches the next byte. A failing fetch of the first byte is reported
// as the memory error itself, any later failure means the instruction runs
// off the executable memory.
func (r *reader) next() (byte, error) {
	b, err := r.mem.Fetch(r.start+r.pos(), 1)
	if err != nil {
		if len(r.buf) == 0 {
			return 0, fmt.Errorf("fetching opcode: %w", err)
		}
		return 0, fmt.Errorf("%w at 0x%08x after %d bytes: %w", ErrTruncatedInstruction, r.start, len(r.buf), err)
	}
	r.buf = append(r.buf, b[0])
	return b[0], nil
}

func (r *reader) imm8() (uint32, error) {
	b, err := r.next()
	return uint32(b), err
}

// simm8 reads a byte and sign extends it to 32 bits.
func (r *reader) simm8() (uint32, error) {
	b, err := r.next()
	return uint32(int32(int8(b))), err
}

func (r *reader) imm16() (uint32, error) {
	var b [2]byte
	for i := range b {
		v, err := r.next()
		if err != nil {
			return 0, err
		}
		b[i] = v
	}
	return uint32(binary.LittleEndian.Uint16(b[:])), nil
}

func (r *reader) imm32() (uint32, error) {
	var b [4]byte
	for i := range b {
		v, err := r.next()
		if err != nil {
			return 0, err
		}
		b[i] = v
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

// imm reads an immediate of the given operand size.
func (r *reader) imm(size uint8) (uint32, error) {
	if size == 1 {
		return r.imm8()
	}
	return r.imm32()
}

// rel8 reads a signed 8 bit displacement and returns the absolute target
// relative to the end of the instruction.
func (r *reader) rel8() (uint32, error) {
	v, err := r.simm8()
	if err != nil {
		return 0, err
	}
	return r.start + r.pos() + v, nil
}

func (r *reader) rel32() (uint32, error) {
	v, err := r.imm32()
	if err != nil {
		return 0, err
	}
	return r.start + r.pos() + v, nil
}

func (r *reader) modRM() (x86.ModRM, error) {
	var m x86.ModRM
	b, err := r.next()
	if err != nil {
		return m, err
	}
	m.FromByte(b)
	return m, nil
}

// regOperand returns the register selected by the reg field.
func regOperand(m x86.ModRM, size uint8) instruction.Operand {
	return instruction.RegOperand(cpu.Register(m.Reg), size)
}

// rmOperand decodes the register or memory operand selected by the mod and
// rm fields, reading SIB and displacement bytes as needed.
func (r *reader) rmOperand(m x86.ModRM, size uint8) (instruction.Operand, error) {
	if m.Mod == 3 {
		return instruction.RegOperand(cpu.Register(m.RM), size), nil
	}

	var ref instruction.MemRef
	base := m.RM
	if m.RM == 4 {
		sib, err := r.next()
		if err != nil {
			return instruction.Operand{}, err
		}
		if index := (sib >> 3) & 7; index != 4 {
			ref.HasIndex = true
			ref.Index = cpu.Register(index)
			ref.Scale = 1 << (sib >> 6)
		}
		base = sib & 7
	}

	if m.Mod == 0 && base == 5 {
		disp, err := r.imm32()
		if err != nil {
			return instruction.Operand{}, err
		}
		ref.Disp = int32(disp)
		return instruction.MemOperand(ref, size), nil
	}

	ref.HasBase = true
	ref.Base = cpu.Register(base)

	switch m.Mod {
	case 1:
		disp, err := r.simm8()
		if err != nil {
			return instruction.Operand{}, err
		}
		ref.Disp = int32(disp)
	case 2:
		disp, err := r.imm32()
		if err != nil {
			return instruction.Operand{}, err
		}
		ref.Disp = int32(disp)
	}
	return instruction.MemOperand(ref, size), nil
}
