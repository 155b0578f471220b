package executor

import (
	"encoding/binary"
	"fmt"

	"github.com/NeonFoundry/RevGame/internal/cpu"
	"github.com/NeonFoundry/RevGame/internal/instruction"
)

// machine bundles the state that a single instruction operates on.
type machine struct {
	cpu *cpu.State
	mem Bus
}

// effectiveAddress computes base + index*scale + disp with 32 bit wrap around.
func (m *machine) effectiveAddress(ref instruction.MemRef) uint32 {
	address := uint32(ref.Disp)
	if ref.HasBase {
		address += m.cpu.Register(ref.Base)
	}
	if ref.HasIndex {
		address += m.cpu.Register(ref.Index) * uint32(ref.Scale)
	}
	return address
}

func (m *machine) read(op instruction.Operand) (uint32, error) {
	switch op.Kind {
	case instruction.Register:
		if op.Size == 1 {
			return uint32(m.cpu.Register8(op.Reg)), nil
		}
		return m.cpu.Register(op.Reg), nil

	case instruction.Immediate:
		return op.Imm, nil

	case instruction.Memory:
		address := m.effectiveAddress(op.Mem)
		b, err := m.mem.Read(address, int(op.Size))
		if err != nil {
			return 0, fmt.Errorf("reading operand: %w", err)
		}
		if op.Size == 1 {
			return uint32(b[0]), nil
		}
		return binary.LittleEndian.Uint32(b), nil

	default:
		return 0, fmt.Errorf("%w: reading operand kind %d", ErrInvalidOperand, op.Kind)
	}
}

func (m *machine) write(op instruction.Operand, value uint32) error {
	switch op.Kind {
	case instruction.Register:
		if op.Size == 1 {
			m.cpu.SetRegister8(op.Reg, uint8(value))
		} else {
			m.cpu.SetRegister(op.Reg, value)
		}
		return nil

	case instruction.Memory:
		address := m.effectiveAddress(op.Mem)
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], value)
		if err := m.mem.Write(address, b[:op.Size]); err != nil {
			return fmt.Errorf("writing operand: %w", err)
		}
		return nil

	default:
		return fmt.Errorf("%w: writing operand kind %d", ErrInvalidOperand, op.Kind)
	}
}

// target returns the destination of a branch. Relative branches are decoded
// to absolute immediates, indirect branches read their operand.
func (m *machine) target(op instruction.Operand) (uint32, error) {
	if op.Kind == instruction.Immediate {
		return op.Imm, nil
	}
	return m.read(op)
}

// push decrements ESP and stores the value at the new top of the stack.
func (m *machine) push(value uint32) error {
	esp := m.cpu.Register(cpu.ESP) - 4
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], value)
	if err := m.mem.Write(esp, b[:]); err != nil {
		return fmt.Errorf("pushing to stack: %w", err)
	}
	m.cpu.SetRegister(cpu.ESP, esp)
	return nil
}

// pop loads the value at the top of the stack and increments ESP.
func (m *machine) pop() (uint32, error) {
	esp := m.cpu.Register(cpu.ESP)
	b, err := m.mem.Read(esp, 4)
	if err != nil {
		return 0, fmt.Errorf("popping from stack: %w", err)
	}
	m.cpu.SetRegister(cpu.ESP, esp+4)
	return binary.LittleEndian.Uint32(b), nil
}

// pushAllOrder is the register order of PUSHAD starting at the lowest
// stack address.
var pushAllOrder = [...]cpu.Register{cpu.EDI, cpu.ESI, cpu.EBP, cpu.ESP, cpu.EBX, cpu.EDX, cpu.ECX, cpu.EAX}

// pushAll implements PUSHAD with a single memory write.
func (m *machine) pushAll() error {
	esp := m.cpu.Register(cpu.ESP)
	var b [32]byte
	for i, r := range pushAllOrder {
		binary.LittleEndian.PutUint32(b[i*4:], m.cpu.Register(r))
	}
	if err := m.mem.Write(esp-32, b[:]); err != nil {
		return fmt.Errorf("pushing all registers: %w", err)
	}
	m.cpu.SetRegister(cpu.ESP, esp-32)
	return nil
}

// popAll implements POPAD with a single memory read. The stored ESP value
// is discarded.
func (m *machine) popAll() error {
	esp := m.cpu.Register(cpu.ESP)
	b, err := m.mem.Read(esp, 32)
	if err != nil {
		return fmt.Errorf("popping all registers: %w", err)
	}
	for i, r := range pushAllOrder {
		if r == cpu.ESP {
			continue
		}
		m.cpu.SetRegister(r, binary.LittleEndian.Uint32(b[i*4:]))
	}
	m.cpu.SetRegister(cpu.ESP, esp+32)
	return nil
}
