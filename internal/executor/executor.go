// Package executor applies decoded instructions to the processor state and memory.
package executor

import (
	"errors"
	"fmt"

	"github.com/NeonFoundry/RevGame/internal/cpu"
	"github.com/NeonFoundry/RevGame/internal/instruction"
)

var (
	// ErrInvalidOperand is returned when an instruction has an operand shape
	// that its operation can not use.
	ErrInvalidOperand = errors.New("invalid operand")
	// ErrDivideError is returned for a division by zero or a quotient that
	// does not fit the destination.
	ErrDivideError = errors.New("divide error")
	// ErrUnknownOperation is returned for operations without semantics.
	ErrUnknownOperation = errors.New("unknown operation")
)

// Bus is the guest view of the memory with permission checks.
type Bus interface {
	Read(address uint32, length int) ([]byte, error)
	Write(address uint32, data []byte) error
}

// Result is the outcome of executing a single instruction.
type Result int

// Execution results.
const (
	// Continue means execution can go on with the next instruction.
	Continue Result = iota
	// Halted means the program stopped by HLT or a software interrupt.
	Halted
	// Trap means an INT3 software breakpoint was executed.
	Trap
)

func (r Result) String() string {
	switch r {
	case Continue:
		return "continue"
	case Halted:
		return "halted"
	case Trap:
		return "trap"
	default:
		return fmt.Sprintf("result(%d)", int(r))
	}
}

// Execute applies the instruction to the state and memory. On error the
// state may be partially modified and the caller is expected to restore it.
// An instruction performs at most one memory write, so memory is unchanged
// when an error is returned.
//
//nolint:funlen,cyclop,gocognit,gocyclo // one case per operation
func Execute(ins instruction.Instruction, c *cpu.State, mem Bus) (Result, error) {
	m := &machine{cpu: c, mem: mem}
	next := ins.Next()
	ops := ins.Operands
	if len(ops) < operandCount(ins.Op) {
		return Continue, fmt.Errorf("%w: %s expects %d operands", ErrInvalidOperand, ins.Op, operandCount(ins.Op))
	}

	switch ins.Op {
	case instruction.Mov, instruction.Movzx:
		v, err := m.read(ops[1])
		if err != nil {
			return Continue, err
		}
		if err := m.write(ops[0], v); err != nil {
			return Continue, err
		}

	case instruction.Movsx:
		v, err := m.read(ops[1])
		if err != nil {
			return Continue, err
		}
		if err := m.write(ops[0], uint32(signExtend(v, ops[1].Size))); err != nil {
			return Continue, err
		}

	case instruction.Lea:
		if ops[1].Kind != instruction.Memory {
			return Continue, fmt.Errorf("%w: lea needs a memory operand", ErrInvalidOperand)
		}
		if err := m.write(ops[0], m.effectiveAddress(ops[1].Mem)); err != nil {
			return Continue, err
		}

	case instruction.Xchg:
		a, err := m.read(ops[0])
		if err != nil {
			return Continue, err
		}
		b, err := m.read(ops[1])
		if err != nil {
			return Continue, err
		}
		if err := m.write(ops[0], b); err != nil {
			return Continue, err
		}
		if err := m.write(ops[1], a); err != nil {
			return Continue, err
		}

	case instruction.Cdq:
		var edx uint32
		if c.Register(cpu.EAX)&0x80000000 != 0 {
			edx = 0xffffffff
		}
		c.SetRegister(cpu.EDX, edx)

	case instruction.Add, instruction.Adc, instruction.Sub, instruction.Sbb,
		instruction.And, instruction.Or, instruction.Xor, instruction.Cmp, instruction.Test:
		if err := m.binary(ins.Op, ops[0], ops[1]); err != nil {
			return Continue, err
		}

	case instruction.Inc, instruction.Dec, instruction.Neg, instruction.Not:
		if err := m.unary(ins.Op, ops[0]); err != nil {
			return Continue, err
		}

	case instruction.Shl, instruction.Shr, instruction.Sar, instruction.Rol, instruction.Ror:
		if err := m.shift(ins.Op, ops[0], ops[1]); err != nil {
			return Continue, err
		}

	case instruction.Mul:
		if err := m.mul(ops[0]); err != nil {
			return Continue, err
		}

	case instruction.Imul:
		if err := m.imul(ops); err != nil {
			return Continue, err
		}

	case instruction.Div, instruction.Idiv:
		if err := m.divide(ins.Op == instruction.Idiv, ops[0]); err != nil {
			return Continue, err
		}

	case instruction.Jmp:
		target, err := m.target(ops[0])
		if err != nil {
			return Continue, err
		}
		next = target

	case instruction.Jcc:
		if condition(c, uint8(ins.Cond)) {
			next = ops[0].Imm
		}

	case instruction.Loop:
		ecx := c.Register(cpu.ECX) - 1
		c.SetRegister(cpu.ECX, ecx)
		if ecx != 0 {
			next = ops[0].Imm
		}

	case instruction.Call:
		target, err := m.target(ops[0])
		if err != nil {
			return Continue, err
		}
		if err := m.push(next); err != nil {
			return Continue, err
		}
		next = target

	case instruction.Ret:
		address, err := m.pop()
		if err != nil {
			return Continue, err
		}
		if len(ops) > 0 {
			c.SetRegister(cpu.ESP, c.Register(cpu.ESP)+ops[0].Imm)
		}
		next = address

	case instruction.Push:
		v, err := m.read(ops[0])
		if err != nil {
			return Continue, err
		}
		if err := m.push(v); err != nil {
			return Continue, err
		}

	case instruction.Pop:
		v, err := m.pop()
		if err != nil {
			return Continue, err
		}
		if err := m.write(ops[0], v); err != nil {
			return Continue, err
		}

	case instruction.Pushad:
		if err := m.pushAll(); err != nil {
			return Continue, err
		}

	case instruction.Popad:
		if err := m.popAll(); err != nil {
			return Continue, err
		}

	case instruction.Leave:
		c.SetRegister(cpu.ESP, c.Register(cpu.EBP))
		v, err := m.pop()
		if err != nil {
			return Continue, err
		}
		c.SetRegister(cpu.EBP, v)

	case instruction.Nop:

	case instruction.Clc:
		c.SetFlag(cpu.Carry, false)

	case instruction.Stc:
		c.SetFlag(cpu.Carry, true)

	case instruction.Cmc:
		c.SetFlag(cpu.Carry, !c.Flag(cpu.Carry))

	case instruction.Hlt, instruction.Int:
		c.SetIP(next)
		return Halted, nil

	case instruction.Int3:
		c.SetIP(next)
		return Trap, nil

	default:
		return Continue, fmt.Errorf("%w: %s", ErrUnknownOperation, ins.Op)
	}

	c.SetIP(next)
	return Continue, nil
}

// operandCount returns the minimum number of operands an operation needs.
func operandCount(op instruction.Op) int {
	switch op {
	case instruction.Mov, instruction.Movzx, instruction.Movsx, instruction.Lea, instruction.Xchg,
		instruction.Add, instruction.Adc, instruction.Sub, instruction.Sbb,
		instruction.And, instruction.Or, instruction.Xor, instruction.Cmp, instruction.Test,
		instruction.Shl, instruction.Shr, instruction.Sar, instruction.Rol, instruction.Ror:
		return 2
	case instruction.Inc, instruction.Dec, instruction.Neg, instruction.Not,
		instruction.Mul, instruction.Imul, instruction.Div, instruction.Idiv,
		instruction.Jmp, instruction.Jcc, instruction.Loop, instruction.Call,
		instruction.Push, instruction.Pop:
		return 1
	default:
		return 0
	}
}
