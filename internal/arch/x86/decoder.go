// Package x86 decodes 32 bit x86 machine code into instructions.
package x86

import (
	"errors"
	"fmt"

	"github.com/NeonFoundry/RevGame/internal/cpu"
	"github.com/NeonFoundry/RevGame/internal/instruction"
	"github.com/retroenv/retrogolib/arch/cpu/x86"
)

var (
	// ErrUnsupportedOpcode is returned for byte sequences that are not part of
	// the supported instruction set.
	ErrUnsupportedOpcode = errors.New("unsupported opcode")
	// ErrTruncatedInstruction is returned when an instruction extends past the
	// end of the executable memory.
	ErrTruncatedInstruction = errors.New("truncated instruction")
)

// Fetcher provides instruction bytes from executable memory.
type Fetcher interface {
	Fetch(address uint32, length int) ([]byte, error)
}

// Decode decodes the instruction at the given address.
func Decode(mem Fetcher, address uint32) (instruction.Instruction, error) {
	r := &reader{mem: mem, start: address}
	b, err := r.next()
	if err != nil {
		return instruction.Instruction{}, err
	}

	var ins instruction.Instruction
	switch {
	case b == 0x0f:
		ins, err = decodeTwoByte(r)
	case isGroup(b):
		ins, err = decodeGroup(r, b)
	default:
		ins, err = decodeOneByte(r, b)
	}
	if err != nil {
		return instruction.Instruction{}, err
	}

	ins.Address = address
	ins.Length = r.pos()
	ins.Bytes = r.buf
	return ins, nil
}

func isGroup(b byte) bool {
	_, ok := groups[b]
	return ok
}

func unsupported(r *reader, format string, args ...any) error {
	return fmt.Errorf("%w %s at 0x%08x", ErrUnsupportedOpcode, fmt.Sprintf(format, args...), r.start)
}

func decodeOneByte(r *reader, b byte) (instruction.Instruction, error) {
	opc, ok := oneByte[b]
	if !ok {
		if known, ok := x86.GetOpcodeInfo(b); ok {
			return instruction.Instruction{}, unsupported(r, "0x%02x (%s)", b, known.Instruction.Name)
		}
		return instruction.Instruction{}, unsupported(r, "0x%02x", b)
	}
	return decodeForm(r, b, opc)
}

func decodeTwoByte(r *reader) (instruction.Instruction, error) {
	b, err := r.next()
	if err != nil {
		return instruction.Instruction{}, err
	}
	opc, ok := twoByte[b]
	if !ok {
		return instruction.Instruction{}, unsupported(r, "0x0f 0x%02x", b)
	}
	return decodeForm(r, b, opc)
}

// decodeForm reads the operands of a non group opcode.
//
//nolint:funlen,cyclop // one case per operand encoding form
func decodeForm(r *reader, b byte, opc opcode) (instruction.Instruction, error) {
	ins := instruction.Instruction{Op: opc.op, Cond: opc.cond}
	low := cpu.Register(b & 7)

	switch opc.form {
	case formNone:

	case formRMReg, formRegRM, formRegRM8, formRegMem:
		m, err := r.modRM()
		if err != nil {
			return ins, err
		}
		rmSize := opc.size
		if opc.form == formRegRM8 {
			rmSize = 1
		}
		if opc.form == formRegMem && m.Mod == 3 {
			return ins, unsupported(r, "0x%02x with register operand", b)
		}
		rm, err := r.rmOperand(m, rmSize)
		if err != nil {
			return ins, err
		}
		if opc.form == formRMReg {
			ins.Operands = []instruction.Operand{rm, regOperand(m, opc.size)}
		} else {
			ins.Operands = []instruction.Operand{regOperand(m, opc.size), rm}
		}

	case formRegRMImm, formRegRMSImm8:
		m, err := r.modRM()
		if err != nil {
			return ins, err
		}
		rm, err := r.rmOperand(m, opc.size)
		if err != nil {
			return ins, err
		}
		var v uint32
		if opc.form == formRegRMSImm8 {
			v, err = r.simm8()
		} else {
			v, err = r.imm32()
		}
		if err != nil {
			return ins, err
		}
		ins.Operands = []instruction.Operand{regOperand(m, opc.size), rm, instruction.ImmOperand(v, 4)}

	case formAccImm:
		v, err := r.imm(opc.size)
		if err != nil {
			return ins, err
		}
		ins.Operands = []instruction.Operand{
			instruction.RegOperand(cpu.EAX, opc.size),
			instruction.ImmOperand(v, opc.size),
		}

	case formRegLow:
		ins.Operands = []instruction.Operand{instruction.RegOperand(low, opc.size)}

	case formAccRegLow:
		ins.Operands = []instruction.Operand{
			instruction.RegOperand(cpu.EAX, opc.size),
			instruction.RegOperand(low, opc.size),
		}

	case formRegLowImm:
		v, err := r.imm(opc.size)
		if err != nil {
			return ins, err
		}
		ins.Operands = []instruction.Operand{
			instruction.RegOperand(low, opc.size),
			instruction.ImmOperand(v, opc.size),
		}

	case formImm, formSImm8, formImm8, formImm16:
		var v uint32
		var err error
		size := opc.size
		switch opc.form {
		case formImm:
			v, err = r.imm32()
		case formSImm8:
			v, err = r.simm8()
		case formImm8:
			v, err = r.imm8()
		default:
			v, err = r.imm16()
			size = 2
		}
		if err != nil {
			return ins, err
		}
		ins.Operands = []instruction.Operand{instruction.ImmOperand(v, size)}

	case formRel8, formRel32:
		var target uint32
		var err error
		if opc.form == formRel8 {
			target, err = r.rel8()
		} else {
			target, err = r.rel32()
		}
		if err != nil {
			return ins, err
		}
		ins.Operands = []instruction.Operand{instruction.ImmOperand(target, 4)}

	default:
		return ins, fmt.Errorf("unknown operand form %d", opc.form)
	}
	return ins, nil
}

// decodeGroup decodes an opcode that uses the reg field of the ModRM byte to
// select the operation.
//
//nolint:cyclop // one case per group kind
func decodeGroup(r *reader, b byte) (instruction.Instruction, error) {
	g := groups[b]
	m, err := r.modRM()
	if err != nil {
		return instruction.Instruction{}, err
	}

	op := groupOp(g.kind, m.Reg)
	if op == instruction.Invalid {
		return instruction.Instruction{}, unsupported(r, "0x%02x /%d", b, m.Reg)
	}

	rm, err := r.rmOperand(m, g.size)
	if err != nil {
		return instruction.Instruction{}, err
	}
	ins := instruction.Instruction{
		Op:       op,
		Operands: []instruction.Operand{rm},
	}

	imm := g.imm
	if g.kind == groupUnary && op == instruction.Test {
		imm = immSize
	}

	switch imm {
	case immNone:
	case immSize:
		v, err := r.imm(g.size)
		if err != nil {
			return instruction.Instruction{}, err
		}
		ins.Operands = append(ins.Operands, instruction.ImmOperand(v, g.size))
	case immS8:
		v, err := r.simm8()
		if err != nil {
			return instruction.Instruction{}, err
		}
		ins.Operands = append(ins.Operands, instruction.ImmOperand(v, g.size))
	case imm8:
		v, err := r.imm8()
		if err != nil {
			return instruction.Instruction{}, err
		}
		ins.Operands = append(ins.Operands, instruction.ImmOperand(v, 1))
	case immOne:
		ins.Operands = append(ins.Operands, instruction.ImmOperand(1, 1))
	case immCL:
		ins.Operands = append(ins.Operands, instruction.RegOperand(cpu.ECX, 1))
	}
	return ins, nil
}

// groupOp returns the operation selected by the reg field of a group opcode.
func groupOp(kind groupKind, reg byte) instruction.Op {
	switch kind {
	case groupALU:
		return aluOps[reg]
	case groupShift:
		return shiftOps[reg]
	case groupUnary:
		return unaryOps[reg]
	case groupIncDec:
		switch reg {
		case 0:
			return instruction.Inc
		case 1:
			return instruction.Dec
		}
	case groupMisc:
		switch reg {
		case 0:
			return instruction.Inc
		case 1:
			return instruction.Dec
		case 2:
			return instruction.Call
		case 4:
			return instruction.Jmp
		case 6:
			return instruction.Push
		}
	case groupPop:
		if reg == 0 {
			return instruction.Pop
		}
	case groupMov:
		if reg == 0 {
			return instruction.Mov
		}
	}
	return instruction.Invalid
}
