package x86

import "github.com/NeonFoundry/RevGame/internal/instruction"

// form describes how the operands of an opcode are encoded.
type form uint8

const (
	formNone       form = iota
	formRMReg           // r/m, reg
	formRegRM           // reg, r/m
	formAccImm          // al/eax, immediate of operand size
	formRegLow          // register in the low 3 opcode bits
	formRegLowImm       // register in the low 3 opcode bits, immediate
	formAccRegLow       // eax, register in the low 3 opcode bits
	formImm             // immediate of operand size
	formSImm8           // sign extended 8 bit immediate
	formImm8            // unsigned 8 bit immediate
	formImm16           // unsigned 16 bit immediate
	formRel8            // 8 bit relative branch target
	formRel32           // 32 bit relative branch target
	formRegRMImm        // reg, r/m, immediate of operand size
	formRegRMSImm8      // reg, r/m, sign extended 8 bit immediate
	formRegRM8          // reg32, r/m8
	formRegMem          // reg, memory only
)

// opcode describes a single opcode that is not an opcode group.
type opcode struct {
	op   instruction.Op
	form form
	size uint8 // operand size in bytes
	cond instruction.Cond
}

// groupKind selects the operation table of an opcode group that uses the
// reg field of the ModRM byte as opcode extension.
type groupKind uint8

const (
	groupALU groupKind = iota
	groupShift
	groupUnary
	groupIncDec
	groupMisc
	groupPop
	groupMov
)

// immKind is the kind of immediate that follows the r/m operand of a group.
type immKind uint8

const (
	immNone immKind = iota
	immSize         // immediate of operand size
	immS8           // sign extended 8 bit immediate
	imm8            // unsigned 8 bit immediate
	immOne          // implicit 1
	immCL           // the CL register
)

type group struct {
	kind groupKind
	size uint8
	imm  immKind
}

// aluOps is indexed by the opcode row of the classic ALU opcodes and the reg
// field of the 0x80-0x83 groups.
var aluOps = [8]instruction.Op{instruction.Add, instruction.Or, instruction.Adc, instruction.Sbb, instruction.And, instruction.Sub, instruction.Xor, instruction.Cmp}

// shiftOps is indexed by the reg field of the shift groups, Invalid entries
// mark rotates through carry which are not supported.
var shiftOps = [8]instruction.Op{instruction.Rol, instruction.Ror, instruction.Invalid, instruction.Invalid, instruction.Shl, instruction.Shr, instruction.Shl, instruction.Sar}

// unaryOps is indexed by the reg field of the 0xF6/0xF7 groups.
var unaryOps = [8]instruction.Op{instruction.Test, instruction.Invalid, instruction.Not, instruction.Neg, instruction.Mul, instruction.Imul, instruction.Div, instruction.Idiv}

var groups = map[byte]group{
	0x80: {groupALU, 1, immSize},
	0x81: {groupALU, 4, immSize},
	0x83: {groupALU, 4, immS8},
	0x8f: {groupPop, 4, immNone},
	0xc0: {groupShift, 1, imm8},
	0xc1: {groupShift, 4, imm8},
	0xc6: {groupMov, 1, immSize},
	0xc7: {groupMov, 4, immSize},
	0xd0: {groupShift, 1, immOne},
	0xd1: {groupShift, 4, immOne},
	0xd2: {groupShift, 1, immCL},
	0xd3: {groupShift, 4, immCL},
	0xf6: {groupUnary, 1, immNone},
	0xf7: {groupUnary, 4, immNone},
	0xfe: {groupIncDec, 1, immNone},
	0xff: {groupMisc, 4, immNone},
}

// oneByte contains all supported single byte opcodes that are not groups.
var oneByte = buildOneByte()

// twoByte contains all supported opcodes with a 0x0F prefix byte.
var twoByte = buildTwoByte()

func buildOneByte() map[byte]opcode {
	m := map[byte]opcode{
		0x60: {op: instruction.Pushad},
		0x61: {op: instruction.Popad},
		0x68: {op: instruction.Push, form: formImm, size: 4},
		0x69: {op: instruction.Imul, form: formRegRMImm, size: 4},
		0x6a: {op: instruction.Push, form: formSImm8, size: 4},
		0x6b: {op: instruction.Imul, form: formRegRMSImm8, size: 4},
		0x84: {op: instruction.Test, form: formRMReg, size: 1},
		0x85: {op: instruction.Test, form: formRMReg, size: 4},
		0x87: {op: instruction.Xchg, form: formRMReg, size: 4},
		0x88: {op: instruction.Mov, form: formRMReg, size: 1},
		0x89: {op: instruction.Mov, form: formRMReg, size: 4},
		0x8a: {op: instruction.Mov, form: formRegRM, size: 1},
		0x8b: {op: instruction.Mov, form: formRegRM, size: 4},
		0x8d: {op: instruction.Lea, form: formRegMem, size: 4},
		0x90: {op: instruction.Nop},
		0x99: {op: instruction.Cdq},
		0xa8: {op: instruction.Test, form: formAccImm, size: 1},
		0xa9: {op: instruction.Test, form: formAccImm, size: 4},
		0xc2: {op: instruction.Ret, form: formImm16},
		0xc3: {op: instruction.Ret},
		0xc9: {op: instruction.Leave},
		0xcc: {op: instruction.Int3},
		0xcd: {op: instruction.Int, form: formImm8, size: 1},
		0xe2: {op: instruction.Loop, form: formRel8},
		0xe8: {op: instruction.Call, form: formRel32},
		0xe9: {op: instruction.Jmp, form: formRel32},
		0xeb: {op: instruction.Jmp, form: formRel8},
		0xf4: {op: instruction.Hlt},
		0xf5: {op: instruction.Cmc},
		0xf8: {op: instruction.Clc},
		0xf9: {op: instruction.Stc},
	}

	// classic ALU rows 0x00-0x3D
	for row, op := range aluOps {
		base := byte(row << 3)
		m[base+0] = opcode{op: op, form: formRMReg, size: 1}
		m[base+1] = opcode{op: op, form: formRMReg, size: 4}
		m[base+2] = opcode{op: op, form: formRegRM, size: 1}
		m[base+3] = opcode{op: op, form: formRegRM, size: 4}
		m[base+4] = opcode{op: op, form: formAccImm, size: 1}
		m[base+5] = opcode{op: op, form: formAccImm, size: 4}
	}

	for i := range byte(8) {
		m[0x40+i] = opcode{op: instruction.Inc, form: formRegLow, size: 4}
		m[0x48+i] = opcode{op: instruction.Dec, form: formRegLow, size: 4}
		m[0x50+i] = opcode{op: instruction.Push, form: formRegLow, size: 4}
		m[0x58+i] = opcode{op: instruction.Pop, form: formRegLow, size: 4}
		m[0xb0+i] = opcode{op: instruction.Mov, form: formRegLowImm, size: 1}
		m[0xb8+i] = opcode{op: instruction.Mov, form: formRegLowImm, size: 4}
		if i > 0 {
			m[0x90+i] = opcode{op: instruction.Xchg, form: formAccRegLow, size: 4}
		}
	}

	for c := range byte(16) {
		if supportedCond(instruction.Cond(c)) {
			m[0x70+c] = opcode{op: instruction.Jcc, form: formRel8, cond: instruction.Cond(c)}
		}
	}
	return m
}

func buildTwoByte() map[byte]opcode {
	m := map[byte]opcode{
		0xaf: {op: instruction.Imul, form: formRegRM, size: 4},
		0xb6: {op: instruction.Movzx, form: formRegRM8, size: 4},
		0xbe: {op: instruction.Movsx, form: formRegRM8, size: 4},
	}
	for c := range byte(16) {
		if supportedCond(instruction.Cond(c)) {
			m[0x80+c] = opcode{op: instruction.Jcc, form: formRel32, cond: instruction.Cond(c)}
		}
	}
	return m
}

// supportedCond returns whether a jump condition can be evaluated. The
// parity flag is not modeled, so JP and JNP are not supported.
func supportedCond(c instruction.Cond) bool {
	return c != instruction.CondP && c != instruction.CondNP
}
