// Package instruction contains the decoded form of an x86 instruction.
package instruction

import (
	"fmt"
	"strings"

	"github.com/NeonFoundry/RevGame/internal/cpu"
	"github.com/retroenv/retrogolib/arch/cpu/x86"
)

// OperandKind is the kind of an instruction operand.
type OperandKind uint8

// Operand kinds.
const (
	None OperandKind = iota
	Register
	Immediate
	Memory
)

// MemRef is a memory reference of the form [base + index*scale + disp].
type MemRef struct {
	Base     cpu.Register
	HasBase  bool
	Index    cpu.Register
	HasIndex bool
	Scale    uint8
	Disp     int32
}

// Operand is a single instruction operand. Size is the operand size in bytes
// and is either 1 or 4.
type Operand struct {
	Kind OperandKind
	Size uint8
	Reg  cpu.Register
	Imm  uint32
	Mem  MemRef
}

// RegOperand returns a register operand.
func RegOperand(r cpu.Register, size uint8) Operand {
	return Operand{Kind: Register, Size: size, Reg: r}
}

// ImmOperand returns an immediate operand.
func ImmOperand(value uint32, size uint8) Operand {
	return Operand{Kind: Immediate, Size: size, Imm: value}
}

// MemOperand returns a memory operand.
func MemOperand(m MemRef, size uint8) Operand {
	return Operand{Kind: Memory, Size: size, Mem: m}
}

func (o Operand) String() string {
	switch o.Kind {
	case Register:
		if o.Size == 1 {
			return o.Reg.Name8()
		}
		return o.Reg.String()
	case Immediate:
		return fmt.Sprintf("0x%x", o.Imm)
	case Memory:
		return sizePrefix(o.Size) + o.Mem.String()
	default:
		return ""
	}
}

func sizePrefix(size uint8) string {
	if size == 1 {
		return "byte ptr "
	}
	return "dword ptr "
}

func (m MemRef) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	if m.HasBase {
		sb.WriteString(m.Base.String())
	}
	if m.HasIndex {
		if m.HasBase {
			sb.WriteByte('+')
		}
		sb.WriteString(m.Index.String())
		if m.Scale > 1 {
			fmt.Fprintf(&sb, "*%d", m.Scale)
		}
	}

	switch {
	case !m.HasBase && !m.HasIndex:
		fmt.Fprintf(&sb, "0x%x", uint32(m.Disp))
	case m.Disp < 0:
		fmt.Fprintf(&sb, "-0x%x", -int64(m.Disp))
	case m.Disp > 0:
		fmt.Fprintf(&sb, "+0x%x", m.Disp)
	}
	sb.WriteByte(']')
	return sb.String()
}

// Instruction is an immutable decoded instruction.
type Instruction struct {
	Address  uint32
	Length   uint32
	Bytes    []byte
	Op       Op
	Cond     Cond // only valid for Jcc
	Operands []Operand
}

// Next returns the address of the following instruction.
func (i Instruction) Next() uint32 {
	return i.Address + i.Length
}

// Mnemonic returns the lower case instruction name.
func (i Instruction) Mnemonic() string {
	if i.Op == Jcc {
		return "j" + i.Cond.String()
	}
	return i.Op.String()
}

// IsCall returns true if the instruction is a call.
func (i Instruction) IsCall() bool {
	return i.Op == Call
}

// family returns the name of the instruction in the architecture package
// tables, which list the 16 bit forms of the instruction set.
func (i Instruction) family() string {
	if i.Op == Jcc {
		if i.Cond < 16 {
			return condFamilyNames[i.Cond]
		}
		return ""
	}
	if name, ok := familyNames[i.Op]; ok {
		return name
	}
	return i.Op.String()
}

// IsBranch returns true if the instruction can transfer control to another
// address than the next instruction. Interrupts count as branches.
func (i Instruction) IsBranch() bool {
	return i.Op == Loop || x86.BranchingInstructions.Contains(i.family())
}

// EndsBlock returns true if execution never continues with the following
// instruction.
func (i Instruction) EndsBlock() bool {
	return x86.NotExecutingFollowingOpcodeInstructions.Contains(i.family())
}

// String returns the instruction in Intel syntax.
func (i Instruction) String() string {
	if len(i.Operands) == 0 {
		return i.Mnemonic()
	}
	ops := make([]string, len(i.Operands))
	for j, o := range i.Operands {
		ops[j] = o.String()
	}
	return i.Mnemonic() + " " + strings.Join(ops, ", ")
}

// HexBytes returns the encoded bytes as space separated hex.
func (i Instruction) HexBytes() string {
	parts := make([]string, len(i.Bytes))
	for j, b := range i.Bytes {
		parts[j] = fmt.Sprintf("%02x", b)
	}
	return strings.Join(parts, " ")
}
