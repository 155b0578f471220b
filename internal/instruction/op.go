package instruction

import (
	"fmt"

	"github.com/retroenv/retrogolib/arch/cpu/x86"
)

// Op is the operation of a decoded instruction. The set of operations is
// closed, the executor handles every value in a single switch.
type Op uint8

// Supported operations.
const (
	Invalid Op = iota

	// data movement
	Mov
	Movzx
	Movsx
	Lea
	Xchg
	Cdq

	// arithmetic
	Add
	Adc
	Sub
	Sbb
	Inc
	Dec
	Neg
	Mul
	Imul
	Div
	Idiv

	// logic
	And
	Or
	Xor
	Not
	Test
	Cmp

	// shifts and rotates
	Shl
	Shr
	Sar
	Rol
	Ror

	// control flow
	Jmp
	Jcc
	Call
	Ret
	Loop

	// stack
	Push
	Pop
	Pushad
	Popad
	Leave

	// special
	Nop
	Hlt
	Int3
	Int
	Clc
	Stc
	Cmc

	opCount
)

var opNames = [opCount]string{
	Invalid: "(bad)",
	Mov:     x86.MovName,
	Movzx:   x86.MovzxName,
	Movsx:   x86.MovsxName,
	Lea:     x86.LeaName,
	Xchg:    x86.XchgName,
	Cdq:     "cdq",
	Add:     x86.AddName,
	Adc:     x86.AdcName,
	Sub:     x86.SubName,
	Sbb:     x86.SbbName,
	Inc:     x86.IncName,
	Dec:     x86.DecName,
	Neg:     "neg",
	Mul:     x86.MulName,
	Imul:    x86.ImulName,
	Div:     x86.DivName,
	Idiv:    x86.IdivName,
	And:     x86.AndName,
	Or:      x86.OrName,
	Xor:     x86.XorName,
	Not:     "not",
	Test:    x86.TestName,
	Cmp:     x86.CmpName,
	Shl:     x86.ShlName,
	Shr:     x86.ShrName,
	Sar:     x86.SarName,
	Rol:     x86.RolName,
	Ror:     x86.RorName,
	Jmp:     x86.JmpName,
	Jcc:     "j",
	Call:    x86.CallName,
	Ret:     x86.RetName,
	Loop:    "loop",
	Push:    x86.PushName,
	Pop:     x86.PopName,
	Pushad:  "pushad",
	Popad:   "popad",
	Leave:   x86.LeaveName,
	Nop:     x86.NopName,
	Hlt:     x86.HltName,
	Int3:    "int3",
	Int:     x86.IntName,
	Clc:     x86.ClcName,
	Stc:     x86.StcName,
	Cmc:     x86.CmcName,
}

// familyNames maps the 32 bit operations that are named differently in the
// 16 bit instruction tables of the architecture package.
var familyNames = map[Op]string{
	Cdq:    x86.CwdName,
	Pushad: x86.PushaName,
	Popad:  x86.PopaName,
	Int3:   x86.IntName,
}

// condFamilyNames are the architecture package names of the conditional
// jumps, indexed by condition.
var condFamilyNames = [16]string{
	x86.JoName, x86.JnoName, x86.JbName, x86.JnbName,
	x86.JzName, x86.JnzName, x86.JbeName, x86.JnbeName,
	x86.JsName, x86.JnsName, x86.JpName, x86.JnpName,
	x86.JlName, x86.JnlName, x86.JleName, x86.JnleName,
}

func (o Op) String() string {
	if o < opCount {
		return opNames[o]
	}
	return fmt.Sprintf("op(%d)", o)
}

// Ops returns all valid operations.
func Ops() []Op {
	ops := make([]Op, 0, opCount-1)
	for o := Invalid + 1; o < opCount; o++ {
		ops = append(ops, o)
	}
	return ops
}

// Cond is the condition of a conditional jump, the values match the
// condition encoding in the low nibble of the Jcc opcodes.
type Cond uint8

// Jump conditions.
const (
	CondO Cond = iota
	CondNO
	CondB
	CondAE
	CondE
	CondNE
	CondBE
	CondA
	CondS
	CondNS
	CondP
	CondNP
	CondL
	CondGE
	CondLE
	CondG
)

var condNames = [16]string{"o", "no", "b", "ae", "e", "ne", "be", "a", "s", "ns", "p", "np", "l", "ge", "le", "g"}

func (c Cond) String() string {
	if c < 16 {
		return condNames[c]
	}
	return fmt.Sprintf("cond(%d)", c)
}
