package x86

import (
	"errors"
	"testing"

	"github.com/NeonFoundry/RevGame/internal/cpu"
	"github.com/NeonFoundry/RevGame/internal/instruction"
	"github.com/NeonFoundry/RevGame/internal/memory"
	"github.com/retroenv/retrogolib/arch/cpu/x86"
	"github.com/retroenv/retrogolib/assert"
)

const codeStart = 0x1000

func newCode(t *testing.T, code []byte) *memory.Memory {
	t.Helper()
	mem, err := memory.New(0x4000, []memory.Region{
		{Start: codeStart, Length: 0x100, Kind: memory.Code, Perm: memory.ReadExecute},
		{Start: 0x2000, Length: 0x100, Kind: memory.Data, Perm: memory.ReadWrite},
	})
	assert.NoError(t, err)
	assert.NoError(t, mem.Load(codeStart, code))
	return mem
}

//nolint:funlen // test functions can be long
func TestDecode(t *testing.T) {
	tests := []struct {
		name   string
		code   []byte
		want   string
		op     instruction.Op
		length uint32
	}{
		{"mov eax imm32", []byte{0xb8, 0x01, 0x00, 0x00, 0x00}, "mov eax, 0x1", instruction.Mov, 5},
		{"mov bl imm8", []byte{0xb3, 0x7f}, "mov bl, 0x7f", instruction.Mov, 2},
		{"cmp eax simm8", []byte{0x83, 0xf8, 0x42}, "cmp eax, 0x42", instruction.Cmp, 3},
		{"cmp negative simm8", []byte{0x83, 0xf9, 0xff}, "cmp ecx, 0xffffffff", instruction.Cmp, 3},
		{"add r/m32 r32", []byte{0x01, 0xd8}, "add eax, ebx", instruction.Add, 2},
		{"sub r32 r/m32", []byte{0x2b, 0x45, 0xfc}, "sub eax, dword ptr [ebp-0x4]", instruction.Sub, 3},
		{"xor acc imm32", []byte{0x35, 0x78, 0x56, 0x34, 0x12}, "xor eax, 0x12345678", instruction.Xor, 5},
		{"cmp al imm8", []byte{0x3c, 0x41}, "cmp al, 0x41", instruction.Cmp, 2},
		{"mov byte sib", []byte{0x8a, 0x04, 0x8e}, "mov al, byte ptr [esi+ecx*4]", instruction.Mov, 3},
		{"mov absolute", []byte{0x8b, 0x05, 0x00, 0x20, 0x00, 0x00}, "mov eax, dword ptr [0x2000]", instruction.Mov, 6},
		{"mov esp based", []byte{0x8b, 0x44, 0x24, 0x08}, "mov eax, dword ptr [esp+0x8]", instruction.Mov, 4},
		{"mov sib no base", []byte{0x8b, 0x04, 0x85, 0x00, 0x20, 0x00, 0x00}, "mov eax, dword ptr [eax*4+0x2000]", instruction.Mov, 7},
		{"mov disp32", []byte{0x89, 0x98, 0x00, 0x01, 0x00, 0x00}, "mov dword ptr [eax+0x100], ebx", instruction.Mov, 6},
		{"mov r/m8 imm8", []byte{0xc6, 0x00, 0x2a}, "mov byte ptr [eax], 0x2a", instruction.Mov, 3},
		{"mov r/m32 imm32", []byte{0xc7, 0xc1, 0x01, 0x00, 0x00, 0x00}, "mov ecx, 0x1", instruction.Mov, 6},
		{"lea", []byte{0x8d, 0x44, 0x24, 0x04}, "lea eax, dword ptr [esp+0x4]", instruction.Lea, 4},
		{"movzx", []byte{0x0f, 0xb6, 0x06}, "movzx eax, byte ptr [esi]", instruction.Movzx, 3},
		{"movsx", []byte{0x0f, 0xbe, 0xc1}, "movsx eax, cl", instruction.Movsx, 3},
		{"xchg acc", []byte{0x93}, "xchg eax, ebx", instruction.Xchg, 1},
		{"inc reg", []byte{0x41}, "inc ecx", instruction.Inc, 1},
		{"dec reg", []byte{0x4a}, "dec edx", instruction.Dec, 1},
		{"inc byte mem", []byte{0xfe, 0x00}, "inc byte ptr [eax]", instruction.Inc, 2},
		{"neg", []byte{0xf7, 0xd8}, "neg eax", instruction.Neg, 2},
		{"not", []byte{0xf7, 0xd1}, "not ecx", instruction.Not, 2},
		{"mul", []byte{0xf7, 0xe3}, "mul ebx", instruction.Mul, 2},
		{"div", []byte{0xf7, 0xf1}, "div ecx", instruction.Div, 2},
		{"imul one operand", []byte{0xf7, 0xe9}, "imul ecx", instruction.Imul, 2},
		{"imul two operands", []byte{0x0f, 0xaf, 0xc3}, "imul eax, ebx", instruction.Imul, 3},
		{"imul three operands", []byte{0x6b, 0xc3, 0x0a}, "imul eax, ebx, 0xa", instruction.Imul, 3},
		{"test imm", []byte{0xf6, 0xc1, 0x01}, "test cl, 0x1", instruction.Test, 3},
		{"test reg", []byte{0x85, 0xc0}, "test eax, eax", instruction.Test, 2},
		{"shl imm", []byte{0xc1, 0xe0, 0x04}, "shl eax, 0x4", instruction.Shl, 3},
		{"sar one", []byte{0xd1, 0xf8}, "sar eax, 0x1", instruction.Sar, 2},
		{"shr cl", []byte{0xd3, 0xe8}, "shr eax, cl", instruction.Shr, 2},
		{"rol", []byte{0xc0, 0xc0, 0x03}, "rol al, 0x3", instruction.Rol, 3},
		{"jmp short", []byte{0xeb, 0xfe}, "jmp 0x1000", instruction.Jmp, 2},
		{"jmp near", []byte{0xe9, 0x0b, 0x00, 0x00, 0x00}, "jmp 0x1010", instruction.Jmp, 5},
		{"jmp indirect", []byte{0xff, 0xe0}, "jmp eax", instruction.Jmp, 2},
		{"jne short", []byte{0x75, 0x0e}, "jne 0x1010", instruction.Jcc, 2},
		{"jg near", []byte{0x0f, 0x8f, 0x0a, 0x00, 0x00, 0x00}, "jg 0x1010", instruction.Jcc, 6},
		{"call", []byte{0xe8, 0x0b, 0x00, 0x00, 0x00}, "call 0x1010", instruction.Call, 5},
		{"call indirect", []byte{0xff, 0x10}, "call dword ptr [eax]", instruction.Call, 2},
		{"ret", []byte{0xc3}, "ret", instruction.Ret, 1},
		{"ret imm16", []byte{0xc2, 0x08, 0x00}, "ret 0x8", instruction.Ret, 3},
		{"loop", []byte{0xe2, 0xfe}, "loop 0x1000", instruction.Loop, 2},
		{"push reg", []byte{0x55}, "push ebp", instruction.Push, 1},
		{"push imm8", []byte{0x6a, 0xff}, "push 0xffffffff", instruction.Push, 2},
		{"push imm32", []byte{0x68, 0x00, 0x20, 0x00, 0x00}, "push 0x2000", instruction.Push, 5},
		{"push mem", []byte{0xff, 0x35, 0x00, 0x20, 0x00, 0x00}, "push dword ptr [0x2000]", instruction.Push, 6},
		{"pop reg", []byte{0x5d}, "pop ebp", instruction.Pop, 1},
		{"pop mem", []byte{0x8f, 0x00}, "pop dword ptr [eax]", instruction.Pop, 2},
		{"pushad", []byte{0x60}, "pushad", instruction.Pushad, 1},
		{"popad", []byte{0x61}, "popad", instruction.Popad, 1},
		{"leave", []byte{0xc9}, "leave", instruction.Leave, 1},
		{"cdq", []byte{0x99}, "cdq", instruction.Cdq, 1},
		{"nop", []byte{0x90}, "nop", instruction.Nop, 1},
		{"hlt", []byte{0xf4}, "hlt", instruction.Hlt, 1},
		{"int3", []byte{0xcc}, "int3", instruction.Int3, 1},
		{"int", []byte{0xcd, 0x80}, "int 0x80", instruction.Int, 2},
		{"stc", []byte{0xf9}, "stc", instruction.Stc, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := newCode(t, tt.code)
			ins, err := Decode(mem, codeStart)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, ins.String())
			assert.Equal(t, tt.op, ins.Op)
			assert.Equal(t, tt.length, ins.Length)
			assert.Equal(t, tt.code[:tt.length], ins.Bytes)
			assert.Equal(t, uint32(codeStart), ins.Address)
		})
	}
}

func TestDecodeOperands(t *testing.T) {
	mem := newCode(t, []byte{0x83, 0xf8, 0x42})
	ins, err := Decode(mem, codeStart)
	assert.NoError(t, err)
	assert.Len(t, ins.Operands, 2)
	assert.Equal(t, instruction.RegOperand(cpu.EAX, 4), ins.Operands[0])
	assert.Equal(t, instruction.ImmOperand(0x42, 4), ins.Operands[1])
}

func TestDecodeUnsupported(t *testing.T) {
	tests := []struct {
		name string
		code []byte
	}{
		{"segment push", []byte{0x0e}},
		{"fpu", []byte{0xd8, 0xc0}},
		{"operand size prefix", []byte{0x66, 0x90}},
		{"rotate through carry", []byte{0xd1, 0xd0}},
		{"jump on parity", []byte{0x7a, 0x00}},
		{"two byte", []byte{0x0f, 0x05}},
		{"lea with register", []byte{0x8d, 0xc0}},
		{"ff group far call", []byte{0xff, 0x18}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := newCode(t, tt.code)
			_, err := Decode(mem, codeStart)
			assert.True(t, errors.Is(err, ErrUnsupportedOpcode), "unexpected error: %v", err)
		})
	}
}

// The 32 bit tables only differ from the 16 bit architecture tables in the
// operand sizes, the ModRM usage has to match.
func TestOpcodeTablesMatchArchitecture(t *testing.T) {
	modRMForms := map[form]bool{
		formRMReg:      true,
		formRegRM:      true,
		formRegRM8:     true,
		formRegMem:     true,
		formRegRMImm:   true,
		formRegRMSImm8: true,
	}
	for b, opc := range oneByte {
		known, ok := x86.GetOpcodeInfo(b)
		if !ok {
			continue
		}
		assert.Equal(t, known.HasModRM, modRMForms[opc.form], "opcode 0x%02x", b)
	}
	for b := range groups {
		if known, ok := x86.GetOpcodeInfo(b); ok {
			assert.True(t, known.HasModRM, "group 0x%02x", b)
		}
	}
}

func TestDecodeUnsupportedNamesKnownOpcode(t *testing.T) {
	mem := newCode(t, []byte{0xa4, 0xd6})

	_, err := Decode(mem, codeStart)
	assert.ErrorContains(t, err, "unsupported opcode 0xa4 (movsb) at 0x00001000")

	_, err = Decode(mem, codeStart+1)
	assert.ErrorContains(t, err, "unsupported opcode 0xd6 at 0x00001001")
}

func TestDecodeTruncated(t *testing.T) {
	tests := []struct {
		name string
		code []byte
	}{
		{"immediate", []byte{0xb8, 0x01}},
		{"modrm", []byte{0x8b}},
		{"displacement", []byte{0x8b, 0x85, 0x00}},
		{"two byte", []byte{0x0f}},
		{"group immediate", []byte{0x81, 0xf8, 0x01, 0x02}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := newCode(t, nil)
			address := uint32(codeStart + 0x100 - len(tt.code))
			assert.NoError(t, mem.Load(address, tt.code))

			_, err := Decode(mem, address)
			assert.True(t, errors.Is(err, ErrTruncatedInstruction), "unexpected error: %v", err)
		})
	}
}

func TestDecodeNonExecutable(t *testing.T) {
	mem := newCode(t, nil)
	_, err := Decode(mem, 0x2000)
	assert.True(t, errors.Is(err, memory.ErrPermissionDenied))
	assert.False(t, errors.Is(err, ErrTruncatedInstruction))

	_, err = Decode(mem, 0x3000)
	assert.True(t, errors.Is(err, memory.ErrOutOfBounds))
}

func TestDisassemble(t *testing.T) {
	mem := newCode(t, []byte{0x55, 0x89, 0xe5, 0x31, 0xc0, 0xc9, 0xc3, 0x0e})
	lines := Disassemble(mem, codeStart, 10)
	assert.Len(t, lines, 6)
	assert.Equal(t, "push ebp", lines[0].Instruction.String())
	assert.Equal(t, "mov ebp, esp", lines[1].Instruction.String())
	assert.Equal(t, "xor eax, eax", lines[2].Instruction.String())
	assert.Equal(t, uint32(0x1007), lines[5].Instruction.Address)
	assert.True(t, errors.Is(lines[5].Err, ErrUnsupportedOpcode))
	assert.Contains(t, lines[1].String(), "89 e5")

	assert.Len(t, Disassemble(mem, codeStart, 2), 2)
}
