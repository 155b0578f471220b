package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/NeonFoundry/RevGame/internal/verification"
	"github.com/retroenv/retrogolib/assert"
)

func TestDisassemble(t *testing.T) {
	image := []byte{
		0xb8, 0x01, 0x00, 0x00, 0x00, // mov eax, 0x1
		0xd6,                         // unsupported
		0xcc,                         // int3
	}

	var buf bytes.Buffer
	assert.NoError(t, disassemble(&buf, image, 0x1000, optionFlags{noHeader: true}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 3)
	assert.Contains(t, lines[0], "mov eax, 0x1")
	assert.Contains(t, lines[0], "$00001000")
	assert.Contains(t, lines[0], "b8 01 00 00 00")
	assert.Contains(t, lines[1], ".byte $d6")
	assert.Contains(t, lines[2], "int3")
	assert.Contains(t, lines[2], "$00001006")
}

func TestDisassembleWithoutComments(t *testing.T) {
	var buf bytes.Buffer
	opts := optionFlags{noHeader: true, noHexComments: true, noOffsets: true}
	assert.NoError(t, disassemble(&buf, []byte{0xf4}, 0x1000, opts))
	assert.Equal(t, "  hlt\n", buf.String())
}

func TestDisassembleSeparatesBlocks(t *testing.T) {
	var buf bytes.Buffer
	opts := optionFlags{noHeader: true, noHexComments: true, noOffsets: true}
	// ret; nop; jmp $; hlt
	assert.NoError(t, disassemble(&buf, []byte{0xc3, 0x90, 0xeb, 0xfe, 0xf4}, 0x1000, opts))
	assert.Equal(t, "  ret\n\n  nop\n  jmp 0x1002\n\n  hlt\n", buf.String())
}

func TestDisassembleHeader(t *testing.T) {
	var buf bytes.Buffer
	assert.NoError(t, disassemble(&buf, []byte{0xc3}, 0x1000, optionFlags{noOffsets: true}))
	assert.True(t, strings.HasPrefix(buf.String(), "; CRC32 checksum: "))
	assert.Contains(t, buf.String(), "; Code base address: $00001000")
	assert.Contains(t, buf.String(), "ret")
}

func TestDisassembleEmpty(t *testing.T) {
	var buf bytes.Buffer
	assert.NoError(t, disassemble(&buf, nil, 0x1000, optionFlags{}))
	assert.Empty(t, buf.String())
}

func TestDisassembleRoundTrip(t *testing.T) {
	image := []byte{
		0x55,             // push ebp
		0x89, 0xe5,       // mov ebp, esp
		0xd6, 0xd6,       // unsupported
		0x83, 0xf8, 0x05, // cmp eax, 0x5
		0x74, 0x01,       // je
		0xc3,             // ret
		0x0f,             // truncated two byte opcode
	}

	var buf bytes.Buffer
	assert.NoError(t, disassemble(&buf, image, 0x1000, optionFlags{}))

	data, err := verification.Reassemble(buf.Bytes())
	assert.NoError(t, err)
	assert.Equal(t, image, data)
}
