package verification

import (
	"testing"

	"github.com/NeonFoundry/RevGame/internal/config"
	"github.com/retroenv/retrogolib/assert"
)

const listing = `; CRC32 checksum: 00000000
; Code base address: $00001000

  mov eax, 0x1                     ; $00001000 b8 01 00 00 00
  .byte $d6                        ; $00001005 d6
  int3                             ; $00001006 cc
`

func TestReassemble(t *testing.T) {
	data, err := Reassemble([]byte(listing))
	assert.NoError(t, err)
	assert.Equal(t, []byte{0xb8, 0x01, 0x00, 0x00, 0x00, 0xd6, 0xcc}, data)
}

func TestReassembleWithoutHexComments(t *testing.T) {
	_, err := Reassemble([]byte("  nop\n"))
	assert.ErrorContains(t, err, "line 1")

	_, err = Reassemble([]byte("  nop ; $00001000\n"))
	assert.ErrorContains(t, err, "no opcode bytes")
}

func TestVerifyListing(t *testing.T) {
	logger := config.CreateLogger(false, true)
	image := []byte{0xb8, 0x01, 0x00, 0x00, 0x00, 0xd6, 0xcc}
	assert.NoError(t, VerifyListing(logger, []byte(listing), image))

	image[5] = 0x90
	assert.ErrorContains(t, VerifyListing(logger, []byte(listing), image), "1 offset mismatches")

	assert.ErrorContains(t, VerifyListing(logger, []byte(listing), image[:3]), "mismatched lengths")
}
