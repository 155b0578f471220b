// Package digest computes fingerprints of the emulated machine state.
// Two machines with equal digests have identical memory and registers.
package digest

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/NeonFoundry/RevGame/internal/cpu"
	"golang.org/x/crypto/blake2b"
)

// Size is the size of a digest in bytes.
const Size = blake2b.Size256

// Digest is a BLAKE2b-256 fingerprint.
type Digest [Size]byte

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Short returns the first 8 bytes as hex, enough to tell states apart in logs.
func (d Digest) Short() string {
	return hex.EncodeToString(d[:8])
}

// Machine returns the digest of a memory image and processor state.
func Machine(memory []byte, state cpu.State) (Digest, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return Digest{}, fmt.Errorf("creating hash: %w", err)
	}

	var regs [4 * (cpu.NumRegisters + 2)]byte
	for i, v := range state.Regs {
		binary.LittleEndian.PutUint32(regs[i*4:], v)
	}
	binary.LittleEndian.PutUint32(regs[cpu.NumRegisters*4:], state.EIP)
	binary.LittleEndian.PutUint32(regs[(cpu.NumRegisters+1)*4:], uint32(state.Flags))

	_, _ = h.Write(regs[:])
	_, _ = h.Write(memory)

	var d Digest
	copy(d[:], h.Sum(nil))
	return d, nil
}
