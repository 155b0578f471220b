package x86

import (
	"fmt"

	"github.com/NeonFoundry/RevGame/internal/instruction"
)

// Line is a single line of a disassembly listing. Err is set for the last
// line of a listing that stopped at bytes that could not be decoded.
type Line struct {
	Instruction instruction.Instruction
	Err         error
}

func (l Line) String() string {
	if l.Err != nil {
		return fmt.Sprintf("%08x  ??  %s", l.Instruction.Address, l.Err)
	}
	return fmt.Sprintf("%08x  %-20s  %s", l.Instruction.Address, l.Instruction.HexBytes(), l.Instruction)
}

// Disassemble decodes up to count consecutive instructions starting at
// address. The listing ends early at the first position that can not be
// decoded, that position is included as a line with its error set.
func Disassemble(mem Fetcher, address uint32, count int) []Line {
	lines := make([]Line, 0, count)
	for range count {
		ins, err := Decode(mem, address)
		if err != nil {
			lines = append(lines, Line{
				Instruction: instruction.Instruction{Address: address},
				Err:         err,
			})
			break
		}
		lines = append(lines, Line{Instruction: ins})
		address = ins.Next()
	}
	return lines
}
