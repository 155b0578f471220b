package console

import (
	"fmt"
	"strings"
)

const dumpWidth = 16

// Dump formats memory as lines of hex bytes followed by their printable
// characters.
func Dump(address uint32, data []byte) string {
	var sb strings.Builder
	for offset := 0; offset < len(data); offset += dumpWidth {
		line := data[offset:min(offset+dumpWidth, len(data))]
		fmt.Fprintf(&sb, "%08x  ", address+uint32(offset))
		for i := range dumpWidth {
			if i < len(line) {
				fmt.Fprintf(&sb, "%02x ", line[i])
			} else {
				sb.WriteString("   ")
			}
		}
		sb.WriteString(" |")
		for _, b := range line {
			if b >= 0x20 && b < 0x7f {
				sb.WriteByte(b)
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteString("|\n")
	}
	return sb.String()
}
