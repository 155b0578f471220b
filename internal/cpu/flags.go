package cpu

import "strings"

// Flag is a status flag, the value is its bit in the EFLAGS register.
type Flag uint32

// Status flags tracked by the emulator.
const (
	Carry    Flag = 1 << 0
	Zero     Flag = 1 << 6
	Sign     Flag = 1 << 7
	Overflow Flag = 1 << 11
)

var flagNames = []struct {
	flag Flag
	name string
}{
	{Carry, "CF"},
	{Zero, "ZF"},
	{Sign, "SF"},
	{Overflow, "OF"},
}

func (f Flag) String() string {
	for _, n := range flagNames {
		if n.flag == f {
			return n.name
		}
	}
	return "flag?"
}

// ParseFlag returns the flag for a case insensitive name like "zf".
func ParseFlag(name string) (Flag, bool) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for _, n := range flagNames {
		if n.name == upper {
			return n.flag, true
		}
	}
	return 0, false
}

// Flags is the set of status flags.
type Flags uint32

// Has returns whether the flag is set.
func (f Flags) Has(flag Flag) bool {
	return f&Flags(flag) != 0
}

// With returns a copy of the flags with the flag set to the given value.
func (f Flags) With(flag Flag, value bool) Flags {
	if value {
		return f | Flags(flag)
	}
	return f &^ Flags(flag)
}

// String returns the set flags like "[ ZF SF ]".
func (f Flags) String() string {
	var sb strings.Builder
	sb.WriteString("[ ")
	for _, n := range flagNames {
		if f.Has(n.flag) {
			sb.WriteString(n.name)
			sb.WriteByte(' ')
		}
	}
	sb.WriteByte(']')
	return sb.String()
}
