package cpu

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRegister is returned for register names that do not exist.
var ErrInvalidRegister = errors.New("invalid register")

// Register identifies a 32 bit general purpose register. The values match
// the register numbers used in the x86 instruction encoding.
type Register uint8

// General purpose registers in encoding order.
const (
	EAX Register = iota
	ECX
	EDX
	EBX
	ESP
	EBP
	ESI
	EDI
)

// NumRegisters is the number of general purpose registers.
const NumRegisters = 8

var registerNames = [NumRegisters]string{"eax", "ecx", "edx", "ebx", "esp", "ebp", "esi", "edi"}

// 8 bit register names in encoding order, the first four are the low bytes
// of EAX..EBX, the last four the second bytes.
var register8Names = [NumRegisters]string{"al", "cl", "dl", "bl", "ah", "ch", "dh", "bh"}

func (r Register) String() string {
	if int(r) < NumRegisters {
		return registerNames[r]
	}
	return fmt.Sprintf("reg(%d)", r)
}

// Name8 returns the name of the 8 bit register with the same encoding number.
func (r Register) Name8() string {
	if int(r) < NumRegisters {
		return register8Names[r]
	}
	return fmt.Sprintf("reg8(%d)", r)
}

// Registers returns all general purpose registers in encoding order.
func Registers() []Register {
	return []Register{EAX, ECX, EDX, EBX, ESP, EBP, ESI, EDI}
}

// ParseRegister returns the register for a case insensitive name like "eax".
func ParseRegister(name string) (Register, error) {
	lower := strings.ToLower(strings.TrimSpace(name))
	for i, n := range registerNames {
		if n == lower {
			return Register(i), nil
		}
	}
	return 0, fmt.Errorf("%w '%s'", ErrInvalidRegister, name)
}
