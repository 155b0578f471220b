// Package cpu contains the architectural state of the emulated 32 bit x86 processor.
package cpu

import (
	"fmt"
	"strings"
)

// State is the register file of the processor. It is a plain value, copying
// it creates an independent snapshot.
type State struct {
	Regs  [NumRegisters]uint32
	EIP   uint32
	Flags Flags
}

// New returns a state with the instruction pointer set to entry and the
// stack pointer set to stack.
func New(entry, stack uint32) State {
	var s State
	s.EIP = entry
	s.Regs[ESP] = stack
	return s
}

// Register returns the value of a general purpose register.
func (s State) Register(r Register) uint32 {
	return s.Regs[r]
}

// SetRegister sets the value of a general purpose register.
func (s *State) SetRegister(r Register, value uint32) {
	s.Regs[r] = value
}

// Register8 returns the 8 bit register with the given encoding number,
// 0-3 address AL..BL and 4-7 address AH..BH.
func (s State) Register8(n Register) uint8 {
	if n < 4 {
		return uint8(s.Regs[n])
	}
	return uint8(s.Regs[n-4] >> 8)
}

// SetRegister8 sets the 8 bit register with the given encoding number.
func (s *State) SetRegister8(n Register, value uint8) {
	if n < 4 {
		s.Regs[n] = s.Regs[n]&^0xff | uint32(value)
		return
	}
	s.Regs[n-4] = s.Regs[n-4]&^0xff00 | uint32(value)<<8
}

// Get returns the value of a register by its case insensitive name.
// Besides the general purpose registers EIP and EFLAGS are accepted.
func (s State) Get(name string) (uint32, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "eip":
		return s.EIP, nil
	case "eflags":
		return uint32(s.Flags), nil
	}
	r, err := ParseRegister(name)
	if err != nil {
		return 0, err
	}
	return s.Regs[r], nil
}

// Set sets the value of a register by its case insensitive name.
func (s *State) Set(name string, value uint32) error {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "eip":
		s.EIP = value
		return nil
	case "eflags":
		s.Flags = Flags(value)
		return nil
	}
	r, err := ParseRegister(name)
	if err != nil {
		return err
	}
	s.Regs[r] = value
	return nil
}

// Flag returns whether a status flag is set.
func (s State) Flag(f Flag) bool {
	return s.Flags.Has(f)
}

// SetFlag sets or clears a status flag.
func (s *State) SetFlag(f Flag, value bool) {
	s.Flags = s.Flags.With(f, value)
}

// AdvanceIP moves the instruction pointer forward, wrapping at 32 bits.
func (s *State) AdvanceIP(delta uint32) {
	s.EIP += delta
}

// SetIP sets the instruction pointer.
func (s *State) SetIP(address uint32) {
	s.EIP = address
}

// Changed returns the registers whose value differs from the other state.
func (s State) Changed(other State) []Register {
	var changed []Register
	for _, r := range Registers() {
		if s.Regs[r] != other.Regs[r] {
			changed = append(changed, r)
		}
	}
	return changed
}

func (s State) String() string {
	var sb strings.Builder
	for i, r := range Registers() {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%s=%08x", r, s.Regs[r])
	}
	fmt.Fprintf(&sb, " eip=%08x %s", s.EIP, s.Flags)
	return sb.String()
}
