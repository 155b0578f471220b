package executor

import (
	"github.com/NeonFoundry/RevGame/internal/cpu"
)

func mask(size uint8) uint32 {
	if size == 1 {
		return 0xff
	}
	return 0xffffffff
}

func signBit(size uint8) uint32 {
	if size == 1 {
		return 0x80
	}
	return 0x80000000
}

func bits(size uint8) uint32 {
	return uint32(size) * 8
}

// signExtend interprets the value as a signed number of the given size.
func signExtend(v uint32, size uint8) int32 {
	if size == 1 {
		return int32(int8(v))
	}
	return int32(v)
}

// setZS sets the zero and sign flag from a result.
func setZS(c *cpu.State, result uint32, size uint8) {
	c.SetFlag(cpu.Zero, result&mask(size) == 0)
	c.SetFlag(cpu.Sign, result&signBit(size) != 0)
}

// add computes a + b + carry and sets all arithmetic flags.
func add(c *cpu.State, a, b, carry uint32, size uint8) uint32 {
	full := uint64(a) + uint64(b) + uint64(carry)
	result := uint32(full) & mask(size)
	c.SetFlag(cpu.Carry, full > uint64(mask(size)))
	c.SetFlag(cpu.Overflow, (a^result)&(b^result)&signBit(size) != 0)
	setZS(c, result, size)
	return result
}

// sub computes a - b - borrow and sets all arithmetic flags.
func sub(c *cpu.State, a, b, borrow uint32, size uint8) uint32 {
	result := (a - b - borrow) & mask(size)
	c.SetFlag(cpu.Carry, uint64(b)+uint64(borrow) > uint64(a))
	c.SetFlag(cpu.Overflow, (a^b)&(a^result)&signBit(size) != 0)
	setZS(c, result, size)
	return result
}

// logic sets the flags for the result of a bitwise operation.
func logic(c *cpu.State, result uint32, size uint8) uint32 {
	result &= mask(size)
	c.SetFlag(cpu.Carry, false)
	c.SetFlag(cpu.Overflow, false)
	setZS(c, result, size)
	return result
}

// inc increments without touching the carry flag.
func inc(c *cpu.State, a uint32, size uint8) uint32 {
	result := (a + 1) & mask(size)
	c.SetFlag(cpu.Overflow, result == signBit(size))
	setZS(c, result, size)
	return result
}

// dec decrements without touching the carry flag.
func dec(c *cpu.State, a uint32, size uint8) uint32 {
	result := (a - 1) & mask(size)
	c.SetFlag(cpu.Overflow, a == signBit(size))
	setZS(c, result, size)
	return result
}

func neg(c *cpu.State, a uint32, size uint8) uint32 {
	result := (0 - a) & mask(size)
	c.SetFlag(cpu.Carry, a != 0)
	c.SetFlag(cpu.Overflow, a == signBit(size))
	setZS(c, result, size)
	return result
}

// shl shifts left. A masked count of zero leaves value and flags unchanged.
func shl(c *cpu.State, a, count uint32, size uint8) uint32 {
	count &= 0x1f
	if count == 0 {
		return a
	}
	wide := uint64(a&mask(size)) << count
	result := uint32(wide) & mask(size)
	carry := wide>>bits(size)&1 != 0
	c.SetFlag(cpu.Carry, carry)
	c.SetFlag(cpu.Overflow, (result&signBit(size) != 0) != carry)
	setZS(c, result, size)
	return result
}

// shr shifts right logically.
func shr(c *cpu.State, a, count uint32, size uint8) uint32 {
	count &= 0x1f
	if count == 0 {
		return a
	}
	a &= mask(size)
	result := a >> count
	c.SetFlag(cpu.Carry, a>>(count-1)&1 != 0)
	c.SetFlag(cpu.Overflow, a&signBit(size) != 0)
	setZS(c, result, size)
	return result
}

// sar shifts right arithmetically.
func sar(c *cpu.State, a, count uint32, size uint8) uint32 {
	count &= 0x1f
	if count == 0 {
		return a
	}
	signed := signExtend(a, size)
	result := uint32(signed>>count) & mask(size)
	c.SetFlag(cpu.Carry, signed>>(count-1)&1 != 0)
	c.SetFlag(cpu.Overflow, false)
	setZS(c, result, size)
	return result
}

// rol rotates left, only carry and overflow are affected. Flags are updated
// whenever the masked count is not zero, even if the rotation is a no-op.
func rol(c *cpu.State, a, count uint32, size uint8) uint32 {
	count &= 0x1f
	a &= mask(size)
	if count == 0 {
		return a
	}
	n := count % bits(size)
	result := (a<<n | a>>(bits(size)-n)) & mask(size)
	carry := result&1 != 0
	c.SetFlag(cpu.Carry, carry)
	c.SetFlag(cpu.Overflow, (result&signBit(size) != 0) != carry)
	return result
}

// ror rotates right, only carry and overflow are affected.
func ror(c *cpu.State, a, count uint32, size uint8) uint32 {
	count &= 0x1f
	a &= mask(size)
	if count == 0 {
		return a
	}
	n := count % bits(size)
	result := (a>>n | a<<(bits(size)-n)) & mask(size)
	msb := result&signBit(size) != 0
	c.SetFlag(cpu.Carry, msb)
	c.SetFlag(cpu.Overflow, msb != (result&(signBit(size)>>1) != 0))
	return result
}

// imul multiplies two signed values truncated to the operand size. Carry
// and overflow are set when the full product does not fit.
func imul(c *cpu.State, a, b uint32, size uint8) uint32 {
	full := int64(signExtend(a, size)) * int64(signExtend(b, size))
	result := uint32(full) & mask(size)
	overflow := full != int64(signExtend(result, size))
	c.SetFlag(cpu.Carry, overflow)
	c.SetFlag(cpu.Overflow, overflow)
	return result
}

// condition evaluates a Jcc condition code against the flags.
func condition(c *cpu.State, code uint8) bool {
	cf := c.Flag(cpu.Carry)
	zf := c.Flag(cpu.Zero)
	sf := c.Flag(cpu.Sign)
	of := c.Flag(cpu.Overflow)

	var result bool
	switch code >> 1 {
	case 0: // o
		result = of
	case 1: // b
		result = cf
	case 2: // e
		result = zf
	case 3: // be
		result = cf || zf
	case 4: // s
		result = sf
	case 6: // l
		result = sf != of
	case 7: // le
		result = zf || sf != of
	default: // parity is not modeled
		return false
	}
	// odd condition codes are the negation of the preceding one
	if code&1 == 1 {
		return !result
	}
	return result
}
