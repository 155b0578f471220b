package executor

import (
	"fmt"
	"math"

	"github.com/NeonFoundry/RevGame/internal/cpu"
	"github.com/NeonFoundry/RevGame/internal/instruction"
)

// binary executes a two operand ALU operation. CMP and TEST only update
// the flags.
func (m *machine) binary(op instruction.Op, dst, src instruction.Operand) error {
	a, err := m.read(dst)
	if err != nil {
		return err
	}
	b, err := m.read(src)
	if err != nil {
		return err
	}

	c := m.cpu
	size := dst.Size
	b &= mask(size)
	var carry uint32
	if c.Flag(cpu.Carry) {
		carry = 1
	}

	var result uint32
	switch op {
	case instruction.Add:
		result = add(c, a, b, 0, size)
	case instruction.Adc:
		result = add(c, a, b, carry, size)
	case instruction.Sub, instruction.Cmp:
		result = sub(c, a, b, 0, size)
	case instruction.Sbb:
		result = sub(c, a, b, carry, size)
	case instruction.And, instruction.Test:
		result = logic(c, a&b, size)
	case instruction.Or:
		result = logic(c, a|b, size)
	case instruction.Xor:
		result = logic(c, a^b, size)
	default:
		return fmt.Errorf("%w: %s is not a binary operation", ErrUnknownOperation, op)
	}

	if op == instruction.Cmp || op == instruction.Test {
		return nil
	}
	return m.write(dst, result)
}

func (m *machine) unary(op instruction.Op, dst instruction.Operand) error {
	a, err := m.read(dst)
	if err != nil {
		return err
	}

	var result uint32
	switch op {
	case instruction.Inc:
		result = inc(m.cpu, a, dst.Size)
	case instruction.Dec:
		result = dec(m.cpu, a, dst.Size)
	case instruction.Neg:
		result = neg(m.cpu, a, dst.Size)
	case instruction.Not:
		result = ^a & mask(dst.Size)
	default:
		return fmt.Errorf("%w: %s is not a unary operation", ErrUnknownOperation, op)
	}
	return m.write(dst, result)
}

func (m *machine) shift(op instruction.Op, dst, count instruction.Operand) error {
	a, err := m.read(dst)
	if err != nil {
		return err
	}
	n, err := m.read(count)
	if err != nil {
		return err
	}

	var result uint32
	switch op {
	case instruction.Shl:
		result = shl(m.cpu, a, n, dst.Size)
	case instruction.Shr:
		result = shr(m.cpu, a, n, dst.Size)
	case instruction.Sar:
		result = sar(m.cpu, a, n, dst.Size)
	case instruction.Rol:
		result = rol(m.cpu, a, n, dst.Size)
	case instruction.Ror:
		result = ror(m.cpu, a, n, dst.Size)
	default:
		return fmt.Errorf("%w: %s is not a shift operation", ErrUnknownOperation, op)
	}
	return m.write(dst, result)
}

// mul is the unsigned one operand multiply into EDX:EAX or AX.
func (m *machine) mul(src instruction.Operand) error {
	b, err := m.read(src)
	if err != nil {
		return err
	}
	c := m.cpu

	var high uint32
	if src.Size == 1 {
		product := uint32(c.Register8(0)) * b
		setAX(c, uint16(product))
		high = product >> 8
	} else {
		product := uint64(c.Register(cpu.EAX)) * uint64(b)
		c.SetRegister(cpu.EAX, uint32(product))
		high = uint32(product >> 32)
		c.SetRegister(cpu.EDX, high)
	}
	c.SetFlag(cpu.Carry, high != 0)
	c.SetFlag(cpu.Overflow, high != 0)
	return nil
}

// imul handles the one, two and three operand forms of the signed multiply.
func (m *machine) imul(ops []instruction.Operand) error {
	c := m.cpu
	switch len(ops) {
	case 1:
		src := ops[0]
		b, err := m.read(src)
		if err != nil {
			return err
		}
		var overflow bool
		if src.Size == 1 {
			product := int32(int8(c.Register8(0))) * int32(int8(b))
			setAX(c, uint16(product))
			overflow = product != int32(int8(product))
		} else {
			product := int64(int32(c.Register(cpu.EAX))) * int64(int32(b))
			c.SetRegister(cpu.EAX, uint32(product))
			c.SetRegister(cpu.EDX, uint32(uint64(product)>>32))
			overflow = product != int64(int32(product))
		}
		c.SetFlag(cpu.Carry, overflow)
		c.SetFlag(cpu.Overflow, overflow)
		return nil

	case 2, 3:
		a, err := m.read(ops[len(ops)-2])
		if err != nil {
			return err
		}
		b, err := m.read(ops[len(ops)-1])
		if err != nil {
			return err
		}
		return m.write(ops[0], imul(c, a, b, ops[0].Size))

	default:
		return fmt.Errorf("%w: imul with %d operands", ErrInvalidOperand, len(ops))
	}
}

// divide is the one operand DIV and IDIV of EDX:EAX or AX.
func (m *machine) divide(signed bool, src instruction.Operand) error {
	divisor, err := m.read(src)
	if err != nil {
		return err
	}
	if divisor == 0 {
		return fmt.Errorf("%w: division by zero", ErrDivideError)
	}

	c := m.cpu
	var quotient, remainder int64
	var minQ, maxQ int64

	switch {
	case src.Size == 1 && !signed:
		dividend := int64(c.Register(cpu.EAX) & 0xffff)
		quotient, remainder = dividend/int64(divisor), dividend%int64(divisor)
		minQ, maxQ = 0, math.MaxUint8
	case src.Size == 1:
		dividend := int64(int16(c.Register(cpu.EAX)))
		d := int64(int8(divisor))
		quotient, remainder = dividend/d, dividend%d
		minQ, maxQ = math.MinInt8, math.MaxInt8
	case !signed:
		dividend := uint64(c.Register(cpu.EDX))<<32 | uint64(c.Register(cpu.EAX))
		q := dividend / uint64(divisor)
		if q > math.MaxUint32 {
			return fmt.Errorf("%w: quotient overflow", ErrDivideError)
		}
		c.SetRegister(cpu.EAX, uint32(q))
		c.SetRegister(cpu.EDX, uint32(dividend%uint64(divisor)))
		return nil
	default:
		dividend := int64(uint64(c.Register(cpu.EDX))<<32 | uint64(c.Register(cpu.EAX)))
		d := int64(int32(divisor))
		if dividend == math.MinInt64 && d == -1 {
			return fmt.Errorf("%w: quotient overflow", ErrDivideError)
		}
		quotient, remainder = dividend/d, dividend%d
		minQ, maxQ = math.MinInt32, math.MaxInt32
	}

	if quotient < minQ || quotient > maxQ {
		return fmt.Errorf("%w: quotient overflow", ErrDivideError)
	}
	if src.Size == 1 {
		c.SetRegister8(0, uint8(quotient))
		c.SetRegister8(4, uint8(remainder))
		return nil
	}
	c.SetRegister(cpu.EAX, uint32(quotient))
	c.SetRegister(cpu.EDX, uint32(remainder))
	return nil
}

// setAX sets the low 16 bits of EAX.
func setAX(c *cpu.State, value uint16) {
	c.SetRegister(cpu.EAX, c.Register(cpu.EAX)&^0xffff|uint32(value))
}
