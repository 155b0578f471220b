package memory

import (
	"fmt"
	"strings"
)

// Kind classifies the purpose of a memory region.
type Kind int

// Region kinds.
const (
	Code Kind = iota
	Data
	Stack
)

var kindNames = map[Kind]string{
	Code:  "code",
	Data:  "data",
	Stack: "stack",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Permission is a bit set of access rights of a region.
type Permission uint8

// Access rights.
const (
	Read Permission = 1 << iota
	Write
	Execute
)

// Common permission combinations.
const (
	ReadOnly     = Read
	ReadWrite    = Read | Write
	ReadExecute  = Read | Execute
	ReadWriteExe = Read | Write | Execute
)

// Has returns whether all rights of other are contained in p.
func (p Permission) Has(other Permission) bool {
	return p&other == other
}

// String returns the permission in the classic rwx notation.
func (p Permission) String() string {
	var sb strings.Builder
	for _, r := range []struct {
		perm Permission
		c    byte
	}{{Read, 'r'}, {Write, 'w'}, {Execute, 'x'}} {
		if p.Has(r.perm) {
			sb.WriteByte(r.c)
		} else {
			sb.WriteByte('-')
		}
	}
	return sb.String()
}

// Region is a contiguous address range with a kind and permissions.
type Region struct {
	Start  uint32
	Length uint32
	Kind   Kind
	Perm   Permission
}

// End returns the first address after the region.
func (r Region) End() uint64 {
	return uint64(r.Start) + uint64(r.Length)
}

// Contains returns whether the address lies inside the region.
func (r Region) Contains(address uint32) bool {
	return address >= r.Start && uint64(address) < r.End()
}

func (r Region) String() string {
	return fmt.Sprintf("%s 0x%08x-0x%08x %s", r.Kind, r.Start, r.End(), r.Perm)
}

func (r Region) overlaps(other Region) bool {
	return uint64(r.Start) < other.End() && uint64(other.Start) < r.End()
}
