// Package breakpoint contains the set of code addresses that pause execution.
package breakpoint

import (
	"slices"

	"github.com/retroenv/retrogolib/set"
)

// Set is a set of breakpoint addresses. The zero value is not usable, use New.
type Set struct {
	addresses set.Set[uint32]
}

// New returns a breakpoint set containing the given addresses.
func New(addresses ...uint32) *Set {
	s := &Set{addresses: set.New[uint32]()}
	for _, address := range addresses {
		s.addresses.Add(address)
	}
	return s
}

// Add adds a breakpoint, adding an existing one is a no-op.
func (s *Set) Add(address uint32) {
	s.addresses.Add(address)
}

// Remove removes a breakpoint, removing a missing one is a no-op.
func (s *Set) Remove(address uint32) {
	delete(s.addresses, address)
}

// Contains returns whether a breakpoint is set at the address.
func (s *Set) Contains(address uint32) bool {
	return s.addresses.Contains(address)
}

// Toggle flips the breakpoint at the address and returns whether it is set
// afterwards.
func (s *Set) Toggle(address uint32) bool {
	if s.Contains(address) {
		s.Remove(address)
		return false
	}
	s.Add(address)
	return true
}

// Len returns the number of breakpoints.
func (s *Set) Len() int {
	return len(s.addresses)
}

// List returns all breakpoint addresses in ascending order.
func (s *Set) List() []uint32 {
	list := make([]uint32, 0, len(s.addresses))
	for address := range s.addresses {
		list = append(list, address)
	}
	slices.Sort(list)
	return list
}

// Clear removes all breakpoints.
func (s *Set) Clear() {
	s.addresses = set.New[uint32]()
}

// Replace sets the breakpoints to exactly the given addresses.
func (s *Set) Replace(addresses []uint32) {
	s.Clear()
	for _, address := range addresses {
		s.addresses.Add(address)
	}
}
