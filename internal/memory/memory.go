// Package memory implements the flat guest address space with permissioned regions.
package memory

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrOutOfBounds is returned when an access touches bytes outside of all regions.
	ErrOutOfBounds = errors.New("address out of bounds")
	// ErrPermissionDenied is returned when a region lacks the permission an access requires.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrInvalidLayout is returned when the region layout of a new memory is not valid.
	ErrInvalidLayout = errors.New("invalid memory layout")
)

// AccessError describes a failed memory access.
type AccessError struct {
	Op      string
	Address uint32
	Length  int
	Err     error
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("%s of %d bytes at 0x%08x: %s", e.Op, e.Length, e.Address, e.Err)
}

func (e *AccessError) Unwrap() error {
	return e.Err
}

// Memory is a fixed size byte buffer partitioned into non-overlapping regions.
// Only bytes mutate, the region layout is fixed after creation.
type Memory struct {
	data    []byte
	regions []Region // sorted by start address
}

// New creates a zeroed memory of the given size with the given region layout.
func New(size uint32, regions []Region) (*Memory, error) {
	sorted := make([]Region, len(regions))
	copy(sorted, regions)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})

	for i, r := range sorted {
		if r.Length == 0 {
			return nil, fmt.Errorf("%w: empty region at 0x%08x", ErrInvalidLayout, r.Start)
		}
		if r.End() > uint64(size) {
			return nil, fmt.Errorf("%w: region %s exceeds memory size 0x%x", ErrInvalidLayout, r, size)
		}
		if i > 0 && sorted[i-1].overlaps(r) {
			return nil, fmt.Errorf("%w: region %s overlaps %s", ErrInvalidLayout, r, sorted[i-1])
		}
	}

	return &Memory{
		data:    make([]byte, size),
		regions: sorted,
	}, nil
}

// Size returns the size of the address space in bytes.
func (m *Memory) Size() uint32 {
	return uint32(len(m.data))
}

// Regions returns a copy of the region layout sorted by start address.
func (m *Memory) Regions() []Region {
	regions := make([]Region, len(m.regions))
	copy(regions, m.regions)
	return regions
}

// RegionAt returns the region that contains the address.
func (m *Memory) RegionAt(address uint32) (Region, bool) {
	i := sort.Search(len(m.regions), func(i int) bool {
		return m.regions[i].End() > uint64(address)
	})
	if i < len(m.regions) && m.regions[i].Contains(address) {
		return m.regions[i], true
	}
	return Region{}, false
}

// Read returns a copy of length bytes at address. Every byte has to be
// inside a readable region.
func (m *Memory) Read(address uint32, length int) ([]byte, error) {
	if err := m.check("read", address, length, guestAccess(Read)); err != nil {
		return nil, err
	}
	return m.copyOut(address, length), nil
}

// Fetch returns a copy of length bytes at address for instruction decoding.
// Every byte has to be inside a readable and executable region.
func (m *Memory) Fetch(address uint32, length int) ([]byte, error) {
	if err := m.check("fetch", address, length, guestAccess(Read|Execute)); err != nil {
		return nil, err
	}
	return m.copyOut(address, length), nil
}

// Write stores data at address. Every byte has to be inside a writable region,
// otherwise no byte is modified.
func (m *Memory) Write(address uint32, data []byte) error {
	if err := m.check("write", address, len(data), guestAccess(Write)); err != nil {
		return err
	}
	copy(m.data[address:], data)
	return nil
}

// ReadUint32 reads a little endian 32 bit value.
func (m *Memory) ReadUint32(address uint32) (uint32, error) {
	b, err := m.Read(address, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// WriteUint32 writes a little endian 32 bit value.
func (m *Memory) WriteUint32(address, value uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], value)
	return m.Write(address, b[:])
}

// Peek returns a copy of length bytes at address ignoring the region
// permissions. It is used for debugger views of the guest memory.
func (m *Memory) Peek(address uint32, length int) ([]byte, error) {
	if err := m.check("peek", address, length, anyAccess); err != nil {
		return nil, err
	}
	return m.copyOut(address, length), nil
}

// Poke patches data at address on behalf of the debugger. Every touched region
// has to be patchable, which means writable or executable. Read only data
// regions can not be patched.
func (m *Memory) Poke(address uint32, data []byte) error {
	if err := m.check("patch", address, len(data), patchAccess); err != nil {
		return err
	}
	copy(m.data[address:], data)
	return nil
}

// Load copies initial content into the memory, only checking that the range
// is covered by regions.
func (m *Memory) Load(address uint32, data []byte) error {
	if err := m.check("load", address, len(data), anyAccess); err != nil {
		return err
	}
	copy(m.data[address:], data)
	return nil
}

// Snapshot returns a copy of the whole address space.
func (m *Memory) Snapshot() []byte {
	data := make([]byte, len(m.data))
	copy(data, m.data)
	return data
}

// Restore replaces the whole address space with the given snapshot.
func (m *Memory) Restore(data []byte) error {
	if len(data) != len(m.data) {
		return fmt.Errorf("snapshot size 0x%x does not match memory size 0x%x", len(data), len(m.data))
	}
	copy(m.data, data)
	return nil
}

func (m *Memory) copyOut(address uint32, length int) []byte {
	data := make([]byte, length)
	copy(data, m.data[address:])
	return data
}

// allowed decides whether an access to a region is permitted.
type allowed func(r Region) bool

func guestAccess(need Permission) allowed {
	return func(r Region) bool {
		return r.Perm.Has(need)
	}
}

func anyAccess(Region) bool {
	return true
}

func patchAccess(r Region) bool {
	return r.Perm.Has(Write) || r.Perm.Has(Execute)
}

// check validates that every byte of the range lies in a region that allows
// the access. Ranges may span adjacent regions.
func (m *Memory) check(op string, address uint32, length int, allow allowed) error {
	if length < 0 {
		return &AccessError{Op: op, Address: address, Length: length, Err: ErrOutOfBounds}
	}
	end := uint64(address) + uint64(length)
	if end > uint64(len(m.data)) {
		return &AccessError{Op: op, Address: address, Length: length, Err: ErrOutOfBounds}
	}

	denied := false
	for cur := uint64(address); cur < end; {
		r, ok := m.RegionAt(uint32(cur))
		if !ok {
			return &AccessError{Op: op, Address: address, Length: length, Err: ErrOutOfBounds}
		}
		if !allow(r) {
			denied = true
		}
		cur = r.End()
	}
	if denied {
		return &AccessError{Op: op, Address: address, Length: length, Err: ErrPermissionDenied}
	}
	return nil
}
