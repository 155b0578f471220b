// Package bookmarks keeps player notes attached to guest addresses.
package bookmarks

import (
	"sort"
	"time"
)

// Bookmark is a note at an address.
type Bookmark struct {
	Address uint32
	Note    string
	Created time.Time
}

// Manager tracks bookmarks by address.
type Manager struct {
	items map[uint32]Bookmark
	now   func() time.Time
}

// New creates a new bookmark manager.
func New() *Manager {
	return &Manager{
		items: make(map[uint32]Bookmark),
		now:   time.Now,
	}
}

// Add sets a bookmark at the address and returns whether it is new. An
// existing bookmark is replaced.
func (m *Manager) Add(address uint32, note string) bool {
	_, exists := m.items[address]
	m.items[address] = Bookmark{
		Address: address,
		Note:    note,
		Created: m.now(),
	}
	return !exists
}

// Remove deletes the bookmark at the address and returns whether it existed.
func (m *Manager) Remove(address uint32) bool {
	_, ok := m.items[address]
	delete(m.items, address)
	return ok
}

// Get returns the bookmark at the given address.
func (m *Manager) Get(address uint32) (Bookmark, bool) {
	item, ok := m.items[address]
	return item, ok
}

// Has returns whether a bookmark exists at the given address.
func (m *Manager) Has(address uint32) bool {
	_, ok := m.items[address]
	return ok
}

// UpdateNote replaces the note of an existing bookmark.
func (m *Manager) UpdateNote(address uint32, note string) bool {
	item, ok := m.items[address]
	if !ok {
		return false
	}
	item.Note = note
	m.items[address] = item
	return true
}

// Toggle removes an existing bookmark or adds one with the given note. It
// returns whether a bookmark is set afterwards.
func (m *Manager) Toggle(address uint32, note string) bool {
	if m.Remove(address) {
		return false
	}
	m.Add(address, note)
	return true
}

// Len returns the number of bookmarks.
func (m *Manager) Len() int {
	return len(m.items)
}

// Clear removes all bookmarks.
func (m *Manager) Clear() {
	clear(m.items)
}

// List returns all bookmarks sorted by address.
func (m *Manager) List() []Bookmark {
	items := make([]Bookmark, 0, len(m.items))
	for _, item := range m.items {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].Address < items[j].Address
	})
	return items
}

// NextAfter returns the address of the first bookmark after the address.
func (m *Manager) NextAfter(address uint32) (uint32, bool) {
	items := m.List()
	i := sort.Search(len(items), func(i int) bool {
		return items[i].Address > address
	})
	if i == len(items) {
		return 0, false
	}
	return items[i].Address, true
}

// PrevBefore returns the address of the last bookmark before the address.
func (m *Manager) PrevBefore(address uint32) (uint32, bool) {
	items := m.List()
	i := sort.Search(len(items), func(i int) bool {
		return items[i].Address >= address
	})
	if i == 0 {
		return 0, false
	}
	return items[i-1].Address, true
}
