// Package eeprom provides the durable byte store capability and the
// persistent configuration record kept in it.
package eeprom

import "fmt"

// Erased is the value of a byte that has never been written.
const Erased byte = 0xFF

// Store is a small durable memory addressed by byte offset.
type Store interface {
	// Byte returns the byte at addr, or Erased if it was never written.
	Byte(addr int) (byte, error)

	// SetByte durably writes b at addr.
	SetByte(addr int, b byte) error

	// Close releases the store.
	Close() error
}

// MemStore is an in-memory Store. It survives "power cycles" in tests by
// being shared between successive Records.
type MemStore struct {
	data map[int]byte

	// Writes counts successful SetByte calls.
	Writes int

	// WriteError, if set, will be returned by SetByte.
	WriteError error

	// Closed tracks if Close was called
	Closed bool
}

// NewMemStore creates an erased MemStore.
func NewMemStore() *MemStore {
	return &MemStore{data: make(map[int]byte)}
}

// Byte returns the byte at addr.
func (m *MemStore) Byte(addr int) (byte, error) {
	if addr < 0 {
		return 0, fmt.Errorf("read address %d: out of range", addr)
	}
	b, ok := m.data[addr]
	if !ok {
		return Erased, nil
	}
	return b, nil
}

// SetByte writes b at addr.
func (m *MemStore) SetByte(addr int, b byte) error {
	if m.WriteError != nil {
		return m.WriteError
	}
	if addr < 0 {
		return fmt.Errorf("write address %d: out of range", addr)
	}
	m.data[addr] = b
	m.Writes++
	return nil
}

// Close marks the store as closed.
func (m *MemStore) Close() error {
	m.Closed = true
	return nil
}
