package eeprom

import (
	"errors"
	"fmt"
	"os"

	"github.com/cockroachdb/pebble"
)

// PebbleStore keeps the byte store in a Pebble database, one key per
// address. Every write is synced before SetByte returns.
type PebbleStore struct {
	db *pebble.DB
}

// OpenPebbleStore opens (creating if needed) the store directory at path.
func OpenPebbleStore(path string) (*PebbleStore, error) {
	if info, err := os.Stat(path); err == nil {
		if !info.IsDir() {
			return nil, fmt.Errorf("eeprom: %s exists and is not a directory", path)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("eeprom: stat path: %w", err)
	}

	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("eeprom: ensure directory: %w", err)
	}

	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("eeprom: open: %w", err)
	}
	return &PebbleStore{db: db}, nil
}

func addrKey(addr int) []byte {
	return []byte(fmt.Sprintf("eeprom/%04x", addr))
}

// Byte returns the byte at addr.
func (s *PebbleStore) Byte(addr int) (byte, error) {
	if addr < 0 {
		return 0, fmt.Errorf("eeprom: read address %d: out of range", addr)
	}
	v, closer, err := s.db.Get(addrKey(addr))
	if errors.Is(err, pebble.ErrNotFound) {
		return Erased, nil
	}
	if err != nil {
		return 0, fmt.Errorf("eeprom: read address %d: %w", addr, err)
	}
	defer closer.Close()
	if len(v) != 1 {
		return Erased, nil
	}
	return v[0], nil
}

// SetByte writes b at addr.
func (s *PebbleStore) SetByte(addr int, b byte) error {
	if addr < 0 {
		return fmt.Errorf("eeprom: write address %d: out of range", addr)
	}
	if err := s.db.Set(addrKey(addr), []byte{b}, pebble.Sync); err != nil {
		return fmt.Errorf("eeprom: write address %d: %w", addr, err)
	}
	return nil
}

// Close closes the database.
func (s *PebbleStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
