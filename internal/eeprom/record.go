package eeprom

import (
	"fmt"

	"github.com/sweeney/bandswitch/internal/logic"
)

// Record layout.
const (
	AddrMagic   = 0 // 4 bytes
	AddrBand    = 4
	AddrCATAuto = 5

	RecordSize = 6
)

// Magic marks a store holding a valid record.
var Magic = [4]byte{0x0D, 0x0E, 0x0A, 0x0D}

// Field selects which part of the record Persist rewrites.
type Field int

const (
	FieldBoth Field = iota
	FieldBand
	FieldCATAuto
)

// Record is the persistent configuration: selected band and CAT-auto flag.
// It holds no state of its own; every call goes to the store.
//
// Writes are skipped when the stored byte already holds the value, so
// calling Persist on every change costs nothing when nothing changed.
type Record struct {
	store          Store
	defaultCATAuto bool
}

// NewRecord creates a Record over store. defaultCATAuto is the flag value
// written on reset.
func NewRecord(store Store, defaultCATAuto bool) *Record {
	return &Record{store: store, defaultCATAuto: defaultCATAuto}
}

// update writes b at addr unless it is already there.
func (r *Record) update(addr int, b byte) error {
	cur, err := r.store.Byte(addr)
	if err != nil {
		return err
	}
	if cur == b {
		return nil
	}
	return r.store.SetByte(addr, b)
}

// HasValidMarker reports whether all marker bytes are present.
func (r *Record) HasValidMarker() (bool, error) {
	for i, want := range Magic {
		b, err := r.store.Byte(AddrMagic + i)
		if err != nil {
			return false, fmt.Errorf("read marker: %w", err)
		}
		if b != want {
			return false, nil
		}
	}
	return true, nil
}

// WriteMarker writes the marker.
func (r *Record) WriteMarker() error {
	for i, b := range Magic {
		if err := r.update(AddrMagic+i, b); err != nil {
			return fmt.Errorf("write marker: %w", err)
		}
	}
	return nil
}

func (r *Record) ensureMarker() error {
	ok, err := r.HasValidMarker()
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	return r.WriteMarker()
}

// ResetToDefaults writes the marker, the default band and the default
// CAT-auto flag.
func (r *Record) ResetToDefaults() error {
	if err := r.ensureMarker(); err != nil {
		return err
	}
	return r.write(FieldBoth, logic.DefaultBand, r.defaultCATAuto)
}

// Restore reads the record back. A missing or corrupt marker resets the
// store to defaults first. A band byte that is not a concrete band is
// replaced by the default band.
func (r *Record) Restore() (logic.Band, bool, error) {
	ok, err := r.HasValidMarker()
	if err != nil {
		return logic.BandUnknown, false, err
	}
	if !ok {
		if err := r.ResetToDefaults(); err != nil {
			return logic.BandUnknown, false, err
		}
		return logic.DefaultBand, r.defaultCATAuto, nil
	}

	bb, err := r.store.Byte(AddrBand)
	if err != nil {
		return logic.BandUnknown, false, fmt.Errorf("read band: %w", err)
	}
	cb, err := r.store.Byte(AddrCATAuto)
	if err != nil {
		return logic.BandUnknown, false, fmt.Errorf("read cat-auto: %w", err)
	}

	band := logic.Band(int8(bb))
	if !band.Valid() {
		band = logic.DefaultBand
		if err := r.write(FieldBand, band, false); err != nil {
			return logic.BandUnknown, false, err
		}
	}
	return band, cb == 1, nil
}

// Stored returns the record exactly as stored, without repairing it. ok is
// false when the marker is missing.
func (r *Record) Stored() (band logic.Band, catAuto bool, ok bool, err error) {
	ok, err = r.HasValidMarker()
	if err != nil || !ok {
		return logic.BandUnknown, false, ok, err
	}
	bb, err := r.store.Byte(AddrBand)
	if err != nil {
		return logic.BandUnknown, false, false, fmt.Errorf("read band: %w", err)
	}
	cb, err := r.store.Byte(AddrCATAuto)
	if err != nil {
		return logic.BandUnknown, false, false, fmt.Errorf("read cat-auto: %w", err)
	}
	return logic.Band(int8(bb)), cb == 1, true, nil
}

// Persist writes the marker if missing, then the selected field(s).
func (r *Record) Persist(field Field, band logic.Band, catAuto bool) error {
	if err := r.ensureMarker(); err != nil {
		return err
	}
	return r.write(field, band, catAuto)
}

func (r *Record) write(field Field, band logic.Band, catAuto bool) error {
	if field == FieldBoth || field == FieldBand {
		if err := r.update(AddrBand, byte(band)); err != nil {
			return fmt.Errorf("write band: %w", err)
		}
	}
	if field == FieldBoth || field == FieldCATAuto {
		var b byte
		if catAuto {
			b = 1
		}
		if err := r.update(AddrCATAuto, b); err != nil {
			return fmt.Errorf("write cat-auto: %w", err)
		}
	}
	return nil
}
