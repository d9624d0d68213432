//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealLines drives the controller's lines through the Linux GPIO character device.
type RealLines struct {
	chip  *gpiocdev.Chip
	lines [NumLines]*gpiocdev.Line
}

// NewRealLines requests every line on chipName. Outputs start at their
// InitialLevel; the transmit sense line is an input with pull-down.
func NewRealLines(chipName string, pins PinMap) (*RealLines, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	r := &RealLines{chip: chip}
	for l := Line(0); l < NumLines; l++ {
		offset := pins.Offset(l)
		var line *gpiocdev.Line
		if l == LineTX {
			line, err = chip.RequestLine(offset, gpiocdev.AsInput, gpiocdev.WithPullDown)
		} else {
			line, err = chip.RequestLine(offset, gpiocdev.AsOutput(int(InitialLevel(l))))
		}
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("request %s pin %d: %w", l, offset, err)
		}
		r.lines[l] = line
	}

	return r, nil
}

// Write drives an output line.
func (r *RealLines) Write(line Line, level Level) error {
	if line < 0 || line >= NumLines || r.lines[line] == nil {
		return fmt.Errorf("write %s: no such line", line)
	}
	if err := r.lines[line].SetValue(int(level)); err != nil {
		return fmt.Errorf("write %s: %w", line, err)
	}
	return nil
}

// Read returns the level of a line.
func (r *RealLines) Read(line Line) (Level, error) {
	if line < 0 || line >= NumLines || r.lines[line] == nil {
		return Low, fmt.Errorf("read %s: no such line", line)
	}
	v, err := r.lines[line].Value()
	if err != nil {
		return Low, fmt.Errorf("read %s: %w", line, err)
	}
	return LevelFor(v != 0), nil
}

// Close releases GPIO resources.
// Reconfigures lines to input with pull-down (matching Pi boot defaults) before
// closing, so relays drop out and the filter board sees no drive while the
// daemon is down.
func (r *RealLines) Close() error {
	var errs []error

	for l, line := range r.lines {
		if line == nil {
			continue
		}
		if err := line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure %s: %w", Line(l), err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", Line(l), err))
		}
		r.lines[l] = nil
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		r.chip = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
