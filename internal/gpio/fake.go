package gpio

import "fmt"

// Write records a single Write call on FakeLines.
type Write struct {
	Line  Line
	Level Level
}

// FakeLines is a test double that keeps line levels in memory.
type FakeLines struct {
	// Levels holds the current level of every line. Tests set
	// Levels[LineTX] to simulate transmission.
	Levels [NumLines]Level

	// Writes records every Write call in order.
	Writes []Write

	// Closed tracks if Close was called
	Closed bool

	// WriteError, if set, will be returned by Write()
	WriteError error

	// ReadError, if set, will be returned by Read()
	ReadError error
}

// NewFakeLines creates FakeLines with every line low.
func NewFakeLines() *FakeLines {
	return &FakeLines{}
}

// Write sets the level of line.
func (f *FakeLines) Write(line Line, level Level) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	if line < 0 || line >= NumLines {
		return fmt.Errorf("write %s: no such line", line)
	}
	f.Levels[line] = level
	f.Writes = append(f.Writes, Write{Line: line, Level: level})
	return nil
}

// Read returns the level of line.
func (f *FakeLines) Read(line Line) (Level, error) {
	if f.ReadError != nil {
		return Low, f.ReadError
	}
	if line < 0 || line >= NumLines {
		return Low, fmt.Errorf("read %s: no such line", line)
	}
	return f.Levels[line], nil
}

// Close marks the lines as closed.
func (f *FakeLines) Close() error {
	f.Closed = true
	return nil
}

// WritesTo returns the recorded writes to line.
func (f *FakeLines) WritesTo(line Line) []Level {
	var out []Level
	for _, w := range f.Writes {
		if w.Line == line {
			out = append(out, w.Level)
		}
	}
	return out
}

// ResetWrites clears the write log, keeping levels.
func (f *FakeLines) ResetWrites() {
	f.Writes = nil
}
