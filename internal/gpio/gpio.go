// Package gpio provides the digital line capability with hardware abstraction.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import "fmt"

// Level is the electrical state of a line.
type Level int

const (
	Low  Level = 0
	High Level = 1
)

// Invert returns the opposite level.
func (l Level) Invert() Level {
	if l == High {
		return Low
	}
	return High
}

func (l Level) String() string {
	if l == High {
		return "HIGH"
	}
	return "LOW"
}

// LevelFor returns High for true and Low for false.
func LevelFor(b bool) Level {
	if b {
		return High
	}
	return Low
}

// Line identifies a logical line of the filter controller.
type Line int

const (
	NumBandLines = 7
	NumDataLines = 4
)

const (
	LineTX     Line = iota // transmit sense, input
	LineCATLED             // CAT-auto indicator, active low
	LineAlarm              // over-temperature alarm, active high
	lineBandBase
	lineDataBase = lineBandBase + NumBandLines
	NumLines     = lineDataBase + NumDataLines
)

// BandLine returns the select line for band index i.
func BandLine(i int) Line {
	return lineBandBase + Line(i)
}

// DataLine returns data line i (0 = D0).
func DataLine(i int) Line {
	return lineDataBase + Line(i)
}

func (l Line) String() string {
	switch {
	case l == LineTX:
		return "tx"
	case l == LineCATLED:
		return "cat-led"
	case l == LineAlarm:
		return "alarm"
	case l >= lineBandBase && l < lineDataBase:
		return fmt.Sprintf("band%d", int(l-lineBandBase))
	case l >= lineDataBase && l < NumLines:
		return fmt.Sprintf("d%d", int(l-lineDataBase))
	}
	return fmt.Sprintf("line(%d)", int(l))
}

// Lines drives and senses the controller's digital lines.
type Lines interface {
	// Write drives an output line.
	Write(line Line, level Level) error

	// Read returns the current level of a line. For outputs this is the
	// driven level.
	Read(line Line) (Level, error)

	// Close releases GPIO resources.
	Close() error
}

// PinMap assigns BCM offsets to logical lines.
type PinMap struct {
	Band   [NumBandLines]int
	Data   [NumDataLines]int
	TX     int
	CATLED int
	Alarm  int
}

// DefaultPins is the wiring of the filter controller hat (BCM numbering).
var DefaultPins = PinMap{
	Band:   [NumBandLines]int{5, 6, 13, 19, 26, 12, 16},
	Data:   [NumDataLines]int{17, 27, 22, 23},
	TX:     24,
	CATLED: 25,
	Alarm:  18,
}

// Offset returns the BCM offset wired to line.
func (p PinMap) Offset(line Line) int {
	switch {
	case line == LineTX:
		return p.TX
	case line == LineCATLED:
		return p.CATLED
	case line == LineAlarm:
		return p.Alarm
	case line >= lineBandBase && line < lineDataBase:
		return p.Band[line-lineBandBase]
	default:
		return p.Data[line-lineDataBase]
	}
}

// InitialLevel is the safe power-on level of an output line: band selects
// released, data lines all set (no filter), indicators off.
func InitialLevel(line Line) Level {
	if line >= lineDataBase && line < NumLines {
		return High
	}
	return Low
}
