// Package logic contains the pure decision rules of the band switch.
// This package has NO external dependencies (no GPIO, ADC, storage, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import "time"

// Band identifies one low-pass filter configuration of the amplifier.
// The numeric value is also the index of the band's select line and the
// byte stored in the persistent record.
type Band int8

const (
	BandUnknown Band = -1
	Band160     Band = 0
	Band80      Band = 1
	Band40      Band = 2
	Band30_20   Band = 3
	Band17_15   Band = 4
	Band12_10   Band = 5
	Band6       Band = 6
)

// NumBands is the number of concrete (selectable) bands.
const NumBands = 7

// DefaultBand is selected after a factory reset or on first run.
const DefaultBand = Band160

var bandNames = [NumBands]string{"160m", "80m", "40m", "30/20m", "17/15m", "12/10m", "6m"}

func (b Band) String() string {
	if !b.Valid() {
		return "UNKNOWN"
	}
	return bandNames[b]
}

// Valid reports whether b is one of the concrete bands.
func (b Band) Valid() bool {
	return b >= Band160 && b < NumBands
}

// Next returns the band after b, wrapping from the last band back to the first.
func (b Band) Next() Band {
	return (b + 1) % NumBands
}

// ButtonEvent is the classified state of the front panel button line.
type ButtonEvent int

const (
	ButtonNone ButtonEvent = iota
	ButtonSelect
)

func (e ButtonEvent) String() string {
	if e == ButtonSelect {
		return "SELECT"
	}
	return "NONE"
}

// EventType identifies something the controller did that is worth reporting.
type EventType string

const (
	EventBand         EventType = "BAND"
	EventCATMode      EventType = "CAT_MODE"
	EventTempAlarm    EventType = "TEMP_ALARM"
	EventTempOK       EventType = "TEMP_OK"
	EventFactoryReset EventType = "FACTORY_RESET"
	EventCATUnplugged EventType = "CAT_UNPLUGGED"
)

// Event is a controller state change, stamped with the state after the change.
type Event struct {
	Timestamp   time.Time
	Type        EventType
	Band        Band
	CATAuto     bool
	Temperature int // degrees C at the last safety check
}

// EventCounts tracks the number of each event type since startup.
type EventCounts struct {
	BandChanges   int
	CATToggles    int
	TempAlarms    int
	FactoryResets int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    EventCounts
}
