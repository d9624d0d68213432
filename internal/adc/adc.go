// Package adc provides the analog input capability with hardware abstraction.
// Samples are reported in 10-bit units (0..1023) of the selected reference,
// the unit the band calibration table is expressed in.
package adc

// Channel identifies an analog input of the controller.
type Channel int

const (
	ChannelCAT         Channel = iota // radio band voltage
	ChannelButton                     // front panel button divider
	ChannelTemperature                // heatsink sensor
	NumChannels
)

func (c Channel) String() string {
	switch c {
	case ChannelCAT:
		return "cat"
	case ChannelButton:
		return "button"
	case ChannelTemperature:
		return "temperature"
	}
	return "unknown"
}

// Reference selects the full-scale voltage samples are measured against.
type Reference int

const (
	RefDefault  Reference = iota // supply rail, 5V
	RefInternal                  // 1.1V, for the temperature sensor
)

func (r Reference) String() string {
	if r == RefInternal {
		return "internal"
	}
	return "default"
}

// MaxSample is the largest value Read returns.
const MaxSample = 1023

// Reader samples analog inputs.
type Reader interface {
	// Read takes one sample of ch against the current reference.
	Read(ch Channel) (int, error)

	// SetReference switches the reference for subsequent reads. The first
	// reads after a switch may be unsettled.
	SetReference(ref Reference) error

	// Close releases ADC resources.
	Close() error
}

// scale converts a voltage to 10-bit units of fullScale, clamped.
func scale(v, fullScale int64) int {
	if fullScale <= 0 {
		return 0
	}
	s := v * (MaxSample + 1) / fullScale
	if s < 0 {
		return 0
	}
	if s > MaxSample {
		return MaxSample
	}
	return int(s)
}
