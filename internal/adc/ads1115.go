package adc

import (
	"fmt"

	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ads1x15"
	"periph.io/x/host/v3"
)

// Full-scale voltage of each reference.
var referenceVolts = map[Reference]physic.ElectricPotential{
	RefDefault:  5 * physic.Volt,
	RefInternal: 1100 * physic.MilliVolt,
}

// ads1115Inputs maps single-ended input numbers to device channels.
var ads1115Inputs = [...]ads1x15.Channel{
	ads1x15.Channel0,
	ads1x15.Channel1,
	ads1x15.Channel2,
	ads1x15.Channel3,
}

// ChannelMap assigns ADS1115 single-ended inputs (0..3) to channels.
type ChannelMap [NumChannels]int

// DefaultChannels is the wiring of the filter controller hat.
var DefaultChannels = ChannelMap{
	ChannelCAT:         0,
	ChannelButton:      1,
	ChannelTemperature: 2,
}

type pinKey struct {
	ch  Channel
	ref Reference
}

// ADS1115Reader samples the controller's analog inputs through an ADS1115
// on I2C. The reference selects the programmable gain: a pin is opened per
// channel and reference and kept until Close.
type ADS1115Reader struct {
	bus      i2c.BusCloser
	dev      *ads1x15.Dev
	channels ChannelMap
	ref      Reference
	pins     map[pinKey]analog.PinADC
}

// NewADS1115Reader opens the I2C bus (empty name selects the first bus)
// and the converter at addr.
func NewADS1115Reader(busName string, addr uint16, channels ChannelMap) (*ADS1115Reader, error) {
	for ch, in := range channels {
		if in < 0 || in >= len(ads1115Inputs) {
			return nil, fmt.Errorf("%s: input %d out of range", Channel(ch), in)
		}
	}

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init host: %w", err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", busName, err)
	}

	opts := ads1x15.DefaultOpts
	opts.I2cAddress = addr
	dev, err := ads1x15.NewADS1115(bus, &opts)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("open ads1115 at %#x: %w", addr, err)
	}

	return &ADS1115Reader{
		bus:      bus,
		dev:      dev,
		channels: channels,
		ref:      RefDefault,
		pins:     make(map[pinKey]analog.PinADC),
	}, nil
}

func (r *ADS1115Reader) pin(ch Channel) (analog.PinADC, error) {
	key := pinKey{ch: ch, ref: r.ref}
	if p, ok := r.pins[key]; ok {
		return p, nil
	}
	p, err := r.dev.PinForChannel(ads1115Inputs[r.channels[ch]], referenceVolts[r.ref], 860*physic.Hertz, ads1x15.BestQuality)
	if err != nil {
		return nil, fmt.Errorf("open %s pin: %w", ch, err)
	}
	r.pins[key] = p
	return p, nil
}

// Read takes one sample of ch.
func (r *ADS1115Reader) Read(ch Channel) (int, error) {
	if ch < 0 || ch >= NumChannels {
		return 0, fmt.Errorf("read %s: no such channel", ch)
	}
	p, err := r.pin(ch)
	if err != nil {
		return 0, err
	}
	s, err := p.Read()
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", ch, err)
	}
	return scale(int64(s.V), int64(referenceVolts[r.ref])), nil
}

// SetReference switches the full-scale voltage used by later reads.
func (r *ADS1115Reader) SetReference(ref Reference) error {
	if _, ok := referenceVolts[ref]; !ok {
		return fmt.Errorf("unknown reference %d", int(ref))
	}
	r.ref = ref
	return nil
}

// Close halts open pins and releases the bus.
func (r *ADS1115Reader) Close() error {
	var errs []error
	for key, p := range r.pins {
		if err := p.Halt(); err != nil {
			errs = append(errs, fmt.Errorf("halt %s pin: %w", key.ch, err))
		}
	}
	r.pins = nil
	if err := r.bus.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close i2c bus: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
