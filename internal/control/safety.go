package control

import (
	"fmt"
	"time"

	"github.com/sweeney/bandswitch/internal/adc"
	"github.com/sweeney/bandswitch/internal/gpio"
	"github.com/sweeney/bandswitch/internal/logic"
)

const (
	settleSamples = 2
	settleDelay   = 5 * time.Millisecond
)

// settle discards reads after a reference switch.
func (c *Controller) settle() error {
	for i := 0; i < settleSamples; i++ {
		if _, err := c.hw.Analog.Read(adc.ChannelTemperature); err != nil {
			return err
		}
		c.hw.Clock.Sleep(settleDelay)
	}
	return nil
}

// IsTemperatureSafe measures the heatsink against the internal reference,
// drives the alarm line (high when unsafe) and returns the verdict. It
// blocks for the settling delays, roughly 20ms.
func (c *Controller) IsTemperatureSafe() (bool, error) {
	if err := c.hw.Analog.SetReference(adc.RefInternal); err != nil {
		return false, err
	}
	if err := c.settle(); err != nil {
		return false, err
	}
	sample, err := c.hw.Analog.Read(adc.ChannelTemperature)
	if err != nil {
		return false, err
	}
	if err := c.hw.Analog.SetReference(adc.RefDefault); err != nil {
		return false, err
	}
	if err := c.settle(); err != nil {
		return false, err
	}

	celsius := logic.Celsius(sample)
	safe := logic.TemperatureSafe(celsius)

	if err := c.hw.Lines.Write(gpio.LineAlarm, gpio.LevelFor(!safe)); err != nil {
		return false, fmt.Errorf("alarm: %w", err)
	}

	wasSafe := c.safe
	c.temperature = celsius
	c.safe = safe
	switch {
	case wasSafe && !safe:
		c.emit(logic.EventTempAlarm)
	case !wasSafe && safe:
		c.emit(logic.EventTempOK)
	}
	return safe, nil
}
