package control

import (
	"fmt"

	"github.com/sweeney/bandswitch/internal/gpio"
	"github.com/sweeney/bandswitch/internal/logic"
)

// applyBand raises the select line of band and releases the others, then
// encodes the band's filter code on the data lines. Select lines are only
// written when they change, so relays never chatter on a repeated call.
func (c *Controller) applyBand(band logic.Band) error {
	for i := 0; i < gpio.NumBandLines; i++ {
		line := gpio.BandLine(i)
		want := gpio.LevelFor(logic.Band(i) == band)

		cur, err := c.hw.Lines.Read(line)
		if err != nil {
			return fmt.Errorf("apply band: %w", err)
		}
		if cur == want {
			continue
		}
		if err := c.hw.Lines.Write(line, want); err != nil {
			return fmt.Errorf("apply band: %w", err)
		}
	}

	bits := logic.BitsForBand(band)
	if bits == logic.BitsInvalid {
		return nil
	}
	for i := 0; i < gpio.NumDataLines; i++ {
		if err := c.hw.Lines.Write(gpio.DataLine(i), gpio.LevelFor(bits.Bit(i))); err != nil {
			return fmt.Errorf("apply band bits: %w", err)
		}
	}
	return nil
}

// applyCATIndicator lights the (active low) CAT indicator when catAuto is set.
func (c *Controller) applyCATIndicator(catAuto bool) error {
	if err := c.hw.Lines.Write(gpio.LineCATLED, gpio.LevelFor(!catAuto)); err != nil {
		return fmt.Errorf("cat indicator: %w", err)
	}
	return nil
}
