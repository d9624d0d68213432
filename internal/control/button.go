package control

import (
	"fmt"
	"time"

	"github.com/sweeney/bandswitch/internal/adc"
	"github.com/sweeney/bandswitch/internal/logic"
)

// pollButton samples the button once per refresh interval. A press acts
// once, on the transition from released: a long press toggles CAT mode, a
// short press steps the band in manual mode. The latch clears when a
// sample reads released.
func (c *Controller) pollButton() error {
	now := c.hw.Clock.Millis()
	if now <= c.lastButtonPoll+c.opts.RefreshInterval.Milliseconds() {
		return nil
	}

	v, err := c.hw.Analog.Read(adc.ChannelButton)
	if err != nil {
		return fmt.Errorf("read button: %w", err)
	}
	c.button = logic.ClassifyButton(v)
	c.lastButtonPoll = now

	if c.button != logic.ButtonSelect {
		c.longPress = false
		c.lastButton = logic.ButtonNone
		return nil
	}

	var held time.Duration
	if !c.repeat {
		held, err = c.waitForRelease()
		if err != nil {
			return err
		}
	}

	if c.button == c.lastButton {
		return nil
	}

	c.longPress = !c.repeat && held > c.opts.LongPress
	c.lastButton = c.button

	if c.longPress {
		return c.SetAutoCATMode(!c.catAuto)
	}
	if !c.catAuto {
		return ignoreRejection(c.NextBand())
	}
	return nil
}

// waitForRelease spins until the button reads released or LongPress has
// passed, and returns how long it was held.
func (c *Controller) waitForRelease() (time.Duration, error) {
	start := c.hw.Clock.Millis()
	limit := c.opts.LongPress.Milliseconds()

	for {
		v, err := c.hw.Analog.Read(adc.ChannelButton)
		if err != nil {
			return 0, fmt.Errorf("read button: %w", err)
		}
		if logic.ClassifyButton(v) == logic.ButtonNone {
			break
		}
		if c.hw.Clock.Millis()-start > limit {
			break
		}
	}

	return time.Duration(c.hw.Clock.Millis()-start) * time.Millisecond, nil
}
