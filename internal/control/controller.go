// Package control implements the band switch controller: it owns the
// amplifier's lines, follows the radio's CAT band voltage or the front
// panel button, keeps the persistent record in step, and stops band
// changes while transmitting or overheating.
//
// The controller is single-threaded. Initialize is called once, then
// PollOnce is called on a tight loop for as long as the device runs.
package control

import (
	"errors"
	"fmt"
	"time"

	"github.com/sweeney/bandswitch/internal/adc"
	"github.com/sweeney/bandswitch/internal/clock"
	"github.com/sweeney/bandswitch/internal/eeprom"
	"github.com/sweeney/bandswitch/internal/gpio"
	"github.com/sweeney/bandswitch/internal/logic"
)

var (
	ErrNotInitialized = errors.New("control: not initialized")
	ErrTransmitting   = errors.New("control: band change refused while transmitting")
	ErrInvalidBand    = errors.New("control: invalid band")
)

// Rejected reports whether err is a safety rejection rather than a
// hardware failure.
func Rejected(err error) bool {
	return errors.Is(err, ErrNotInitialized) || errors.Is(err, ErrTransmitting) || errors.Is(err, ErrInvalidBand)
}

// Startup timings.
const (
	catProbeSamples   = 5
	catProbeOutliers  = 3 // more than this many outliers means a floating input
	catProbeDelay     = 5 * time.Millisecond
	resetBlinkToggles = 10
	resetBlinkDelay   = 200 * time.Millisecond
)

// Options tunes the controller's timing.
type Options struct {
	// RefreshInterval is the minimum time between button samples.
	RefreshInterval time.Duration

	// LongPress is how long the button must be held to toggle CAT mode.
	// It also bounds the wait for release.
	LongPress time.Duration

	// SafetyInterval is the minimum time between temperature checks.
	SafetyInterval time.Duration

	// DefaultCATAuto is the CAT-auto flag after a factory reset.
	DefaultCATAuto bool
}

// DefaultOptions returns the stock timings.
func DefaultOptions() Options {
	return Options{
		RefreshInterval: 100 * time.Millisecond,
		LongPress:       2000 * time.Millisecond,
		SafetyInterval:  100 * time.Millisecond,
		DefaultCATAuto:  true,
	}
}

// Hardware holds the capabilities the controller exclusively owns.
type Hardware struct {
	Analog adc.Reader
	Lines  gpio.Lines
	Store  eeprom.Store
	Clock  clock.Clock
}

// Controller is the band switch state machine.
type Controller struct {
	hw     Hardware
	opts   Options
	record *eeprom.Record

	initialized bool
	band        logic.Band
	catAuto     bool

	// Button state.
	lastButtonPoll int64
	repeat         bool // reserved; never enabled
	longPress      bool
	button         logic.ButtonEvent
	lastButton     logic.ButtonEvent

	// Safety state.
	safetyChecked   bool
	lastSafetyCheck int64
	safe            bool
	temperature     int

	events []logic.Event
}

// New creates an uninitialized controller.
func New(hw Hardware, opts Options) *Controller {
	return &Controller{
		hw:     hw,
		opts:   opts,
		record: eeprom.NewRecord(hw.Store, opts.DefaultCATAuto),
		band:   logic.DefaultBand,
		// catAuto starts at its default; Restore overwrites it.
		catAuto: opts.DefaultCATAuto,
		// A button held through startup must not act until released.
		lastButton: logic.ButtonSelect,
		safe:       true,
	}
}

// Initialize drives all lines to their safe levels, restores the record
// (resetting it first if the button is held), checks that a CAT source is
// connected, and applies the starting band.
func (c *Controller) Initialize() error {
	if c.initialized {
		return nil
	}

	for l := gpio.Line(0); l < gpio.NumLines; l++ {
		if l == gpio.LineTX {
			continue
		}
		if err := c.hw.Lines.Write(l, gpio.InitialLevel(l)); err != nil {
			return fmt.Errorf("init lines: %w", err)
		}
	}

	v, err := c.hw.Analog.Read(adc.ChannelButton)
	if err != nil {
		return fmt.Errorf("read button: %w", err)
	}
	if logic.ClassifyButton(v) == logic.ButtonSelect {
		if err := c.factoryReset(); err != nil {
			return err
		}
	} else if err := c.restore(); err != nil {
		return err
	}

	if c.catAuto {
		connected, err := c.catConnected()
		if err != nil {
			return err
		}
		if !connected {
			c.catAuto = false
			c.emit(logic.EventCATUnplugged)
		}
	}

	if err := c.applyStartBand(); err != nil {
		return err
	}
	if err := c.updateCATStatus(); err != nil {
		return err
	}

	c.initialized = true
	return nil
}

func (c *Controller) restore() error {
	band, catAuto, err := c.record.Restore()
	if err != nil {
		return fmt.Errorf("restore config: %w", err)
	}
	c.band = band
	c.catAuto = catAuto
	return nil
}

func (c *Controller) factoryReset() error {
	if err := c.record.ResetToDefaults(); err != nil {
		return fmt.Errorf("factory reset: %w", err)
	}
	if err := c.restore(); err != nil {
		return err
	}

	for i := 0; i < resetBlinkToggles; i++ {
		for _, l := range []gpio.Line{gpio.LineCATLED, gpio.LineAlarm} {
			level, err := c.hw.Lines.Read(l)
			if err != nil {
				return fmt.Errorf("blink: %w", err)
			}
			if err := c.hw.Lines.Write(l, level.Invert()); err != nil {
				return fmt.Errorf("blink: %w", err)
			}
		}
		c.hw.Clock.Sleep(resetBlinkDelay)
	}

	c.emit(logic.EventFactoryReset)
	return nil
}

// catConnected samples the CAT line several times. An unplugged cable
// leaves the input floating, which shows up as samples scattered well
// outside the tolerance window.
func (c *Controller) catConnected() (bool, error) {
	first, err := c.hw.Analog.Read(adc.ChannelCAT)
	if err != nil {
		return false, fmt.Errorf("probe cat: %w", err)
	}
	c.hw.Clock.Sleep(catProbeDelay)

	outliers := 0
	for i := 0; i < catProbeSamples; i++ {
		v, err := c.hw.Analog.Read(adc.ChannelCAT)
		if err != nil {
			return false, fmt.Errorf("probe cat: %w", err)
		}
		if v <= first-logic.ADCTolerance || v >= first+logic.ADCTolerance {
			outliers++
		}
		c.hw.Clock.Sleep(catProbeDelay)
	}

	return outliers <= catProbeOutliers, nil
}

func (c *Controller) applyStartBand() error {
	if !c.catAuto {
		return ignoreRejection(c.setBand(c.band))
	}

	v, err := c.hw.Analog.Read(adc.ChannelCAT)
	if err != nil {
		return fmt.Errorf("read cat: %w", err)
	}
	band := logic.ClassifyBand(v)
	switch {
	case band == logic.BandUnknown:
		// No recognised band: leave the filter deselected.
		return nil
	case band != c.band:
		return ignoreRejection(c.setBand(band))
	default:
		return c.applyBand(c.band)
	}
}

func ignoreRejection(err error) error {
	if Rejected(err) {
		return nil
	}
	return err
}

// PollOnce runs one step of the control loop: the periodic temperature
// check, CAT band following and button handling. It is a no-op before
// Initialize and while the last temperature check failed.
//
// A button press blocks PollOnce until release, for at most LongPress.
func (c *Controller) PollOnce() error {
	if !c.initialized {
		return nil
	}

	now := c.hw.Clock.Millis()

	if !c.safetyChecked || now-c.lastSafetyCheck >= c.opts.SafetyInterval.Milliseconds() {
		c.safetyChecked = true
		c.lastSafetyCheck = now
		if _, err := c.IsTemperatureSafe(); err != nil {
			return fmt.Errorf("temperature check: %w", err)
		}
	}
	if !c.safe {
		return nil
	}

	if c.catAuto {
		v, err := c.hw.Analog.Read(adc.ChannelCAT)
		if err != nil {
			return fmt.Errorf("read cat: %w", err)
		}
		band := logic.ClassifyBand(v)
		if band != logic.BandUnknown && band != c.band {
			if err := ignoreRejection(c.SetBand(band)); err != nil {
				return err
			}
		}
	}

	return c.pollButton()
}

// SetBand selects band and drives the filter lines. It is refused before
// Initialize, while the transmit line is asserted, and for anything but
// a concrete band; the current band is unchanged then.
func (c *Controller) SetBand(band logic.Band) error {
	if !c.initialized {
		return ErrNotInitialized
	}
	return c.setBand(band)
}

// setBand is SetBand without the Initialize guard, for use while
// Initialize applies the starting band.
func (c *Controller) setBand(band logic.Band) error {
	tx, err := c.transmitting()
	if err != nil {
		return err
	}
	if tx {
		return ErrTransmitting
	}
	if !band.Valid() {
		return ErrInvalidBand
	}

	prev := c.band
	c.band = band
	if err := c.applyBand(band); err != nil {
		return err
	}
	if err := c.record.Persist(eeprom.FieldBand, c.band, c.catAuto); err != nil {
		return fmt.Errorf("persist band: %w", err)
	}
	if prev != band {
		c.emit(logic.EventBand)
	}
	return nil
}

// NextBand selects the band after the current one, wrapping around.
func (c *Controller) NextBand() error {
	if !c.initialized {
		return ErrNotInitialized
	}
	return c.SetBand(c.band.Next())
}

// IsTransmitting reports whether the radio's transmit line is asserted.
// It is always false before Initialize.
func (c *Controller) IsTransmitting() (bool, error) {
	if !c.initialized {
		return false, nil
	}
	return c.transmitting()
}

func (c *Controller) transmitting() (bool, error) {
	level, err := c.hw.Lines.Read(gpio.LineTX)
	if err != nil {
		return false, fmt.Errorf("read tx: %w", err)
	}
	return level == gpio.High, nil
}

// SetAutoCATMode sets the CAT-auto flag, updates the indicator and
// persists it.
func (c *Controller) SetAutoCATMode(on bool) error {
	if !c.initialized {
		return ErrNotInitialized
	}
	changed := c.catAuto != on
	c.catAuto = on
	if err := c.updateCATStatus(); err != nil {
		return err
	}
	if changed {
		c.emit(logic.EventCATMode)
	}
	return nil
}

func (c *Controller) updateCATStatus() error {
	if err := c.applyCATIndicator(c.catAuto); err != nil {
		return err
	}
	if err := c.record.Persist(eeprom.FieldCATAuto, c.band, c.catAuto); err != nil {
		return fmt.Errorf("persist cat-auto: %w", err)
	}
	return nil
}

// AutoCATMode reports whether the controller follows the CAT band voltage.
func (c *Controller) AutoCATMode() bool {
	return c.catAuto
}

// Band returns the current band, or BandUnknown before Initialize.
func (c *Controller) Band() logic.Band {
	if !c.initialized {
		return logic.BandUnknown
	}
	return c.band
}

// Initialized reports whether Initialize has completed.
func (c *Controller) Initialized() bool {
	return c.initialized
}

// Temperature returns the last measured temperature and safety verdict.
func (c *Controller) Temperature() (celsius int, safe bool) {
	return c.temperature, c.safe
}

func (c *Controller) emit(t logic.EventType) {
	c.events = append(c.events, logic.Event{
		Timestamp:   c.hw.Clock.Now(),
		Type:        t,
		Band:        c.band,
		CATAuto:     c.catAuto,
		Temperature: c.temperature,
	})
}

// DrainEvents returns the events queued since the last call.
func (c *Controller) DrainEvents() []logic.Event {
	ev := c.events
	c.events = nil
	return ev
}
