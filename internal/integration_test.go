package internal

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/sweeney/bandswitch/internal/adc"
	"github.com/sweeney/bandswitch/internal/clock"
	"github.com/sweeney/bandswitch/internal/control"
	"github.com/sweeney/bandswitch/internal/eeprom"
	"github.com/sweeney/bandswitch/internal/gpio"
	"github.com/sweeney/bandswitch/internal/logic"
	"github.com/sweeney/bandswitch/internal/mqtt"
)

var powerOn = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

// bench is one power-on of the switch: fresh lines and converter over a
// store that survives between benches.
type bench struct {
	analog  *adc.FakeReader
	lines   *gpio.FakeLines
	clock   *clock.Fake
	ctrl    *control.Controller
	pub     *mqtt.FakePublisher
	monitor *logic.Monitor
}

func newBench(store eeprom.Store) *bench {
	b := &bench{
		analog:  adc.NewFakeReader(),
		lines:   gpio.NewFakeLines(),
		clock:   clock.NewFake(powerOn),
		pub:     mqtt.NewFakePublisher(),
		monitor: logic.NewMonitor(powerOn),
	}
	b.ctrl = control.New(control.Hardware{
		Analog: b.analog,
		Lines:  b.lines,
		Store:  store,
		Clock:  b.clock,
	}, control.DefaultOptions())
	return b
}

func (b *bench) boot(t *testing.T) {
	t.Helper()
	if err := b.ctrl.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	b.flush(t)
}

// flush does what the daemon does with queued events.
func (b *bench) flush(t *testing.T) {
	t.Helper()
	events := b.ctrl.DrainEvents()
	for _, e := range events {
		if err := b.pub.Publish(e); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}
	b.monitor.Record(events)
}

// step advances past the button refresh interval and polls once.
func (b *bench) step(t *testing.T) {
	t.Helper()
	b.clock.Advance(150 * time.Millisecond)
	if err := b.ctrl.PollOnce(); err != nil {
		t.Fatalf("PollOnce: %v", err)
	}
	b.flush(t)
}

func (b *bench) release(t *testing.T) {
	t.Helper()
	b.clock.Step = 0
	b.analog.Sources[adc.ChannelButton] = nil
	b.analog.Values[adc.ChannelButton] = 0
	b.step(t)
}

func (b *bench) shortPress(t *testing.T) {
	t.Helper()
	b.analog.Sources[adc.ChannelButton] = adc.Held(logic.ButtonADC, 0, 1)
	b.step(t)
	b.release(t)
}

func (b *bench) longPress(t *testing.T) {
	t.Helper()
	b.clock.Step = time.Millisecond
	b.analog.Sources[adc.ChannelButton] = adc.Held(logic.ButtonADC, 0, 5000)
	b.step(t)
	b.release(t)
}

func (b *bench) eventTypes() []logic.EventType {
	out := make([]logic.EventType, len(b.pub.Events))
	for i, e := range b.pub.Events {
		out[i] = e.Type
	}
	return out
}

func openStore(t *testing.T, dir string) *eeprom.PebbleStore {
	t.Helper()
	s, err := eeprom.OpenPebbleStore(dir)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return s
}

func assertOnlySelected(t *testing.T, lines *gpio.FakeLines, band logic.Band) {
	t.Helper()
	for i := 0; i < gpio.NumBandLines; i++ {
		want := gpio.LevelFor(logic.Band(i) == band)
		if lines.Levels[gpio.BandLine(i)] != want {
			t.Errorf("%s = %s, want %s", gpio.BandLine(i), lines.Levels[gpio.BandLine(i)], want)
		}
	}
}

func equalTypes(a, b []logic.EventType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// TestIntegrationOperatingSession follows the radio, switches to manual,
// steps a band, then survives a power cycle.
func TestIntegrationOperatingSession(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "store")

	store := openStore(t, dir)
	b := newBench(store)
	b.analog.Values[adc.ChannelCAT] = 207
	b.boot(t)

	if b.ctrl.Band() != logic.Band40 || !b.ctrl.AutoCATMode() {
		t.Fatalf("after boot: band=%s cat=%v", b.ctrl.Band(), b.ctrl.AutoCATMode())
	}
	b.release(t)

	b.longPress(t)
	if b.ctrl.AutoCATMode() {
		t.Fatal("long press should switch to manual")
	}

	b.shortPress(t)
	if b.ctrl.Band() != logic.Band30_20 {
		t.Fatalf("short press: band=%s, want 30/20m", b.ctrl.Band())
	}
	assertOnlySelected(t, b.lines, logic.Band30_20)

	want := []logic.EventType{logic.EventBand, logic.EventCATMode, logic.EventBand}
	if got := b.eventTypes(); !equalTypes(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
	counts := b.monitor.Counts()
	if counts.BandChanges != 2 || counts.CATToggles != 1 {
		t.Errorf("counts = %+v", counts)
	}

	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	// Power cycle. The radio now sits on 6m, but the switch stays manual.
	store = openStore(t, dir)
	defer store.Close()
	b = newBench(store)
	b.analog.Values[adc.ChannelCAT] = 680
	b.boot(t)
	b.step(t)

	if b.ctrl.Band() != logic.Band30_20 || b.ctrl.AutoCATMode() {
		t.Errorf("after power cycle: band=%s cat=%v", b.ctrl.Band(), b.ctrl.AutoCATMode())
	}
	assertOnlySelected(t, b.lines, logic.Band30_20)
	if b.lines.Levels[gpio.LineCATLED] != gpio.High {
		t.Error("CAT indicator should be dark in manual mode")
	}
}

// TestIntegrationOverheat holds the band while hot and catches up once cool.
func TestIntegrationOverheat(t *testing.T) {
	b := newBench(eeprom.NewMemStore())
	b.analog.Values[adc.ChannelCAT] = 65
	b.boot(t)

	b.analog.Values[adc.ChannelTemperature] = 500 // 53C
	b.analog.Values[adc.ChannelCAT] = 680
	b.step(t)
	b.step(t)

	if b.ctrl.Band() != logic.Band160 {
		t.Errorf("band changed while hot: %s", b.ctrl.Band())
	}
	if b.lines.Levels[gpio.LineAlarm] != gpio.High {
		t.Error("alarm line should be high")
	}

	b.analog.Values[adc.ChannelTemperature] = 300 // 32C
	b.step(t)

	if b.ctrl.Band() != logic.Band6 {
		t.Errorf("band = %s, want 6m after cooling", b.ctrl.Band())
	}
	want := []logic.EventType{logic.EventTempAlarm, logic.EventTempOK, logic.EventBand}
	if got := b.eventTypes(); !equalTypes(got, want) {
		t.Fatalf("events = %v, want %v", got, want)
	}

	var alarm mqtt.Payload
	if err := json.Unmarshal(b.pub.Payloads[0], &alarm); err != nil {
		t.Fatal(err)
	}
	if alarm.Amp.TemperatureC != 53 || alarm.Amp.Band != "160m" {
		t.Errorf("alarm payload = %+v", alarm.Amp)
	}
	if b.monitor.Counts().TempAlarms != 1 {
		t.Errorf("counts = %+v", b.monitor.Counts())
	}
}

// TestIntegrationFactoryReset wipes a stored manual setup when the button is
// held through power-on.
func TestIntegrationFactoryReset(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "store")
	store := openStore(t, dir)
	if err := eeprom.NewRecord(store, true).Persist(eeprom.FieldBoth, logic.Band12_10, false); err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	store = openStore(t, dir)
	defer store.Close()
	b := newBench(store)
	b.analog.Values[adc.ChannelButton] = logic.ButtonADC
	b.boot(t)

	if b.ctrl.Band() != logic.DefaultBand || !b.ctrl.AutoCATMode() {
		t.Errorf("after reset: band=%s cat=%v", b.ctrl.Band(), b.ctrl.AutoCATMode())
	}
	band, catAuto, ok, err := eeprom.NewRecord(store, true).Stored()
	if err != nil || !ok || band != logic.DefaultBand || !catAuto {
		t.Errorf("stored record = %s %v %v %v", band, catAuto, ok, err)
	}
	if b.monitor.Counts().FactoryResets != 1 {
		t.Errorf("counts = %+v", b.monitor.Counts())
	}

	// Still held: no action until it is released once.
	b.clock.Step = time.Millisecond
	b.step(t)
	if b.ctrl.AutoCATMode() != true {
		t.Error("held button toggled CAT mode after reset")
	}
}

// TestIntegrationUnpluggedCAT drops to manual and remembers it.
func TestIntegrationUnpluggedCAT(t *testing.T) {
	store := eeprom.NewMemStore()
	b := newBench(store)
	b.analog.Sources[adc.ChannelCAT] = adc.Sequence(400, 10, 900, 250, 700, 80)
	b.boot(t)

	if b.ctrl.AutoCATMode() {
		t.Fatal("floating CAT should disable CAT mode")
	}
	if got := b.eventTypes(); len(got) != 1 || got[0] != logic.EventCATUnplugged {
		t.Errorf("events = %v", got)
	}

	b = newBench(store)
	b.analog.Values[adc.ChannelCAT] = 207
	b.boot(t)
	if b.ctrl.AutoCATMode() {
		t.Error("CAT mode should stay off until re-enabled")
	}
	if b.ctrl.Band() != logic.Band160 {
		t.Errorf("band = %s", b.ctrl.Band())
	}
}

// TestIntegrationTransmitInterlock refuses manual stepping while keyed.
func TestIntegrationTransmitInterlock(t *testing.T) {
	store := eeprom.NewMemStore()
	if err := eeprom.NewRecord(store, true).Persist(eeprom.FieldBoth, logic.Band80, false); err != nil {
		t.Fatal(err)
	}
	b := newBench(store)
	b.boot(t)
	b.release(t)

	b.lines.Levels[gpio.LineTX] = gpio.High
	b.shortPress(t)
	if b.ctrl.Band() != logic.Band80 {
		t.Errorf("band changed while keyed: %s", b.ctrl.Band())
	}

	b.lines.Levels[gpio.LineTX] = gpio.Low
	b.shortPress(t)
	if b.ctrl.Band() != logic.Band40 {
		t.Errorf("band = %s, want 40m after unkeying", b.ctrl.Band())
	}
}
