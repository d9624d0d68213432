// Package config loads the band switch daemon configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/bandswitch/internal/adc"
	"github.com/sweeney/bandswitch/internal/control"
	"github.com/sweeney/bandswitch/internal/gpio"
	"github.com/sweeney/bandswitch/internal/logging"
)

// Config is the daemon configuration. Durations use Go syntax ("5ms", "2s").
type Config struct {
	Poll           time.Duration `yaml:"poll"`
	Refresh        time.Duration `yaml:"refresh"`
	LongPress      time.Duration `yaml:"long_press"`
	SafetyInterval time.Duration `yaml:"safety_interval"`
	Heartbeat      time.Duration `yaml:"heartbeat"`

	// Broker is the MQTT broker URL. Empty disables publishing.
	Broker string `yaml:"broker"`

	// HTTP is the status page listen address. Empty disables it.
	HTTP string `yaml:"http"`

	// Store is the directory of the persistent record.
	Store string `yaml:"store"`

	GPIO    GPIOConfig     `yaml:"gpio"`
	ADC     ADCConfig      `yaml:"adc"`
	Logging logging.Config `yaml:"logging"`
}

// GPIOConfig selects the chip and line offsets.
type GPIOConfig struct {
	Chip string     `yaml:"chip"`
	Pins PinsConfig `yaml:"pins"`
}

// PinsConfig holds BCM offsets. Band lists the select lines from 160m up;
// Data lists D0 to D3.
type PinsConfig struct {
	Band   []int `yaml:"band"`
	Data   []int `yaml:"data"`
	TX     int   `yaml:"tx"`
	CATLED int   `yaml:"cat_led"`
	Alarm  int   `yaml:"alarm"`
}

// ADCConfig locates the converter and its inputs.
type ADCConfig struct {
	Bus      string         `yaml:"bus"`
	Address  uint16         `yaml:"address"`
	Channels ChannelsConfig `yaml:"channels"`
}

// ChannelsConfig maps converter inputs to the analog lines.
type ChannelsConfig struct {
	CAT         int `yaml:"cat"`
	Button      int `yaml:"button"`
	Temperature int `yaml:"temperature"`
}

// Default returns the stock configuration for the filter controller hat.
func Default() Config {
	opts := control.DefaultOptions()
	pins := gpio.DefaultPins
	return Config{
		Poll:           5 * time.Millisecond,
		Refresh:        opts.RefreshInterval,
		LongPress:      opts.LongPress,
		SafetyInterval: opts.SafetyInterval,
		Heartbeat:      15 * time.Minute,
		HTTP:           ":8080",
		Store:          "/var/lib/bandswitch",
		GPIO: GPIOConfig{
			Chip: "gpiochip0",
			Pins: PinsConfig{
				Band:   append([]int(nil), pins.Band[:]...),
				Data:   append([]int(nil), pins.Data[:]...),
				TX:     pins.TX,
				CATLED: pins.CATLED,
				Alarm:  pins.Alarm,
			},
		},
		ADC: ADCConfig{
			Address: 0x48,
			Channels: ChannelsConfig{
				CAT:         adc.DefaultChannels[adc.ChannelCAT],
				Button:      adc.DefaultChannels[adc.ChannelButton],
				Temperature: adc.DefaultChannels[adc.ChannelTemperature],
			},
		},
		Logging: logging.Default(),
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks line counts and intervals.
func (c Config) Validate() error {
	if len(c.GPIO.Pins.Band) != gpio.NumBandLines {
		return fmt.Errorf("gpio.pins.band: need %d pins, got %d", gpio.NumBandLines, len(c.GPIO.Pins.Band))
	}
	if len(c.GPIO.Pins.Data) != gpio.NumDataLines {
		return fmt.Errorf("gpio.pins.data: need %d pins, got %d", gpio.NumDataLines, len(c.GPIO.Pins.Data))
	}

	seen := make(map[int]string)
	pins := c.PinMap()
	for l := gpio.Line(0); l < gpio.NumLines; l++ {
		off := pins.Offset(l)
		if off < 0 {
			return fmt.Errorf("gpio: %s has negative offset %d", l, off)
		}
		if other, dup := seen[off]; dup {
			return fmt.Errorf("gpio: offset %d used by both %s and %s", off, other, l)
		}
		seen[off] = l.String()
	}

	for name, d := range map[string]time.Duration{
		"poll":            c.Poll,
		"refresh":         c.Refresh,
		"long_press":      c.LongPress,
		"safety_interval": c.SafetyInterval,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %v", name, d)
		}
	}
	if c.Heartbeat < 0 {
		return fmt.Errorf("heartbeat must not be negative, got %v", c.Heartbeat)
	}
	return nil
}

// PinMap returns the line wiring. Validate first.
func (c Config) PinMap() gpio.PinMap {
	p := gpio.PinMap{
		TX:     c.GPIO.Pins.TX,
		CATLED: c.GPIO.Pins.CATLED,
		Alarm:  c.GPIO.Pins.Alarm,
	}
	copy(p.Band[:], c.GPIO.Pins.Band)
	copy(p.Data[:], c.GPIO.Pins.Data)
	return p
}

// ChannelMap returns the converter input wiring.
func (c Config) ChannelMap() adc.ChannelMap {
	var m adc.ChannelMap
	m[adc.ChannelCAT] = c.ADC.Channels.CAT
	m[adc.ChannelButton] = c.ADC.Channels.Button
	m[adc.ChannelTemperature] = c.ADC.Channels.Temperature
	return m
}

// ControlOptions returns the controller timings.
func (c Config) ControlOptions() control.Options {
	opts := control.DefaultOptions()
	opts.RefreshInterval = c.Refresh
	opts.LongPress = c.LongPress
	opts.SafetyInterval = c.SafetyInterval
	return opts
}
