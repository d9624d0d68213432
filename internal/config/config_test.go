package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/bandswitch/internal/adc"
	"github.com/sweeney/bandswitch/internal/gpio"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bandswitch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, gpio.DefaultPins, cfg.PinMap())
	assert.Equal(t, adc.DefaultChannels, cfg.ChannelMap())
	assert.Equal(t, 5*time.Millisecond, cfg.Poll)
	assert.Equal(t, 2*time.Second, cfg.LongPress)
	assert.Empty(t, cfg.Broker)
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
poll: 10ms
long_press: 1500ms
heartbeat: 0s
broker: tcp://shack-pi:1883
store: /tmp/bandswitch
gpio:
  chip: gpiochip4
  pins:
    tx: 4
adc:
  bus: /dev/i2c-1
  address: 0x49
  channels:
    temperature: 3
logging:
  file: /var/log/bandswitch.log
  max_backups: 7
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 10*time.Millisecond, cfg.Poll)
	assert.Equal(t, 1500*time.Millisecond, cfg.LongPress)
	assert.Equal(t, time.Duration(0), cfg.Heartbeat)
	assert.Equal(t, 100*time.Millisecond, cfg.Refresh, "unset keys keep defaults")
	assert.Equal(t, "tcp://shack-pi:1883", cfg.Broker)
	assert.Equal(t, "gpiochip4", cfg.GPIO.Chip)
	assert.Equal(t, 4, cfg.PinMap().TX)
	assert.Equal(t, gpio.DefaultPins.Band, cfg.PinMap().Band)
	assert.Equal(t, uint16(0x49), cfg.ADC.Address)
	assert.Equal(t, 3, cfg.ChannelMap()[adc.ChannelTemperature])
	assert.Equal(t, "/var/log/bandswitch.log", cfg.Logging.File)
	assert.Equal(t, 7, cfg.Logging.MaxBackups)
	assert.True(t, cfg.Logging.Compress)

	opts := cfg.ControlOptions()
	assert.Equal(t, 1500*time.Millisecond, opts.LongPress)
	assert.True(t, opts.DefaultCATAuto)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"short band list", "gpio:\n  pins:\n    band: [1, 2, 3]\n"},
		{"long data list", "gpio:\n  pins:\n    data: [1, 2, 3, 4, 5]\n"},
		{"duplicate pin", "gpio:\n  pins:\n    tx: 5\n"},
		{"zero poll", "poll: 0s\n"},
		{"negative heartbeat", "heartbeat: -1m\n"},
		{"bad duration", "refresh: soon\n"},
		{"bad yaml", "poll: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}
