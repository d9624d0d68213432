package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event           string     `json:"event,omitempty"`
	Reason          string     `json:"reason,omitempty"`
	Ready           bool       `json:"ready"`
	Band            string     `json:"band"`
	CATAuto         bool       `json:"cat_auto"`
	Transmitting    bool       `json:"transmitting"`
	TemperatureC    int        `json:"temperature_c"`
	TemperatureSafe bool       `json:"temperature_safe"`
	UptimeSeconds   int64      `json:"uptime_seconds"`
	StartTime       string     `json:"start_time"`
	Timestamp       string     `json:"timestamp"`
	MQTT            MQTTStatus `json:"mqtt"`
	Counts          CountsJSON `json:"event_counts"`
	Config          ConfigJSON `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	BandChanges   int `json:"band_changes"`
	CATToggles    int `json:"cat_toggles"`
	TempAlarms    int `json:"temp_alarms"`
	FactoryResets int `json:"factory_resets"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs           int64  `json:"poll_ms"`
	RefreshMs        int64  `json:"refresh_ms"`
	LongPressMs      int64  `json:"long_press_ms"`
	SafetyIntervalMs int64  `json:"safety_interval_ms"`
	HeartbeatMs      int64  `json:"heartbeat_ms"`
	Broker           string `json:"broker"`
	HTTPAddr         string `json:"http_addr"`
}

func buildInner(snap Snapshot) StatusInner {
	return StatusInner{
		Ready:           snap.Initialized,
		Band:            snap.Band.String(),
		CATAuto:         snap.CATAuto,
		Transmitting:    snap.Transmitting,
		TemperatureC:    snap.TemperatureC,
		TemperatureSafe: snap.Safe,
		UptimeSeconds:   int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:       snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:       snap.Now.UTC().Format(time.RFC3339),
		MQTT:            MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			BandChanges:   snap.Counts.BandChanges,
			CATToggles:    snap.Counts.CATToggles,
			TempAlarms:    snap.Counts.TempAlarms,
			FactoryResets: snap.Counts.FactoryResets,
		},
		Config: ConfigJSON{
			PollMs:           snap.Config.PollMs,
			RefreshMs:        snap.Config.RefreshMs,
			LongPressMs:      snap.Config.LongPressMs,
			SafetyIntervalMs: snap.Config.SafetyIntervalMs,
			HeartbeatMs:      snap.Config.HeartbeatMs,
			Broker:           snap.Config.Broker,
			HTTPAddr:         snap.Config.HTTPAddr,
		},
	}
}

// FormatJSON returns the indented JSON status for the web endpoint.
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the compact JSON status for a lifecycle message.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
