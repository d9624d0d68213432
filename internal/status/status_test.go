package status

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/sweeney/bandswitch/internal/logic"
)

var start = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestNewTracker(t *testing.T) {
	cfg := Config{PollMs: 5, RefreshMs: 100, Broker: "tcp://localhost:1883", HTTPAddr: ":8080"}
	tr := NewTracker(start, cfg)

	snap := tr.Snapshot()
	if !snap.StartTime.Equal(start) {
		t.Errorf("StartTime: got %v, want %v", snap.StartTime, start)
	}
	if snap.Config.HTTPAddr != ":8080" {
		t.Errorf("Config.HTTPAddr: got %q", snap.Config.HTTPAddr)
	}
	if snap.Initialized {
		t.Error("expected Initialized=false initially")
	}
	if snap.Band != logic.BandUnknown {
		t.Errorf("Band: got %s, want UNKNOWN", snap.Band)
	}
	if !snap.Safe {
		t.Error("expected Safe=true initially")
	}
}

func TestUpdateAndSnapshot(t *testing.T) {
	tr := NewTracker(start, Config{})

	tr.Update(State{
		Initialized:  true,
		Band:         logic.Band17_15,
		CATAuto:      true,
		TemperatureC: 38,
		Safe:         true,
	}, logic.EventCounts{BandChanges: 3, TempAlarms: 1})

	snap := tr.Snapshot()
	if snap.Band != logic.Band17_15 || !snap.CATAuto || snap.TemperatureC != 38 {
		t.Errorf("unexpected state: %+v", snap.State)
	}
	if snap.Counts.BandChanges != 3 || snap.Counts.TempAlarms != 1 {
		t.Errorf("unexpected counts: %+v", snap.Counts)
	}
}

func TestSetMQTTConnected(t *testing.T) {
	tr := NewTracker(start, Config{})

	tr.SetMQTTConnected(true)
	if !tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=true")
	}
	tr.SetMQTTConnected(false)
	if tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=false")
	}
}

func TestSnapshotUptime(t *testing.T) {
	tr := NewTracker(start, Config{})
	tr.SetClock(func() time.Time { return start.Add(90 * time.Minute) })

	snap := tr.Snapshot()
	if snap.Uptime() != 90*time.Minute {
		t.Errorf("Uptime: got %v", snap.Uptime())
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(start, Config{})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			tr.Update(State{Band: logic.Band(i % logic.NumBands)}, logic.EventCounts{BandChanges: i})
			tr.SetMQTTConnected(i%2 == 0)
		}(i)
		go func() {
			defer wg.Done()
			_ = tr.Snapshot()
		}()
	}
	wg.Wait()
}

func TestFormatJSON(t *testing.T) {
	tr := NewTracker(start, Config{PollMs: 5, HeartbeatMs: 900000, Broker: "tcp://b:1883", HTTPAddr: ":8080"})
	tr.SetClock(func() time.Time { return start.Add(61 * time.Second) })
	tr.Update(State{Initialized: true, Band: logic.Band40, Transmitting: true, TemperatureC: 30, Safe: true},
		logic.EventCounts{BandChanges: 2, CATToggles: 1})
	tr.SetMQTTConnected(true)

	var parsed StatusJSON
	if err := json.Unmarshal(FormatJSON(tr.Snapshot()), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	s := parsed.Status
	if s.Band != "40m" || !s.Ready || !s.Transmitting || !s.TemperatureSafe {
		t.Errorf("unexpected status: %+v", s)
	}
	if s.UptimeSeconds != 61 {
		t.Errorf("UptimeSeconds: got %d", s.UptimeSeconds)
	}
	if s.StartTime != "2026-01-01T00:00:00Z" || s.Timestamp != "2026-01-01T00:01:01Z" {
		t.Errorf("timestamps: %s %s", s.StartTime, s.Timestamp)
	}
	if !s.MQTT.Connected || s.MQTT.Broker != "tcp://b:1883" {
		t.Errorf("mqtt: %+v", s.MQTT)
	}
	if s.Counts.BandChanges != 2 || s.Counts.CATToggles != 1 {
		t.Errorf("counts: %+v", s.Counts)
	}
	if s.Event != "" || s.Reason != "" {
		t.Error("web status should carry no event")
	}
}

func TestFormatStatusEvent(t *testing.T) {
	tr := NewTracker(start, Config{})
	tr.SetClock(func() time.Time { return start })

	var parsed map[string]map[string]interface{}
	if err := json.Unmarshal(FormatStatusEvent(tr.Snapshot(), "SHUTDOWN", "SIGTERM"), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	s := parsed["status"]
	if s["event"] != "SHUTDOWN" || s["reason"] != "SIGTERM" {
		t.Errorf("event/reason: %v %v", s["event"], s["reason"])
	}
	if s["band"] != "UNKNOWN" {
		t.Errorf("band: %v", s["band"])
	}
}

func TestFormatStatusEventOmitsEmptyReason(t *testing.T) {
	tr := NewTracker(start, Config{})

	var parsed map[string]map[string]interface{}
	if err := json.Unmarshal(FormatStatusEvent(tr.Snapshot(), "STARTUP", ""), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if _, ok := parsed["status"]["reason"]; ok {
		t.Error("reason should be omitted")
	}
}
