// Package status provides a thread-safe view of the band switch state for
// the HTTP page and lifecycle messages. The control loop writes it; HTTP
// handlers read it.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/bandswitch/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	PollMs           int64
	RefreshMs        int64
	LongPressMs      int64
	SafetyIntervalMs int64
	HeartbeatMs      int64
	Broker           string
	HTTPAddr         string
}

// State is the controller state copied out on every loop iteration.
type State struct {
	Initialized  bool
	Band         logic.Band
	CATAuto      bool
	Transmitting bool
	TemperatureC int
	Safe         bool
}

// Snapshot is a point-in-time view of daemon state. It is a value type and
// safe to use after the lock is released.
type Snapshot struct {
	State
	Counts        logic.EventCounts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			State:     State{Band: logic.BandUnknown, Safe: true},
			StartTime: startTime,
			Config:    cfg,
		},
		now: time.Now,
	}
}

// SetClock replaces the time source used to stamp snapshots.
func (t *Tracker) SetClock(now func() time.Time) {
	t.mu.Lock()
	t.now = now
	t.mu.Unlock()
}

// Update sets controller state and event counts.
func (t *Tracker) Update(st State, counts logic.EventCounts) {
	t.mu.Lock()
	t.snap.State = st
	t.snap.Counts = counts
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a copy of the daemon state stamped with the current time.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	now := t.now
	t.mu.RUnlock()
	s.Now = now()
	return s
}
