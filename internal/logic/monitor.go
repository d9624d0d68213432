package logic

import "time"

// Monitor counts controller events and decides when a heartbeat is due.
type Monitor struct {
	startTime     time.Time
	lastHeartbeat time.Time
	eventCounts   EventCounts
}

// NewMonitor creates a Monitor. The startTime is used for calculating
// uptime in heartbeat events.
func NewMonitor(startTime time.Time) *Monitor {
	return &Monitor{
		startTime:     startTime,
		lastHeartbeat: startTime,
	}
}

// Record counts the given events.
func (m *Monitor) Record(events []Event) {
	for _, e := range events {
		switch e.Type {
		case EventBand:
			m.eventCounts.BandChanges++
		case EventCATMode:
			m.eventCounts.CATToggles++
		case EventTempAlarm:
			m.eventCounts.TempAlarms++
		case EventFactoryReset:
			m.eventCounts.FactoryResets++
		}
	}
}

// Counts returns a copy of the event counts.
func (m *Monitor) Counts() EventCounts {
	return m.eventCounts
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if the interval has not elapsed,
// or if interval is <= 0 (disabled).
func (m *Monitor) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if now.Sub(m.lastHeartbeat) < interval {
		return nil
	}

	m.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(m.startTime),
		Counts:    m.eventCounts,
	}
}
