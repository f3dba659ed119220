package api

import (
	"sync"
	"time"
)

// AlertType identifies the kind of anomaly detected.
type AlertType string

const (
	AlertLoginFailureSpike AlertType = "login_failure_spike"
	AlertAccessDeniedSpike AlertType = "access_denied_spike"
)

// AlertEvent describes an anomaly that triggered an alert.
type AlertEvent struct {
	Type      AlertType `json:"type"`
	Message   string    `json:"message"`
	Count     int       `json:"count"`
	Threshold int       `json:"threshold"`
	Timestamp time.Time `json:"timestamp"`
}

// AlertFunc is the callback invoked when an anomaly is detected.
type AlertFunc func(AlertEvent)

type slidingWindow struct {
	hits      []time.Time
	window    time.Duration
	threshold int
}

// metricsCollector tracks sliding window counters for anomaly detection.
type metricsCollector struct {
	mu      sync.Mutex
	now     func() time.Time
	login   slidingWindow
	denied  slidingWindow
	alertFn AlertFunc
}

const (
	defaultLoginFailureWindow    = 1 * time.Minute
	defaultLoginFailureThreshold = 50
	defaultDeniedWindow          = 5 * time.Minute
	defaultDeniedThreshold       = 20
)

func newMetricsCollector(alertFn AlertFunc) *metricsCollector {
	return &metricsCollector{
		now:     time.Now,
		login:   slidingWindow{window: defaultLoginFailureWindow, threshold: defaultLoginFailureThreshold},
		denied:  slidingWindow{window: defaultDeniedWindow, threshold: defaultDeniedThreshold},
		alertFn: alertFn,
	}
}

// recordEvent inspects an audit event and updates the relevant counters.
func (m *metricsCollector) recordEvent(event AuditEvent) {
	if m == nil || m.alertFn == nil {
		return
	}
	switch event {
	case AuditLoginFailure:
		m.hit(&m.login, AlertLoginFailureSpike, "login failure rate exceeds threshold")
	case AuditAccessDenied:
		m.hit(&m.denied, AlertAccessDeniedSpike, "access denied rate exceeds threshold")
	}
}

func (m *metricsCollector) hit(w *slidingWindow, typ AlertType, msg string) {
	m.mu.Lock()
	now := m.now()
	w.hits = trimWindow(append(w.hits, now), now, w.window)
	var alert *AlertEvent
	if len(w.hits) >= w.threshold {
		alert = &AlertEvent{
			Type:      typ,
			Message:   msg,
			Count:     len(w.hits),
			Threshold: w.threshold,
			Timestamp: now,
		}
		// Reset to avoid repeated alerts within the same spike.
		w.hits = w.hits[:0]
	}
	m.mu.Unlock()

	if alert != nil {
		m.alertFn(*alert)
	}
}

// trimWindow removes entries older than (now - window) from the sorted slice.
func trimWindow(times []time.Time, now time.Time, window time.Duration) []time.Time {
	cutoff := now.Add(-window)
	start := 0
	for start < len(times) && times[start].Before(cutoff) {
		start++
	}
	return times[start:]
}
