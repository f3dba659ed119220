package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginFailureSpikeAlert(t *testing.T) {
	var alerts []AlertEvent
	collector := newMetricsCollector(func(e AlertEvent) { alerts = append(alerts, e) })
	collector.login.threshold = 5

	for i := 0; i < 4; i++ {
		collector.recordEvent(AuditLoginFailure)
	}
	assert.Empty(t, alerts, "no alert below threshold")

	collector.recordEvent(AuditLoginFailure)
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertLoginFailureSpike, alerts[0].Type)
	assert.Equal(t, 5, alerts[0].Count)

	collector.recordEvent(AuditLoginFailure)
	assert.Len(t, alerts, 1, "counter resets after an alert")
}

func TestAccessDeniedSpikeAlert(t *testing.T) {
	var alerts []AlertEvent
	collector := newMetricsCollector(func(e AlertEvent) { alerts = append(alerts, e) })
	collector.denied.threshold = 3

	collector.recordEvent(AuditAccessDenied)
	collector.recordEvent(AuditAccessDenied)
	collector.recordEvent(AuditLoginSuccess)
	assert.Empty(t, alerts)

	collector.recordEvent(AuditAccessDenied)
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertAccessDeniedSpike, alerts[0].Type)
}

func TestSlidingWindowExpires(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	var alerts []AlertEvent
	collector := newMetricsCollector(func(e AlertEvent) { alerts = append(alerts, e) })
	collector.now = func() time.Time { return now }
	collector.login.threshold = 3

	collector.recordEvent(AuditLoginFailure)
	collector.recordEvent(AuditLoginFailure)
	now = now.Add(2 * defaultLoginFailureWindow)
	collector.recordEvent(AuditLoginFailure)
	assert.Empty(t, alerts, "old failures fall out of the window")
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *metricsCollector
	assert.NotPanics(t, func() { c.recordEvent(AuditLoginFailure) })
}
