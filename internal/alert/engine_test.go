package alert_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/havenmon/sysmond/internal/alert"
	"codeberg.org/havenmon/sysmond/internal/config"
	"codeberg.org/havenmon/sysmond/internal/metric"
)

type recordingSink struct {
	events []alert.Event
}

func (r *recordingSink) Notify(event alert.Event) {
	r.events = append(r.events, event)
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func testConfig() *config.Config {
	return &config.Config{
		CPUThreshold:    90,
		MemoryThreshold: 85,
		DiskThreshold:   85,
		TempThreshold:   80,
	}
}

func newTestEngine(t *testing.T, cooldown time.Duration) (*alert.Engine, *recordingSink, *fakeClock) {
	t.Helper()

	sink := &recordingSink{}
	clock := &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	engine := alert.NewEngine(alert.NewPolicy(testConfig()), sink, true, cooldown).
		WithClock(clock.Now)

	return engine, sink, clock
}

func sample(id string, value any) []metric.Sample {
	return []metric.Sample{{SensorID: id, Value: value}}
}

func TestRisingEdgeNotifiesImmediately(t *testing.T) {
	engine, sink, _ := newTestEngine(t, 5*time.Minute)

	events := engine.Evaluate(sample("cpu_usage", 95.0))

	require.Len(t, events, 1)
	assert.Equal(t, "cpu_usage", events[0].SensorID)
	assert.Equal(t, "CPU Usage", events[0].Name)
	require.NotNil(t, events[0].Threshold)
	assert.InDelta(t, 90.0, *events[0].Threshold, 0.001)
	assert.Len(t, sink.events, 1)
}

func TestSustainedViolationSilentDuringCooldown(t *testing.T) {
	engine, sink, clock := newTestEngine(t, 5*time.Minute)

	require.Len(t, engine.Evaluate(sample("cpu_usage", 95.0)), 1)

	clock.Advance(1 * time.Minute)
	assert.Empty(t, engine.Evaluate(sample("cpu_usage", 96.0)))

	clock.Advance(3 * time.Minute)
	assert.Empty(t, engine.Evaluate(sample("cpu_usage", 97.0)))

	assert.Len(t, sink.events, 1)
}

func TestSustainedViolationRenotifiesAfterCooldown(t *testing.T) {
	engine, sink, clock := newTestEngine(t, 5*time.Minute)

	require.Len(t, engine.Evaluate(sample("cpu_usage", 95.0)), 1)

	clock.Advance(5 * time.Minute)
	events := engine.Evaluate(sample("cpu_usage", 95.0))

	require.Len(t, events, 1)
	assert.Len(t, sink.events, 2)
}

func TestClearingIsSilent(t *testing.T) {
	engine, sink, clock := newTestEngine(t, 5*time.Minute)

	require.Len(t, engine.Evaluate(sample("cpu_usage", 95.0)), 1)

	clock.Advance(1 * time.Minute)
	assert.Empty(t, engine.Evaluate(sample("cpu_usage", 50.0)))
	assert.Len(t, sink.events, 1)
	assert.Empty(t, engine.Active())
}

func TestRisingAgainAfterClearNotifiesImmediately(t *testing.T) {
	engine, sink, clock := newTestEngine(t, 1*time.Hour)

	require.Len(t, engine.Evaluate(sample("cpu_usage", 95.0)), 1)

	clock.Advance(1 * time.Minute)
	require.Empty(t, engine.Evaluate(sample("cpu_usage", 50.0)))

	// Well inside the cooldown, but a fresh edge always notifies.
	clock.Advance(1 * time.Minute)
	events := engine.Evaluate(sample("cpu_usage", 95.0))

	require.Len(t, events, 1)
	assert.Len(t, sink.events, 2)
}

func TestComparisonIsStrictlyGreater(t *testing.T) {
	engine, sink, _ := newTestEngine(t, 0)

	assert.Empty(t, engine.Evaluate(sample("cpu_usage", 90.0)))
	assert.Empty(t, sink.events)
	assert.Empty(t, engine.Active())

	require.Len(t, engine.Evaluate(sample("cpu_usage", 90.001)), 1)
}

func TestBinarySensorAlertsOnLiteralOn(t *testing.T) {
	engine, sink, _ := newTestEngine(t, 0)

	events := engine.Evaluate(sample("rpi_under_voltage", "on"))
	require.Len(t, events, 1)
	assert.Equal(t, "Under Voltage", events[0].Name)
	assert.Nil(t, events[0].Threshold)

	assert.Empty(t, engine.Evaluate(sample("rpi_throttled", "off")))
	assert.Empty(t, engine.Evaluate(sample("rpi_temp_limited", "ON")))
	assert.Empty(t, engine.Evaluate(sample("rpi_temp_limited", 1)))
	assert.Len(t, sink.events, 1)
}

func TestUnparseableValueLeavesStateUntouched(t *testing.T) {
	engine, sink, clock := newTestEngine(t, 5*time.Minute)

	require.Len(t, engine.Evaluate(sample("cpu_usage", 95.0)), 1)
	require.True(t, engine.Active()["cpu_usage"])

	// A garbage sample must neither clear nor re-notify.
	clock.Advance(10 * time.Minute)
	assert.Empty(t, engine.Evaluate(sample("cpu_usage", "not-a-number")))
	assert.True(t, engine.Active()["cpu_usage"])
	assert.Len(t, sink.events, 1)

	// The next good sample continues the sustained violation and the
	// cooldown has long elapsed.
	events := engine.Evaluate(sample("cpu_usage", 95.0))
	require.Len(t, events, 1)
}

func TestDisabledEngineDoesNothing(t *testing.T) {
	sink := &recordingSink{}
	engine := alert.NewEngine(alert.NewPolicy(testConfig()), sink, false, 0)

	assert.Nil(t, engine.Evaluate(sample("cpu_usage", 99.0)))
	assert.Empty(t, sink.events)
	assert.Empty(t, engine.Active())
}

func TestUnknownSensorsAreIgnored(t *testing.T) {
	engine, sink, _ := newTestEngine(t, 0)

	batch := []metric.Sample{
		{SensorID: "network_bytes_sent", Value: 123.4},
		{SensorID: "uptime", Value: 99999},
		{SensorID: "disk_root_free", Value: 1.0},
	}

	assert.Empty(t, engine.Evaluate(batch))
	assert.Empty(t, sink.events)
}

func TestDiskUsagePatternAlerts(t *testing.T) {
	engine, sink, _ := newTestEngine(t, 0)

	events := engine.Evaluate(sample("disk_home_usage", 91.5))

	require.Len(t, events, 1)
	assert.Equal(t, "Disk Usage (disk_home_usage)", events[0].Name)
	require.NotNil(t, events[0].Threshold)
	assert.InDelta(t, 85.0, *events[0].Threshold, 0.001)
	assert.Len(t, sink.events, 1)
}

func TestStringValuesParseAsNumbers(t *testing.T) {
	engine, _, _ := newTestEngine(t, 0)

	events := engine.Evaluate(sample("memory_usage", "92.3"))

	require.Len(t, events, 1)
	assert.Equal(t, "Memory Usage", events[0].Name)
}

func TestCooldownScenario(t *testing.T) {
	engine, sink, clock := newTestEngine(t, 300*time.Second)

	require.Len(t, engine.Evaluate(sample("cpu_usage", 95.0)), 1)

	clock.Advance(60 * time.Second)
	assert.Empty(t, engine.Evaluate(sample("cpu_usage", 96.0)))

	clock.Advance(250 * time.Second)
	require.Len(t, engine.Evaluate(sample("cpu_usage", 97.0)), 1)

	clock.Advance(60 * time.Second)
	assert.Empty(t, engine.Evaluate(sample("cpu_usage", 50.0)))
	assert.Empty(t, engine.Active())
	assert.Len(t, sink.events, 2)
}

func TestSensorsTrackedIndependently(t *testing.T) {
	engine, sink, _ := newTestEngine(t, 1*time.Hour)

	batch := []metric.Sample{
		{SensorID: "cpu_usage", Value: 95.0},
		{SensorID: "memory_usage", Value: 50.0},
		{SensorID: "rpi_under_voltage", Value: "on"},
	}

	events := engine.Evaluate(batch)
	require.Len(t, events, 2)
	assert.Len(t, sink.events, 2)

	active := engine.Active()
	assert.True(t, active["cpu_usage"])
	assert.True(t, active["rpi_under_voltage"])
	assert.False(t, active["memory_usage"])
}
