package alert

import (
	"strconv"
	"sync"
	"time"

	"codeberg.org/havenmon/sysmond/internal/logger"
	"codeberg.org/havenmon/sysmond/internal/metric"
)

type sensorState struct {
	active       bool
	lastNotified time.Time
}

// Engine evaluates metric batches against the threshold policy and
// decides which sensors should notify. It owns the per-sensor alert
// state for the process lifetime; entries are created lazily and never
// removed.
type Engine struct {
	policy   *Policy
	sink     Sink
	enabled  bool
	cooldown time.Duration
	now      func() time.Time

	mu     sync.Mutex
	states map[string]*sensorState
}

// NewEngine builds the engine. When enabled is false Evaluate is a
// no-op that mutates nothing.
func NewEngine(policy *Policy, sink Sink, enabled bool, cooldown time.Duration) *Engine {
	return &Engine{
		policy:   policy,
		sink:     sink,
		enabled:  enabled,
		cooldown: cooldown,
		now:      time.Now,
		states:   make(map[string]*sensorState),
	}
}

// WithClock overrides the engine's clock. Used by tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Evaluate runs one tick of threshold evaluation over the batch and
// returns the events that were notified. Per sensor: a rising edge
// always notifies, a sustained violation notifies only after the
// cooldown has elapsed, and a clearing transition is silent.
func (e *Engine) Evaluate(batch []metric.Sample) []Event {
	if !e.enabled {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	var events []Event

	for _, sample := range batch {
		rule, ok := e.policy.Resolve(sample.SensorID)
		if !ok {
			continue
		}

		conditionMet, decided := e.condition(sample.Value, rule)
		if !decided {
			// Unparseable value: no alert decision this tick, state
			// untouched.
			continue
		}

		state, seen := e.states[sample.SensorID]
		if !seen {
			state = &sensorState{}
			e.states[sample.SensorID] = state
		}
		previous := state.active
		state.active = conditionMet

		if !conditionMet {
			if previous {
				logger.Info().Str("sensor", sample.SensorID).Msg("Alert condition cleared")
			}
			continue
		}

		shouldNotify := !previous || now.Sub(state.lastNotified) >= e.cooldown
		if !shouldNotify {
			continue
		}

		event := Event{
			SensorID:  sample.SensorID,
			Name:      rule.DisplayName,
			Value:     sample.Value,
			Threshold: rule.Threshold,
			At:        now,
		}
		state.lastNotified = now
		events = append(events, event)

		if rule.Threshold != nil {
			logger.Warn().
				Str("sensor", sample.SensorID).
				Interface("value", sample.Value).
				Float64("threshold", *rule.Threshold).
				Msg("ALERT: threshold exceeded")
		} else {
			logger.Warn().
				Str("sensor", sample.SensorID).
				Msg("ALERT: condition active")
		}

		if e.sink != nil {
			e.sink.Notify(event)
		}
	}

	return events
}

// condition reports whether the rule's alert condition holds for the
// value, and whether a decision could be made at all.
func (e *Engine) condition(value any, rule Rule) (met, decided bool) {
	switch rule.Comparison {
	case CompareBinary:
		s, ok := value.(string)
		return ok && s == "on", true
	case CompareGreater:
		if rule.Threshold == nil {
			// Rule without a limit never fires.
			return false, true
		}
		v, ok := parseFloat(value)
		if !ok {
			return false, false
		}
		return v > *rule.Threshold, true
	default:
		return false, true
	}
}

// Active returns the sensor ids currently judged in violation.
func (e *Engine) Active() map[string]bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	active := make(map[string]bool)
	for id, state := range e.states {
		if state.active {
			active[id] = true
		}
	}

	return active
}

func parseFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
