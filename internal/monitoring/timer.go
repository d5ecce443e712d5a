package monitoring

import "time"

// Timer measures one tool call and tracks it as in flight until stopped.
type Timer struct {
	start   time.Time
	metrics *Metrics
	tool    string
}

// NewTimer starts timing a call to tool.
func NewTimer(metrics *Metrics, tool string) *Timer {
	metrics.InFlight.Inc()
	return &Timer{
		start:   time.Now(),
		metrics: metrics,
		tool:    tool,
	}
}

// Stop records the call with the given outcome and returns its duration.
func (t *Timer) Stop(outcome string) time.Duration {
	duration := time.Since(t.start)
	t.metrics.InFlight.Dec()
	t.metrics.RecordToolCall(t.tool, outcome, duration)
	return duration
}
