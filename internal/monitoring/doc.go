// Package monitoring collects Prometheus metrics for tool calls and the HTTP
// transport.
//
// Each Metrics value owns its own registry, so several gateways (or tests)
// can coexist in one process. Expose it with promhttp.HandlerFor(m.Registry(), ...).
package monitoring
