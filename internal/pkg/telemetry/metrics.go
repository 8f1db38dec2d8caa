package telemetry

// SLI metric names used for instrumentation.
const (
	// Latency
	MetricAPILatencyP50 = "api.latency.p50"
	MetricAPILatencyP95 = "api.latency.p95"
	MetricAPILatencyP99 = "api.latency.p99"

	// Throughput
	MetricRequestsPerSec = "api.requests_per_second"

	// Search quality
	MetricSweepDuration = "search.sweep_duration_seconds"
	MetricDedupRatio    = "search.dedup_ratio"

	// Availability
	MetricUptime = "service.uptime_percentage"

	// Business
	MetricLeadsDiscovered = "business.leads_discovered"
	MetricProviderQuota   = "business.provider_calls"
)
