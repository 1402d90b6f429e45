package telemetry

// SLI metric names used for instrumentation.
const (
	// Latency
	MetricAPILatencyP50 = "api.latency.p50"
	MetricAPILatencyP95 = "api.latency.p95"
	MetricAPILatencyP99 = "api.latency.p99"

	// Throughput
	MetricRequestsPerSec = "api.requests_per_second"

	// Data freshness
	MetricWeatherFreshness = "weather.data_age_seconds"
	MetricPriceFreshness   = "market.price_age_seconds"

	// Availability
	MetricUptime = "service.uptime_percentage"

	// Business
	MetricFieldsRegistered = "business.fields_registered"
	MetricPlansStarted     = "business.season_plans_started"
)
