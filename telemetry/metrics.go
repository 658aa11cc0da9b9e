package telemetry

// Publication metrics
var (
	// PublishedTotal counts published data objects by pattern name
	PublishedTotal CounterVec = noopCounterVec{}

	// PublishedBytesTotal counts payload bytes across all patterns
	PublishedBytesTotal Counter = NoopStat{}

	// RegistrationFailuresTotal counts failed prefix registrations
	RegistrationFailuresTotal Counter = NoopStat{}

	// ActivePatterns tracks patterns currently registered and publishing
	ActivePatterns Gauge = NoopStat{}

	// PublishSeconds observes the time spent emitting one data object
	PublishSeconds Histogram = NoopStat{}
)

// InitMetrics initializes all Prometheus metrics.
// Must be called after the registry exists.
func InitMetrics() {
	PublishedTotal = NewCounterVec(
		"published_total",
		"Total data objects published",
		[]string{"pattern"},
	)

	PublishedBytesTotal = NewCounter(
		"published_bytes_total",
		"Total payload bytes published",
	)

	RegistrationFailuresTotal = NewCounter(
		"registration_failures_total",
		"Total failed prefix registrations",
	)

	ActivePatterns = NewGauge(
		"active_patterns",
		"Patterns currently registered and publishing",
	)

	PublishSeconds = NewHistogram(
		"publish_seconds",
		"Time spent emitting one data object",
	)
}
