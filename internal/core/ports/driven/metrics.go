package driven

import "time"

// MetricsRecorder receives run metrics from the core services.
type MetricsRecorder interface {
	// DocumentExtracted counts an extraction attempt by status.
	DocumentExtracted(status string)

	// ChunksEmbedded counts embedded chunks, split by whether a zero vector was substituted.
	ChunksEmbedded(ok, degraded int)

	// FactAssessed records one finished fact by outcome and latency.
	FactAssessed(outcome string, latency time.Duration)

	// FactFailed counts a fact that errored.
	FactFailed()

	// JudgeAttempts records how many judge calls one fact needed.
	JudgeAttempts(n int)

	// Flush writes the metrics to their destination.
	Flush() error
}
