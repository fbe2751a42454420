package config

// Static tunables that are not environment-overridden, mirroring the
// teacher's internal/config/limits.go constant table.
const (
	// MaxTopicLength bounds the length of a debate topic / analysis query.
	MaxTopicLength = 2000

	// SummarizerInputCapBytes is the default input cap for the Summarizer (C4), in bytes.
	SummarizerInputCapBytes = 12 * 1024

	// SummarizerTargetBytes is the default target bullet-summary length (C4), in bytes.
	SummarizerTargetBytes = 2 * 1024

	// FetchMaxRedirects is the maximum number of redirects the Web Fetcher (C3) follows.
	FetchMaxRedirects = 5

	// FetchMaxBodyBytes is the total response size cap for the Web Fetcher (C3).
	FetchMaxBodyBytes = 2 * 1024 * 1024

	// CacheFlushEveryNPuts is the spec-mandated flush interval for the URL Cache (C5).
	CacheFlushEveryNPuts = 16

	// DefaultMaxCandidates bounds candidate URLs considered by the Evidence Gatherer (C10).
	DefaultMaxCandidates = 8

	// DefaultEvidenceWorkers is the default concurrent worker count for the Evidence Gatherer (C10).
	DefaultEvidenceWorkers = 4

	// MaxCredentialCooldownSeconds caps the exponential credential cooldown (C1), in seconds.
	MaxCredentialCooldownSeconds = 10 * 60

	// MaxProviderRetries is the number of internal retries the Provider Adapter (C1)
	// performs on transient_network errors.
	MaxProviderRetries = 2

	// RAGCacheHitLatencySeconds is the §4.9 threshold distinguishing CACHE_HIT from LIVE_FETCH.
	RAGCacheHitLatencySeconds = 1.5
)
