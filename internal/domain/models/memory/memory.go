// Package memory holds the data model for the vector store's Memory
// Record, the URL Cache's CacheEntry, and the Hybrid Retriever's
// ephemeral QueryClassification. See spec.md §3.
package memory

import "time"

// RecordType classifies a vector-store memory record.
type RecordType string

const (
	TypeWebMemory    RecordType = "web_memory"
	TypeDebateTurn   RecordType = "debate_turn"
	TypeRoleStatement RecordType = "role_statement"
	TypeUserDoc      RecordType = "user_doc"
)

// Metadata carries the filterable attributes of a Record.
type Metadata struct {
	Type      RecordType
	Source    string // origin URL, present for web_memory
	Role      string // debate role, present for role_statement
	DebateID  string
	Topic     string
	Timestamp time.Time
}

// Matches reports whether m satisfies filter as a conjunction of
// equality predicates, one per filter key (type, source, role,
// debate_id, topic); keys outside that set are ignored, and no
// contains-style matching is done.
func (m Metadata) Matches(filter map[string]string) bool {
	for k, v := range filter {
		switch k {
		case "type":
			if string(m.Type) != v {
				return false
			}
		case "source":
			if m.Source != v {
				return false
			}
		case "role":
			if m.Role != v {
				return false
			}
		case "debate_id":
			if m.DebateID != v {
				return false
			}
		case "topic":
			if m.Topic != v {
				return false
			}
		}
	}
	return true
}

// Record is one vector-store entry. Embedding is immutable once stored (§3).
type Record struct {
	ID        string
	Text      string
	Embedding []float32
	Metadata  Metadata
}

// CacheEntry is one URL Cache row (§3, §4.5).
type CacheEntry struct {
	URL               string    `json:"url"` // canonicalized
	Summary           string    `json:"summary"`
	RawTextTruncated  string    `json:"raw_text_truncated"`
	SummaryBytes      int       `json:"summary_bytes"`
	RawBytes          int       `json:"raw_bytes"`
	CreatedAt         time.Time `json:"created_at"`
	ExpiresAt         time.Time `json:"expires_at"`
}

// Expired reports whether the entry must be treated as absent (invariant I4).
func (e CacheEntry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// CacheStats is returned by URL Cache's stats() operation.
type CacheStats struct {
	Entries   int
	Hits      int64
	Misses    int64
	Evictions int64
}

// RetrievalMode selects the Hybrid Retriever's search strategy.
type RetrievalMode string

const (
	ModeBaseline  RetrievalMode = "baseline"
	ModePrecision RetrievalMode = "precision"
)

// QueryClassification is the ephemeral per-query retrieval decision (§3, §4.7).
type QueryClassification struct {
	Mode       RetrievalMode
	Reason     string
	Confidence float64
}
