// Package debate holds the data model for a debate run: the Debate
// aggregate, its Turn sequence, EvidenceItem citations, and the final
// VerdictReport. See spec.md §3.
package debate

import "time"

// Status is the Debate lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Mode selects which orchestration flow a debate runs.
type Mode string

const (
	ModeDebate      Mode = "debate"
	ModeAnalytical  Mode = "analytical"
	ModeSimplified  Mode = "simplified"
	ModeV2Enhanced  Mode = "v2_enhanced"
)

// Debate is the top-level aggregate identified by debate_id. It is
// mutated only by its owning orchestrator task (§3 Invariants).
type Debate struct {
	ID            string
	Topic         string
	SessionID     string
	Mode          Mode
	CreatedAt     time.Time
	Status        Status
	TurnCount     int
	FinalVerdict  *VerdictReport
}

// Role enumerates every turn role the orchestrator can schedule.
type Role string

const (
	RoleProponent         Role = "proponent"
	RoleOpponent          Role = "opponent"
	RoleModerator         Role = "moderator"
	RoleReversedProponent Role = "reversed_proponent"
	RoleReversedOpponent  Role = "reversed_opponent"
	RoleVerdict           Role = "verdict"
)

// TurnStatus captures whether a turn completed, errored, or was skipped.
type TurnStatus string

const (
	TurnStatusPending   TurnStatus = "pending"
	TurnStatusStreaming TurnStatus = "streaming"
	TurnStatusComplete  TurnStatus = "complete"
	TurnStatusError     TurnStatus = "error"
	TurnStatusSkipped   TurnStatus = "skipped"
)

// Turn is append-only; content may grow during streaming. TurnIndex is
// strictly monotonic per debate (invariant I2).
type Turn struct {
	DebateID     string
	TurnIndex    int
	Role         Role
	Status       TurnStatus
	StartedAt    time.Time
	CompletedAt  *time.Time
	Content      string
	EvidenceIDs  []int // citation indices referenced by this turn
	ProviderUsed string
	Error        string
}

// SourceType classifies where an EvidenceItem's text came from.
type SourceType string

const (
	SourceTypeWeb    SourceType = "web"
	SourceTypeMemory SourceType = "memory"
	SourceTypeUpload SourceType = "upload"
)

// Method records how an EvidenceItem reached the bundle.
type Method string

const (
	MethodLive        Method = "live"
	MethodCache        Method = "cache"
	MethodVectorRecall Method = "vector_recall"
)

// EvidenceItem is one citable piece of evidence. CitationIdx is stable
// within a debate once assigned (§3).
type EvidenceItem struct {
	CitationIdx int
	URL         string
	Domain      string
	Title       string
	Snippet     string
	Authority   float64 // in [0,1]
	SourceType  SourceType
	Method      Method
	FetchedAt   time.Time
}

// EvidenceBundle is the ordered, 1-based-indexed set of EvidenceItem a
// turn or verdict may cite (glossary: "Evidence bundle").
type EvidenceBundle struct {
	Items []EvidenceItem
}

// ByIndex resolves a 1-based citation index, satisfying invariant I1.
func (b *EvidenceBundle) ByIndex(idx int) (EvidenceItem, bool) {
	for _, item := range b.Items {
		if item.CitationIdx == idx {
			return item, true
		}
	}
	return EvidenceItem{}, false
}

// NextIndex returns the next citation index to assign (1-based, stable append order).
func (b *EvidenceBundle) NextIndex() int { return len(b.Items) + 1 }

// Append assigns the next citation index to item and appends it.
func (b *EvidenceBundle) Append(item EvidenceItem) EvidenceItem {
	item.CitationIdx = b.NextIndex()
	b.Items = append(b.Items, item)
	return item
}
