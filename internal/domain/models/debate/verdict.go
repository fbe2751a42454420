package debate

import "time"

// Verdict is the three-way outcome a verdict turn must resolve to.
type Verdict string

const (
	VerdictVerified Verdict = "VERIFIED"
	VerdictDebunked Verdict = "DEBUNKED"
	VerdictComplex  Verdict = "COMPLEX"
)

// Entity is one row of the verdict's forensic dossier. Field set is
// frozen per spec §9 Open Question (c) - implementers must not add
// fields without a version bump.
type Entity struct {
	Name            string   `json:"name"`
	ReputationScore float64  `json:"reputation_score"`
	RedFlags        []string `json:"red_flags"`
}

// ForensicDossier groups the entities implicated by a debate's evidence.
type ForensicDossier struct {
	Entities []Entity `json:"entities"`
}

// VerdictReport is the structured output of the verdict turn (§3).
type VerdictReport struct {
	Verdict         Verdict          `json:"verdict"`
	ConfidencePct   float64          `json:"confidence_pct"`
	Summary         string           `json:"summary"`
	KeyEvidence     []EvidenceItem   `json:"key_evidence"`
	ForensicDossier ForensicDossier  `json:"forensic_dossier"`
	BiasSignals     []string         `json:"bias_signals"`
	Recommendation  string           `json:"recommendation"`
	Contradictions  []string         `json:"contradictions"`
	Timestamp       time.Time        `json:"timestamp"`
}
