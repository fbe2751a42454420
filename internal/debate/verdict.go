package debate

import (
	"encoding/json"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"veritas/internal/domain/models/debate"
)

// parseVerdict unmarshals raw and validates it against VerdictReport's
// shape (spec §4.9: "Orchestrator validates the JSON against a
// schema"), following
// haowjy-meridian/internal/service/llm/streaming/service.go's
// validation.ValidateStruct idiom.
func parseVerdict(raw string) (debate.VerdictReport, error) {
	var v debate.VerdictReport
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &v); err != nil {
		return debate.VerdictReport{}, fmt.Errorf("debate: parse verdict JSON: %w", err)
	}
	if err := validateVerdict(v); err != nil {
		return debate.VerdictReport{}, err
	}
	if v.Timestamp.IsZero() {
		v.Timestamp = time.Now()
	}
	return v, nil
}

func validateVerdict(v debate.VerdictReport) error {
	return validation.ValidateStruct(&v,
		validation.Field(&v.Verdict, validation.Required,
			validation.In(debate.VerdictVerified, debate.VerdictDebunked, debate.VerdictComplex)),
		validation.Field(&v.ConfidencePct, validation.Min(0.0), validation.Max(100.0)),
		validation.Field(&v.Summary, validation.Required),
	)
}

// extractJSONObject trims any prose surrounding a model's JSON verdict
// to the first top-level '{'...'}' span, tolerating models that ignore
// the "no prose" instruction.
func extractJSONObject(s string) string {
	start := -1
	depth := 0
	for i, r := range s {
		switch r {
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			depth--
			if depth == 0 && start >= 0 {
				return s[start : i+1]
			}
		}
	}
	return s
}

// syntheticVerdict builds the spec's mandated fallback after a second
// schema-validation failure (spec §4.9: "a synthetic COMPLEX/
// confidence_pct=50 verdict is constructed from the moderator's content").
func syntheticVerdict(moderatorContent string) debate.VerdictReport {
	return debate.VerdictReport{
		Verdict:       debate.VerdictComplex,
		ConfidencePct: 50,
		Summary:       moderatorContent,
		Timestamp:     time.Now(),
	}
}
