package debate

import (
	"strings"
	"testing"

	"veritas/internal/domain/models/debate"
)

func TestParseVerdict_ValidJSON(t *testing.T) {
	raw := `{"verdict":"VERIFIED","confidence_pct":87.5,"summary":"Well-supported claim."}`

	v, err := parseVerdict(raw)
	if err != nil {
		t.Fatalf("parseVerdict: %v", err)
	}
	if v.Verdict != debate.VerdictVerified {
		t.Errorf("Verdict = %q, want %q", v.Verdict, debate.VerdictVerified)
	}
	if v.ConfidencePct != 87.5 {
		t.Errorf("ConfidencePct = %v, want 87.5", v.ConfidencePct)
	}
	if v.Timestamp.IsZero() {
		t.Error("expected parseVerdict to stamp a zero Timestamp with now")
	}
}

func TestParseVerdict_ProseWrappedJSON(t *testing.T) {
	raw := "Here is my analysis:\n" +
		`{"verdict":"DEBUNKED","confidence_pct":92,"summary":"Fabricated."}` +
		"\nLet me know if you need more detail."

	v, err := parseVerdict(raw)
	if err != nil {
		t.Fatalf("parseVerdict: %v", err)
	}
	if v.Verdict != debate.VerdictDebunked {
		t.Errorf("Verdict = %q, want %q", v.Verdict, debate.VerdictDebunked)
	}
}

func TestParseVerdict_RejectsInvalidVerdictValue(t *testing.T) {
	raw := `{"verdict":"MAYBE","confidence_pct":50,"summary":"unclear"}`

	if _, err := parseVerdict(raw); err == nil {
		t.Fatal("expected an error for a verdict value outside the VERIFIED/DEBUNKED/COMPLEX enum")
	}
}

func TestParseVerdict_RejectsConfidenceOutOfRange(t *testing.T) {
	raw := `{"verdict":"VERIFIED","confidence_pct":140,"summary":"too confident"}`

	if _, err := parseVerdict(raw); err == nil {
		t.Fatal("expected an error for confidence_pct > 100")
	}
}

func TestParseVerdict_RejectsMissingSummary(t *testing.T) {
	raw := `{"verdict":"VERIFIED","confidence_pct":80}`

	if _, err := parseVerdict(raw); err == nil {
		t.Fatal("expected an error for a missing required summary field")
	}
}

func TestParseVerdict_RejectsInvalidJSON(t *testing.T) {
	if _, err := parseVerdict("not json at all"); err == nil {
		t.Fatal("expected a parse error for non-JSON content")
	}
}

func TestSyntheticVerdict_FixedComplexShape(t *testing.T) {
	v := syntheticVerdict("moderator's closing remarks")

	if v.Verdict != debate.VerdictComplex {
		t.Errorf("Verdict = %q, want %q", v.Verdict, debate.VerdictComplex)
	}
	if v.ConfidencePct != 50 {
		t.Errorf("ConfidencePct = %v, want 50", v.ConfidencePct)
	}
	if v.Summary != "moderator's closing remarks" {
		t.Errorf("Summary = %q, want the moderator content verbatim", v.Summary)
	}
	if v.Timestamp.IsZero() {
		t.Error("expected syntheticVerdict to stamp a non-zero Timestamp")
	}
}

func TestExtractJSONObject(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"no braces", "just prose, no json here", "just prose, no json here"},
		{"exact object", `{"a":1}`, `{"a":1}`},
		{"prose before and after", `prefix {"a":1} suffix`, `{"a":1}`},
		{"nested braces", `{"a":{"b":1}} trailing`, `{"a":{"b":1}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := extractJSONObject(tc.in)
			if got != tc.want {
				t.Errorf("extractJSONObject(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestParseVerdict_RepairRoundTripSucceedsOnSecondAttempt(t *testing.T) {
	malformed := "I cannot comply with strict JSON."
	if _, err := parseVerdict(malformed); err == nil {
		t.Fatal("expected the first, malformed reply to fail parsing")
	}

	repaired := `{"verdict":"COMPLEX","confidence_pct":60,"summary":"mixed evidence"}`
	v, err := parseVerdict(repaired)
	if err != nil {
		t.Fatalf("parseVerdict(repaired): %v", err)
	}
	if v.Verdict != debate.VerdictComplex {
		t.Errorf("Verdict = %q, want %q", v.Verdict, debate.VerdictComplex)
	}
	if !strings.Contains(v.Summary, "mixed evidence") {
		t.Errorf("Summary = %q, want it to contain the repaired content", v.Summary)
	}
}
