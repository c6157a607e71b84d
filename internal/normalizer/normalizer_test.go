package normalizer

import (
	"fmt"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/shiplog-systems/shiplog-signals/internal/models"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"pull_request_merged", "pull_request_merged"},
		{"TRANSITION_TO_IN REVIEW", "TRANSITION_TO_IN_REVIEW"},
		{"  padded label  ", "padded_label"},
		{"many   internal\tspaces", "many_internal_spaces"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := Canonicalize(tt.in); got != tt.want {
			t.Errorf("Canonicalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCanonicalEvent(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"pull_request_merged", "PULL_REQUEST_MERGED"},
		{"TRANSITION_TO_IN REVIEW", "TRANSITION_TO_IN_REVIEW"},
		{"In Review", "IN_REVIEW"},
	}

	for _, tt := range tests {
		if got := CanonicalEvent(tt.in); got != tt.want {
			t.Errorf("CanonicalEvent(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFingerprint_Deterministic(t *testing.T) {
	// Known digest of "github-like:123456:pull_request_merged"
	const want = "9ae963fec4bd6cb2bc73a3daab6c8f304368f545838462e603cab1964687c4b9"

	for i := 0; i < 10; i++ {
		got := Fingerprint("github-like", "123456", "pull_request_merged")
		if got != want {
			t.Fatalf("Fingerprint() = %q, want %q", got, want)
		}
	}
}

func TestFingerprint_CollapsesWhitespaceBeforeHashing(t *testing.T) {
	// The embedded-space form and the canonical form are the same
	// logical event and must collide.
	const want = "9842ccc3141022ee4d2362391f09ceaa379fef9a4d33bd18b62197232a15e84b"

	withSpace := Fingerprint("jira-like", "CORE-101", "TRANSITION_TO_IN REVIEW")
	canonical := Fingerprint("jira-like", "CORE-101", "TRANSITION_TO_IN_REVIEW")

	if withSpace != canonical {
		t.Errorf("whitespace variants should collide: %q vs %q", withSpace, canonical)
	}
	if withSpace != want {
		t.Errorf("Fingerprint() = %q, want %q", withSpace, want)
	}
}

func TestFingerprint_DelimiterScoped(t *testing.T) {
	// Field boundaries must matter: shifting a character across the
	// delimiter is a different logical event.
	a := Fingerprint("github", "1", "23")
	b := Fingerprint("github", "12", "3")
	c := Fingerprint("github1", "2", "3")

	if a == b || a == c || b == c {
		t.Errorf("concatenation-ambiguous inputs collided: %q %q %q", a, b, c)
	}
}

func TestFingerprint_UniquenessSample(t *testing.T) {
	gofakeit.Seed(42)

	seen := make(map[string]string, 20000)
	sources := []string{"github-like", "jira-like", "pagerduty-like"}

	for i := 0; i < 20000; i++ {
		source := sources[i%len(sources)]
		origin := fmt.Sprintf("%s-%d", gofakeit.UUID(), i)
		event := gofakeit.VerbAction()

		input := source + "|" + origin + "|" + event
		fp := Fingerprint(source, origin, event)

		if prev, ok := seen[fp]; ok && prev != input {
			t.Fatalf("collision: %q and %q both hash to %s", prev, input, fp)
		}
		seen[fp] = input
	}
}

func TestNormalize(t *testing.T) {
	origin := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	rec := &models.IntermediateRecord{
		Source:    "github-like",
		OriginID:  "123456",
		Actor:     "alice",
		EventType: "pull_request_merged",
		Context:   "Repository: org/repo",
		Timestamp: origin,
	}

	sig := Normalize(rec, "RLS-1")

	if sig.SignalID == "" {
		t.Error("SignalID should be assigned")
	}
	if sig.ReleaseExternalID != "RLS-1" {
		t.Errorf("ReleaseExternalID = %q, want RLS-1", sig.ReleaseExternalID)
	}
	if sig.SourceProvider != "github-like" {
		t.Errorf("SourceProvider = %q, want github-like", sig.SourceProvider)
	}
	if sig.NormalizedEvent != "PULL_REQUEST_MERGED" {
		t.Errorf("NormalizedEvent = %q, want PULL_REQUEST_MERGED", sig.NormalizedEvent)
	}
	if sig.SignalVersion != Fingerprint("github-like", "123456", "pull_request_merged") {
		t.Errorf("SignalVersion = %q does not match fingerprint", sig.SignalVersion)
	}
	if sig.Metadata.Actor != "alice" || sig.Metadata.ContextSummary != "Repository: org/repo" {
		t.Errorf("Metadata = %+v", sig.Metadata)
	}
	if !sig.Metadata.RawTimestamp.Equal(origin) {
		t.Errorf("RawTimestamp = %v, want %v", sig.Metadata.RawTimestamp, origin)
	}
	if sig.IngestedAt.IsZero() {
		t.Error("IngestedAt should be set")
	}
}

func TestNormalize_FreshIDsStableVersions(t *testing.T) {
	rec := &models.IntermediateRecord{
		Source:    "jira-like",
		OriginID:  "CORE-7",
		EventType: "TRANSITION_TO_DONE",
		Timestamp: time.Now().UTC(),
	}

	a := Normalize(rec, "RLS-1")
	b := Normalize(rec, "RLS-1")

	if a.SignalID == b.SignalID {
		t.Error("each normalization must assign a fresh signal ID")
	}
	if a.SignalVersion != b.SignalVersion {
		t.Error("same logical event must keep the same signal version")
	}
}
