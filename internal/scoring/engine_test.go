package scoring

import (
	"strings"
	"testing"
	"testing/quick"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultConfig())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

// TestScore_SpecificFirstPersonReview covers a short but concrete review with a number and a keyword.
func TestScore_SpecificFirstPersonReview(t *testing.T) {
	e := newTestEngine(t)
	r := e.Score(Input{
		Content: "I love this tool, it has great integration with our API and saved my team 10 hours a week",
		Rating:  5,
	})

	if r.Checks.ContentQuality.Score != 70 {
		t.Errorf("quality score: got %d, want 70", r.Checks.ContentQuality.Score)
	}
	if r.Checks.SpamDetection.Score != 100 || r.Checks.SpamDetection.Details != "No spam detected" {
		t.Errorf("spam check: got %+v", r.Checks.SpamDetection)
	}
	if r.Checks.Authenticity.Score != 100 || r.Checks.Authenticity.Details != "Review appears authentic" {
		t.Errorf("authenticity check: got %+v", r.Checks.Authenticity)
	}
	if r.ConfidenceScore != 91 {
		t.Errorf("confidence: got %d, want 91", r.ConfidenceScore)
	}
	if !r.IsAuthentic {
		t.Error("expected review to be authentic")
	}
	if len(r.Flags) != 0 {
		t.Errorf("expected no flags, got %v", r.Flags)
	}
	if got := e.Decide(r); got != DecisionApprove {
		t.Errorf("decision: got %s, want %s", got, DecisionApprove)
	}
}

// TestScore_ShortSpamBurst scores a short promo message. Quality and spam both fail but the
// clean authenticity score keeps the total at 51, so a moderator has to look at it.
func TestScore_ShortSpamBurst(t *testing.T) {
	e := newTestEngine(t)
	r := e.Score(Input{Content: "buy now!!! best product ever $$$", Rating: 5})

	if r.Checks.SpamDetection.Score != 25 || r.Checks.SpamDetection.Passed {
		t.Errorf("spam check: got %+v", r.Checks.SpamDetection)
	}
	wantSpam := `Spam pattern detected: buy now; Spam pattern detected: \$\$\$; Spam pattern detected: !!!+`
	if r.Checks.SpamDetection.Details != wantSpam {
		t.Errorf("spam details:\n got %q\nwant %q", r.Checks.SpamDetection.Details, wantSpam)
	}
	wantQuality := "Content too short; Lacks specific details; No pros/cons provided; No title provided"
	if r.Checks.ContentQuality.Score != 35 || r.Checks.ContentQuality.Details != wantQuality {
		t.Errorf("quality check: got %+v", r.Checks.ContentQuality)
	}
	if r.Checks.Authenticity.Score != 90 || r.Checks.Authenticity.Details != "Lacks first-person perspective" {
		t.Errorf("authenticity check: got %+v", r.Checks.Authenticity)
	}
	if r.ConfidenceScore != 51 {
		t.Errorf("confidence: got %d, want 51", r.ConfidenceScore)
	}
	if r.IsAuthentic {
		t.Error("failed spam check must never be authentic")
	}
	if len(r.Flags) != 2 || r.Flags[0] != wantQuality || r.Flags[1] != wantSpam {
		t.Errorf("flags: got %v", r.Flags)
	}
	if got := e.Decide(r); got != DecisionManualReview {
		t.Errorf("decision: got %s, want %s", got, DecisionManualReview)
	}
}

func TestScore_HeavySpamIsRejected(t *testing.T) {
	e := newTestEngine(t)
	r := e.Score(Input{Content: "Buy now!!! Free money $$$ great product, best ever, love it", Rating: 5})

	if r.Checks.SpamDetection.Score != 0 {
		t.Errorf("spam score: got %d, want 0", r.Checks.SpamDetection.Score)
	}
	if r.Checks.Authenticity.Score != 60 {
		t.Errorf("authenticity score: got %d, want 60", r.Checks.Authenticity.Score)
	}
	if !strings.HasPrefix(r.Checks.Authenticity.Details, "Contains 3 generic phrases") {
		t.Errorf("authenticity details: got %q", r.Checks.Authenticity.Details)
	}
	if r.ConfidenceScore != 36 {
		t.Errorf("confidence: got %d, want 36", r.ConfidenceScore)
	}
	if got := e.Decide(r); got != DecisionReject {
		t.Errorf("decision: got %s, want %s", got, DecisionReject)
	}
	if got := e.Decide(r).Reason(); got != "Auto-rejected due to spam detection" {
		t.Errorf("reason: got %q", got)
	}
}

func TestScore_DetailedBalancedReview(t *testing.T) {
	e := newTestEngine(t)
	r := e.Score(Input{
		Title:   "Solid helpdesk for mid-size teams",
		Content: "We rolled this out to our support team in March. The dashboard cut triage time by 30 percent and the Slack integration works well.",
		Pros:    "Fast search and clean API",
		Cons:    "Reporting exports are slow",
		Rating:  4,
	})

	if r.ConfidenceScore != 100 {
		t.Errorf("confidence: got %d, want 100", r.ConfidenceScore)
	}
	if r.Checks.ContentQuality.Details != "Content quality acceptable" {
		t.Errorf("quality details: got %q", r.Checks.ContentQuality.Details)
	}
	if got := e.Decide(r); got != DecisionApprove {
		t.Errorf("decision: got %s, want %s", got, DecisionApprove)
	}
}

func TestScore_RatingSentimentMismatch(t *testing.T) {
	e := newTestEngine(t)
	r := e.Score(Input{
		Title:   "Not for us",
		Content: "Terrible. Awful support, worst dashboard, bad API, I hate it",
		Rating:  5,
	})

	if r.Checks.Authenticity.Score != 85 {
		t.Errorf("authenticity score: got %d, want 85", r.Checks.Authenticity.Score)
	}
	if r.Checks.Authenticity.Details != "Rating inconsistent with content sentiment" {
		t.Errorf("authenticity details: got %q", r.Checks.Authenticity.Details)
	}

	// Without a rating there is nothing to be inconsistent with.
	r = e.Score(Input{Title: "Not for us", Content: "Terrible. Awful support, worst dashboard, bad API, I hate it"})
	if r.Checks.Authenticity.Score != 100 {
		t.Errorf("unrated authenticity score: got %d, want 100", r.Checks.Authenticity.Score)
	}
}

func TestScore_Links(t *testing.T) {
	e := newTestEngine(t)

	r := e.Score(Input{
		Title:   "Useful reference",
		Content: "See http://docs.ethaum.com/guide for our setup, my team uses the API daily.",
		Rating:  4,
	})
	if r.Checks.SpamDetection.Score != 100 {
		t.Errorf("platform link: spam score got %d, want 100", r.Checks.SpamDetection.Score)
	}

	r = e.Score(Input{
		Title:   "Useful reference",
		Content: "See https://deals.example.com for our setup, my team uses the API daily.",
		Rating:  4,
	})
	if r.Checks.SpamDetection.Score != 75 {
		t.Errorf("external link: spam score got %d, want 75", r.Checks.SpamDetection.Score)
	}
	if r.Checks.SpamDetection.Details != "Spam pattern detected: external link" {
		t.Errorf("external link: details got %q", r.Checks.SpamDetection.Details)
	}
}

func TestScore_CapitalizationAndRepetition(t *testing.T) {
	e := newTestEngine(t)

	r := e.Score(Input{Content: "CLICK HERE!!! BUY NOW $$$ http://spam.biz"})
	if !strings.Contains(r.Checks.SpamDetection.Details, "Excessive capitalization") {
		t.Errorf("expected capitalization flag, got %q", r.Checks.SpamDetection.Details)
	}
	if r.Checks.SpamDetection.Score != 0 {
		t.Errorf("spam score: got %d, want 0", r.Checks.SpamDetection.Score)
	}

	r = e.Score(Input{Content: "buy now buy now buy now buy now buy now buy now!!!"})
	if r.Checks.SpamDetection.Score != 30 {
		t.Errorf("repetition spam score: got %d, want 30", r.Checks.SpamDetection.Score)
	}
	if !strings.HasSuffix(r.Checks.SpamDetection.Details, "High word repetition") {
		t.Errorf("expected repetition flag, got %q", r.Checks.SpamDetection.Details)
	}
}

func TestNewEngine_InvalidPattern(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SpamPatterns = append(cfg.SpamPatterns, "(unclosed")
	if _, err := NewEngine(cfg); err == nil {
		t.Fatal("expected compile error for invalid spam pattern")
	}
}

func TestNewEngine_OverriddenThresholds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ApproveThreshold = 95
	e, err := NewEngine(cfg)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	r := e.Score(Input{
		Content: "I love this tool, it has great integration with our API and saved my team 10 hours a week",
		Rating:  5,
	})
	if got := e.Decide(r); got != DecisionManualReview {
		t.Errorf("decision with raised threshold: got %s, want %s", got, DecisionManualReview)
	}
}

// TestScore_BoundedAndDeterministic checks every score stays within 0..100 and that scoring the
// same input twice yields the same verdict.
func TestScore_BoundedAndDeterministic(t *testing.T) {
	e := newTestEngine(t)

	inRange := func(v int) bool { return v >= 0 && v <= 100 }
	property := func(content, title, pros, cons string, rating uint8) bool {
		in := Input{Content: content, Title: title, Pros: pros, Cons: cons, Rating: int(rating % 6)}
		a, b := e.Score(in), e.Score(in)
		if a.ConfidenceScore != b.ConfidenceScore || a.Checks != b.Checks || len(a.Flags) != len(b.Flags) {
			return false
		}
		return inRange(a.ConfidenceScore) &&
			inRange(a.Checks.ContentQuality.Score) &&
			inRange(a.Checks.SpamDetection.Score) &&
			inRange(a.Checks.Authenticity.Score)
	}
	if err := quick.Check(property, &quick.Config{MaxCount: 500}); err != nil {
		t.Error(err)
	}
}
