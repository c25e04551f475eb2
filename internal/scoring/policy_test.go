package scoring

import "testing"

func TestDecide_ApproveAndRejectNeverOverlap(t *testing.T) {
	e := newTestEngine(t)

	for score := 0; score <= 100; score++ {
		for _, spamPassed := range []bool{true, false} {
			for _, qualityPassed := range []bool{true, false} {
				r := Result{
					IsAuthentic:     score >= 60 && spamPassed,
					ConfidenceScore: score,
					Checks: Checks{
						ContentQuality: CheckResult{Passed: qualityPassed},
						SpamDetection:  CheckResult{Passed: spamPassed},
					},
				}
				if e.ShouldAutoApprove(r) && e.ShouldAutoReject(r) {
					t.Fatalf("score %d spam=%v quality=%v: both approve and reject", score, spamPassed, qualityPassed)
				}
			}
		}
	}
}

func TestDecide_Thresholds(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		name string
		r    Result
		want Decision
	}{
		{
			name: "approve at threshold",
			r: Result{IsAuthentic: true, ConfidenceScore: 80, Checks: Checks{
				ContentQuality: CheckResult{Passed: true}, SpamDetection: CheckResult{Passed: true},
			}},
			want: DecisionApprove,
		},
		{
			name: "quality failure blocks approval",
			r: Result{IsAuthentic: true, ConfidenceScore: 95, Checks: Checks{
				SpamDetection: CheckResult{Passed: true},
			}},
			want: DecisionManualReview,
		},
		{
			name: "reject just below cutoff",
			r:    Result{ConfidenceScore: 39},
			want: DecisionReject,
		},
		{
			name: "spam at cutoff goes to a moderator",
			r:    Result{ConfidenceScore: 40},
			want: DecisionManualReview,
		},
		{
			name: "low score without spam is not rejected",
			r: Result{ConfidenceScore: 10, Checks: Checks{
				SpamDetection: CheckResult{Passed: true},
			}},
			want: DecisionManualReview,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := e.Decide(tc.r); got != tc.want {
				t.Errorf("got %s, want %s", got, tc.want)
			}
		})
	}
}

func TestDecision_Reason(t *testing.T) {
	if got := DecisionApprove.Reason(); got != "Auto-approved based on high confidence score" {
		t.Errorf("approve reason: %q", got)
	}
	if got := DecisionManualReview.Reason(); got != "Manual review required" {
		t.Errorf("manual reason: %q", got)
	}
}
