package scoring

type Decision string

const (
	DecisionApprove      Decision = "APPROVE"
	DecisionReject       Decision = "REJECT"
	DecisionManualReview Decision = "MANUAL_REVIEW"
)

// Reason is the human readable explanation stored with a moderation outcome.
func (d Decision) Reason() string {
	switch d {
	case DecisionApprove:
		return "Auto-approved based on high confidence score"
	case DecisionReject:
		return "Auto-rejected due to spam detection"
	default:
		return "Manual review required"
	}
}

// ShouldAutoApprove reports whether r is trustworthy enough to publish without a moderator.
func (e *Engine) ShouldAutoApprove(r Result) bool {
	return r.IsAuthentic &&
		r.ConfidenceScore >= e.cfg.ApproveThreshold &&
		r.Checks.SpamDetection.Passed &&
		r.Checks.ContentQuality.Passed
}

// ShouldAutoReject reports whether r is spam with low confidence.
func (e *Engine) ShouldAutoReject(r Result) bool {
	return !r.Checks.SpamDetection.Passed && r.ConfidenceScore < e.cfg.RejectBelow
}

// Decide maps a verdict onto a moderation decision. Approve requires a passed spam
// check and reject a failed one, so the two never overlap.
func (e *Engine) Decide(r Result) Decision {
	switch {
	case e.ShouldAutoApprove(r):
		return DecisionApprove
	case e.ShouldAutoReject(r):
		return DecisionReject
	default:
		return DecisionManualReview
	}
}
