package services

import (
	"strings"
	"testing"

	"github.com/princeprakhar/marketplace-backend/internal/models"
)

func TestReviewDecisionContent(t *testing.T) {
	subject, body := reviewDecisionContent("Ada", "Acme <CRM>", models.ReviewApproved,
		"Auto-approved based on high confidence score", "https://app.example.com")

	if subject != "Your review has been published: Acme <CRM>" {
		t.Errorf("subject: got %q", subject)
	}
	for _, want := range []string{"Hello Ada,", "Acme &lt;CRM&gt;", "APPROVED", "Auto-approved based on high confidence score"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
	if strings.Contains(body, "<CRM>") {
		t.Error("product name must be escaped in the body")
	}

	subject, body = reviewDecisionContent("", "Acme", models.ReviewRejected, "Auto-rejected due to spam detection", "")
	if !strings.HasPrefix(subject, "Your review was not published") {
		t.Errorf("rejected subject: got %q", subject)
	}
	if !strings.Contains(body, "Hello there,") || !strings.Contains(body, "#d9534f") {
		t.Error("rejected body should greet generically and use the rejection color")
	}
}
