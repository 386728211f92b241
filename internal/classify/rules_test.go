package classify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/jobtracker/internal/model"
)

func TestRuleClassifier_Categories(t *testing.T) {
	c := NewRuleClassifier()

	tests := []struct {
		name     string
		subject  string
		body     string
		expected model.Category
	}{
		{
			name:     "interview in subject is positive",
			subject:  "Interview invitation",
			body:     "We would like to meet you next week.",
			expected: model.CategoryPositive,
		},
		{
			name:     "rejection is negative",
			subject:  "Your application",
			body:     "Unfortunately we have decided to pursue other candidates.",
			expected: model.CategoryNegative,
		},
		{
			name:     "document request is follow-up",
			subject:  "Action needed",
			body:     "Please send your additional documents by Friday.",
			expected: model.CategoryFollowUp,
		},
		{
			name:     "no keyword is neutral",
			subject:  "Application received",
			body:     "Thank you for your submission.",
			expected: model.CategoryNeutral,
		},
		{
			name:     "matching is case-insensitive",
			subject:  "INTERVIEW SCHEDULED",
			body:     "",
			expected: model.CategoryPositive,
		},
		{
			name:     "keyword in body only",
			subject:  "Update",
			body:     "We regret to inform you of our decision.",
			expected: model.CategoryNegative,
		},
		{
			name:     "positive beats negative on ambiguous message",
			subject:  "Interview update",
			body:     "Unfortunately we must reschedule your interview.",
			expected: model.CategoryPositive,
		},
		{
			name:     "negative beats follow-up",
			subject:  "Your application",
			body:     "Unfortunately we cannot proceed; no follow up is required.",
			expected: model.CategoryNegative,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := c.ClassifyOne(model.NormalizedEmail{
				Subject:     tt.subject,
				BodySnippet: tt.body,
			})
			assert.Equal(t, tt.expected, record.Category)
		})
	}
}

func TestRuleClassifier_NeverEmptyFields(t *testing.T) {
	c := NewRuleClassifier()

	// Includes the degenerate email: empty subject, empty body,
	// non-ASCII sender. The fallback path must succeed unconditionally.
	emails := []model.NormalizedEmail{
		{},
		{Sender: "採用担当者", Subject: "", BodySnippet: ""},
		{Sender: "hr@example.com", Subject: "interview", BodySnippet: "unfortunately"},
	}

	for _, email := range emails {
		record := c.ClassifyOne(email)
		require.NotEmpty(t, record.Summary)
		require.NotEmpty(t, record.SuggestedAction)
		assert.Contains(t, model.Categories(), record.Category)
	}
}

func TestRuleClassifier_Idempotent(t *testing.T) {
	c := NewRuleClassifier()

	email := model.NormalizedEmail{
		Sender:      "recruiter@example.com",
		Subject:     "Next round scheduling",
		Date:        time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
		BodySnippet: "Congratulations, we would like to schedule a call.",
	}

	first := c.ClassifyOne(email)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, c.ClassifyOne(email))
	}
}

func TestRuleClassifier_PreservesEmailFields(t *testing.T) {
	c := NewRuleClassifier()

	date := time.Date(2026, 8, 20, 9, 30, 0, 0, time.UTC)
	record := c.ClassifyOne(model.NormalizedEmail{
		Sender:      "hr@corp.example",
		Subject:     "Offer details",
		Date:        date,
		BodySnippet: "We are pleased to extend an offer.",
	})

	assert.Equal(t, "hr@corp.example", record.Sender)
	assert.Equal(t, "Offer details", record.Subject)
	assert.Equal(t, date, record.Date)
}
