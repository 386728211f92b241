package model

import (
	"strings"
	"time"
)

// Category is the classification outcome for a job-application email.
type Category string

const (
	CategoryPositive Category = "Positive"
	CategoryNegative Category = "Negative"
	CategoryNeutral  Category = "Neutral"
	CategoryFollowUp Category = "Follow-up"
)

// Categories returns all valid categories in display order.
func Categories() []Category {
	return []Category{
		CategoryPositive,
		CategoryNegative,
		CategoryNeutral,
		CategoryFollowUp,
	}
}

// ParseCategory maps a free-form category label (as produced by a
// language model) to one of the four valid categories. It accepts
// case differences and common follow-up spellings ("follow-up",
// "followup", "follow-up needed"). The second return value reports
// whether the label was recognized.
func ParseCategory(s string) (Category, bool) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.ReplaceAll(normalized, "-", "")
	normalized = strings.ReplaceAll(normalized, " ", "")

	switch normalized {
	case "positive":
		return CategoryPositive, true
	case "negative":
		return CategoryNegative, true
	case "neutral":
		return CategoryNeutral, true
	case "followup", "followupneeded":
		return CategoryFollowUp, true
	}
	return "", false
}

// NormalizedEmail is the plain representation of a fetched message,
// ready for classification. It is immutable once created.
type NormalizedEmail struct {
	// Sender is the decoded display name or address of the sender.
	Sender string `json:"sender"`

	// Subject is the decoded subject line.
	Subject string `json:"subject"`

	// Date is when the message was sent.
	Date time.Time `json:"date"`

	// BodySnippet is the plain-text body truncated to a bounded length.
	// It may be empty when no text could be extracted.
	BodySnippet string `json:"body_snippet"`
}

// ClassifiedRecord is the final per-email output unit consumed by the
// summary and export layers. Summary and SuggestedAction are never
// empty; classifiers substitute generic defaults instead.
type ClassifiedRecord struct {
	Sender          string    `json:"sender"`
	Subject         string    `json:"subject"`
	Date            time.Time `json:"date"`
	Category        Category  `json:"category"`
	Summary         string    `json:"summary"`
	SuggestedAction string    `json:"suggested_action"`
}
