// Package classify assigns each normalized email one of four outcome
// categories, either through a batched request to a hosted language
// model or through deterministic keyword rules.
package classify

import (
	"strings"

	"github.com/nhle/jobtracker/internal/model"
)

// categoryPhrases lists the match phrases per category. Order within a
// set does not matter; priority between sets does (see rulePriority).
var categoryPhrases = map[model.Category][]string{
	model.CategoryPositive: {
		"interview",
		"next round",
		"next step",
		"schedule a call",
		"congratulation",
		"move forward",
		"offer",
	},
	model.CategoryNegative: {
		"unfortunately",
		"not moving forward",
		"other candidates",
		"regret",
		"not selected",
		"reject",
		"no longer under consideration",
	},
	model.CategoryFollowUp: {
		"please send",
		"confirm your",
		"additional documents",
		"follow up",
		"required",
		"complete your application",
	},
}

// rulePriority is the tie-break order: the first category with any
// phrase match wins, so an email mentioning both "interview" and
// "unfortunately" always resolves to Positive.
var rulePriority = []model.Category{
	model.CategoryPositive,
	model.CategoryNegative,
	model.CategoryFollowUp,
}

// categorySummaries are the generic templated summaries used when no
// model-produced summary is available.
var categorySummaries = map[model.Category]string{
	model.CategoryPositive: "The employer responded positively, likely about an interview or next step.",
	model.CategoryNegative: "The employer declined to move forward with the application.",
	model.CategoryFollowUp: "The employer is requesting information or a confirmation from you.",
	model.CategoryNeutral:  "A job application related message with no clear outcome.",
}

// categoryActions are the fixed per-category recommendations.
var categoryActions = map[model.Category]string{
	model.CategoryPositive: "Respond promptly and prepare for the next step.",
	model.CategoryNegative: "Archive and keep applying elsewhere.",
	model.CategoryFollowUp: "Send the requested information.",
	model.CategoryNeutral:  "Monitor for further updates.",
}

// DefaultSummary returns the generic summary for a category. It is
// never empty.
func DefaultSummary(cat model.Category) string {
	if s, ok := categorySummaries[cat]; ok {
		return s
	}
	return categorySummaries[model.CategoryNeutral]
}

// DefaultAction returns the fixed recommendation for a category. It
// is never empty.
func DefaultAction(cat model.Category) string {
	if a, ok := categoryActions[cat]; ok {
		return a
	}
	return categoryActions[model.CategoryNeutral]
}

// RuleClassifier is the deterministic keyword classifier. It has no
// state and no network dependency: it must succeed unconditionally for
// any NormalizedEmail, which makes it the fallback when the AI path is
// unavailable.
type RuleClassifier struct{}

// NewRuleClassifier creates a rule-based classifier.
func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{}
}

// ClassifyOne categorizes a single email by case-insensitive substring
// matching over subject and body, in fixed priority order
// Positive > Negative > FollowUp > Neutral.
func (c *RuleClassifier) ClassifyOne(email model.NormalizedEmail) model.ClassifiedRecord {
	haystack := strings.ToLower(email.Subject + " " + email.BodySnippet)

	category := model.CategoryNeutral
	for _, cat := range rulePriority {
		if matchesAny(haystack, categoryPhrases[cat]) {
			category = cat
			break
		}
	}

	return model.ClassifiedRecord{
		Sender:          email.Sender,
		Subject:         email.Subject,
		Date:            email.Date,
		Category:        category,
		Summary:         DefaultSummary(category),
		SuggestedAction: DefaultAction(category),
	}
}

func matchesAny(haystack string, phrases []string) bool {
	for _, phrase := range phrases {
		if strings.Contains(haystack, phrase) {
			return true
		}
	}
	return false
}
