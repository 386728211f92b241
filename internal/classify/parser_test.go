package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/jobtracker/internal/model"
)

func TestParseBatchResponse_WellFormed(t *testing.T) {
	text := `[
		{"category": "Positive", "summary": "Interview scheduled.", "action": "Prepare."},
		{"category": "Negative", "summary": "Application declined.", "action": "Move on."}
	]`

	entries, err := parseBatchResponse(text, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, model.CategoryPositive, entries[0].Category)
	assert.Equal(t, "Interview scheduled.", entries[0].Summary)
	assert.Equal(t, model.CategoryNegative, entries[1].Category)
	assert.Equal(t, "Move on.", entries[1].Action)
}

func TestParseBatchResponse_ArrayWrappedInProse(t *testing.T) {
	text := "Here are the classifications:\n```json\n" +
		`[{"category": "neutral", "summary": "An update.", "action": "Wait."}]` +
		"\n```\nLet me know if you need anything else."

	entries, err := parseBatchResponse(text, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, model.CategoryNeutral, entries[0].Category)
}

func TestParseBatchResponse_CategoryVariants(t *testing.T) {
	tests := []struct {
		label    string
		expected model.Category
	}{
		{"Positive", model.CategoryPositive},
		{"positive", model.CategoryPositive},
		{"NEGATIVE", model.CategoryNegative},
		{"Follow-up", model.CategoryFollowUp},
		{"followup", model.CategoryFollowUp},
		{"Follow-up needed", model.CategoryFollowUp},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			text := `[{"category": "` + tt.label + `", "summary": "s", "action": "a"}]`
			entries, err := parseBatchResponse(text, 1)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, entries[0].Category)
		})
	}
}

func TestParseBatchResponse_CountMismatch(t *testing.T) {
	// Four entries for a batch of five: the entire batch is a parse
	// failure, never partially trusted.
	text := `[
		{"category": "Positive", "summary": "a", "action": "a"},
		{"category": "Negative", "summary": "b", "action": "b"},
		{"category": "Neutral", "summary": "c", "action": "c"},
		{"category": "Neutral", "summary": "d", "action": "d"}
	]`

	entries, err := parseBatchResponse(text, 5)
	assert.Nil(t, entries)
	require.Error(t, err)
	assert.True(t, IsParseError(err))
}

func TestParseBatchResponse_UnknownCategory(t *testing.T) {
	text := `[
		{"category": "Positive", "summary": "a", "action": "a"},
		{"category": "Maybe", "summary": "b", "action": "b"}
	]`

	entries, err := parseBatchResponse(text, 2)
	assert.Nil(t, entries)
	require.Error(t, err)
	assert.True(t, IsParseError(err))
}

func TestParseBatchResponse_NoArray(t *testing.T) {
	for _, text := range []string{
		"",
		"I could not classify these emails.",
		"Email 1: Category: Positive, Summary: looks good",
	} {
		entries, err := parseBatchResponse(text, 1)
		assert.Nil(t, entries)
		require.Error(t, err)
		assert.True(t, IsParseError(err))
	}
}

func TestParseBatchResponse_EmptyFieldsGetDefaults(t *testing.T) {
	text := `[{"category": "Follow-up", "summary": "", "action": "  "}]`

	entries, err := parseBatchResponse(text, 1)
	require.NoError(t, err)
	assert.NotEmpty(t, entries[0].Summary)
	assert.NotEmpty(t, entries[0].Action)
	assert.Equal(t, DefaultSummary(model.CategoryFollowUp), entries[0].Summary)
	assert.Equal(t, DefaultAction(model.CategoryFollowUp), entries[0].Action)
}
