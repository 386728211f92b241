package classify

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nhle/jobtracker/internal/model"
)

// ParsedEntry is one validated per-email answer from the provider.
type ParsedEntry struct {
	Category model.Category
	Summary  string
	Action   string
}

// rawEntry mirrors the JSON shape requested in the prompt, before
// validation.
type rawEntry struct {
	Category string `json:"category"`
	Summary  string `json:"summary"`
	Action   string `json:"action"`
}

// parseBatchResponse validates the model's text completion against the
// expected schema: a JSON array with exactly want entries, each
// carrying one of the four category labels. Models often wrap the
// array in prose or code fences, so the parser extracts the first
// array it can find rather than requiring exact JSON conformance.
// Any structural violation yields a ParseError; a malformed response
// is never partially trusted.
func parseBatchResponse(text string, want int) ([]ParsedEntry, error) {
	raw, err := decodeEntries(text)
	if err != nil {
		return nil, &ParseError{Reason: err.Error()}
	}

	if len(raw) != want {
		return nil, &ParseError{
			Reason: fmt.Sprintf("expected %d entries, got %d", want, len(raw)),
		}
	}

	entries := make([]ParsedEntry, 0, want)
	for i, r := range raw {
		category, ok := model.ParseCategory(r.Category)
		if !ok {
			return nil, &ParseError{
				Reason: fmt.Sprintf("entry %d has unknown category %q", i+1, r.Category),
			}
		}

		summary := strings.TrimSpace(r.Summary)
		if summary == "" {
			summary = DefaultSummary(category)
		}
		action := strings.TrimSpace(r.Action)
		if action == "" {
			action = DefaultAction(category)
		}

		entries = append(entries, ParsedEntry{
			Category: category,
			Summary:  summary,
			Action:   action,
		})
	}

	return entries, nil
}

// decodeEntries unmarshals the completion text, first as-is and then
// from the outermost bracketed slice.
func decodeEntries(text string) ([]rawEntry, error) {
	text = strings.TrimSpace(text)

	var entries []rawEntry
	if err := json.Unmarshal([]byte(text), &entries); err == nil {
		return entries, nil
	}

	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON array in response")
	}

	if err := json.Unmarshal([]byte(text[start:end+1]), &entries); err != nil {
		return nil, fmt.Errorf("decoding response array: %v", err)
	}

	return entries, nil
}
