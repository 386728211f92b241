package classify

import (
	"fmt"
	"strings"

	"github.com/nhle/jobtracker/internal/model"
)

// promptSnippetLen bounds how much body text is sent per email; the
// batch must stay within the provider's practical prompt-size limits.
const promptSnippetLen = 300

// buildBatchPrompt serializes a batch of emails into a single
// structured-output prompt. The model is asked for a JSON array with
// exactly one entry per email, in order.
func buildBatchPrompt(batch []model.NormalizedEmail) string {
	var sb strings.Builder

	sb.WriteString("Classify these job application emails.\n\n")

	for i, email := range batch {
		sb.WriteString(fmt.Sprintf("Email %d:\n", i+1))
		sb.WriteString(fmt.Sprintf("From: %s\n", email.Sender))
		sb.WriteString(fmt.Sprintf("Subject: %s\n", email.Subject))
		sb.WriteString(fmt.Sprintf("Body: %s\n\n", clip(email.BodySnippet, promptSnippetLen)))
	}

	sb.WriteString("Respond with only a JSON array containing exactly ")
	sb.WriteString(fmt.Sprintf("%d objects, one per email in the same order. ", len(batch)))
	sb.WriteString("Each object must have these fields:\n")
	sb.WriteString(`- "category": one of "Positive", "Negative", "Neutral", "Follow-up"` + "\n")
	sb.WriteString(`- "summary": a one-sentence summary of the email` + "\n")
	sb.WriteString(`- "action": a short suggested action for the applicant` + "\n")

	return sb.String()
}

func clip(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
