// Package normalize converts raw fetched messages into plain
// NormalizedEmail records, tolerating multipart and encoded content.
// A message that cannot be normalized is reported as an error so the
// caller can drop it without failing the run.
package normalize

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"regexp"
	"strings"

	"github.com/emersion/go-message/mail"

	"github.com/nhle/jobtracker/internal/mailbox"
	"github.com/nhle/jobtracker/internal/model"
)

// MaxSnippetLen bounds the body snippet; classification only needs a
// representative slice of the message, not the full text.
const MaxSnippetLen = 600

// Placeholders substituted when a header cannot be decoded.
const (
	UnknownSender      = "(unknown sender)"
	UndecodableSubject = "(undecodable subject)"
)

// ErrEmptyMessage is returned for a message with no envelope data and
// no body; such messages are dropped by the pipeline.
var ErrEmptyMessage = errors.New("message has no decodable content")

// Normalize converts a RawMessage into a NormalizedEmail. Header
// decode failures fall back to placeholders and body extraction
// failures fall back to an empty snippet; only a message with nothing
// decodable at all returns an error.
func Normalize(raw mailbox.RawMessage) (model.NormalizedEmail, error) {
	sender := raw.Sender
	subject := raw.Subject
	body := extractBody(raw.Raw)

	// The envelope usually carries decoded headers already. When it
	// is missing or empty, fall back to the raw message headers.
	if (sender == "" || subject == "") && len(raw.Raw) > 0 {
		hdrSender, hdrSubject := headersFromRaw(raw.Raw)
		if sender == "" {
			sender = hdrSender
		}
		if subject == "" {
			subject = hdrSubject
		}
	}

	if sender == "" && subject == "" && body == "" {
		return model.NormalizedEmail{}, ErrEmptyMessage
	}

	if sender == "" {
		sender = UnknownSender
	}

	return model.NormalizedEmail{
		Sender:      sender,
		Subject:     subject,
		Date:        raw.Date,
		BodySnippet: truncate(collapseWhitespace(body), MaxSnippetLen),
	}, nil
}

// headersFromRaw parses the From and Subject headers out of the raw
// message bytes, decoding RFC 2047 encoded words. Decode failures
// yield placeholders rather than errors.
func headersFromRaw(raw []byte) (sender, subject string) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return "", ""
	}
	defer mr.Close()

	if from, err := mr.Header.AddressList("From"); err == nil && len(from) > 0 {
		if from[0].Name != "" {
			sender = from[0].Name
		} else {
			sender = from[0].Address
		}
	} else if rawFrom := mr.Header.Get("From"); rawFrom != "" {
		sender = decodeWord(rawFrom, UnknownSender)
	}

	if s, err := mr.Header.Subject(); err == nil {
		subject = s
	} else if rawSubject := mr.Header.Get("Subject"); rawSubject != "" {
		subject = decodeWord(rawSubject, UndecodableSubject)
	}

	return sender, subject
}

// decodeWord decodes a possibly RFC 2047 encoded header value,
// returning the placeholder when decoding fails.
func decodeWord(s, placeholder string) string {
	dec := &mime.WordDecoder{}
	decoded, err := dec.DecodeHeader(s)
	if err != nil {
		return placeholder
	}
	return decoded
}

// extractBody walks the MIME structure and returns the first
// text/plain inline part, falling back to the first text/html part
// stripped to plain text. An unextractable body yields an empty
// string, never an error.
func extractBody(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}

	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return ""
	}
	defer mr.Close()

	var htmlBody string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}

		contentType, _, _ := h.ContentType()
		body, readErr := io.ReadAll(part.Body)
		if readErr != nil {
			continue
		}

		switch {
		case strings.HasPrefix(contentType, "text/plain"):
			return string(body)
		case strings.HasPrefix(contentType, "text/html") && htmlBody == "":
			htmlBody = string(body)
		}
	}

	return stripHTML(htmlBody)
}

// htmlTagPattern matches HTML tags for stripping.
var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// stripHTML removes HTML tags from a string and decodes common
// entities, providing a basic plain-text rendering.
func stripHTML(html string) string {
	if html == "" {
		return ""
	}

	result := html
	for _, tag := range []string{
		"<br>", "<br/>", "<br />", "</p>", "</div>", "</li>",
	} {
		result = strings.ReplaceAll(result, tag, "\n")
	}

	result = htmlTagPattern.ReplaceAllString(result, "")

	replacer := strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&nbsp;", " ",
	)
	result = replacer.Replace(result)

	return strings.TrimSpace(result)
}

// whitespacePattern collapses runs of whitespace into single spaces.
var whitespacePattern = regexp.MustCompile(`\s+`)

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(s, " "))
}

// truncate bounds s to max runes.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
