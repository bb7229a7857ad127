package resume

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/ttacon/libphonenumber"

	"rolodex/pkg/email"
)

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

	phonePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\+?\d{1,3}[-.\s]?\(?\d{1,4}\)?[-.\s]?\d{1,4}[-.\s]?\d{1,9}`),
		regexp.MustCompile(`\(\d{3}\)\s*\d{3}-\d{4}`),
		regexp.MustCompile(`\d{3}-\d{3}-\d{4}`),
	}
)

// HeuristicExtractor pulls contact fields out of the PDF text with regex
// patterns. It runs fully offline and never reports confidence scores.
// Company name and job title need semantic understanding this extractor
// does not attempt, so those fields come back nil.
type HeuristicExtractor struct{}

func NewHeuristicExtractor() *HeuristicExtractor {
	return &HeuristicExtractor{}
}

func (e *HeuristicExtractor) Extract(ctx context.Context, data []byte) (*Extraction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	text, err := extractText(data)
	if err != nil {
		return nil, fmt.Errorf("extract text from pdf: %w", err)
	}
	return extractFields(text), nil
}

func extractText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// extractFields applies the regex heuristics to plain resume text.
func extractFields(text string) *Extraction {
	var out Extraction

	if m := emailPattern.FindString(text); m != "" {
		out.Email = &m
	}

	if phone := findPhone(text); phone != "" {
		out.Phone = &phone
	}

	if name := findName(text, out.Email); name != "" {
		out.FullName = &name
	}

	return &out
}

// findPhone returns the first regex match that libphonenumber considers a
// possible number. Raw matches often catch dates or zip codes, so the
// plausibility check filters those; if nothing passes, fall back to the
// first raw match rather than dropping the field entirely.
func findPhone(text string) string {
	var first string
	for _, pattern := range phonePatterns {
		for _, m := range pattern.FindAllString(text, 5) {
			if first == "" {
				first = m
			}
			num, err := libphonenumber.Parse(m, "US")
			if err != nil {
				continue
			}
			if libphonenumber.IsPossibleNumber(num) {
				return m
			}
		}
	}
	return first
}

// findName assumes resumes open with the candidate's name: the first
// non-empty line qualifies when it is 2 to 4 alphabetic words. Failing
// that, derive a display name from the email local part.
func findName(text string, emailAddr *string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if isLikelyName(line) {
			return line
		}
		break
	}
	if emailAddr != nil {
		return email.DeriveDisplayName(*emailAddr)
	}
	return ""
}

func isLikelyName(line string) bool {
	words := strings.Fields(line)
	if len(words) < 2 || len(words) > 4 {
		return false
	}
	for _, w := range words {
		w = strings.NewReplacer(".", "", ",", "").Replace(w)
		if w == "" {
			return false
		}
		for _, r := range w {
			if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')) {
				return false
			}
		}
	}
	return true
}
