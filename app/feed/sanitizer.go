package feed

import (
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"
)

// Sanitizer turns an HTML summary into plain message text.
type Sanitizer struct {
	unwrap bool
	math   bool
}

func NewSanitizer(unwrap, math bool) *Sanitizer {
	return &Sanitizer{unwrap: unwrap, math: math}
}

func (s *Sanitizer) Run(summary string) string {
	text := StripTags(summary)

	if s.unwrap {
		text = UnwrapText(text)
	}

	return text
}

// EscapeMath doubles every $ of a composed message for KaTeX rendering when
// math mode is on.
func (s *Sanitizer) EscapeMath(content string) string {
	if !s.math {
		return content
	}
	return strings.ReplaceAll(content, "$", "$$")
}

// StripTags returns the text content of an HTML fragment.
func StripTags(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		slog.Debug("Failed to parse summary markup, using raw text", "error", err)
		return strings.TrimSpace(norm.NFC.String(fragment))
	}

	return strings.TrimSpace(norm.NFC.String(doc.Text()))
}

// UnwrapText joins hard-wrapped lines: a newline with a non-newline character
// on both sides becomes a space, so paragraph breaks survive.
func UnwrapText(text string) string {
	runes := []rune(text)
	for i := 1; i < len(runes)-1; i++ {
		if runes[i] == '\n' && runes[i-1] != '\n' && runes[i+1] != '\n' {
			runes[i] = ' '
		}
	}
	return string(runes)
}
