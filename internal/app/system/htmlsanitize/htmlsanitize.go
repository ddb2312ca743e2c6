// Package htmlsanitize cleans user-supplied text before it is stored or rendered.
//
// Levels:
//   - strict: every tag removed; for names, usernames, titles
//   - basic: inline emphasis and paragraphs only; for short descriptions
//   - rich: a formatting allow-list for long-form content (club about pages,
//     event descriptions, announcements)
//   - url: http and https URLs only
//   - email: a single lower-cased address
package htmlsanitize

import (
	"html"
	"html/template"
	"net/url"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

// Level names a sanitizer.
type Level string

const (
	LevelStrict Level = "strict"
	LevelBasic  Level = "basic"
	LevelRich   Level = "rich"
	LevelURL    Level = "url"
	LevelEmail  Level = "email"
)

var (
	strictPolicy = bluemonday.StrictPolicy()
	basicPolicy  = newBasicPolicy()
	richPolicy   = newRichPolicy()

	emailCheck     *validator.Validate
	emailCheckOnce sync.Once
)

func newBasicPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("b", "i", "em", "strong", "u", "br", "p")
	return p
}

// newRichPolicy starts from the UGC policy (which already drops script,
// iframe, object, embed, form, style and every on* attribute) and adds the
// table and text formatting the editors produce.
func newRichPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowURLSchemes("http", "https", "mailto")
	p.AllowElements("u", "s", "sub", "sup", "mark", "hr", "br")
	p.AllowAttrs("colspan", "rowspan").Matching(bluemonday.Integer).OnElements("td", "th")
	p.AllowAttrs("class").OnElements("table", "thead", "tbody", "tr", "td", "th")
	p.AllowStyles("width", "text-align", "border", "padding").OnElements("table", "tr", "td", "th")
	return p
}

// Strict removes all markup and returns plain text. Entities are decoded so
// "Tom &amp; Jerry" is stored as "Tom & Jerry"; templates escape on output.
// Decoding repeats until the text stops changing so no depth of entity
// encoding lets a tag survive. Each pass either shortens s or leaves it as is.
func Strict(s string) string {
	for {
		next := html.UnescapeString(strictPolicy.Sanitize(s))
		if next == s {
			return strings.TrimSpace(s)
		}
		s = next
	}
}

// Basic keeps inline emphasis and paragraphs.
func Basic(s string) string {
	return strings.TrimSpace(basicPolicy.Sanitize(s))
}

// Rich keeps the formatting allow-list and strips everything executable.
func Rich(s string) string {
	if s == "" {
		return ""
	}
	return richPolicy.Sanitize(s)
}

// URL returns s if it is an absolute http or https URL, otherwise "".
func URL(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return ""
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return u.String()
	}
	return ""
}

// Email returns the lower-cased address, or "" when s is not one address.
func Email(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	emailCheckOnce.Do(func() { emailCheck = validator.New() })
	if emailCheck.Var(s, "email") != nil {
		return ""
	}
	return s
}

// Apply runs the sanitizer for level. Unknown levels fall back to strict.
func Apply(level Level, s string) string {
	switch level {
	case LevelBasic:
		return Basic(s)
	case LevelRich:
		return Rich(s)
	case LevelURL:
		return URL(s)
	case LevelEmail:
		return Email(s)
	default:
		return Strict(s)
	}
}

// PrepareForDisplay renders stored content: plain text is escaped and
// paragraph-wrapped with <br> for line breaks, markup goes through the rich
// policy again.
func PrepareForDisplay(s string) template.HTML {
	if s == "" {
		return ""
	}
	if isPlainText(s) {
		return template.HTML(plainTextToHTML(s))
	}
	return template.HTML(Rich(s))
}

func isPlainText(s string) bool {
	return !(strings.Contains(s, "<") && strings.Contains(s, ">"))
}

func plainTextToHTML(s string) string {
	escaped := html.EscapeString(strings.ReplaceAll(s, "\r\n", "\n"))
	return "<p>" + strings.ReplaceAll(escaped, "\n", "<br>") + "</p>"
}
