// Package richtext turns text typed in the console into the sanitized HTML
// the public site renders, and back into plain text for terminal previews.
package richtext

import (
	"bytes"
	"html"
	"regexp"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
)

var markdownEngine = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Typographer,
	),
	goldmark.WithRendererOptions(
		htmlrenderer.WithHardWraps(),
	),
)

var (
	policyOnce sync.Once
	ugcPolicy  *bluemonday.Policy
	textPolicy *bluemonday.Policy
)

func policies() (*bluemonday.Policy, *bluemonday.Policy) {
	policyOnce.Do(func() {
		ugcPolicy = bluemonday.UGCPolicy()
		ugcPolicy.AddTargetBlankToFullyQualifiedLinks(true)
		textPolicy = bluemonday.StrictPolicy()
	})
	return ugcPolicy, textPolicy
}

var htmlTagPattern = regexp.MustCompile(`(?i)<(p|div|br|h[1-6]|ul|ol|li|blockquote|strong|em|a|img|span)[\s/>]`)

// IsHTML reports whether s already looks like markup produced by a rich
// text editor.
func IsHTML(s string) bool {
	return htmlTagPattern.MatchString(s)
}

// ToHTML renders markdown to sanitized HTML.
func ToHTML(markdown string) (string, error) {
	text := strings.TrimSpace(markdown)
	if text == "" {
		return "", nil
	}
	var out bytes.Buffer
	if err := markdownEngine.Convert([]byte(text), &out); err != nil {
		return "", err
	}
	return Sanitize(out.String()), nil
}

// Sanitize strips scripts, event handlers and other unsafe markup.
func Sanitize(s string) string {
	ugc, _ := policies()
	return strings.TrimSpace(ugc.Sanitize(s))
}

// Normalize accepts either HTML or markdown and returns sanitized HTML.
// Markdown that fails to render is escaped into a single paragraph.
func Normalize(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	if IsHTML(s) {
		return Sanitize(s)
	}
	out, err := ToHTML(s)
	if err != nil {
		return "<p>" + html.EscapeString(strings.TrimSpace(s)) + "</p>"
	}
	return out
}

var blockBreak = regexp.MustCompile(`(?i)</(p|div|h[1-6]|li|blockquote)>|<br\s*/?>`)

// PlainText drops all markup, keeping paragraph breaks.
func PlainText(s string) string {
	_, strict := policies()
	s = blockBreak.ReplaceAllString(s, "\n")
	s = html.UnescapeString(strict.Sanitize(s))
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n\n")
}
