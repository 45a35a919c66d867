package output

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/mitaan/mitaan/internal/models"
	"github.com/mitaan/mitaan/internal/richtext"
	"github.com/mitaan/mitaan/internal/storyblocks"
	"golang.org/x/term"
)

const (
	defaultMarkdownWidth = 80
	minMarkdownWidth     = 20
)

// TerminalWidth returns the current terminal width or a fallback when unavailable.
func TerminalWidth(fallback int) int {
	if fallback <= 0 {
		fallback = defaultMarkdownWidth
	}

	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}

	if cols := os.Getenv("COLUMNS"); cols != "" {
		if parsed, err := strconv.Atoi(cols); err == nil && parsed > 0 {
			return parsed
		}
	}

	return fallback
}

// RenderMarkdown renders markdown using Glamour with terminal-aware wrapping.
func RenderMarkdown(text string) (string, error) {
	return RenderMarkdownWithWidth(text, TerminalWidth(defaultMarkdownWidth))
}

// RenderMarkdownWithWidth renders markdown using Glamour with explicit wrapping.
func RenderMarkdownWithWidth(text string, width int) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	if width < minMarkdownWidth {
		width = minMarkdownWidth
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}

	rendered, err := renderer.Render(text)
	if err != nil {
		return "", err
	}

	return strings.TrimRight(rendered, "\n"), nil
}

// RecordMarkdown builds a markdown document describing a record. Article
// bodies are reduced to plain text; story bodies are listed block by block.
func RecordMarkdown(r models.Record) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", escapeMarkdown(r.Label()))

	body := ""
	for _, f := range Fields(r) {
		if f.Name == "content" {
			body = f.Value
			continue
		}
		fmt.Fprintf(&sb, "- **%s**: %s\n", f.Name, escapeMarkdown(f.Value))
	}

	a, isArticle := r.(*models.Article)
	switch {
	case body == "":
	case isArticle && a.Category == string(models.CategoryStory):
		sb.WriteString("\n---\n\n")
		for i, b := range storyblocks.Parse(body, storyblocks.NewID) {
			if b.Type == storyblocks.TypeImage {
				fmt.Fprintf(&sb, "%d. ![image](%s)\n\n", i+1, b.Value)
				continue
			}
			fmt.Fprintf(&sb, "%d. %s\n\n", i+1, richtext.PlainText(b.Value))
		}
	default:
		sb.WriteString("\n---\n\n")
		sb.WriteString(richtext.PlainText(body))
		sb.WriteString("\n")
	}
	return sb.String()
}

func escapeMarkdown(s string) string {
	r := strings.NewReplacer("*", `\*`, "_", `\_`, "`", "\\`", "#", `\#`)
	return r.Replace(s)
}
