package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/mitaan/mitaan/internal/models"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := Stdout
	Stdout = &buf
	t.Cleanup(func() { Stdout = prev })
	return &buf
}

// TestFormatTimeAgo tests each bucket of the relative time format
func TestFormatTimeAgo(t *testing.T) {
	tests := []struct {
		duration time.Duration
		expected string
	}{
		{0, "just now"},
		{59 * time.Second, "just now"},
		{2 * time.Minute, "2m ago"},
		{3 * time.Hour, "3h ago"},
		{2 * 24 * time.Hour, "2d ago"},
	}

	for _, tc := range tests {
		result := FormatTimeAgo(time.Now().Add(-tc.duration))
		if result != tc.expected {
			t.Errorf("FormatTimeAgo(-%v) = %q, want %q", tc.duration, result, tc.expected)
		}
	}

	old := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	if got := FormatTimeAgo(old); got != "2024-01-15" {
		t.Errorf("FormatTimeAgo(old) = %q", got)
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatTable, "JSON": FormatJSON, "yaml": FormatYAML} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("xml accepted")
	}
}

func TestFormatRecordShort(t *testing.T) {
	h := &models.Headline{ID: "hl-1", Title: "A very long breaking headline that keeps going"}
	line := ansi.Strip(FormatRecordShort(h, 20))
	if !strings.HasPrefix(line, "hl-1  A very") {
		t.Errorf("line = %q", line)
	}
	if ansi.StringWidth(line) > 20 {
		t.Errorf("width = %d, want <= 20", ansi.StringWidth(line))
	}
	if got := ansi.Strip(FormatRecordShort(&models.Headline{Title: "new"}, 0)); got != "-  new" {
		t.Errorf("unsaved = %q", got)
	}
}

func TestFields(t *testing.T) {
	ad := &models.Advertisement{ID: "ad-1", ImageURL: "https://x/a.png", Type: "banner"}
	var names []string
	for _, f := range Fields(ad) {
		names = append(names, f.Name)
	}
	if got := strings.Join(names, ","); got != "id,imageUrl,type,isActive" {
		t.Errorf("fields = %s", got)
	}
}

func TestFormatRecordLongOmits(t *testing.T) {
	a := &models.Article{ID: "a1", Title: "T", Content: "<p>body</p>", Author: "X"}
	out := ansi.Strip(FormatRecordLong(a, "content"))
	if strings.Contains(out, "body") || !strings.Contains(out, "author: X") {
		t.Errorf("FormatRecordLong() = %q", out)
	}
}

func TestRecordsYAMLUsesWireNames(t *testing.T) {
	buf := capture(t)
	recs := []models.Record{&models.Photo{ID: "ph-1", Title: "Dawn", ImageURL: "https://x/d.jpg"}}
	if err := Records(FormatYAML, recs); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "imageUrl: https://x/d.jpg") || !strings.Contains(out, "id: ph-1") {
		t.Errorf("yaml = %s", out)
	}
}

func TestRecordsEmptyTable(t *testing.T) {
	buf := capture(t)
	if err := Records(FormatTable, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No records") {
		t.Errorf("out = %q", buf.String())
	}
}

func TestJSONError(t *testing.T) {
	buf := capture(t)
	JSONError(ErrCodeNotFound, `say "hi"`)
	if got := strings.TrimSpace(buf.String()); got != `{"error":{"code":"not_found","message":"say \"hi\""}}` {
		t.Errorf("JSONError = %s", got)
	}
}

func TestRecordMarkdownStory(t *testing.T) {
	story := &models.Article{
		Title:    "River",
		Category: "Story",
		Content:  `[{"id":"1","type":"text","value":"<p>First</p>"},{"id":"2","type":"image","value":"https://x/i.png"}]`,
	}
	md := RecordMarkdown(story)
	if !strings.Contains(md, "1. First") || !strings.Contains(md, "2. ![image](https://x/i.png)") {
		t.Errorf("markdown = %s", md)
	}
}

func TestRecordMarkdownArticle(t *testing.T) {
	md := RecordMarkdown(&models.Article{Title: "Op_Ed", Category: "Opinion", Content: "<p>Hello</p>"})
	if !strings.Contains(md, `# Op\_Ed`) || !strings.Contains(md, "Hello") || strings.Contains(md, "<p>") {
		t.Errorf("markdown = %s", md)
	}
}
