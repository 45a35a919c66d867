package richtext

import (
	"strings"
	"testing"
)

func TestToHTML(t *testing.T) {
	out, err := ToHTML("# Title\n\nSome **bold** text")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"<h1", "Title</h1>", "<strong>bold</strong>"} {
		if !strings.Contains(out, want) {
			t.Errorf("ToHTML() = %q, missing %q", out, want)
		}
	}
	if out, _ := ToHTML("   "); out != "" {
		t.Errorf("blank input = %q", out)
	}
}

func TestSanitizeDropsScripts(t *testing.T) {
	out := Sanitize(`<p onclick="x()">hi</p><script>alert(1)</script>`)
	if strings.Contains(out, "script") || strings.Contains(out, "onclick") {
		t.Errorf("Sanitize() = %q", out)
	}
	if !strings.Contains(out, "<p>hi</p>") {
		t.Errorf("Sanitize() lost content: %q", out)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, contains string
	}{
		{"<p>already html</p>", "<p>already html</p>"},
		{"plain *words*", "<em>words</em>"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); !strings.Contains(got, tt.contains) {
			t.Errorf("Normalize(%q) = %q, want it to contain %q", tt.in, got, tt.contains)
		}
	}
}

func TestIsHTML(t *testing.T) {
	if !IsHTML("<p>x</p>") || !IsHTML("a<br/>b") {
		t.Error("markup not detected")
	}
	if IsHTML("2 < 3 and 4 > 1") {
		t.Error("comparison detected as markup")
	}
}

func TestPlainText(t *testing.T) {
	got := PlainText("<h2>Head</h2><p>One &amp; two</p><p>Three</p>")
	if got != "Head\n\nOne & two\n\nThree" {
		t.Errorf("PlainText() = %q", got)
	}
}
