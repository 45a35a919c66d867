package suggest

import (
	"reflect"
	"testing"
)

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"ads", "", 3},
		{"", "ads", 3},
		{"photos", "photos", 0},
		{"photso", "photos", 2},
		{"headline", "headlines", 1},
		{"kitten", "sitting", 3},
	}
	for _, tt := range tests {
		if got := levenshtein(tt.a, tt.b); got != tt.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSimilar(t *testing.T) {
	keys := []string{"editorials", "opinions", "stories", "headlines", "photos", "ads", "donations", "contact_messages"}
	tests := []struct {
		name    string
		unknown string
		want    []string
	}{
		{"typo", "editorals", []string{"editorials"}},
		{"singular", "headline", []string{"headlines"}},
		{"case and separators", "Contact-Messages", []string{"contact_messages"}},
		{"prefix", "don", []string{"donations"}},
		{"nothing close", "zzzzzzzz", nil},
		{"empty", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Similar(tt.unknown, keys); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Similar(%q) = %v, want %v", tt.unknown, got, tt.want)
			}
		})
	}
}

func TestSimilarLimitsToThree(t *testing.T) {
	got := Similar("ab", []string{"ab1", "ab2", "ab3", "ab4"})
	if len(got) != 3 {
		t.Fatalf("got %d suggestions, want 3: %v", len(got), got)
	}
}

func TestResolve(t *testing.T) {
	labels := map[string]string{"Gallery": "photos", "Global Desk": "events"}
	if key, ok := Resolve("global desk", labels); !ok || key != "events" {
		t.Errorf("Resolve(global desk) = %q, %v", key, ok)
	}
	if key, ok := Resolve("GALLERY", labels); !ok || key != "photos" {
		t.Errorf("Resolve(GALLERY) = %q, %v", key, ok)
	}
	if _, ok := Resolve("galery", labels); ok {
		t.Error("Resolve matched a misspelled label")
	}
}

func TestHint(t *testing.T) {
	if got := Hint(nil); got != "" {
		t.Errorf("Hint(nil) = %q", got)
	}
	if got := Hint([]string{"ads"}); got != "did you mean ads?" {
		t.Errorf("Hint(one) = %q", got)
	}
	if got := Hint([]string{"ads", "archives"}); got != "did you mean one of: ads, archives?" {
		t.Errorf("Hint(two) = %q", got)
	}
}
