// Package suggest proposes close matches for mistyped names using
// Levenshtein distance.
package suggest

import (
	"sort"
	"strings"
)

func levenshtein(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(
				prev[j]+1,      // deletion
				cur[j-1]+1,     // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(s)
}

// Similar returns up to three candidates close to unknown, best first.
// Case, spaces, dashes and underscores are ignored.
func Similar(unknown string, candidates []string) []string {
	type scored struct {
		name  string
		score int
	}
	u := normalize(unknown)
	if u == "" {
		return nil
	}
	maxDist := max(2, len(u)/3)

	var found []scored
	for _, c := range candidates {
		n := normalize(c)
		dist := levenshtein(u, n)
		if strings.HasPrefix(n, u) || strings.HasPrefix(u, n) {
			dist = min(dist, 1)
		}
		if dist <= maxDist {
			found = append(found, scored{c, dist})
		}
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].score < found[j].score })

	var out []string
	for i := 0; i < len(found) && i < 3; i++ {
		out = append(out, found[i].name)
	}
	return out
}

// Resolve maps a display label to its key when unknown names a label
// exactly (ignoring case and separators). labels maps label to key.
func Resolve(unknown string, labels map[string]string) (string, bool) {
	u := normalize(unknown)
	for label, key := range labels {
		if normalize(label) == u {
			return key, true
		}
	}
	return "", false
}

// Hint formats suggestions for an error message.
func Hint(suggestions []string) string {
	switch len(suggestions) {
	case 0:
		return ""
	case 1:
		return "did you mean " + suggestions[0] + "?"
	default:
		return "did you mean one of: " + strings.Join(suggestions, ", ") + "?"
	}
}
