package storyblocks

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"testing"
)

func counterIDs() IDFunc {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("b%d", n)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []Block
	}{
		{"empty", "", []Block{{ID: "b1", Type: TypeText}}},
		{"whitespace", "  \n", []Block{{ID: "b1", Type: TypeText}}},
		{"empty array", "[]", []Block{{ID: "b1", Type: TypeText}}},
		{"null", "null", []Block{{ID: "b1", Type: TypeText}}},
		{
			"legacy html kept",
			"<p>old story</p>",
			[]Block{{ID: "b1", Type: TypeText, Value: "<p>old story</p>"}},
		},
		{
			"object is not a block list",
			`{"type":"text"}`,
			[]Block{{ID: "b1", Type: TypeText, Value: `{"type":"text"}`}},
		},
		{
			"well formed",
			`[{"id":"x","type":"text","value":"<p>a</p>"},{"id":"y","type":"image","value":"http://img"}]`,
			[]Block{{ID: "x", Type: TypeText, Value: "<p>a</p>"}, {ID: "y", Type: TypeImage, Value: "http://img"}},
		},
		{
			"missing and duplicate ids replaced",
			`[{"type":"text","value":"a"},{"id":"d","type":"text"},{"id":"d","type":"image"}]`,
			[]Block{{ID: "b1", Type: TypeText, Value: "a"}, {ID: "d", Type: TypeText}, {ID: "b2", Type: TypeImage}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.content, counterIDs())
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.content, got, tt.want)
			}
		})
	}
}

func TestParseSerializeRoundTrip(t *testing.T) {
	inputs := [][]Block{
		{{ID: "1", Type: TypeText, Value: "<p>hello</p>"}},
		{{ID: "1", Type: TypeText}, {ID: "2", Type: TypeImage, Value: "https://cdn/x.png"}},
		{{ID: "a", Type: TypeImage}, {ID: "b", Type: TypeText, Value: `quotes " and \ slashes`}},
	}
	for i, in := range inputs {
		got := Parse(Serialize(in), counterIDs())
		if !reflect.DeepEqual(got, in) {
			t.Errorf("case %d: round trip = %+v, want %+v", i, got, in)
		}
	}
}

func TestEditorAppendUpdateSerialize(t *testing.T) {
	var stored string
	e := NewEditor("", counterIDs(), func(s string) { stored = s })

	img := e.AppendImage()
	if err := e.Update(img, "http://img"); err != nil {
		t.Fatalf("Update: %v", err)
	}

	var decoded []map[string]string
	if err := json.Unmarshal([]byte(stored), &decoded); err != nil {
		t.Fatalf("stored content is not JSON: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("got %d blocks, want 2", len(decoded))
	}
	if decoded[0]["type"] != "text" || decoded[0]["value"] != "" {
		t.Errorf("block 0 = %v", decoded[0])
	}
	if decoded[1]["type"] != "image" || decoded[1]["value"] != "http://img" {
		t.Errorf("block 1 = %v", decoded[1])
	}
	if stored != e.Content() {
		t.Error("onChange content differs from Content()")
	}
}

func TestEditorMoveBoundaries(t *testing.T) {
	e := NewEditor(`[{"id":"a","type":"text"},{"id":"b","type":"text"},{"id":"c","type":"image"}]`, counterIDs(), nil)

	if e.MoveUp(0) {
		t.Error("MoveUp(0) should be a no-op")
	}
	if e.MoveDown(2) {
		t.Error("MoveDown(last) should be a no-op")
	}
	if e.MoveUp(5) || e.MoveDown(-1) {
		t.Error("out of range moves should be no-ops")
	}
	assertOrder(t, e, "a", "b", "c")

	if !e.MoveDown(0) {
		t.Fatal("MoveDown(0) should move")
	}
	assertOrder(t, e, "b", "a", "c")

	if !e.MoveUp(2) {
		t.Fatal("MoveUp(2) should move")
	}
	assertOrder(t, e, "b", "c", "a")
}

func TestEditorRemove(t *testing.T) {
	changes := 0
	e := NewEditor(`[{"id":"a","type":"text"},{"id":"b","type":"image"},{"id":"c","type":"text"}]`, counterIDs(), func(string) { changes++ })

	if err := e.Remove("b"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	assertOrder(t, e, "a", "c")

	if err := e.Remove("zzz"); !errors.Is(err, ErrBlockNotFound) {
		t.Errorf("Remove(unknown) = %v, want ErrBlockNotFound", err)
	}
	if err := e.Remove("a"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := e.Remove("c"); !errors.Is(err, ErrLastBlock) {
		t.Errorf("Remove(last) = %v, want ErrLastBlock", err)
	}
	assertOrder(t, e, "c")
	if changes != 2 {
		t.Errorf("onChange called %d times, want 2", changes)
	}
}

func TestEditorIDsNotReused(t *testing.T) {
	e := NewEditor("", nil, nil)
	seen := map[string]bool{}
	for _, b := range e.Blocks() {
		seen[b.ID] = true
	}
	for i := 0; i < 20; i++ {
		id := e.AppendText()
		if seen[id] {
			t.Fatalf("id %q reused", id)
		}
		seen[id] = true
		if i%2 == 0 {
			if err := e.Remove(id); err != nil {
				t.Fatalf("Remove: %v", err)
			}
		}
	}
}

func TestEditorLegacyContentStaysEditable(t *testing.T) {
	var stored string
	e := NewEditor("<p>legacy</p>", counterIDs(), func(s string) { stored = s })
	blocks := e.Blocks()
	if len(blocks) != 1 || blocks[0].Value != "<p>legacy</p>" {
		t.Fatalf("blocks = %+v", blocks)
	}
	if err := e.Update(blocks[0].ID, "<p>legacy, revised</p>"); err != nil {
		t.Fatal(err)
	}
	if got := Parse(stored, counterIDs())[0].Value; got != "<p>legacy, revised</p>" {
		t.Errorf("stored value = %q", got)
	}
}

func assertOrder(t *testing.T, e *Editor, ids ...string) {
	t.Helper()
	blocks := e.Blocks()
	got := make([]string, len(blocks))
	for i, b := range blocks {
		got[i] = b.ID
	}
	if !reflect.DeepEqual(got, ids) {
		t.Errorf("order = %v, want %v", got, ids)
	}
}
