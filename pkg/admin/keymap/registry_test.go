package keymap

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestLookup(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	tests := []struct {
		name    string
		key     tea.KeyMsg
		context Context
		want    Command
		found   bool
	}{
		{"new record in list", runes("n"), ContextList, CmdNewRecord, true},
		{"delete in list", runes("x"), ContextList, CmdDeleteRecord, true},
		{"submit in form", tea.KeyMsg{Type: tea.KeyCtrlS}, ContextForm, CmdFormSubmit, true},
		{"cancel in form", tea.KeyMsg{Type: tea.KeyEsc}, ContextForm, CmdFormCancel, true},
		{"q is not bound in form", runes("q"), ContextForm, "", false},
		{"global help from form", runes("?"), ContextForm, CmdToggleHelp, true},
		{"confirm with y", runes("y"), ContextConfirm, CmdConfirm, true},
		{"move block up", runes("K"), ContextBlocks, CmdBlockMoveUp, true},
		{"ctrl+c quits anywhere", tea.KeyMsg{Type: tea.KeyCtrlC}, ContextUpload, CmdQuit, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := r.Lookup(tt.key, tt.context)
			if got != tt.want || found != tt.found {
				t.Errorf("Lookup() = %q, %v; want %q, %v", got, found, tt.want, tt.found)
			}
		})
	}
}

func TestKeySequence(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)

	if _, found := r.Lookup(runes("g"), ContextList); found {
		t.Fatal("first g resolved early")
	}
	if r.PendingKey() != "g" {
		t.Errorf("PendingKey() = %q", r.PendingKey())
	}
	cmd, found := r.Lookup(runes("g"), ContextList)
	if !found || cmd != CmdCursorTop {
		t.Errorf("g g = %q, %v", cmd, found)
	}
}

func TestKeySequenceTimeout(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	r.Lookup(runes("g"), ContextList)
	now = now.Add(sequenceTimeout)
	if r.PendingKey() != "" {
		t.Errorf("PendingKey() = %q after timeout", r.PendingKey())
	}
	if cmd, found := r.Lookup(runes("g"), ContextList); found {
		t.Errorf("stale g g resolved to %q", cmd)
	}
	if r.PendingKey() != "g" {
		t.Error("second g should start a new sequence")
	}
}

func TestOverrideScopedToContext(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)
	r.SetUserOverride(ContextList, "n", CmdRefresh)

	if cmd, _ := r.Lookup(runes("n"), ContextList); cmd != CmdRefresh {
		t.Errorf("list n = %q, want override", cmd)
	}
	if cmd, found := r.Lookup(runes("n"), ContextConfirm); found && cmd == CmdRefresh {
		t.Error("list override leaked into confirm context")
	}
}

func TestKeyToString(t *testing.T) {
	tests := []struct {
		key  tea.KeyMsg
		want string
	}{
		{tea.KeyMsg{Type: tea.KeyTab}, "tab"},
		{tea.KeyMsg{Type: tea.KeyShiftTab}, "shift+tab"},
		{runes("K"), "K"},
		{tea.KeyMsg{Type: tea.KeyCtrlS}, "ctrl+s"},
	}
	for _, tt := range tests {
		if got := KeyToString(tt.key); got != tt.want {
			t.Errorf("KeyToString(%v) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestUserOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keymap.yaml")
	data := "bindings:\n  \"list:ctrl+n\": new-record\n  ctrl+q: quit\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}

	r := NewRegistry()
	RegisterDefaults(r)
	ApplyConfig(r, cfg)

	if cmd, _ := r.Lookup(tea.KeyMsg{Type: tea.KeyCtrlN}, ContextList); cmd != CmdNewRecord {
		t.Errorf("ctrl+n = %q", cmd)
	}
	if cmd, _ := r.Lookup(tea.KeyMsg{Type: tea.KeyCtrlQ}, ContextForm); cmd != CmdQuit {
		t.Errorf("ctrl+q = %q", cmd)
	}
}

func TestLoadConfigMissing(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "none.yaml"))
	if err != nil || len(cfg.Bindings) != 0 {
		t.Errorf("LoadConfig() = %+v, %v", cfg, err)
	}
}

func TestGenerateHelp(t *testing.T) {
	r := NewRegistry()
	RegisterDefaults(r)
	help := r.GenerateHelp()
	for _, want := range []string{"STORY BLOCKS", "j / down", "Delete record"} {
		if !strings.Contains(help, want) {
			t.Errorf("help missing %q", want)
		}
	}
}
