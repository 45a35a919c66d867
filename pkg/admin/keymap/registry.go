// Package keymap maps key presses to console commands per UI context. Users
// may override bindings in keymap.yaml.
package keymap

import (
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const sequenceTimeout = 500 * time.Millisecond

// Context represents a UI context for keybindings
type Context string

const (
	ContextGlobal     Context = "global"
	ContextSidebar    Context = "sidebar"     // Sidebar of views focused
	ContextList       Context = "list"        // Record list focused
	ContextForm       Context = "form"        // Create/edit form open
	ContextBlocks     Context = "blocks"      // Story block editor focused inside a form
	ContextBlockInput Context = "block-input" // Editing the value of one block
	ContextConfirm    Context = "confirm"     // Delete confirmation overlay
	ContextFilter     Context = "filter"      // List filter input
	ContextSearch     Context = "search"      // Site search panel
	ContextUpload     Context = "upload"      // Upload path prompt
	ContextHelp       Context = "help"
)

// Command represents a named command that can be triggered by key bindings
type Command string

const (
	// Global commands
	CmdQuit       Command = "quit"
	CmdToggleHelp Command = "toggle-help"
	CmdRefresh    Command = "refresh"

	// Navigation
	CmdFocusNext    Command = "focus-next"
	CmdCursorDown   Command = "cursor-down"
	CmdCursorUp     Command = "cursor-up"
	CmdCursorTop    Command = "cursor-top"
	CmdCursorBottom Command = "cursor-bottom"
	CmdHalfPageDown Command = "half-page-down"
	CmdHalfPageUp   Command = "half-page-up"
	CmdSelect       Command = "select"
	CmdBack         Command = "back"

	// Record actions
	CmdNewRecord     Command = "new-record"
	CmdEditRecord    Command = "edit-record"
	CmdDeleteRecord  Command = "delete-record"
	CmdFilter        Command = "filter"
	CmdSiteSearch    Command = "site-search"
	CmdCycleLanguage Command = "cycle-language"

	// Confirmation
	CmdConfirm Command = "confirm"
	CmdCancel  Command = "cancel"

	// Form
	CmdFormSubmit      Command = "form-submit"
	CmdFormCancel      Command = "form-cancel"
	CmdFormUpload      Command = "form-upload"
	CmdFormToggleBlock Command = "form-toggle-blocks"

	// Block editor
	CmdBlockAddText   Command = "block-add-text"
	CmdBlockAddImage  Command = "block-add-image"
	CmdBlockRemove    Command = "block-remove"
	CmdBlockMoveUp    Command = "block-move-up"
	CmdBlockMoveDown  Command = "block-move-down"
	CmdBlockEdit      Command = "block-edit"
	CmdBlockUpload    Command = "block-upload"
	CmdBlockEditDone  Command = "block-edit-done"
	CmdBlockEditAbort Command = "block-edit-abort"

	// Text inputs
	CmdInputConfirm Command = "input-confirm"
	CmdInputCancel  Command = "input-cancel"
)

// Binding maps a key or key sequence to a command in a specific context
type Binding struct {
	Key         string  // e.g., "tab", "ctrl+d", "g g"
	Command     Command // Command ID
	Context     Context
	Description string // Human-readable description for help text
}

// Registry resolves key presses to commands. A context's own table is
// consulted before the global one, and user overrides shadow defaults in
// both.
type Registry struct {
	mu        sync.RWMutex
	bindings  map[Context][]Binding
	overrides map[Context]map[string]Command

	pending   string
	pendingAt time.Time
	now       func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		bindings:  make(map[Context][]Binding),
		overrides: make(map[Context]map[string]Command),
		now:       time.Now,
	}
}

// RegisterBinding adds a default binding.
func (r *Registry) RegisterBinding(b Binding) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bindings[b.Context] = append(r.bindings[b.Context], b)
}

// RegisterBindings adds several default bindings.
func (r *Registry) RegisterBindings(bindings []Binding) {
	for _, b := range bindings {
		r.RegisterBinding(b)
	}
}

// SetUserOverride binds key to cmd in ctx ahead of the defaults.
func (r *Registry) SetUserOverride(ctx Context, key string, cmd Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.overrides[ctx] == nil {
		r.overrides[ctx] = make(map[string]Command)
	}
	r.overrides[ctx][key] = cmd
}

// Lookup returns the command bound to key in ctx. The first key of a
// multi-key sequence resolves to nothing and is held for sequenceTimeout.
func (r *Registry) Lookup(key tea.KeyMsg, ctx Context) (Command, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := KeyToString(key)
	if prev := r.takePending(); prev != "" {
		if cmd, ok := r.resolve(prev+" "+k, ctx); ok {
			return cmd, true
		}
	}
	if r.startsSequence(k, ctx) {
		r.pending = k
		r.pendingAt = r.now()
		return "", false
	}
	return r.resolve(k, ctx)
}

// takePending clears the held key and returns it if it is still fresh.
func (r *Registry) takePending() string {
	prev := r.pending
	r.pending = ""
	if prev == "" || r.now().Sub(r.pendingAt) >= sequenceTimeout {
		return ""
	}
	return prev
}

func chain(ctx Context) []Context {
	if ctx == "" || ctx == ContextGlobal {
		return []Context{ContextGlobal}
	}
	return []Context{ctx, ContextGlobal}
}

func (r *Registry) resolve(key string, ctx Context) (Command, bool) {
	contexts := chain(ctx)
	for _, c := range contexts {
		if cmd, ok := r.overrides[c][key]; ok {
			return cmd, true
		}
	}
	for _, c := range contexts {
		for _, b := range r.bindings[c] {
			if b.Key == key {
				return b.Command, true
			}
		}
	}
	return "", false
}

func (r *Registry) startsSequence(key string, ctx Context) bool {
	prefix := key + " "
	for _, c := range chain(ctx) {
		for _, b := range r.bindings[c] {
			if strings.HasPrefix(b.Key, prefix) {
				return true
			}
		}
		for k := range r.overrides[c] {
			if strings.HasPrefix(k, prefix) {
				return true
			}
		}
	}
	return false
}

// PendingKey returns the held first key of a sequence, for the footer.
func (r *Registry) PendingKey() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.pending == "" || r.now().Sub(r.pendingAt) >= sequenceTimeout {
		return ""
	}
	return r.pending
}

// BindingsForContext returns the default bindings of ctx followed by the
// global ones.
func (r *Registry) BindingsForContext(ctx Context) []Binding {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Binding
	for _, c := range chain(ctx) {
		out = append(out, r.bindings[c]...)
	}
	return out
}

var keyNames = map[tea.KeyType]string{
	tea.KeyTab:       "tab",
	tea.KeyEnter:     "enter",
	tea.KeyEsc:       "esc",
	tea.KeySpace:     "space",
	tea.KeyBackspace: "backspace",
	tea.KeyUp:        "up",
	tea.KeyDown:      "down",
	tea.KeyLeft:      "left",
	tea.KeyRight:     "right",
	tea.KeyHome:      "home",
	tea.KeyEnd:       "end",
	tea.KeyShiftTab:  "shift+tab",
}

// KeyToString names a key press the way bindings spell it.
func KeyToString(key tea.KeyMsg) string {
	if name, ok := keyNames[key.Type]; ok {
		return name
	}
	if key.Type == tea.KeyRunes {
		return string(key.Runes)
	}
	// ctrl+ combinations and the rest already print as "ctrl+s" etc.
	return key.String()
}
