// Package admin is the terminal front end of the content console: a
// sidebar of views, a record list with preview, huh forms for create and
// edit, a story block editor and image uploads.
package admin

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mitaan/mitaan/internal/console"
	"github.com/mitaan/mitaan/internal/models"
	"github.com/mitaan/mitaan/internal/upload"
	"github.com/mitaan/mitaan/internal/version"
	"github.com/mitaan/mitaan/pkg/admin/keymap"
	"github.com/sahilm/fuzzy"
	"go.uber.org/zap"
)

// Options configures a Model.
type Options struct {
	Console  *console.Console
	Uploader upload.Uploader
	Keymap   *keymap.Registry
	Logger   *zap.Logger
	Version  string
	// Context bounds every network call started by the UI.
	Context context.Context
}

// Model is the Bubble Tea model of the admin console.
type Model struct {
	Console  *console.Console
	Uploader upload.Uploader
	Keymap   *keymap.Registry
	Logger   *zap.Logger
	Version  string
	ctx      context.Context

	Width  int
	Height int

	Focus         Focus
	SidebarCursor int
	Cursor        int
	Offset        int

	// Rows are the visible records after filtering.
	Rows        []models.Record
	FilterMode  bool
	FilterInput textinput.Model

	FormState *FormState

	// UploadOpen shows the path prompt for UploadTarget.
	UploadOpen   bool
	UploadTarget string
	UploadInput  textinput.Model

	SearchOpen    bool
	SearchInput   textinput.Model
	SearchQuery   string
	SearchResult  *models.SearchResult
	SearchErr     error
	SearchLoading bool

	HelpOpen bool
	Spinner  spinner.Model

	StatusMessage string
	StatusIsError bool

	UpdateAvail *version.UpdateAvailableMsg

	preview *previewCache
}

// New creates the console model.
func New(opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Keymap == nil {
		opts.Keymap = keymap.NewRegistry()
		keymap.RegisterDefaults(opts.Keymap)
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}

	filter := textinput.New()
	filter.Prompt = "/ "
	filter.Placeholder = "filter records"
	filter.CharLimit = 100

	search := textinput.New()
	search.Prompt = "Search: "
	search.Placeholder = "at least 3 characters"
	search.CharLimit = 200

	path := textinput.New()
	path.Prompt = "File: "
	path.Placeholder = "/path/to/image.png"
	path.CharLimit = 1024

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = subtleStyle

	m := Model{
		Console:     opts.Console,
		Uploader:    opts.Uploader,
		Keymap:      opts.Keymap,
		Logger:      opts.Logger,
		Version:     opts.Version,
		ctx:         opts.Context,
		Focus:       FocusList,
		FilterInput: filter,
		SearchInput: search,
		UploadInput: path,
		Spinner:     sp,
		preview:     &previewCache{},
	}
	m.SidebarCursor = m.viewIndex()
	return m
}

// Init starts the first read of the active view.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.startLoad(), m.Spinner.Tick}

	// Start async version check (non-blocking)
	if m.Version != "" && !version.IsDevelopmentVersion(m.Version) {
		cmds = append(cmds, version.CheckAsync(m.Version))
	}

	return tea.Batch(cmds...)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Async results are applied before any mode intercepts them.
	switch msg := msg.(type) {
	case LoadedMsg:
		if m.Console.ApplyLoad(msg.Result) {
			m.refreshRows()
		}
		return m, nil

	case SubmittedMsg:
		return m.handleSubmitted(msg)

	case DeletedMsg:
		reload := m.Console.ApplyDelete(msg.Result)
		if m.FormState != nil && m.Console.Mode() == console.ModeBrowsing {
			m.closeForm()
		}
		cmds := []tea.Cmd{m.toastCmd()}
		if reload {
			cmds = append(cmds, m.startLoad())
		}
		return m, tea.Batch(cmds...)

	case UploadedMsg:
		return m.handleUploaded(msg)

	case SearchResultMsg:
		if msg.Query != m.SearchQuery {
			return m, nil
		}
		m.SearchLoading = false
		m.SearchResult = msg.Result
		m.SearchErr = msg.Err
		return m, nil

	case version.UpdateAvailableMsg:
		m.UpdateAvail = &msg
		return m, nil

	case ClearToastMsg:
		m.Console.DismissToast(msg.ID)
		return m, nil

	case ClearStatusMsg:
		m.StatusMessage = ""
		m.StatusIsError = false
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		if m.FormState != nil {
			m.FormState.Width = m.mainWidth()
			m.FormState.Form = m.FormState.Form.WithWidth(m.FormState.Width)
		}
		return m, nil
	}

	// Form mode: forward everything to huh unless a nested editor owns input
	if m.FormState != nil && !m.HelpOpen && !m.UploadOpen && !m.blocksActive() {
		return m.handleFormUpdate(msg)
	}

	if key, ok := msg.(tea.KeyMsg); ok {
		return m.handleKey(key)
	}

	// Non-key messages (cursor blink) go to the focused input
	return m.updateInputs(msg)
}

func (m Model) blocksActive() bool {
	return m.FormState != nil && m.FormState.Blocks != nil && m.FormState.BlocksFocused
}

// startLoad begins a read of the active view and shows any cached data
// immediately.
func (m *Model) startLoad() tea.Cmd {
	load := m.Console.BeginLoad()
	m.refreshRows()
	ctx := m.ctx
	return func() tea.Msg {
		return LoadedMsg{Result: load.Run(ctx)}
	}
}

// startRefresh forces a network read of the active view.
func (m *Model) startRefresh() tea.Cmd {
	load := m.Console.BeginRefresh()
	m.refreshRows()
	ctx := m.ctx
	return func() tea.Msg {
		return LoadedMsg{Result: load.Run(ctx)}
	}
}

// refreshRows recomputes the visible rows from the console's data and the
// filter.
func (m *Model) refreshRows() {
	var items []models.Record
	if m.Console.View().Singleton != nil {
		if rec := m.Console.Record(); rec != nil {
			items = []models.Record{rec}
		}
	} else {
		items = m.Console.Items()
	}

	query := m.FilterInput.Value()
	if query == "" {
		m.Rows = items
	} else {
		matches := fuzzy.FindFrom(query, recordSource(items))
		rows := make([]models.Record, len(matches))
		for i, match := range matches {
			rows[i] = items[match.Index]
		}
		m.Rows = rows
	}
	m.clampCursor()
}

func (m *Model) clampCursor() {
	if m.Cursor >= len(m.Rows) {
		m.Cursor = len(m.Rows) - 1
	}
	if m.Cursor < 0 {
		m.Cursor = 0
	}
	visible := m.listHeight()
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if visible > 0 && m.Cursor >= m.Offset+visible {
		m.Offset = m.Cursor - visible + 1
	}
}

// selected returns the record under the cursor.
func (m Model) selected() models.Record {
	if m.Cursor < 0 || m.Cursor >= len(m.Rows) {
		return nil
	}
	return m.Rows[m.Cursor]
}

// viewIndex returns the sidebar index of the active view.
func (m Model) viewIndex() int {
	for i, v := range m.Console.Registry().Views() {
		if v.Key == m.Console.View().Key {
			return i
		}
	}
	return 0
}

// toastCmd schedules removal of the visible toast.
func (m Model) toastCmd() tea.Cmd {
	t := m.Console.Toast()
	if t == nil {
		return nil
	}
	id := t.ID
	return tea.Tick(time.Until(t.ExpiresAt), func(time.Time) tea.Msg {
		return ClearToastMsg{ID: id}
	})
}

// setStatus shows a transient status line message.
func (m *Model) setStatus(msg string, isErr bool) tea.Cmd {
	m.StatusMessage = msg
	m.StatusIsError = isErr
	return tea.Tick(2*time.Second, func(time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}

// currentContext returns the keymap context for the current UI state.
func (m Model) currentContext() keymap.Context {
	_, confirming := m.Console.Confirming()
	switch {
	case m.HelpOpen:
		return keymap.ContextHelp
	case m.UploadOpen:
		return keymap.ContextUpload
	case m.blocksActive() && m.FormState.Blocks.Editing:
		return keymap.ContextBlockInput
	case m.blocksActive():
		return keymap.ContextBlocks
	case m.FormState != nil:
		return keymap.ContextForm
	case confirming:
		return keymap.ContextConfirm
	case m.SearchOpen:
		return keymap.ContextSearch
	case m.FilterMode:
		return keymap.ContextFilter
	case m.Focus == FocusSidebar:
		return keymap.ContextSidebar
	default:
		return keymap.ContextList
	}
}

// CurrentContextString returns the current keymap context as a string.
func (m Model) CurrentContextString() string {
	return string(m.currentContext())
}

func (m Model) mainWidth() int {
	w := m.Width - sidebarWidth - 4
	if w < 30 {
		w = 30
	}
	return w
}

func (m Model) listHeight() int {
	if m.Height == 0 {
		return 0
	}
	h := (m.Height - 8) / 2
	if h < 3 {
		h = 3
	}
	return h
}
