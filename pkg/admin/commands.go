package admin

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/mitaan/mitaan/internal/console"
	"github.com/mitaan/mitaan/internal/registry"
	"github.com/mitaan/mitaan/internal/storyblocks"
	"github.com/mitaan/mitaan/internal/upload"
	"github.com/mitaan/mitaan/pkg/admin/keymap"
	"go.uber.org/zap"
)

// handleFormUpdate handles all messages when the form is open
func (m Model) handleFormUpdate(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Handle our custom key bindings first
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if cmd, found := m.Keymap.Lookup(keyMsg, keymap.ContextForm); found {
			switch cmd {
			case keymap.CmdFormSubmit, keymap.CmdFormCancel, keymap.CmdFormUpload,
				keymap.CmdFormToggleBlock, keymap.CmdQuit:
				return m.executeCommand(cmd)
			}
		}
	}

	// Forward message to huh form
	form, cmd := m.FormState.Form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.FormState.Form = f
	}

	// Check if form completed (user pressed enter on last field)
	if m.FormState.Form.State == huh.StateCompleted {
		return m.submitForm()
	}

	return m, cmd
}

// handleKey processes key input using the centralized keymap registry
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ctx := m.currentContext()

	// Text inputs get every key except their own confirm/cancel bindings
	switch ctx {
	case keymap.ContextFilter, keymap.ContextSearch, keymap.ContextUpload, keymap.ContextBlockInput:
		if cmd, ok := m.Keymap.Lookup(msg, ctx); ok && isInputCommand(cmd) {
			return m.executeCommand(cmd)
		}
		return m.updateInputs(msg)
	}

	cmd, ok := m.Keymap.Lookup(msg, ctx)
	if !ok {
		return m, nil
	}
	return m.executeCommand(cmd)
}

func needsForm(cmd keymap.Command) bool {
	switch cmd {
	case keymap.CmdFormSubmit, keymap.CmdFormCancel, keymap.CmdFormUpload, keymap.CmdFormToggleBlock:
		return true
	}
	return needsBlocks(cmd)
}

func needsBlocks(cmd keymap.Command) bool {
	switch cmd {
	case keymap.CmdBlockAddText, keymap.CmdBlockAddImage, keymap.CmdBlockRemove,
		keymap.CmdBlockMoveUp, keymap.CmdBlockMoveDown, keymap.CmdBlockEdit,
		keymap.CmdBlockUpload, keymap.CmdBlockEditDone, keymap.CmdBlockEditAbort:
		return true
	}
	return false
}

func isInputCommand(cmd keymap.Command) bool {
	switch cmd {
	case keymap.CmdInputConfirm, keymap.CmdInputCancel, keymap.CmdQuit,
		keymap.CmdBlockEditDone, keymap.CmdBlockEditAbort:
		return true
	}
	return false
}

// updateInputs forwards a message to whichever text input is focused.
func (m Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch {
	case m.UploadOpen:
		m.UploadInput, cmd = m.UploadInput.Update(msg)
	case m.blocksActive() && m.FormState.Blocks.Editing:
		cmd = m.FormState.Blocks.Update(msg)
	case m.SearchOpen:
		m.SearchInput, cmd = m.SearchInput.Update(msg)
	case m.FilterMode:
		before := m.FilterInput.Value()
		m.FilterInput, cmd = m.FilterInput.Update(msg)
		if m.FilterInput.Value() != before {
			m.Cursor = 0
			m.Offset = 0
			m.refreshRows()
		}
	}
	return m, cmd
}

// executeCommand runs a keymap command in the current context
func (m Model) executeCommand(cmd keymap.Command) (tea.Model, tea.Cmd) {
	ctx := m.currentContext()

	// User overrides may bind form and block commands anywhere
	if needsForm(cmd) && m.FormState == nil {
		return m, nil
	}
	if needsBlocks(cmd) && !m.blocksActive() {
		return m, nil
	}

	switch cmd {
	case keymap.CmdQuit:
		if m.FormState != nil {
			m.FormState.abortUploads()
		}
		return m, tea.Quit

	case keymap.CmdToggleHelp:
		m.HelpOpen = !m.HelpOpen
		return m, nil

	case keymap.CmdRefresh:
		load := m.startRefresh()
		return m, load

	case keymap.CmdFocusNext:
		if m.Focus == FocusSidebar {
			m.Focus = FocusList
		} else {
			m.Focus = FocusSidebar
			m.SidebarCursor = m.viewIndex()
		}
		return m, nil

	case keymap.CmdCursorDown, keymap.CmdCursorUp:
		delta := 1
		if cmd == keymap.CmdCursorUp {
			delta = -1
		}
		switch ctx {
		case keymap.ContextSidebar:
			n := len(m.Console.Registry().Views())
			m.SidebarCursor = min(max(m.SidebarCursor+delta, 0), n-1)
		case keymap.ContextBlocks:
			if delta > 0 {
				m.FormState.Blocks.CursorDown()
			} else {
				m.FormState.Blocks.CursorUp()
			}
		default:
			m.Cursor += delta
			m.clampCursor()
		}
		return m, nil

	case keymap.CmdCursorTop:
		m.Cursor = 0
		m.clampCursor()
		return m, nil

	case keymap.CmdCursorBottom:
		m.Cursor = len(m.Rows) - 1
		m.clampCursor()
		return m, nil

	case keymap.CmdHalfPageDown, keymap.CmdHalfPageUp:
		step := max(m.listHeight()/2, 1)
		if cmd == keymap.CmdHalfPageUp {
			step = -step
		}
		m.Cursor += step
		m.clampCursor()
		return m, nil

	case keymap.CmdSelect:
		views := m.Console.Registry().Views()
		if m.SidebarCursor < 0 || m.SidebarCursor >= len(views) {
			return m, nil
		}
		return m.selectView(views[m.SidebarCursor].Key)

	case keymap.CmdBack:
		if m.FilterInput.Value() != "" {
			m.FilterInput.SetValue("")
			m.refreshRows()
			return m, nil
		}
		m.Focus = FocusSidebar
		m.SidebarCursor = m.viewIndex()
		return m, nil

	case keymap.CmdNewRecord:
		if err := m.Console.OpenCreate(); err != nil {
			status := m.setStatus("New records cannot be created in "+m.Console.View().Label, true)
			return m, status
		}
		init := m.openForm()
		return m, init

	case keymap.CmdEditRecord:
		id := ""
		if rec := m.selected(); rec != nil {
			id = rec.RecordID()
		}
		if err := m.Console.OpenEdit(id); err != nil {
			msg := "Nothing to edit"
			if errors.Is(err, console.ErrUnsupported) {
				msg = m.Console.View().Label + " are read-only"
			}
			status := m.setStatus(msg, true)
			return m, status
		}
		init := m.openForm()
		return m, init

	case keymap.CmdDeleteRecord:
		rec := m.selected()
		if rec == nil {
			return m, nil
		}
		if err := m.Console.RequestDelete(rec.RecordID()); err != nil {
			status := m.setStatus(m.Console.View().Label+" cannot be deleted", true)
			return m, status
		}
		return m, nil

	case keymap.CmdConfirm:
		del, err := m.Console.BeginDelete()
		if err != nil {
			status := m.setStatus("Delete already in progress", true)
			return m, status
		}
		ctx := m.ctx
		return m, func() tea.Msg {
			return DeletedMsg{Result: del.Run(ctx)}
		}

	case keymap.CmdCancel:
		m.Console.CancelDelete()
		return m, nil

	case keymap.CmdFilter:
		m.FilterMode = true
		m.FilterInput.Focus()
		return m, textinput.Blink

	case keymap.CmdSiteSearch:
		m.SearchOpen = true
		m.SearchInput.Focus()
		return m, textinput.Blink

	case keymap.CmdCycleLanguage:
		if !m.Console.View().Entity.IsArticle() {
			status := m.setStatus("The language filter applies to articles only", true)
			return m, status
		}
		next := languages[0]
		for i, lang := range languages {
			if lang == m.Console.Language() {
				next = languages[(i+1)%len(languages)]
			}
		}
		m.Console.SetLanguage(next)
		status := m.setStatus("Showing "+languageLabel(next), false)
		load := m.startLoad()
		return m, tea.Batch(status, load)

	case keymap.CmdFormSubmit:
		return m.submitForm()

	case keymap.CmdFormCancel:
		m.Console.Cancel()
		m.closeForm()
		return m, nil

	case keymap.CmdFormUpload:
		if imageField(m.FormState.Draft) == nil {
			status := m.setStatus("This form has no image field", true)
			return m, status
		}
		return m.openUploadPrompt(imageTarget)

	case keymap.CmdFormToggleBlock:
		fs := m.FormState
		if fs == nil || fs.Blocks == nil {
			status := m.setStatus("Only stories are edited as blocks", true)
			return m, status
		}
		if fs.Blocks.Editing {
			fs.Blocks.AbortEdit()
		}
		fs.BlocksFocused = !fs.BlocksFocused
		if !fs.BlocksFocused {
			// Refresh the block count note.
			fs.buildForm()
			return m, fs.Form.Init()
		}
		return m, nil

	case keymap.CmdBlockAddText:
		m.FormState.Blocks.AddText()
		return m, nil

	case keymap.CmdBlockAddImage:
		m.FormState.Blocks.AddImage()
		return m, nil

	case keymap.CmdBlockRemove:
		if err := m.FormState.Blocks.Remove(); err != nil {
			msg := "Cannot remove block"
			if errors.Is(err, storyblocks.ErrLastBlock) {
				msg = "A story keeps at least one block"
			}
			status := m.setStatus(msg, true)
			return m, status
		}
		return m, nil

	case keymap.CmdBlockMoveUp:
		m.FormState.Blocks.MoveUp()
		return m, nil

	case keymap.CmdBlockMoveDown:
		m.FormState.Blocks.MoveDown()
		return m, nil

	case keymap.CmdBlockEdit:
		return m, m.FormState.Blocks.StartEdit(m.mainWidth())

	case keymap.CmdBlockUpload:
		blk, ok := m.FormState.Blocks.Selected()
		if !ok || blk.Type != storyblocks.TypeImage {
			status := m.setStatus("Select an image block to upload into", true)
			return m, status
		}
		return m.openUploadPrompt(blockTargetPrefix + blk.ID)

	case keymap.CmdBlockEditDone:
		if err := m.FormState.Blocks.FinishEdit(); err != nil {
			status := m.setStatus("The block was removed while editing", true)
			return m, status
		}
		return m, nil

	case keymap.CmdBlockEditAbort:
		m.FormState.Blocks.AbortEdit()
		return m, nil

	case keymap.CmdInputConfirm:
		switch ctx {
		case keymap.ContextFilter:
			m.FilterMode = false
			m.FilterInput.Blur()
			return m, nil
		case keymap.ContextSearch:
			return m.runSearch()
		case keymap.ContextUpload:
			return m.startUpload()
		}
		return m, nil

	case keymap.CmdInputCancel:
		switch ctx {
		case keymap.ContextFilter:
			m.FilterMode = false
			m.FilterInput.Blur()
			m.FilterInput.SetValue("")
			m.refreshRows()
		case keymap.ContextSearch:
			m.SearchOpen = false
			m.SearchInput.Blur()
		case keymap.ContextUpload:
			m.UploadOpen = false
			m.UploadInput.Blur()
		}
		return m, nil
	}

	return m, nil
}

// selectView switches the console to another view and loads it.
func (m Model) selectView(key registry.ViewKey) (tea.Model, tea.Cmd) {
	if err := m.Console.SelectView(key); err != nil {
		return m, nil
	}
	m.closeForm()
	m.Focus = FocusList
	m.SidebarCursor = m.viewIndex()
	m.Cursor = 0
	m.Offset = 0
	m.FilterMode = false
	m.FilterInput.Blur()
	m.FilterInput.SetValue("")
	load := m.startLoad()
	return m, load
}

// openForm builds the form over the console's draft.
func (m *Model) openForm() tea.Cmd {
	m.FormState = NewFormState(m.Console.View(), m.Console.Mode(), m.Console.Draft(), m.mainWidth(), m.Logger)
	return m.FormState.Form.Init()
}

// closeForm discards the form and cancels its uploads.
func (m *Model) closeForm() {
	if m.FormState != nil {
		m.FormState.abortUploads()
	}
	m.FormState = nil
	m.UploadOpen = false
	m.UploadInput.Blur()
}

// submitForm validates and writes the draft.
func (m Model) submitForm() (tea.Model, tea.Cmd) {
	fs := m.FormState
	if fs == nil {
		return m, nil
	}
	fs.flush()

	sub, err := m.Console.BeginSubmit()
	if err != nil {
		if errors.Is(err, console.ErrBusy) {
			status := m.setStatus("Save already in progress", false)
			return m, status
		}
		// Validation failed: the toast is up and the draft is intact.
		fs.buildForm()
		return m, tea.Batch(fs.Form.Init(), m.toastCmd())
	}

	ctx := m.ctx
	return m, func() tea.Msg {
		return SubmittedMsg{Result: sub.Run(ctx)}
	}
}

func (m Model) handleSubmitted(msg SubmittedMsg) (tea.Model, tea.Cmd) {
	reload := m.Console.ApplySubmit(msg.Result)
	cmds := []tea.Cmd{m.toastCmd()}

	if fs := m.FormState; fs != nil {
		if m.Console.Mode() == console.ModeBrowsing {
			m.closeForm()
		} else if fs.Form.State != huh.StateNormal {
			// Enter on the last field completed the form; reopen it so the
			// draft can be corrected.
			fs.buildForm()
			cmds = append(cmds, fs.Form.Init())
		}
	}
	if reload {
		cmds = append(cmds, m.startLoad())
	}
	return m, tea.Batch(cmds...)
}

// openUploadPrompt asks for the path of a file to upload into target.
func (m Model) openUploadPrompt(target string) (tea.Model, tea.Cmd) {
	m.UploadOpen = true
	m.UploadTarget = target
	m.UploadInput.SetValue("")
	m.UploadInput.Focus()
	return m, textinput.Blink
}

// startUpload begins uploading the file named in the prompt.
func (m Model) startUpload() (tea.Model, tea.Cmd) {
	path := expandHome(strings.TrimSpace(m.UploadInput.Value()))
	m.UploadOpen = false
	m.UploadInput.Blur()
	if path == "" || m.FormState == nil {
		return m, nil
	}

	field, ok := m.FormState.uploadField(m.UploadTarget)
	if !ok {
		status := m.setStatus("The upload target no longer exists", true)
		return m, status
	}
	ticket := field.Begin(m.ctx, m.Uploader, path)
	target := m.UploadTarget
	gen := m.FormState.gen
	return m, func() tea.Msg {
		return UploadedMsg{Form: gen, Target: target, Result: ticket.Run()}
	}
}

func (m Model) handleUploaded(msg UploadedMsg) (tea.Model, tea.Cmd) {
	fs := m.FormState
	if fs == nil || fs.gen != msg.Form {
		m.Logger.Debug("discarding upload for a closed form", zap.String("target", msg.Target))
		return m, nil
	}
	field := fs.Uploads[msg.Target]
	if field == nil || !field.Resolve(msg.Result) {
		return m, nil
	}
	if field.State() == upload.StateDone && fs.applyUpload(msg.Target, field.Value()) {
		fs.buildForm()
		return m, fs.Form.Init()
	}
	return m, nil
}

// runSearch starts a site search for the prompt's query.
func (m Model) runSearch() (tea.Model, tea.Cmd) {
	q := strings.TrimSpace(m.SearchInput.Value())
	m.SearchQuery = q
	m.SearchLoading = true
	m.SearchErr = nil
	search := m.Console.BeginSearch(q, m.Console.Language())
	ctx := m.ctx
	return m, func() tea.Msg {
		res, err := search(ctx)
		return SearchResultMsg{Query: q, Result: res, Err: err}
	}
}

func expandHome(path string) string {
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, rest)
		}
	}
	return path
}
