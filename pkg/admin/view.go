package admin

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mitaan/mitaan/internal/console"
	"github.com/mitaan/mitaan/internal/models"
	"github.com/mitaan/mitaan/internal/output"
	"github.com/mitaan/mitaan/internal/querycache"
	"github.com/mitaan/mitaan/pkg/admin/keymap"
)

// View renders the console.
func (m Model) View() string {
	if m.Width == 0 {
		m.Width, m.Height = 100, 30
	}
	if m.HelpOpen {
		return activePanelStyle.Width(m.Width - 2).Render(m.Keymap.GenerateHelp())
	}

	bodyHeight := max(m.Height-4, 10)
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderSidebar(bodyHeight),
		m.renderMain(bodyHeight),
	)
	return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), body, m.renderFooter())
}

func (m Model) renderHeader() string {
	view := m.Console.View()
	parts := []string{brandStyle.Render("MITAAN") + subtleStyle.Render(" admin "+m.Version)}
	parts = append(parts, titleStyle.Render(view.Label))
	if view.Entity.IsArticle() {
		parts = append(parts, subtleStyle.Render(languageLabel(m.Console.Language())))
	}
	switch {
	case m.Console.Pending():
		parts = append(parts, m.Spinner.View()+" saving")
	case m.Console.Loading():
		parts = append(parts, m.Spinner.View()+" syncing")
	}
	if m.UpdateAvail != nil {
		parts = append(parts, warningStyle.Render("update "+m.UpdateAvail.LatestVersion+" available"))
	}
	return strings.Join(parts, subtleStyle.Render(" │ "))
}

func (m Model) renderSidebar(height int) string {
	var sb strings.Builder
	views := m.Console.Registry().Views()
	active := m.Console.View().Key
	section := ""
	for i, v := range views {
		if v.Section != section {
			section = v.Section
			sb.WriteString(sectionHeader.Render(strings.ToUpper(section)) + "\n")
		}
		label := ansi.Truncate(v.Label, sidebarWidth-6, "…")
		switch {
		case m.Focus == FocusSidebar && i == m.SidebarCursor:
			sb.WriteString(selectedRowStyle.Render("> "+label) + "\n")
		case v.Key == active:
			sb.WriteString(activeViewStyle.Render("• "+label) + "\n")
		default:
			sb.WriteString("  " + label + "\n")
		}
	}

	style := panelStyle
	if m.Focus == FocusSidebar && m.FormState == nil {
		style = activePanelStyle
	}
	return style.Width(sidebarWidth).Height(height).Render(sb.String())
}

func (m Model) renderMain(height int) string {
	width := m.mainWidth()
	var content string
	switch {
	case m.FormState != nil:
		content = m.renderForm(width)
	case m.SearchOpen:
		content = m.renderSearch(width)
	default:
		content = m.renderList(width, height)
	}

	style := panelStyle
	if m.Focus == FocusList || m.FormState != nil {
		style = activePanelStyle
	}
	return style.Width(width).Height(height).Render(content)
}

func (m Model) renderList(width, height int) string {
	var sb strings.Builder
	view := m.Console.View()

	title := panelTitleStyle.Render(view.Label)
	if view.Collection != nil {
		title += subtleStyle.Render(fmt.Sprintf(" %d records", len(m.Rows)))
	}
	if q := m.FilterInput.Value(); q != "" && !m.FilterMode {
		title += subtleStyle.Render("  filter: " + q)
	}
	sb.WriteString(title + "\n")
	if m.FilterMode {
		sb.WriteString(m.FilterInput.View() + "\n")
	}
	if err := m.Console.LoadErr(); err != nil {
		sb.WriteString(errorStyle.Render("Load failed: "+console.Describe(err)) + "\n")
	}
	sb.WriteString("\n")

	switch {
	case len(m.Rows) == 0 && m.Console.Loading():
		sb.WriteString(m.Spinner.View() + " Loading...\n")
	case len(m.Rows) == 0:
		sb.WriteString(subtleStyle.Render("No records") + "\n")
	default:
		visible := m.listHeight()
		if visible == 0 {
			visible = len(m.Rows)
		}
		end := min(m.Offset+visible, len(m.Rows))
		for i := m.Offset; i < end; i++ {
			line := ansi.Truncate(m.Rows[i].Label(), width-4, "…")
			if line == "" {
				line = subtleStyle.Render("(untitled)")
			}
			if i == m.Cursor && m.Focus == FocusList {
				sb.WriteString(selectedRowStyle.Render("> "+line) + "\n")
			} else {
				sb.WriteString("  " + line + "\n")
			}
		}
	}

	if id, ok := m.Console.Confirming(); ok {
		sb.WriteString("\n" + m.renderConfirm(id) + "\n")
		return sb.String()
	}

	if rec := m.selected(); rec != nil {
		key := fmt.Sprintf("%s/%s/%d", view.Key, rec.RecordID(), m.Console.LoadedAt().UnixNano())
		preview := m.preview.render(key, output.RecordMarkdown(rec), width-4)
		used := strings.Count(sb.String(), "\n")
		lines := strings.Split(preview, "\n")
		if room := height - used - 2; room > 0 && len(lines) > room {
			lines = lines[:room]
		}
		sb.WriteString("\n" + strings.Join(lines, "\n"))
	}
	return sb.String()
}

func (m Model) renderConfirm(id string) string {
	label := id
	for _, rec := range m.Console.Items() {
		if rec.RecordID() == id {
			label = rec.Label()
			break
		}
	}
	body := titleStyle.Render("Purge this record?") + "\n\n" +
		label + "\n\n" +
		helpStyle.Render("y confirm   n cancel")
	return confirmStyle.Render(body)
}

func (m Model) renderForm(width int) string {
	fs := m.FormState
	var sb strings.Builder

	title := panelTitleStyle.Render(fs.Title)
	if m.Console.Pending() {
		title += " " + m.Spinner.View() + subtleStyle.Render(" saving")
	}
	sb.WriteString(title + "\n\n")

	if fs.Blocks != nil && fs.BlocksFocused {
		sb.WriteString(fs.Blocks.View(width, true, func(id string) string {
			return fs.blockUploadState(id, m.Spinner.View())
		}))
	} else {
		sb.WriteString(fs.Form.View())
	}

	for _, line := range fs.uploadLines(m.Spinner.View()) {
		sb.WriteString("\n" + line)
	}
	if m.UploadOpen {
		sb.WriteString("\n\n" + titleStyle.Render("Upload image") + "\n" + m.UploadInput.View())
	}
	return sb.String()
}

func (m Model) renderSearch(width int) string {
	var sb strings.Builder
	sb.WriteString(panelTitleStyle.Render("Site search") + "\n\n")
	sb.WriteString(m.SearchInput.View() + "\n\n")

	switch {
	case m.SearchLoading:
		sb.WriteString(m.Spinner.View() + " Searching...\n")
	case errors.Is(m.SearchErr, querycache.ErrDisabled):
		sb.WriteString(subtleStyle.Render("Type at least 3 characters") + "\n")
	case m.SearchErr != nil:
		sb.WriteString(errorStyle.Render("Search failed: "+console.Describe(m.SearchErr)) + "\n")
	case m.SearchResult != nil:
		sb.WriteString(renderSearchResult(m.SearchResult, width-4))
	}
	return sb.String()
}

func renderSearchResult(res *models.SearchResult, width int) string {
	var sb strings.Builder
	sb.WriteString(sectionHeader.Render(fmt.Sprintf("Articles (%d)", len(res.Articles))) + "\n")
	for _, a := range res.Articles {
		line := fmt.Sprintf("%s  %s", a.Title, subtleStyle.Render(a.Category+" · "+a.Language))
		sb.WriteString("  " + ansi.Truncate(line, width, "…") + "\n")
	}
	sb.WriteString(sectionHeader.Render(fmt.Sprintf("Books (%d)", len(res.Books))) + "\n")
	for _, b := range res.Books {
		sb.WriteString("  " + ansi.Truncate(b.Title+" by "+b.Author, width, "…") + "\n")
	}
	return sb.String()
}

func (m Model) renderFooter() string {
	if t := m.Console.Toast(); t != nil {
		if t.Kind == console.ToastError {
			return toastErrorStyle.Render(t.Message)
		}
		return toastSuccessStyle.Render(t.Message)
	}
	if m.StatusMessage != "" {
		if m.StatusIsError {
			return errorStyle.Render(m.StatusMessage)
		}
		return subtleStyle.Render(m.StatusMessage)
	}
	return m.renderHints()
}

// renderHints lists the first bindings of the current context.
func (m Model) renderHints() string {
	ctx := m.currentContext()
	seen := map[keymap.Command]bool{}
	var hints []string
	for _, b := range m.Keymap.BindingsForContext(ctx) {
		if seen[b.Command] || b.Context == keymap.ContextGlobal && b.Command == keymap.CmdQuit {
			continue
		}
		seen[b.Command] = true
		hints = append(hints, b.Key+" "+b.Description)
		if len(hints) == 8 {
			break
		}
	}
	line := strings.Join(hints, "  ")
	if pending := m.Keymap.PendingKey(); pending != "" {
		line = pending + "-  " + line
	}
	return helpStyle.Render(ansi.Truncate(line, max(m.Width, 40), "…"))
}
