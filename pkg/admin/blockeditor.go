package admin

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/mitaan/mitaan/internal/richtext"
	"github.com/mitaan/mitaan/internal/storyblocks"
)

// BlockEditor is the terminal front end of a story's block list.
type BlockEditor struct {
	Editor *storyblocks.Editor
	Cursor int

	// Editing is set while the value of one block is open in Input.
	Editing bool
	EditID  string
	Input   *textarea.Model
}

// NewBlockEditor wraps ed with the cursor on the first block.
func NewBlockEditor(ed *storyblocks.Editor) *BlockEditor {
	return &BlockEditor{Editor: ed}
}

// Len returns the number of blocks.
func (b *BlockEditor) Len() int { return b.Editor.Len() }

// Find returns the block with id.
func (b *BlockEditor) Find(id string) (storyblocks.Block, bool) {
	for _, blk := range b.Editor.Blocks() {
		if blk.ID == id {
			return blk, true
		}
	}
	return storyblocks.Block{}, false
}

// Index returns the position of the block with id, or -1.
func (b *BlockEditor) Index(id string) int {
	for i, blk := range b.Editor.Blocks() {
		if blk.ID == id {
			return i
		}
	}
	return -1
}

// Selected returns the block under the cursor.
func (b *BlockEditor) Selected() (storyblocks.Block, bool) {
	blocks := b.Editor.Blocks()
	if b.Cursor < 0 || b.Cursor >= len(blocks) {
		return storyblocks.Block{}, false
	}
	return blocks[b.Cursor], true
}

func (b *BlockEditor) clamp() {
	if b.Cursor >= b.Len() {
		b.Cursor = b.Len() - 1
	}
	if b.Cursor < 0 {
		b.Cursor = 0
	}
}

// CursorDown moves to the next block.
func (b *BlockEditor) CursorDown() {
	b.Cursor++
	b.clamp()
}

// CursorUp moves to the previous block.
func (b *BlockEditor) CursorUp() {
	b.Cursor--
	b.clamp()
}

// AddText appends a text block and selects it.
func (b *BlockEditor) AddText() {
	b.Editor.AppendText()
	b.Cursor = b.Len() - 1
}

// AddImage appends an image block and selects it.
func (b *BlockEditor) AddImage() {
	b.Editor.AppendImage()
	b.Cursor = b.Len() - 1
}

// Remove deletes the selected block.
func (b *BlockEditor) Remove() error {
	blk, ok := b.Selected()
	if !ok {
		return storyblocks.ErrBlockNotFound
	}
	if err := b.Editor.Remove(blk.ID); err != nil {
		return err
	}
	b.clamp()
	return nil
}

// MoveUp moves the selected block up, keeping it selected.
func (b *BlockEditor) MoveUp() {
	if b.Editor.MoveUp(b.Cursor) {
		b.Cursor--
	}
}

// MoveDown moves the selected block down, keeping it selected.
func (b *BlockEditor) MoveDown() {
	if b.Editor.MoveDown(b.Cursor) {
		b.Cursor++
	}
}

// StartEdit opens the selected block's value for editing.
func (b *BlockEditor) StartEdit(width int) tea.Cmd {
	blk, ok := b.Selected()
	if !ok {
		return nil
	}
	ta := textarea.New()
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	if width > 4 {
		ta.SetWidth(width - 4)
	}
	if blk.Type == storyblocks.TypeImage {
		ta.Placeholder = "https://..."
		ta.SetHeight(1)
	} else {
		ta.Placeholder = "Markdown or HTML"
		ta.SetHeight(6)
	}
	ta.SetValue(blk.Value)
	ta.Focus()
	b.Input = &ta
	b.Editing = true
	b.EditID = blk.ID
	return textarea.Blink
}

// FinishEdit writes the edited value back into its block. Text is stored
// as sanitized HTML.
func (b *BlockEditor) FinishEdit() error {
	if !b.Editing {
		return nil
	}
	blk, ok := b.Find(b.EditID)
	b.Editing = false
	value := b.Input.Value()
	b.Input = nil
	if !ok {
		return storyblocks.ErrBlockNotFound
	}
	if blk.Type == storyblocks.TypeImage {
		value = strings.TrimSpace(value)
	} else {
		value = richtext.Normalize(value)
	}
	return b.Editor.Update(blk.ID, value)
}

// AbortEdit closes the editor without changing the block.
func (b *BlockEditor) AbortEdit() {
	b.Editing = false
	b.EditID = ""
	b.Input = nil
}

// Update forwards a message to the open value editor.
func (b *BlockEditor) Update(msg tea.Msg) tea.Cmd {
	if !b.Editing || b.Input == nil {
		return nil
	}
	ta, cmd := b.Input.Update(msg)
	b.Input = &ta
	return cmd
}

// View renders the block list.
func (b *BlockEditor) View(width int, focused bool, uploads func(id string) string) string {
	var sb strings.Builder
	title := "Story blocks"
	if focused {
		title += subtleStyle.Render("  a text  i image  d remove  K/J move  enter edit  ctrl+u upload")
	}
	sb.WriteString(titleStyle.Render(title) + "\n\n")

	for i, blk := range b.Editor.Blocks() {
		kind := blockTypeStyle.Render(strings.ToUpper(string(blk.Type)))
		summary := blockSummary(blk)
		line := ansi.Truncate(kind+"  "+summary, max(width-6, 10), "...")
		prefix := "  "
		if focused && i == b.Cursor {
			prefix = "> "
			line = selectedRowStyle.Render(line)
		}
		sb.WriteString(prefix + line + "\n")
		if state := uploads(blk.ID); state != "" {
			sb.WriteString("    " + state + "\n")
		}
		if b.Editing && blk.ID == b.EditID && b.Input != nil {
			sb.WriteString(b.Input.View() + "\n")
			sb.WriteString(helpStyle.Render("ctrl+s keep  esc discard") + "\n")
		}
	}
	return sb.String()
}

func blockSummary(blk storyblocks.Block) string {
	if blk.Type == storyblocks.TypeImage {
		if blk.Value == "" {
			return subtleStyle.Render("(no image)")
		}
		return blk.Value
	}
	text := richtext.PlainText(blk.Value)
	if text == "" {
		return subtleStyle.Render("(empty)")
	}
	first, _, _ := strings.Cut(text, "\n")
	return first
}
