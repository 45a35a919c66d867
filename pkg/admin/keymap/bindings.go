package keymap

// DefaultBindings returns the default key bindings of the admin console.
func DefaultBindings() []Binding {
	return []Binding{
		// Global
		{Key: "ctrl+c", Command: CmdQuit, Context: ContextGlobal, Description: "Quit"},
		{Key: "?", Command: CmdToggleHelp, Context: ContextGlobal, Description: "Toggle help"},

		// Sidebar
		{Key: "q", Command: CmdQuit, Context: ContextSidebar, Description: "Quit"},
		{Key: "j", Command: CmdCursorDown, Context: ContextSidebar, Description: "Next view"},
		{Key: "down", Command: CmdCursorDown, Context: ContextSidebar, Description: "Next view"},
		{Key: "k", Command: CmdCursorUp, Context: ContextSidebar, Description: "Previous view"},
		{Key: "up", Command: CmdCursorUp, Context: ContextSidebar, Description: "Previous view"},
		{Key: "enter", Command: CmdSelect, Context: ContextSidebar, Description: "Open view"},
		{Key: "l", Command: CmdSelect, Context: ContextSidebar, Description: "Open view"},
		{Key: "tab", Command: CmdFocusNext, Context: ContextSidebar, Description: "Focus records"},
		{Key: "s", Command: CmdSiteSearch, Context: ContextSidebar, Description: "Site search"},

		// List
		{Key: "q", Command: CmdQuit, Context: ContextList, Description: "Quit"},
		{Key: "tab", Command: CmdFocusNext, Context: ContextList, Description: "Focus sidebar"},
		{Key: "h", Command: CmdBack, Context: ContextList, Description: "Focus sidebar"},
		{Key: "j", Command: CmdCursorDown, Context: ContextList, Description: "Move down"},
		{Key: "down", Command: CmdCursorDown, Context: ContextList, Description: "Move down"},
		{Key: "k", Command: CmdCursorUp, Context: ContextList, Description: "Move up"},
		{Key: "up", Command: CmdCursorUp, Context: ContextList, Description: "Move up"},
		{Key: "g g", Command: CmdCursorTop, Context: ContextList, Description: "Go to top"},
		{Key: "G", Command: CmdCursorBottom, Context: ContextList, Description: "Go to bottom"},
		{Key: "ctrl+d", Command: CmdHalfPageDown, Context: ContextList, Description: "Half page down"},
		{Key: "ctrl+u", Command: CmdHalfPageUp, Context: ContextList, Description: "Half page up"},
		{Key: "enter", Command: CmdEditRecord, Context: ContextList, Description: "Edit record"},
		{Key: "e", Command: CmdEditRecord, Context: ContextList, Description: "Edit record"},
		{Key: "n", Command: CmdNewRecord, Context: ContextList, Description: "New record"},
		{Key: "x", Command: CmdDeleteRecord, Context: ContextList, Description: "Delete record"},
		{Key: "/", Command: CmdFilter, Context: ContextList, Description: "Filter list"},
		{Key: "esc", Command: CmdBack, Context: ContextList, Description: "Clear filter"},
		{Key: "s", Command: CmdSiteSearch, Context: ContextList, Description: "Site search"},
		{Key: "L", Command: CmdCycleLanguage, Context: ContextList, Description: "Cycle article language"},
		{Key: "r", Command: CmdRefresh, Context: ContextList, Description: "Refresh"},

		// Form
		{Key: "ctrl+s", Command: CmdFormSubmit, Context: ContextForm, Description: "Save"},
		{Key: "esc", Command: CmdFormCancel, Context: ContextForm, Description: "Cancel"},
		{Key: "ctrl+u", Command: CmdFormUpload, Context: ContextForm, Description: "Upload image"},
		{Key: "ctrl+b", Command: CmdFormToggleBlock, Context: ContextForm, Description: "Edit story blocks"},

		// Block editor
		{Key: "ctrl+s", Command: CmdFormSubmit, Context: ContextBlocks, Description: "Save"},
		{Key: "ctrl+b", Command: CmdFormToggleBlock, Context: ContextBlocks, Description: "Back to fields"},
		{Key: "esc", Command: CmdFormToggleBlock, Context: ContextBlocks, Description: "Back to fields"},
		{Key: "j", Command: CmdCursorDown, Context: ContextBlocks, Description: "Next block"},
		{Key: "down", Command: CmdCursorDown, Context: ContextBlocks, Description: "Next block"},
		{Key: "k", Command: CmdCursorUp, Context: ContextBlocks, Description: "Previous block"},
		{Key: "up", Command: CmdCursorUp, Context: ContextBlocks, Description: "Previous block"},
		{Key: "a", Command: CmdBlockAddText, Context: ContextBlocks, Description: "Add text block"},
		{Key: "i", Command: CmdBlockAddImage, Context: ContextBlocks, Description: "Add image block"},
		{Key: "d", Command: CmdBlockRemove, Context: ContextBlocks, Description: "Remove block"},
		{Key: "K", Command: CmdBlockMoveUp, Context: ContextBlocks, Description: "Move block up"},
		{Key: "J", Command: CmdBlockMoveDown, Context: ContextBlocks, Description: "Move block down"},
		{Key: "enter", Command: CmdBlockEdit, Context: ContextBlocks, Description: "Edit block"},
		{Key: "ctrl+u", Command: CmdBlockUpload, Context: ContextBlocks, Description: "Upload image into block"},

		{Key: "ctrl+s", Command: CmdBlockEditDone, Context: ContextBlockInput, Description: "Keep block value"},
		{Key: "esc", Command: CmdBlockEditAbort, Context: ContextBlockInput, Description: "Discard block edit"},

		// Confirmation overlay
		{Key: "y", Command: CmdConfirm, Context: ContextConfirm, Description: "Confirm delete"},
		{Key: "enter", Command: CmdConfirm, Context: ContextConfirm, Description: "Confirm delete"},
		{Key: "n", Command: CmdCancel, Context: ContextConfirm, Description: "Cancel"},
		{Key: "esc", Command: CmdCancel, Context: ContextConfirm, Description: "Cancel"},

		// Text inputs
		{Key: "enter", Command: CmdInputConfirm, Context: ContextFilter, Description: "Apply filter"},
		{Key: "esc", Command: CmdInputCancel, Context: ContextFilter, Description: "Clear filter"},
		{Key: "enter", Command: CmdInputConfirm, Context: ContextSearch, Description: "Search"},
		{Key: "esc", Command: CmdInputCancel, Context: ContextSearch, Description: "Close search"},
		{Key: "enter", Command: CmdInputConfirm, Context: ContextUpload, Description: "Start upload"},
		{Key: "esc", Command: CmdInputCancel, Context: ContextUpload, Description: "Cancel"},

		// Help
		{Key: "esc", Command: CmdToggleHelp, Context: ContextHelp, Description: "Close help"},
		{Key: "q", Command: CmdToggleHelp, Context: ContextHelp, Description: "Close help"},
	}
}

// RegisterDefaults registers all default bindings with the registry
func RegisterDefaults(r *Registry) {
	r.RegisterBindings(DefaultBindings())
}
