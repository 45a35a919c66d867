package keymap

import (
	"fmt"
	"strings"
)

var helpSections = []struct {
	title   string
	context Context
}{
	{"SIDEBAR", ContextSidebar},
	{"RECORDS", ContextList},
	{"FORM", ContextForm},
	{"STORY BLOCKS", ContextBlocks},
	{"DELETE CONFIRMATION", ContextConfirm},
}

// GenerateHelp renders the bindings of the main contexts, merging keys that
// share a command.
func (r *Registry) GenerateHelp() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sb strings.Builder
	sb.WriteString("MITAAN CONSOLE - Key Bindings\n")
	for _, sec := range helpSections {
		sb.WriteString("\n" + sec.title + ":\n")
		var order []Command
		keys := map[Command][]string{}
		desc := map[Command]string{}
		for _, b := range r.bindings[sec.context] {
			if _, seen := keys[b.Command]; !seen {
				order = append(order, b.Command)
				desc[b.Command] = b.Description
			}
			keys[b.Command] = append(keys[b.Command], b.Key)
		}
		for _, cmd := range order {
			sb.WriteString(fmt.Sprintf("  %-20s %s\n", strings.Join(keys[cmd], " / "), desc[cmd]))
		}
	}
	sb.WriteString("\nPress ? to close help\n")
	return sb.String()
}
