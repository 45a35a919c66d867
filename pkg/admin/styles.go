package admin

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/mitaan/mitaan/internal/upload"
)

var (
	// Base colors
	primaryColor   = lipgloss.Color("212")
	secondaryColor = lipgloss.Color("141")
	mutedColor     = lipgloss.Color("241")
	successColor   = lipgloss.Color("42")
	warningColor   = lipgloss.Color("214")
	errorColor     = lipgloss.Color("196")

	// Panel styles
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	activePanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(primaryColor).
				Padding(0, 1)

	panelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Background(lipgloss.Color("237")).
			Foreground(lipgloss.Color("255")).
			Padding(0, 1)

	brandStyle = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)

	// Text styles
	titleStyle   = lipgloss.NewStyle().Bold(true)
	subtleStyle  = lipgloss.NewStyle().Foreground(mutedColor)
	helpStyle    = lipgloss.NewStyle().Foreground(mutedColor)
	errorStyle   = lipgloss.NewStyle().Foreground(errorColor)
	warningStyle = lipgloss.NewStyle().Foreground(warningColor)

	sectionHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(secondaryColor).
			MarginTop(1)

	// Selected row style - inverted colors for visibility
	selectedRowStyle = lipgloss.NewStyle().
				Background(lipgloss.Color("237")).
				Foreground(lipgloss.Color("255"))

	activeViewStyle = lipgloss.NewStyle().Foreground(primaryColor).Bold(true)

	toastSuccessStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(successColor).
				Bold(true).
				Padding(0, 1)

	toastErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")).
			Background(errorColor).
			Bold(true).
			Padding(0, 1)

	confirmStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(errorColor).
			Padding(1, 2)

	blockTypeStyle = lipgloss.NewStyle().Foreground(secondaryColor).Bold(true)

	uploadStateStyles = map[upload.State]lipgloss.Style{
		upload.StateIdle:      subtleStyle,
		upload.StateUploading: lipgloss.NewStyle().Foreground(warningColor),
		upload.StateDone:      lipgloss.NewStyle().Foreground(successColor),
		upload.StateFailed:    errorStyle,
	}
)

const sidebarWidth = 26
