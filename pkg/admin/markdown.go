package admin

import (
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
)

// Hex equivalents of the ANSI 256 colors in styles.go.
const (
	colorPrimary   = "#FF87D7"
	colorSecondary = "#AF87FF"
	colorMuted     = "#626262"
	colorCyan      = "#00D7FF"
	colorWhite     = "#EEEEEE"
)

func ptrString(s string) *string { return &s }
func ptrBool(b bool) *bool       { return &b }
func uintPtr(u uint) *uint       { return &u }

// buildGlamourStyle creates the glamour style used for record previews.
func buildGlamourStyle() ansi.StyleConfig {
	return ansi.StyleConfig{
		Document: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{Color: ptrString(colorWhite)},
			Margin:         uintPtr(0),
		},
		BlockQuote: ansi.StyleBlock{
			Indent:      uintPtr(1),
			IndentToken: ptrString("│ "),
			StylePrimitive: ansi.StylePrimitive{
				Color:  ptrString(colorMuted),
				Italic: ptrBool(true),
			},
		},
		List: ansi.StyleList{LevelIndent: 2},
		Heading: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{
				Color:       ptrString(colorWhite),
				Bold:        ptrBool(true),
				BlockSuffix: "\n",
			},
		},
		H1: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{
				Prefix:          " ",
				Suffix:          " ",
				Color:           ptrString(colorWhite),
				BackgroundColor: ptrString(colorPrimary),
				Bold:            ptrBool(true),
			},
		},
		H2: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{
				Prefix: "## ",
				Color:  ptrString(colorPrimary),
				Bold:   ptrBool(true),
			},
		},
		H3: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{
				Prefix: "### ",
				Color:  ptrString(colorSecondary),
				Bold:   ptrBool(true),
			},
		},
		Emph:   ansi.StylePrimitive{Italic: ptrBool(true)},
		Strong: ansi.StylePrimitive{Bold: ptrBool(true)},
		HorizontalRule: ansi.StylePrimitive{
			Color:  ptrString(colorMuted),
			Format: "\n────────\n",
		},
		Item:        ansi.StylePrimitive{BlockPrefix: "• "},
		Enumeration: ansi.StylePrimitive{BlockPrefix: ". "},
		Link: ansi.StylePrimitive{
			Color:     ptrString(colorCyan),
			Underline: ptrBool(true),
		},
		LinkText: ansi.StylePrimitive{
			Color: ptrString(colorPrimary),
			Bold:  ptrBool(true),
		},
		Image: ansi.StylePrimitive{
			Color:     ptrString(colorPrimary),
			Underline: ptrBool(true),
		},
		ImageText: ansi.StylePrimitive{
			Color:  ptrString(colorSecondary),
			Format: "Image: {{.text}}",
		},
	}
}

// previewCache memoizes rendered previews. Rendering is expensive and View
// runs on every message.
type previewCache struct {
	key      string
	width    int
	rendered string
}

// render returns the glamour rendering of md at width, reusing the last
// result when key and width are unchanged.
func (p *previewCache) render(key, md string, width int) string {
	if p.key == key && p.width == width && p.rendered != "" {
		return p.rendered
	}
	if width < 20 {
		width = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(buildGlamourStyle()),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	p.key, p.width, p.rendered = key, width, out
	return out
}
