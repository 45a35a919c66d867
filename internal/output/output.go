// Package output provides styled terminal output helpers (success, error,
// warning, record formatting) using lipgloss.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mitaan/mitaan/internal/models"
	"gopkg.in/yaml.v3"
)

var (
	// Styles
	titleStyle   = lipgloss.NewStyle().Bold(true)
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	idStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("45"))
)

// Stdout is where the print helpers write.
var Stdout io.Writer = os.Stdout

// Format selects how records are printed.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates a --output flag value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatTable, nil
	}
	return "", fmt.Errorf("unknown output format %q (want table, json or yaml)", s)
}

// Success prints a success message
func Success(format string, args ...interface{}) {
	fmt.Fprintln(Stdout, successStyle.Render(fmt.Sprintf(format, args...)))
}

// Error prints an error message
func Error(format string, args ...interface{}) {
	fmt.Fprintln(Stdout, errorStyle.Render("ERROR: "+fmt.Sprintf(format, args...)))
}

// Warning prints a warning message
func Warning(format string, args ...interface{}) {
	fmt.Fprintln(Stdout, warningStyle.Render("Warning: "+fmt.Sprintf(format, args...)))
}

// Info prints an info message
func Info(format string, args ...interface{}) {
	fmt.Fprintf(Stdout, format+"\n", args...)
}

// JSON outputs data as JSON
func JSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(Stdout, string(data))
	return nil
}

// YAML outputs data as YAML. Values go through JSON first so the keys match
// the wire names.
func YAML(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var generic interface{}
	if err := json.Unmarshal(data, &generic); err != nil {
		return err
	}
	out, err := yaml.Marshal(generic)
	if err != nil {
		return err
	}
	fmt.Fprint(Stdout, string(out))
	return nil
}

// Error codes for structured JSON output
const (
	ErrCodeNotFound     = "not_found"
	ErrCodeInvalidInput = "invalid_input"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeRateLimited  = "rate_limited"
	ErrCodeServerError  = "server_error"
)

// JSONError outputs an error as JSON
func JSONError(code, message string) {
	data, _ := json.Marshal(map[string]interface{}{
		"error": map[string]string{"code": code, "message": message},
	})
	fmt.Fprintln(Stdout, string(data))
}

// Records prints records in the requested format.
func Records(format Format, recs []models.Record) error {
	switch format {
	case FormatJSON:
		return JSON(recs)
	case FormatYAML:
		return YAML(recs)
	}
	if len(recs) == 0 {
		fmt.Fprintln(Stdout, subtleStyle.Render("No records"))
		return nil
	}
	for _, r := range recs {
		fmt.Fprintln(Stdout, FormatRecordShort(r, TerminalWidth(100)))
	}
	return nil
}

// FormatRecordShort formats a record on one line: id then label, truncated
// to width display cells.
func FormatRecordShort(r models.Record, width int) string {
	id := r.RecordID()
	if id == "" {
		id = "-"
	}
	line := idStyle.Render(id) + "  " + r.Label()
	if width > 0 {
		line = ansi.Truncate(line, width, "…")
	}
	return line
}

// Field is one named value of a record.
type Field struct {
	Name  string
	Value string
}

// Fields lists the non-empty fields of a record in declaration order,
// named by their JSON keys.
func Fields(r models.Record) []Field {
	v := reflect.ValueOf(r)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}
	t := v.Type()
	var out []Field
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		name := strings.SplitN(sf.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" || !sf.IsExported() {
			continue
		}
		fv := v.Field(i)
		if fv.IsZero() && fv.Kind() != reflect.Bool {
			continue
		}
		out = append(out, Field{Name: name, Value: fmt.Sprint(fv.Interface())})
	}
	return out
}

// FormatRecordLong formats a record with one field per line. Long values
// such as article content are left out; callers render them separately.
func FormatRecordLong(r models.Record, omit ...string) string {
	skip := make(map[string]bool, len(omit))
	for _, o := range omit {
		skip[o] = true
	}
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(r.Label()))
	sb.WriteString("\n")
	for _, f := range Fields(r) {
		if skip[f.Name] {
			continue
		}
		sb.WriteString(fmt.Sprintf("%s %s\n", subtleStyle.Render(f.Name+":"), f.Value))
	}
	return sb.String()
}

// FormatTimeAgo formats a time as a human-readable "ago" string
func FormatTimeAgo(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("2006-01-02")
	}
}

// SectionHeader returns a formatted section header for CLI output
// e.g., "\nPENSIEVE:\n"
func SectionHeader(title string) string {
	return fmt.Sprintf("\n%s:\n", strings.ToUpper(title))
}
