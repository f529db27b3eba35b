package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	primaryColor = lipgloss.Color("#5A2D82") // NeuroAudio violet
	accentColor  = lipgloss.Color("#00AAAA")
	warnColor    = lipgloss.Color("#FFA500")
	errorColor   = lipgloss.Color("#A40000")
	mutedColor   = lipgloss.Color("#888888")
	textColor    = lipgloss.Color("#FFFFFF")
)

// Styles
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	SectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor).
			MarginTop(1)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(errorColor)

	WarnStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(warnColor)

	KeyStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	ValueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(textColor)
)

// PrintVersion prints version information.
func PrintVersion(version string) {
	fmt.Println(TitleStyle.Render("NeuroAudio"))
	fmt.Printf("%s %s\n", KeyStyle.Render("Version:"), ValueStyle.Render(version))
	fmt.Println()
}

// PrintError prints an error message to stderr.
func PrintError(message string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", ErrorStyle.Render("Error:"), message)
}

// PrintWarning prints a warning to stderr.
func PrintWarning(message string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", WarnStyle.Render("Warning:"), message)
}

// Field is one row of a key/value section.
type Field struct {
	Key   string
	Value string
}

// F builds a Field with a formatted value.
func F(key, format string, args ...any) Field {
	return Field{Key: key, Value: fmt.Sprintf(format, args...)}
}

// RenderSection renders a titled block of aligned key/value rows.
func RenderSection(title string, fields []Field) string {
	width := 0
	for _, f := range fields {
		width = max(width, lipgloss.Width(f.Key))
	}

	var sb strings.Builder
	sb.WriteString(SectionStyle.Render(title))
	sb.WriteString("\n")
	for _, f := range fields {
		sb.WriteString("  ")
		sb.WriteString(KeyStyle.Render(f.Key + ":" + strings.Repeat(" ", width-lipgloss.Width(f.Key))))
		sb.WriteString(" ")
		sb.WriteString(ValueStyle.Render(f.Value))
		sb.WriteString("\n")
	}
	return sb.String()
}

// PrintSection writes RenderSection to w.
func PrintSection(w io.Writer, title string, fields []Field) {
	fmt.Fprint(w, RenderSection(title, fields))
}
