package cli

import (
	"fmt"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
)

// Custom help styles
var (
	helpTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(warnColor).
			Italic(true).
			MarginBottom(1)

	helpSectionStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(warnColor).
				MarginTop(1)

	helpFlagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00AA00")).
			Bold(true)

	helpArgStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)

	helpDefaultStyle = lipgloss.NewStyle().
				Foreground(mutedColor).
				Italic(true)
)

// StyledHelpPrinter renders kong help with lipgloss styling. It prints the
// selected command's arguments and flags followed by the global flags.
func StyledHelpPrinter(options kong.HelpOptions) func(options kong.HelpOptions, ctx *kong.Context) error {
	return func(options kong.HelpOptions, ctx *kong.Context) error {
		var sb strings.Builder

		node := ctx.Selected()
		if node == nil {
			node = ctx.Model.Node
		}

		sb.WriteString(helpTitleStyle.Render("NeuroAudio"))
		sb.WriteString("\n")
		desc := ctx.Model.Help
		if node != ctx.Model.Node && node.Help != "" {
			desc = node.Help
		}
		sb.WriteString(helpDescStyle.Render(desc))
		sb.WriteString("\n")

		sb.WriteString(helpSectionStyle.Render("Usage:"))
		sb.WriteString("\n  ")
		if node == ctx.Model.Node {
			sb.WriteString(fmt.Sprintf("%s <command> [flags]", ctx.Model.Name))
		} else {
			sb.WriteString(fmt.Sprintf("%s %s", ctx.Model.Name, node.Summary()))
		}
		sb.WriteString("\n")

		if cmds := commands(node); len(cmds) > 0 {
			writeRows(&sb, "Commands:", cmds, helpArgStyle)
		}
		if args := arguments(node); len(args) > 0 {
			writeRows(&sb, "Arguments:", args, helpArgStyle)
		}
		if node != ctx.Model.Node {
			if fl := flags(node.Flags, false); len(fl) > 0 {
				writeRows(&sb, "Flags:", fl, helpFlagStyle)
			}
		}
		writeRows(&sb, "Global Flags:", flags(ctx.Model.Node.Flags, true), helpFlagStyle)

		sb.WriteString("\n")
		fmt.Fprint(ctx.Stdout, sb.String())
		return nil
	}
}

type row struct {
	name       string
	help       string
	defaultVal string
}

func writeRows(sb *strings.Builder, title string, rows []row, style lipgloss.Style) {
	sb.WriteString("\n")
	sb.WriteString(helpSectionStyle.Render(title))
	sb.WriteString("\n")
	for _, r := range rows {
		sb.WriteString("  ")
		sb.WriteString(style.Render(r.name))
		if r.help != "" {
			sb.WriteString("  ")
			sb.WriteString(r.help)
		}
		if r.defaultVal != "" {
			sb.WriteString(" ")
			sb.WriteString(helpDefaultStyle.Render("(default: " + r.defaultVal + ")"))
		}
		sb.WriteString("\n")
	}
}

func commands(node *kong.Node) []row {
	var out []row
	for _, child := range node.Children {
		if child.Hidden {
			continue
		}
		out = append(out, row{name: child.Name, help: child.Help})
	}
	return out
}

func arguments(node *kong.Node) []row {
	var out []row
	for _, arg := range node.Positional {
		out = append(out, row{name: arg.Summary(), help: arg.Help})
	}
	return out
}

func flags(list []*kong.Flag, withHelp bool) []row {
	var out []row
	if withHelp {
		out = append(out, row{name: "-h, --help", help: "Show context-sensitive help."})
	}
	for _, f := range list {
		if f.Name == "help" || f.Hidden {
			continue
		}

		name := "--" + f.Name
		if f.Short != 0 {
			name = fmt.Sprintf("-%c, --%s", f.Short, f.Name)
		}
		if !f.IsBool() && f.PlaceHolder != "" {
			name += "=" + strings.ToUpper(f.PlaceHolder)
		}

		var def string
		if f.HasDefault {
			def = f.Default
		}
		out = append(out, row{name: name, help: f.Help, defaultVal: def})
	}
	return out
}
