package main

import (
	"fmt"
	"io"
	"strings"

	"fsgate/internal/dispatch"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/cobra"
)

const descriptionWidth = 72

func newToolsCmd(root *rootOptions) *cobra.Command {
	var long bool

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the available tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			gw, _, _, err := root.newGateway(cmd, nil)
			if err != nil {
				return err
			}
			if long {
				return printToolDetails(cmd.OutOrStdout(), gw.Tools())
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), toolTable(gw.Tools()))
			return err
		},
	}

	cmd.Flags().BoolVarP(&long, "long", "l", false, "show parameters and hints for each tool")
	return cmd
}

func toolTable(tools []dispatch.Tool) string {
	header := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		}).
		Headers("TOOL", "ALIAS", "DESCRIPTION", "HINTS")

	for _, tool := range tools {
		t.Row(tool.Name, tool.Operation, tool.Description, strings.Join(hints(tool), ", "))
	}
	return t.String()
}

func printToolDetails(w io.Writer, tools []dispatch.Tool) error {
	var b strings.Builder
	for i, tool := range tools {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s (alias %s)\n", tool.Name, tool.Operation)
		b.WriteString(indent.String(wordwrap.String(tool.Description, descriptionWidth), 4))
		b.WriteByte('\n')
		for _, p := range tool.Params {
			fmt.Fprintf(&b, "    %s (string, required): %s\n", p.Name, p.Description)
		}
		if h := hints(tool); len(h) > 0 {
			fmt.Fprintf(&b, "    hints: %s\n", strings.Join(h, ", "))
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func hints(tool dispatch.Tool) []string {
	var out []string
	if tool.ReadOnly {
		out = append(out, "read-only")
	}
	if tool.Destructive {
		out = append(out, "destructive")
	}
	if tool.Idempotent {
		out = append(out, "idempotent")
	}
	return out
}
