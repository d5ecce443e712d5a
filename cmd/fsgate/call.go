package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"fsgate/internal/dispatch"
	"fsgate/internal/operations"

	"github.com/adrg/frontmatter"
	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

func newCallCmd(root *rootOptions) *cobra.Command {
	var (
		asJSON bool
		render bool
	)

	cmd := &cobra.Command{
		Use:   "call <tool> [key=value]...",
		Short: "Invoke one tool and print its result",
		Example: `  fsgate call read_file path=/projects/README.md
  fsgate call write path=/projects/notes.txt content='hello'
  fsgate call list_directory path=/projects --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			toolArgs, err := parseToolArgs(args[1:])
			if err != nil {
				return err
			}

			gw, _, _, err := root.newGateway(cmd, nil)
			if err != nil {
				return err
			}

			res, err := gw.Invoke(cmd.Context(), args[0], toolArgs)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			if render {
				if text, ok := renderMarkdown(res); ok {
					_, err := fmt.Fprint(out, text)
					return err
				}
			}
			_, err = fmt.Fprintln(out, res.Text())
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	cmd.Flags().BoolVar(&render, "render", false, "render markdown files read with read_file for the terminal")
	return cmd
}

// parseToolArgs turns key=value pairs into an argument map. Values keep any
// further "=" characters.
func parseToolArgs(pairs []string) (map[string]any, error) {
	args := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid argument %q: expected key=value", pair)
		}
		args[key] = value
	}
	return args, nil
}

// renderMarkdown renders a read_file result of a markdown file, dropping any
// front matter. It reports false for anything else.
func renderMarkdown(res *dispatch.Result) (string, bool) {
	content, ok := res.Data.(*operations.FileContent)
	if !ok || !isMarkdown(content) {
		return "", false
	}

	var matter map[string]any
	body, err := frontmatter.Parse(strings.NewReader(content.Content), &matter)
	if err != nil {
		body = []byte(content.Content)
	}

	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		return "", false
	}
	out, err := r.Render(string(body))
	if err != nil {
		return "", false
	}
	return out, true
}

func isMarkdown(c *operations.FileContent) bool {
	switch strings.ToLower(filepath.Ext(c.Path)) {
	case ".md", ".markdown", ".mdx":
		return true
	}
	return strings.HasPrefix(c.MIMEType, "text/markdown")
}
