// Package main provides the tabulate CLI: it renders a YAML report
// definition against a SQL query or a CSV file into one or more formats.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "tabulate",
		Short: "Render tabular reports in several formats from one definition",
		Long: `tabulate streams records from a database query or CSV file through a
YAML report definition and writes the result as CSV, TSV, XLSX, HTML,
Markdown, a terminal table or JSON lines.

Commands:
  render    Render a report into one or more formats
  formats   List supported output formats`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRenderCommand())
	root.AddCommand(newFormatsCommand())
	return root
}
