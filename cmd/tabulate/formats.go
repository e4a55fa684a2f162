package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bjaus/tabulate"
)

func newFormatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List supported output formats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, f := range tabulate.Formats() {
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\t.%s\n", f, f.Ext()); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
