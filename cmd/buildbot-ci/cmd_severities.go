package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newSeveritiesCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "severities",
		Short: "Print the status severity table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					Version    int `json:"version"`
					Severities any `json:"severities"`
				}{a.table.Version(), a.table.Severities()})
			}
			fmt.Fprintf(out, "severity table v%d\n", a.table.Version())
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "RANK\tBADGE\tSTATUS")
			for _, s := range a.table.Severities() {
				fmt.Fprintf(tw, "%d\t%s\t%s\n", s.Rank, s.Badge, s.Text)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}
