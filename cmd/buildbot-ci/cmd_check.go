package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tidewise/buildbot-ci/pkg/mapper"
	"github.com/tidewise/buildbot-ci/pkg/pattern"
)

func newCheckCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "check <report.json>",
		Short: "Classify a single report file",
		Long: "Classify the packages of one report.json and print them worst\n" +
			"first. Exits 1 when any package failed.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			r, err := a.renderer(format, out)
			if err != nil {
				return err
			}
			rep, err := a.loader().LoadFile(args[0])
			if err != nil {
				return err
			}
			label := filepath.Base(filepath.Dir(args[0]))
			fmt.Fprint(out, r.Render([]pattern.Pattern{mapper.FromReport(label, rep)}))
			if reportFailed(rep) {
				return &exitError{code: 1}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", formatAuto, "output format: auto, terminal, llm or json")
	return cmd
}
