package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tidewise/buildbot-ci/pkg/mapper"
	"github.com/tidewise/buildbot-ci/pkg/render"
)

type statusFlags struct {
	format     string
	topFailing int
	noPackages bool
}

func newStatusCmd(a *app) *cobra.Command {
	var f statusFlags
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print the dashboard of the most recent builds",
		Long: "Print the dashboard of the most recent builds. Exits 1 when any\n" +
			"shown build failed.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.status(cmd, f)
		},
	}
	cmd.Flags().StringVar(&f.format, "format", formatAuto, "output format: auto, terminal, llm or json")
	cmd.Flags().IntVar(&f.topFailing, "top", mapper.DefaultOptions().TopFailing, "failing builds listed in the leaderboard")
	cmd.Flags().BoolVar(&f.noPackages, "no-packages", false, "omit the per-build package tables")
	return cmd
}

func (a *app) status(cmd *cobra.Command, f statusFlags) error {
	out := cmd.OutOrStdout()
	r, err := a.renderer(f.format, out)
	if err != nil {
		return err
	}

	agg, src, err := a.aggregator()
	if err != nil {
		return err
	}
	defer src.Close()

	d, err := agg.Dashboard(cmd.Context())
	if err != nil {
		return err
	}
	patterns := mapper.FromDashboard(d, mapper.Options{
		TopFailing: f.topFailing,
		Packages:   !f.noPackages,
	})
	fmt.Fprint(out, r.Render(patterns))
	if anyFailure(d) {
		return &exitError{code: 1}
	}
	return nil
}

// renderer returns the renderer for a --format value written to out.
func (a *app) renderer(format string, out io.Writer) (render.Renderer, error) {
	format = resolveFormat(format, out)
	r, ok := render.ForFormat(format, render.ThemeByName(a.cfg.Theme), termWidth(out))
	if !ok {
		return nil, fmt.Errorf("unknown format %q (want auto, terminal, llm or json)", format)
	}
	return r, nil
}
