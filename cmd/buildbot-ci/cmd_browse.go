package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/tidewise/buildbot-ci/pkg/browse"
)

func newBrowseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse builds, packages and logs interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !isTTYWriter(cmd.OutOrStdout()) {
				return errors.New("browse needs a terminal; use status for piped output")
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
			resolver, err := a.resolver()
			if err != nil {
				return err
			}
			return browse.Run(cmd.Context(), d, resolver, browse.PaletteByName(a.cfg.Theme))
		},
	}
}
