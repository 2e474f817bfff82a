package main

import (
	"github.com/spf13/cobra"
)

func newArtifactCmd(a *app) *cobra.Command {
	var testResults bool
	cmd := &cobra.Command{
		Use:   "artifact <report-key> <package> [logtype]",
		Short: "Print a package log or its test results",
		Long: "Print one log of a package, or with --test-results its test-result\n" +
			"document. Paths are resolved safely under the artifact root.",
		Example: "  buildbot-ci artifact rock:ubuntu-3 base/types build\n" +
			"  buildbot-ci artifact --test-results rock:ubuntu-3 base/types",
		Args: func(cmd *cobra.Command, args []string) error {
			if testResults {
				return cobra.ExactArgs(2)(cmd, args)
			}
			return cobra.ExactArgs(3)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			resolver, err := a.resolver()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if testResults {
				doc, err := resolver.TestResults(args[0], args[1])
				if err != nil {
					return err
				}
				_, err = out.Write([]byte(doc))
				return err
			}
			data, err := resolver.Log(args[0], args[1], args[2])
			if err != nil {
				return err
			}
			_, err = out.Write(data)
			return err
		},
	}
	cmd.Flags().BoolVar(&testResults, "test-results", false, "print the test results instead of a log")
	return cmd
}
