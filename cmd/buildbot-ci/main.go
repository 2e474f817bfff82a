// buildbot-ci serves and prints the build report dashboard of a Buildbot
// master: per-package status of the most recent builds, with their logs.
//
// Usage:
//
//	buildbot-ci serve [--listen=:8010]
//	buildbot-ci status [--format=auto|terminal|llm|json]
//	buildbot-ci browse
//	buildbot-ci artifact <report-key> <package> <logtype>
//	buildbot-ci artifact --test-results <report-key> <package>
//	buildbot-ci check <report.json>
//	buildbot-ci severities
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// exitError ends the process with code without printing anything more.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command line and returns the process exit code: 0 when
// clean, 1 when a shown build or package failed, 2 on errors.
func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if err == nil {
		return 0
	}
	var exit *exitError
	if errors.As(err, &exit) {
		return exit.code
	}
	fmt.Fprintf(stderr, "buildbot-ci: %v\n", err)
	return 2
}
