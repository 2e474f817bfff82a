package main

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/tidewise/buildbot-ci/internal/buildbot"
	"github.com/tidewise/buildbot-ci/internal/config"
	"github.com/tidewise/buildbot-ci/internal/logging"
	"github.com/tidewise/buildbot-ci/pkg/aggregate"
	"github.com/tidewise/buildbot-ci/pkg/artifact"
	"github.com/tidewise/buildbot-ci/pkg/report"
	"github.com/tidewise/buildbot-ci/pkg/status"
)

const formatAuto = "auto"

// listingSource is a build listing source that may hold resources.
type listingSource interface {
	aggregate.Source
	Close() error
}

type nopCloser struct {
	aggregate.Source
}

func (nopCloser) Close() error { return nil }

// openSource opens the build listing source selected by the configuration.
func openSource(cfg config.SourceConfig) (listingSource, error) {
	switch cfg.Kind {
	case config.SourceSQLite:
		src, err := buildbot.OpenSQLite(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		return src, nil
	case config.SourceAPI:
		src, err := buildbot.NewAPISource(cfg.APIURL, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		return nopCloser{src}, nil
	case config.SourceFile:
		return nopCloser{buildbot.NewFileSource(cfg.File)}, nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Kind)
	}
}

// aggregator opens the configured source and returns an aggregator over it.
// The returned source must be closed by the caller.
func (a *app) aggregator() (*aggregate.Aggregator, listingSource, error) {
	src, err := openSource(a.cfg.Source)
	if err != nil {
		return nil, nil, err
	}
	agg := aggregate.New(src, a.loader(),
		aggregate.WithLimit(a.cfg.BuildLimit),
		aggregate.WithConcurrency(a.cfg.Concurrency),
		aggregate.WithLogger(logging.New("aggregate")),
	)
	return agg, src, nil
}

func (a *app) loader() *report.Loader {
	return report.NewLoader(a.cfg.ArtifactRoot, a.table)
}

func (a *app) resolver() (*artifact.Resolver, error) {
	return artifact.NewResolver(a.cfg.ArtifactRoot, logging.New("artifact"))
}

// isTTYWriter reports whether w is a terminal.
func isTTYWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// termWidth returns the terminal width of w, defaulting to 80.
func termWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		if tw, _, err := term.GetSize(int(f.Fd())); err == nil && tw > 0 {
			return tw
		}
	}
	return 80
}

// resolveFormat maps "auto" to terminal output on a TTY and llm otherwise.
func resolveFormat(format string, w io.Writer) string {
	if format != formatAuto {
		return format
	}
	if isTTYWriter(w) {
		return "terminal"
	}
	return "llm"
}

// anyFailure reports whether any build of d ended in failure.
func anyFailure(d *aggregate.Dashboard) bool {
	for _, b := range d.Builds {
		if b.State.Badge == status.BadgeFailure {
			return true
		}
	}
	return false
}

// reportFailed reports whether any package of rep failed.
func reportFailed(rep *report.Report) bool {
	return len(rep.Packages) > 0 && aggregate.State(rep).Badge == status.BadgeFailure
}
