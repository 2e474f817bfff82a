package main

import (
	"github.com/spf13/cobra"

	"github.com/tidewise/buildbot-ci/internal/config"
	"github.com/tidewise/buildbot-ci/internal/logging"
	"github.com/tidewise/buildbot-ci/internal/version"
	"github.com/tidewise/buildbot-ci/pkg/status"
)

// app is the state shared by all commands once flags are parsed.
type app struct {
	flags config.CliFlags
	cfg   *config.ResolvedConfig
	table *status.Table
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "buildbot-ci",
		Short: "Build report dashboard for Buildbot",
		Long: "buildbot-ci aggregates the per-package reports of the most recent\n" +
			"Buildbot builds into a severity-ordered dashboard, served over HTTP\n" +
			"or printed to the terminal.",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&a.flags.ConfigPath, "config", "", "config file (default .buildbot-ci.yaml, then the user config dir)")
	f.StringVar(&a.flags.ArtifactRoot, "artifact-root", "", "directory holding one report directory per build")
	f.IntVar(&a.flags.BuildLimit, "limit", 0, "number of most recent builds considered")
	f.StringVar(&a.flags.SourceKind, "source", "", "build listing source: sqlite, api or file")
	f.StringVar(&a.flags.DBPath, "db", "", "Buildbot state database for the sqlite source")
	f.StringVar(&a.flags.APIURL, "api-url", "", "Buildbot base URL for the api source")
	f.StringVar(&a.flags.SourceFile, "listing", "", "YAML listing for the file source")
	f.StringVar(&a.flags.LogLevel, "log-level", "", "log level: debug, info, warn, error")
	f.StringVar(&a.flags.LogFormat, "log-format", "", "log format: text or json")
	f.StringVar(&a.flags.Theme, "theme", "", "terminal theme: default, orca or mono")
	f.IntVar(&a.flags.Concurrency, "concurrency", 0, "reports loaded in parallel")
	f.BoolVar(&a.flags.NoColor, "no-color", false, "disable colors")

	root.AddCommand(
		newServeCmd(a),
		newStatusCmd(a),
		newBrowseCmd(a),
		newArtifactCmd(a),
		newCheckCmd(a),
		newSeveritiesCmd(a),
	)
	return root
}

// setup resolves the configuration, configures logging and validates the
// severity table against every status the classifier can emit.
func (a *app) setup(cmd *cobra.Command) error {
	a.flags.NoColorSet = cmd.Flags().Changed("no-color")

	cfg, err := config.ResolveConfig(a.flags)
	if err != nil {
		return err
	}
	if err := logging.Init(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr()); err != nil {
		return err
	}
	table := status.DefaultTable()
	if err := table.Validate(status.ProducibleEntries()); err != nil {
		return err
	}

	a.cfg = cfg
	a.table = table
	logging.New("cli").WithField("config", cfg.ConfigFile).Debug("configuration resolved")
	return nil
}
