// Package cmd provides the CLI commands for searchadmin.
package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"searchadmin/internal/config"
	"searchadmin/internal/logging"
)

// Set at build time with -ldflags "-X searchadmin/cmd/searchadmin/cmd.Version=...".
var (
	Version = "dev"
	Commit  = "none"
)

const (
	// annotationTUI marks commands that take over the terminal; they never log to stderr.
	annotationTUI = "searchadmin/tui"
	// annotationNoConfig marks commands that run without loading the config.
	annotationNoConfig = "searchadmin/no-config"
)

// rootOptions carries persistent flags and the state PersistentPreRunE builds
// for the subcommands.
type rootOptions struct {
	configPath string
	debug      bool

	cfg     *config.AppConfig
	logger  *slog.Logger
	cleanup func()
}

// NewRootCmd creates the root command for the searchadmin CLI.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "searchadmin",
		Short: "Manage search settings and re-indexing of a document search backend",
		Long: `searchadmin walks an operator through choosing an embedding model, a
reranker and advanced indexing options, commits them to the search backend and
follows the background re-index until the new index is live.

Run 'searchadmin wizard' to start.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.setup(cmd)
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			opts.teardown()
			return nil
		},
	}
	cmd.SetVersionTemplate("searchadmin version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to YAML config file (default ./searchadmin.yaml or ~/.config/searchadmin/config.yaml)")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")

	cmd.AddCommand(newWizardCmd(opts))
	cmd.AddCommand(newMonitorCmd(opts))
	cmd.AddCommand(newStatusCmd(opts))
	cmd.AddCommand(newCancelCmd(opts))
	cmd.AddCommand(newProvidersCmd(opts))
	cmd.AddCommand(newSearchCmd(opts))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().ExecuteContext(context.Background())
}

func (o *rootOptions) setup(cmd *cobra.Command) error {
	if cmd.Annotations[annotationNoConfig] == "true" {
		return nil
	}

	var err error
	if o.configPath == "" {
		o.cfg, o.configPath, err = config.LoadDefault()
	} else {
		o.cfg, err = config.Load(o.configPath)
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := o.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", o.configPath, err)
	}

	lc := logging.Config{
		Level:      o.cfg.Logging.Level,
		FilePath:   o.cfg.Logging.File,
		MaxSizeMB:  o.cfg.Logging.MaxSizeMB,
		MaxBackups: o.cfg.Logging.MaxBackups,
	}
	if lc.FilePath == "default" {
		lc.FilePath = config.DefaultLogPath()
	}
	if o.debug {
		lc.Level = "debug"
		lc.WriteToStderr = cmd.Annotations[annotationTUI] != "true"
	}
	logger, cleanup, err := logging.Setup(lc)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	o.logger, o.cleanup = logger, cleanup
	slog.SetDefault(logger)
	logger.Debug("config loaded", slog.String("path", o.configPath), slog.String("base_url", o.cfg.Server.BaseURL))
	return nil
}

func (o *rootOptions) teardown() {
	if o.cleanup != nil {
		o.cleanup()
		o.cleanup = nil
	}
}
