package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/appshell/internal/logger"
	"github.com/marmos91/appshell/pkg/bridge"
	"github.com/marmos91/appshell/pkg/config"
)

// rootOptions carries the persistent flags and the configuration they
// resolve to.
type rootOptions struct {
	configPath string
	logLevel   string

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:               "appshell",
		Short:             "Sandboxed filesystem bridge and shell stubs",
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// init must work without a loadable configuration
			if cmd.Name() == "init" {
				return nil
			}
			return opts.load()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/appshell/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override the configured log level (DEBUG, INFO, WARN, ERROR)")

	cmd.AddCommand(
		initCmd(opts),
		seedCmd(opts),
		lsCmd(opts),
		catCmd(opts),
		writeCmd(opts),
		mkdirCmd(opts),
		statCmd(opts),
		trashCmd(opts),
		mvCmd(opts),
		rmCmd(opts),
		openCmd(opts),
		serveCmd(opts),
	)

	return cmd
}

// load reads the configuration and configures logging from it.
func (o *rootOptions) load() error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}

	if o.logLevel != "" {
		if _, err := logger.ParseLevel(o.logLevel); err != nil {
			return fmt.Errorf("invalid --log-level: %w", err)
		}
		cfg.Logging.Level = o.logLevel
	}

	if err := logger.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output); err != nil {
		return fmt.Errorf("failed to configure logger: %w", err)
	}

	o.cfg = cfg
	return nil
}

// openBridge builds a bridge over the configured sandbox without metrics.
func (o *rootOptions) openBridge(cmd *cobra.Command) (*bridge.Bridge, error) {
	return config.CreateBridge(cmd.Context(), o.cfg, nil)
}
