package main

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/appshell/pkg/config"
	"github.com/marmos91/appshell/pkg/status"
)

func openCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "open URL",
		Short: "Open a URL through the configured shell host",
		Long: `Open a URL through the configured shell host.

With shell.native set to desktop the URL is handed to the OS default
browser. The headless host records the request and reports success.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sh, err := config.CreateShell(&opts.cfg.Shell)
			if err != nil {
				return err
			}

			code := awaitCode(func(cb func(status.Code)) { sh.OpenURLInDefaultBrowser(args[0], cb) })
			sh.Wait()
			return check("open", args[0], code)
		},
	}
}
