package cmd

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jzx17/threadpool/internal/cli"
	"github.com/jzx17/threadpool/internal/config"
)

// newInitConfigCommand writes a commented default config file
func newInitConfigCommand() *cobra.Command {
	var force bool

	c := &cobra.Command{
		Use:   "init-config",
		Short: "Write a default configuration file.",
		Long: `Write a default configuration file to --config, or to
threadpool/webserver.yaml in the XDG config home.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			console := cli.NewWithWriter(cmd.ErrOrStderr(), flagQuiet)

			path := flagConfigPath
			if path == "" {
				var err error
				if path, err = config.DefaultPath(); err != nil {
					return err
				}
			}

			if _, err := os.Stat(path); err == nil && !force {
				return errors.Errorf("%s already exists; use --force to overwrite", path)
			}

			if err := config.WriteDefault(path); err != nil {
				return err
			}
			console.Success("Wrote %s", path)
			return nil
		},
	}

	c.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return c
}
