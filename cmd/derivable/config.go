package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vango-dev/derivable/internal/config"
	"github.com/vango-dev/derivable/internal/errors"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	cmd.AddCommand(configInitCmd())
	return cmd
}

func configInitCmd() *cobra.Command {
	var (
		dir     string
		useYAML bool
		force   bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Long: `Write a configuration file holding the default settings.

Examples:
  derivable config init
  derivable config init --yaml
  derivable config init --dir ./deploy --force`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				wd, err := os.Getwd()
				if err != nil {
					return err
				}
				dir = wd
			}
			name := config.ConfigFileName
			if useYAML {
				name = config.YAMLConfigFileName
			}
			path := filepath.Join(dir, name)

			if !force {
				if _, err := os.Stat(path); err == nil {
					return errors.New("R103").WithDetail(path + " already exists.")
				}
			}
			if err := config.New().SaveTo(path); err != nil {
				return err
			}
			success(cmd.OutOrStdout(), "Wrote %s", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Directory to write to (default: working directory)")
	cmd.Flags().BoolVar(&useYAML, "yaml", false, "Write derivable.yaml instead of derivable.json")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")

	return cmd
}
