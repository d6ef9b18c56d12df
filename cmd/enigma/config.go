package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"enigma/internal/config"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the settings file",
	}
	cmd.AddCommand(newConfigInitCmd(a))
	return cmd
}

func newConfigInitCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a settings file",
		Long: `Write the settings in effect (defaults, then the current settings file,
ENIGMA_* variables and flags) to a settings file. The path defaults to
--config or ` + config.ConfigPath() + `; its extension picks TOML, YAML or
JSON. An existing file is only replaced with --force.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.configPath
			if len(args) > 0 {
				path = args[0]
			}
			if path == "" {
				path = config.ConfigPath()
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to replace it", path)
			}
			if err := config.Save(a.cfg, path); err != nil {
				return err
			}
			a.logger.Info("settings file written", "path", path)
			fmt.Fprintf(a.stdout, "wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "replace an existing settings file")
	return cmd
}
