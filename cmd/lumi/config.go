package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lumisync/lumi/pkg/config"
)

func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Short:   "Manage the daemon config file",
		GroupID: gAdvanced,
		Long: `Manage the daemon config file.

  lumi config show   Print the config the running daemon is using
  lumi config init   Write a config file with the default values`,
	}

	cmd.AddCommand(
		newConfigShowCommand(),
		newConfigInitCommand(),
	)

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the config the running daemon is using",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := apiClient.GetConfig()
			if err != nil {
				return fmt.Errorf("failed to get config: %w", err)
			}

			b, err := json.MarshalIndent(conf, "", "  ")
			if err != nil {
				return err
			}
			cmd.Println(string(b))

			return nil
		},
	}
}

func newConfigInitCommand() *cobra.Command {
	force := false

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default values",
		Args:  cobra.NoArgs,
		Long: `Write a config file with the default values.

The file goes to the path given by --config. Edit it and restart the
daemon to apply. Fields left out of the file keep their defaults, so
you can trim it down to just the ones you changed.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := os.Stat(configPath); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite", configPath)
			}

			f := config.NewFileFromConfig(config.DefaultRawFileConfig(), configPath)
			if err := f.Save(); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}

			logrus.Infof("wrote default config to %s", configPath)

			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")

	return cmd
}
