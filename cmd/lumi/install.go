package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	daemonutils "github.com/lumisync/lumi/pkg/utils/daemon"
)

// NewInstallCommand .
func NewInstallCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "install",
		Short:   "Install lumi (system-wide)",
		GroupID: gInstallation,
		Long: `Install lumi daemon as a systemd unit (system-wide).

This makes lumi run in the background and automatically start on boot. You must run this command as root.

The daemon listens on the address from the config file. Writing to the backlight device requires root, which is why the unit runs as root.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := daemonutils.Install()
			if err != nil {
				// check if current user is root
				if os.Geteuid() != 0 {
					logrus.Errorf("you must run this command as root")
				}
				return fmt.Errorf("failed to install daemon: %v. Are you root?", err)
			}

			logrus.Infof("installation succeeded")

			exePath, _ := os.Executable()

			cmd.Printf("`systemd' will use current binary (%s) at startup so please make sure you do not move this binary. Once this binary is moved or deleted, you will need to run ``lumi install'' again.\n", exePath)

			return nil
		},
	}

	return cmd
}

// NewUninstallCommand .
func NewUninstallCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "uninstall",
		Short:   "Uninstall lumi (system-wide)",
		GroupID: gInstallation,
		Long: `Uninstall lumi daemon from systemd (system-wide).

This stops lumi and removes its systemd unit.

You must run this command as root.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := daemonutils.Uninstall()
			if err != nil {
				// check if current user is root
				if os.Geteuid() != 0 {
					logrus.Errorf("you must run this command as root")
				}
				return fmt.Errorf("failed to uninstall daemon: %v", err)
			}

			fmt.Println("successfully uninstalled")

			cmd.Printf("Your config is kept in %s, in case you want to use `lumi' again. If you want a complete uninstall, you can remove both config file and lumi itself manually.\n", configPath)

			return nil
		},
	}
}
