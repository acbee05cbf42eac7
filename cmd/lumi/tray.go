package main

import (
	"github.com/spf13/cobra"

	"github.com/lumisync/lumi/pkg/tray"
)

// NewTrayCommand .
func NewTrayCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "tray",
		Short:   "Run the system tray applet",
		GroupID: gBasic,
		Long: `Run the system tray applet.

Shows the current brightness in the tray, follows daemon events live,
and offers quick set and auto actions. Blocks until Quit is chosen.`,
		Run: func(_ *cobra.Command, _ []string) {
			tray.Run(daemonAddress)
		},
	}
}
