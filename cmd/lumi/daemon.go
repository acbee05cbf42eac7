package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lumisync/lumi/pkg/daemon"
	"github.com/lumisync/lumi/pkg/version"
)

// NewDaemonCommand .
func NewDaemonCommand() *cobra.Command {
	listenAddress := ""

	cmd := &cobra.Command{
		Use:     "daemon",
		Hidden:  true,
		Short:   "Run lumi daemon in the foreground",
		GroupID: gAdvanced,
		RunE: func(_ *cobra.Command, _ []string) error {
			logrus.WithFields(logrus.Fields{
				"version": version.Version,
				"commit":  version.GitCommit,
			}).Info("lumi daemon starting")
			return daemon.Run(configPath, listenAddress)
		},
	}

	f := cmd.Flags()

	f.StringVar(&listenAddress, "listen", "",
		"Listen address (host:port). Defaults to the address from the config file.")

	return cmd
}
