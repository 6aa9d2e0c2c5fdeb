/*
 * Copyright (c) 2018 Miguel Ángel Ortuño.
 * See the LICENSE file for more information.
 */

package main

import (
	"fmt"
	"os"

	"github.com/ortuman/vysper/app"
	"github.com/ortuman/vysper/version"
	"github.com/spf13/cobra"
)

const (
	cliName           = "vysper"
	cliDescription    = "An XMPP server."
	defaultConfigFile = "/etc/vysper/vysper.yml"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:           cliName,
	Short:         cliDescription,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          serveCommandFunc,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", defaultConfigFile, "configuration file path")

	rootCmd.AddCommand(
		newServeCommand(),
		newVersionCommand(),
	)
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Runs the server until a stop signal is received",
		RunE:  serveCommandFunc,
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Prints the version of vysper",
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s version: %v\n", version.ApplicationName, version.ApplicationVersion)
		},
	}
}

func serveCommandFunc(cmd *cobra.Command, _ []string) error {
	return app.New(cmd.OutOrStdout(), configFile).Run()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%s: %v\n", cliName, err)
		os.Exit(1)
	}
}
