package main

import (
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const defaultServer = "http://localhost:9737"

var (
	verbose bool
	server  string
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&server, "server", "s", defaultServer, "lnmock daemon url")
}

var rootCmd = &cobra.Command{
	Use:          "lnmockctl",
	Short:        "lnmock control CLI",
	SilenceUsage: true,
}

func newClient(out io.Writer) *client {
	logger := log.New()
	logger.SetOutput(os.Stderr)
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}

	return newRPCClient(server, logger, out)
}
