package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/openulink/goulink/pkg/ulink"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "ulinkctl",
	Short: "Probe and exercise an OpenULINK JTAG adapter",
	Long: `ulinkctl talks to an OpenULINK-firmware EZ-USB JTAG adapter over USB
and exposes a handful of its driver operations from the command line.

Examples:
  ulinkctl probe                    # open the adapter and report its signals
  ulinkctl selftest                 # run the init probe and a short TLR reset
  ulinkctl flash firmware.hex       # download firmware to a stock adapter`,
	Version: "0.1.0",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
}

func setupLogging() {
	if verbose {
		ulink.SetLogLevel(logrus.DebugLevel)
	}
}
