package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Open the adapter, run init, and report its signal state",
	RunE:  runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
	probeCmd.Flags().StringVar(&firmwarePath, "firmware", "", "Intel HEX firmware image to download if the adapter is running stock firmware")
}

func runProbe(cmd *cobra.Command, args []string) error {
	setupLogging()

	drv, cleanup, err := openDriver()
	if err != nil {
		return err
	}
	defer cleanup()

	fmt.Println("adapter initialized")
	fmt.Println(drv.Signals().DisplayString())
	return nil
}
