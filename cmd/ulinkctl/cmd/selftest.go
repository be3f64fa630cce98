package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openulink/goulink/pkg/tap"
	"github.com/openulink/goulink/pkg/ulink"
)

var selftestCmd = &cobra.Command{
	Use:   "selftest",
	Short: "Run the init probe, then a TLR reset and a short scan round-trip",
	RunE:  runSelftest,
}

func init() {
	rootCmd.AddCommand(selftestCmd)
	selftestCmd.Flags().StringVar(&firmwarePath, "firmware", "", "Intel HEX firmware image to download if the adapter is running stock firmware")
}

func runSelftest(cmd *cobra.Command, args []string) error {
	setupLogging()

	drv, cleanup, err := openDriver()
	if err != nil {
		return err
	}
	defer cleanup()

	tdi := []byte{0xAB, 0xCD}
	tdo := make([]byte, 2)
	scan, err := ulink.ScanRequest(ulink.ScanIO, false, 16, tdi, tdo, tap.StateRunTestIdle)
	if err != nil {
		return fmt.Errorf("build scan request: %w", err)
	}

	queue := []ulink.Request{
		ulink.TLRResetRequest(),
		scan,
	}
	if err := drv.ExecuteQueue(queue); err != nil {
		return fmt.Errorf("selftest queue failed: %w", err)
	}

	fmt.Printf("selftest ok: captured % x\n", tdo)
	return nil
}
