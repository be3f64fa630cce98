package cmd

import (
	"fmt"
	"os"

	"github.com/google/gousb"
	"github.com/spf13/cobra"

	"github.com/openulink/goulink/pkg/ulink"
)

var flashCmd = &cobra.Command{
	Use:   "flash <firmware.hex>",
	Short: "Download OpenULINK firmware to an adapter running the stock bootloader",
	Args:  cobra.ExactArgs(1),
	RunE:  runFlash,
}

func init() {
	rootCmd.AddCommand(flashCmd)
}

func runFlash(cmd *cobra.Command, args []string) error {
	setupLogging()

	ctx := gousb.NewContext()
	defer ctx.Close()

	dev, err := ctx.OpenDeviceWithVIDPID(ulink.VendorID, ulink.ProductID)
	if err != nil {
		return fmt.Errorf("open usb device: %w", err)
	}
	if dev == nil {
		return fmt.Errorf("no adapter found (VID:0x%04X PID:0x%04X)", uint16(ulink.VendorID), uint16(ulink.ProductID))
	}

	f, err := os.Open(args[0])
	if err != nil {
		dev.Close()
		return fmt.Errorf("open firmware image: %w", err)
	}
	defer f.Close()

	drv, err := ulink.Open(dev, f)
	switch {
	case err == nil:
		drv.Quit()
		fmt.Println("adapter already running OpenULINK firmware; nothing to flash")
	case ulink.Is(err, ulink.ErrFirmware):
		fmt.Println("firmware downloaded; adapter has re-enumerated")
	default:
		return fmt.Errorf("flash failed: %w", err)
	}
	return nil
}
