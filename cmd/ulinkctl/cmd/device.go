package cmd

import (
	"fmt"
	"os"

	"github.com/google/gousb"

	"github.com/openulink/goulink/pkg/ulink"
)

var firmwarePath string

// openDriver discovers and opens the first OpenULINK adapter on the bus
// and wraps it in a Driver. Device discovery itself lives here rather than
// in pkg/ulink: the driver package only ever operates on an
// already-opened *gousb.Device.
func openDriver() (*ulink.Driver, func(), error) {
	ctx := gousb.NewContext()

	dev, err := ctx.OpenDeviceWithVIDPID(ulink.VendorID, ulink.ProductID)
	if err != nil {
		ctx.Close()
		return nil, nil, fmt.Errorf("open usb device: %w", err)
	}
	if dev == nil {
		ctx.Close()
		return nil, nil, fmt.Errorf("no OpenULINK adapter found (VID:0x%04X PID:0x%04X)", uint16(ulink.VendorID), uint16(ulink.ProductID))
	}

	var fw ulink.FirmwareSource
	if firmwarePath != "" {
		f, err := os.Open(firmwarePath)
		if err != nil {
			dev.Close()
			ctx.Close()
			return nil, nil, fmt.Errorf("open firmware image: %w", err)
		}
		defer f.Close()
		fw = f
	}

	drv, err := ulink.Open(dev, fw)
	if err != nil {
		ctx.Close()
		return nil, nil, err
	}

	cleanup := func() {
		drv.Quit()
		ctx.Close()
	}
	return drv, cleanup, nil
}
