package ulink

import (
	"io"
	"time"

	"github.com/google/gousb"

	"github.com/openulink/goulink/pkg/ulink/hexfile"
)

const (
	// CPUCS is the Cypress EZ-USB 8051 CPU control and status register.
	// Writing 1 holds the core in reset; writing 0 releases it.
	cpucsAddress = 0x7F92

	vendorFirmwareRequest = 0xA0
	firmwareChunkBytes    = 64

	// renumerationWait is how long the adapter takes to re-enumerate on
	// the USB bus once its firmware takes over from the bootloader.
	renumerationWait = 1500 * time.Millisecond
)

// FirmwareSource supplies the Intel HEX firmware image downloaded into a
// stock-bootloader adapter. Callers typically wrap an *os.File; opening
// the image is the caller's job, and this package parses it with hexfile.
type FirmwareSource io.Reader

// LoadFirmware downloads src into the adapter, following the same vendor
// control protocol as the stock-bootloader detection path in Open. It is
// exported so callers that hold a firmware image can trigger a download
// explicitly; the package bundles no image of its own.
func (d *Driver) LoadFirmware(src FirmwareSource) error {
	return d.loadFirmware(src)
}

func (d *Driver) loadFirmware(src FirmwareSource) error {
	if src == nil {
		return newErr(ErrFirmware, "no firmware image supplied")
	}

	sections, err := hexfile.Parse(src)
	if err != nil {
		return wrapErr(ErrFirmware, "parse firmware image", err)
	}

	if err := d.controlWrite(cpucsAddress, []byte{0x01}); err != nil {
		return wrapErr(ErrFirmware, "hold cpu in reset", err)
	}

	for _, sec := range sections {
		if err := d.writeFirmwareSection(sec); err != nil {
			return wrapErr(ErrFirmware, "write firmware section", err)
		}
	}

	if err := d.controlWrite(cpucsAddress, []byte{0x00}); err != nil {
		return wrapErr(ErrFirmware, "release cpu from reset", err)
	}

	log.Info("firmware downloaded, waiting for adapter to re-enumerate")
	time.Sleep(renumerationWait)
	return nil
}

func (d *Driver) writeFirmwareSection(sec hexfile.Section) error {
	for offset := 0; offset < len(sec.Data); offset += firmwareChunkBytes {
		end := offset + firmwareChunkBytes
		if end > len(sec.Data) {
			end = len(sec.Data)
		}
		addr := sec.Address + uint32(offset)
		if err := d.controlWrite(addr, sec.Data[offset:end]); err != nil {
			return err
		}
	}
	return nil
}

// controlWrite performs a vendor, device-recipient, host-to-device control
// transfer with bRequest=0xA0 per the adapter's firmware-load protocol.
func (d *Driver) controlWrite(address uint32, data []byte) error {
	const (
		requestTypeVendorOut = uint8(gousb.ControlOut | gousb.ControlVendor | gousb.ControlDevice)
	)
	_, err := d.transport.dev.Control(requestTypeVendorOut, vendorFirmwareRequest, uint16(address), 0, data)
	if err != nil {
		return err
	}
	return nil
}
