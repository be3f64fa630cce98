package ulink

import (
	"context"
	"fmt"
	"time"

	"github.com/google/gousb"
)

// USB identity of the ULINK adapter, used to find it both under the stock
// bootloader and once OpenULINK firmware is running. Device discovery
// itself is out of scope: the caller hands Open an already-enumerated
// *gousb.Device.
const (
	VendorID  gousb.ID = 0xC251
	ProductID gousb.ID = 0x2710

	bulkOutAddr = 0x02
	bulkInAddr  = 0x82

	// DefaultTimeout bounds a single bulk round trip during normal
	// operation.
	DefaultTimeout = 5 * time.Second
	// InitTimeout bounds the short status commands issued during Init.
	InitTimeout = 200 * time.Millisecond
)

// transport owns the USB handle for one adapter and performs raw bulk
// writes and reads against its single interrupt-class bulk pair.
type transport struct {
	dev  *gousb.Device
	cfg  *gousb.Config
	intf *gousb.Interface

	epOut *gousb.OutEndpoint
	epIn  *gousb.InEndpoint

	timeout time.Duration
}

// openTransport claims the adapter's interface and opens its bulk
// endpoints on an already-opened device handle.
func openTransport(dev *gousb.Device) (*transport, error) {
	if err := dev.SetAutoDetach(true); err != nil {
		log.WithError(err).Debug("auto-detach kernel driver not supported on this platform")
	}

	cfg, err := dev.Config(1)
	if err != nil {
		return nil, wrapErr(ErrTransport, "select usb configuration", err)
	}

	intf, err := cfg.Interface(0, 0)
	if err != nil {
		cfg.Close()
		return nil, wrapErr(ErrTransport, "claim usb interface", err)
	}

	epOut, err := intf.OutEndpoint(bulkOutAddr)
	if err != nil {
		intf.Close()
		cfg.Close()
		return nil, wrapErr(ErrTransport, "open bulk out endpoint", err)
	}
	epIn, err := intf.InEndpoint(bulkInAddr)
	if err != nil {
		intf.Close()
		cfg.Close()
		return nil, wrapErr(ErrTransport, "open bulk in endpoint", err)
	}

	return &transport{
		dev:     dev,
		cfg:     cfg,
		intf:    intf,
		epOut:   epOut,
		epIn:    epIn,
		timeout: DefaultTimeout,
	}, nil
}

func (t *transport) stringDescriptor(index int) (string, error) {
	return t.dev.GetStringDescriptor(index)
}

// writeRead sends out (at most maxPacketBytes) and, if in is non-empty,
// reads back exactly len(in) bytes into it. A zero-length in skips the
// read entirely: not every command elicits a response.
func (t *transport) writeRead(out []byte, in []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()

	n, err := t.epOut.WriteContext(ctx, out)
	if err != nil {
		return wrapErr(ErrTransport, "bulk write", err)
	}
	if n != len(out) {
		return newErrf(ErrProtocol, "short bulk write: wrote %d of %d bytes", n, len(out))
	}

	if len(in) == 0 {
		return nil
	}

	n, err = t.epIn.ReadContext(ctx, in)
	if err != nil {
		return wrapErr(ErrTransport, "bulk read", err)
	}
	if n != len(in) {
		return newErrf(ErrProtocol, "short bulk read: read %d of %d bytes", n, len(in))
	}
	return nil
}

// drainStranded attempts a single bulk read, discarding whatever comes
// back. Used at init, after the probe test command has already failed, to
// clear a reply a previous, aborted session left queued on the IN
// endpoint.
func (t *transport) drainStranded() error {
	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()
	buf := make([]byte, maxPacketBytes)
	_, err := t.epIn.ReadContext(ctx, buf)
	if err != nil {
		return wrapErr(ErrTransport, "drain stranded packet", err)
	}
	return nil
}

func (t *transport) close() error {
	if t.intf != nil {
		t.intf.Close()
		t.intf = nil
	}
	if t.cfg != nil {
		t.cfg.Close()
		t.cfg = nil
	}
	if t.dev != nil {
		if err := t.dev.Close(); err != nil {
			return fmt.Errorf("close usb device: %w", err)
		}
		t.dev = nil
	}
	return nil
}
