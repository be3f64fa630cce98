package ulink

import (
	"github.com/google/gousb"

	"github.com/openulink/goulink/pkg/tap"
)

// firmwareString is the USB string descriptor index 1 reports once
// OpenULINK firmware (rather than the stock Cypress bootloader) is running.
const firmwareString = "OpenULINK"

// Driver is the facade the upward JTAG queue drives: one Driver owns one
// physical adapter. The zero Driver is not usable; construct one with Open.
type Driver struct {
	transport *transport
	batch     *batch
	follower  *tap.Follower

	slowMode bool
	speedIdx int
	leds     LEDState
	signals  SignalState
}

// Open claims dev as an OpenULINK adapter. If the device is still running
// the stock Cypress bootloader (detected by reading USB string descriptor
// 1), firmware is non-nil and supplies the Intel HEX image to download
// before the adapter is usable; firmware may be nil when the caller knows
// the adapter is already running OpenULINK firmware.
func Open(dev *gousb.Device, firmware FirmwareSource) (*Driver, error) {
	t, err := openTransport(dev)
	if err != nil {
		return nil, err
	}

	d := &Driver{
		transport: t,
		batch:     newBatch(),
		follower:  tap.NewFollower(),
	}

	desc, err := t.stringDescriptor(1)
	if err != nil {
		d.closeTransport()
		return nil, wrapErr(ErrTransport, "read string descriptor 1", err)
	}
	if desc != firmwareString {
		if firmware == nil {
			d.closeTransport()
			return nil, newErr(ErrFirmware, "adapter is running stock firmware and no firmware image was supplied")
		}
		log.Info("stock firmware detected, downloading OpenULINK image")
		if err := d.loadFirmware(firmware); err != nil {
			d.closeTransport()
			return nil, err
		}
		// The adapter re-enumerates under new descriptors once firmware
		// takes over; this handle is now stale. Re-discovery is the USB
		// device-opening collaborator's job, not this package's, so Open
		// hands control back rather than guessing at a new device handle.
		d.closeTransport()
		return nil, newErr(ErrFirmware, "firmware downloaded and adapter re-enumerated; reopen the device and call Open again")
	}

	if err := d.Init(); err != nil {
		d.closeTransport()
		return nil, err
	}
	return d, nil
}

func (d *Driver) closeTransport() {
	if d.transport != nil {
		_ = d.transport.close()
	}
}

// Init probes the adapter with a test command. If that exchange fails —
// as it will when a previous, aborted session left a reply stranded on
// the IN endpoint — it drains a single stranded packet and retries the
// probe once. A failed drain or a failed retry is fatal. It uses
// InitTimeout rather than the driver's normal timeout so a wedged adapter
// is detected quickly.
func (d *Driver) Init() error {
	prev := d.transport.timeout
	d.transport.timeout = InitTimeout
	defer func() { d.transport.timeout = prev }()

	if err := d.probeTest(); err != nil {
		log.WithError(err).Warn("test command failed, draining a possibly stranded reply and retrying")
		if drainErr := d.transport.drainStranded(); drainErr != nil {
			return wrapErr(ErrTransport, "probe adapter with test command", err)
		}
		if err := d.probeTest(); err != nil {
			return wrapErr(ErrTransport, "probe adapter with test command", err)
		}
	}

	var sig SignalState
	req := getSignalsRequest(&sig)
	if err := d.translate(&req); err != nil {
		return err
	}
	if err := d.batch.flush(d); err != nil {
		return err
	}
	d.signals = sig
	log.Debugf("adapter signals after init: %s", sig.DisplayString())
	return nil
}

// probeTest sends a single test(0xAA) command and returns any error the
// exchange produces, without wrapping it: callers decide how to present a
// probe failure.
func (d *Driver) probeTest() error {
	testCmd := newCommand(cmdTest)
	if err := testCmd.setOut([]byte{0xAA}); err != nil {
		return err
	}
	return d.execute([]*wireCommand{testCmd})
}

// Signals reports the adapter's signal state as last observed, updated by
// Init and by any request the caller queues that reads signals back.
func (d *Driver) Signals() SignalState {
	return d.signals
}

// Quit releases the adapter's USB resources. The Driver must not be used
// afterwards.
func (d *Driver) Quit() error {
	return d.closeTransportErr()
}

func (d *Driver) closeTransportErr() error {
	if d.transport == nil {
		return nil
	}
	err := d.transport.close()
	d.transport = nil
	return err
}

// ExecuteQueue translates and runs every request in order, flushing the
// final partial batch once all requests have been translated. On any
// error the queue is abandoned and the pending batch is dropped: callers
// receive the first failure and must not assume the TAP follower reflects
// reality afterwards.
func (d *Driver) ExecuteQueue(reqs []Request) error {
	for i := range reqs {
		if err := d.translate(&reqs[i]); err != nil {
			d.batch.clear()
			return err
		}
	}
	return d.batch.flush(d)
}

// SetSlowMode selects the slow-scan-*/slow-clock-tms command variants for
// all subsequent translation. It is driven by Speed, not meant to be
// called directly by most callers.
func (d *Driver) SetSlowMode(slow bool) {
	d.slowMode = slow
}

// Khz maps a requested TCK frequency in kHz to the adapter's speed_index.
// It rejects 0 (RCLK, unsupported without adaptive clocking) and anything
// above the 150 kHz ceiling this adapter can reach.
func (d *Driver) Khz(k int) (int, error) {
	if k == 0 {
		return 0, newErr(ErrInvalidRequest, "khz(0) requests RCLK, which this adapter does not support")
	}
	if k > 150 {
		return 0, newErrf(ErrInvalidRequest, "khz(%d) exceeds the 150 kHz ceiling", k)
	}
	if k >= 150 {
		return 0, nil
	}
	return 1, nil
}

// Speed selects speed_index s, switching between fast and slow wire
// command variants accordingly.
func (d *Driver) Speed(s int) error {
	if s != 0 && s != 1 {
		return newErrf(ErrInvalidRequest, "unsupported speed index %d", s)
	}
	d.speedIdx = s
	d.SetSlowMode(s == 1)
	return nil
}

// SpeedDiv maps a speed_index back to its TCK frequency in kHz. Only
// indices 0 and 1 are defined; any other index is an error rather than
// silently leaving khz unset.
func (d *Driver) SpeedDiv(s int) (int, error) {
	switch s {
	case 0:
		return 150, nil
	case 1:
		return 100, nil
	default:
		return 0, newErrf(ErrInvalidRequest, "unsupported speed index %d", s)
	}
}

// SetLEDs queues a set-leds command applying bitfield against the
// driver's tracked LED state and returns the resulting state. The wire
// command itself is not flushed until the batch is next flushed by
// ExecuteQueue.
func (d *Driver) SetLEDs(bitfield byte) (LEDState, error) {
	d.leds = d.leds.Apply(bitfield)
	cmd := newCommand(cmdSetLEDs)
	if err := cmd.setOut([]byte{bitfield}); err != nil {
		return d.leds, err
	}
	if err := d.batch.append(d, cmd); err != nil {
		return d.leds, err
	}
	return d.leds, nil
}

// execute implements wireSink.execute: it serializes cmds into a single
// outbound packet, performs one bulk round trip, and scatters the inbound
// bytes back into each command's payloadIn view in order.
func (d *Driver) execute(cmds []*wireCommand) error {
	var out []byte
	inTotal := 0
	for _, c := range cmds {
		out = append(out, byte(c.id))
		out = append(out, c.payloadOut...)
		inTotal += len(c.payloadIn)
	}

	in := make([]byte, inTotal)
	if err := d.transport.writeRead(out, in); err != nil {
		return err
	}

	offset := 0
	for _, c := range cmds {
		n := len(c.payloadIn)
		if n == 0 {
			continue
		}
		copy(c.payloadIn, in[offset:offset+n])
		offset += n
	}
	return nil
}

// postProcess implements wireSink.postProcess: it distributes captured
// inbound bytes from the wire representation into the shapes callers
// asked for — copying a scan's shared result arena into the caller's tdo
// buffer, or filling a SignalState.
func (d *Driver) postProcess(cmds []*wireCommand) error {
	for _, c := range cmds {
		if !c.needsPostprocess {
			continue
		}
		req := c.origin
		switch req.kind {
		case KindScan:
			p := &req.scan
			if p.tdo != nil {
				need := (p.bits + 7) / 8
				copy(p.tdo[:need], p.result)
			}
		case kindGetSignals:
			if len(c.payloadIn) < 2 {
				return newErr(ErrProtocol, "get-signals reply shorter than 2 bytes")
			}
			req.signalsOut.Input = c.payloadIn[0]
			req.signalsOut.Output = c.payloadIn[1]
		}
	}
	return nil
}
