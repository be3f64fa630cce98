package ulink

import (
	"github.com/openulink/goulink/pkg/tap"
)

// translate appends the wire commands for req to the driver's batch,
// flushing partial packets along the way as capacity demands. It is the
// single dispatch point between the abstract Request model and the wire
// command layer.
func (d *Driver) translate(req *Request) error {
	switch req.kind {
	case KindScan:
		return d.translateScan(req)
	case KindTLRReset:
		return d.translateTLRReset(req)
	case KindRunTest:
		return d.translateRunTest(req)
	case KindLineReset:
		return d.translateLineReset(req)
	case KindSleep:
		return d.translateSleep(req)
	case KindPathMove:
		return d.translatePathMove(req)
	case kindGetSignals:
		return d.translateGetSignals(req)
	default:
		return newErrf(ErrProtocol, "unknown request kind %d", req.kind)
	}
}

func (d *Driver) clockTMSCommandID() commandID {
	if d.slowMode {
		return cmdSlowClockTMS
	}
	return cmdClockTMS
}

// translateTLRReset clocks five TMS=1 cycles regardless of the follower's
// current belief, forcing the TAP into Test-Logic-Reset even if the
// follower has lost sync.
func (d *Driver) translateTLRReset(req *Request) error {
	cmd := newCommand(d.clockTMSCommandID())
	bits := []bool{true, true, true, true, true}
	if err := cmd.setOut([]byte{byte(len(bits)), tmsBitsToByte(bits)}); err != nil {
		return err
	}
	cmd.origin = req
	if err := d.batch.append(d, cmd); err != nil {
		return err
	}
	d.follower.SetCurrent(tap.StateTestLogicReset)
	return nil
}

// translateRunTest moves the TAP to Idle, clocks it there for the
// requested number of cycles, then (if needed) moves on to end.
func (d *Driver) translateRunTest(req *Request) error {
	toIdle, err := d.follower.PathTo(tap.StateRunTestIdle)
	if err != nil {
		return wrapErr(ErrInvalidRequest, "compute path to idle", err)
	}
	if len(toIdle) > 0 {
		cmd := newCommand(d.clockTMSCommandID())
		if err := cmd.setOut([]byte{byte(len(toIdle)), tmsBitsToByte(toIdle)}); err != nil {
			return err
		}
		cmd.origin = req
		if err := d.batch.append(d, cmd); err != nil {
			return err
		}
	}
	d.follower.SetCurrent(tap.StateRunTestIdle)

	if req.runTestCycles > 0 {
		cmd := newCommand(cmdClockTCK)
		lo := byte(req.runTestCycles & 0xff)
		hi := byte(req.runTestCycles >> 8)
		if err := cmd.setOut([]byte{lo, hi}); err != nil {
			return err
		}
		cmd.origin = req
		if err := d.batch.append(d, cmd); err != nil {
			return err
		}
	}

	if err := d.follower.SetEndState(req.endState); err != nil {
		return wrapErr(ErrInvalidRequest, "set runtest end state", err)
	}
	if d.follower.EndState() == tap.StateRunTestIdle {
		return nil
	}
	toEnd, err := d.follower.PathTo(d.follower.EndState())
	if err != nil {
		return wrapErr(ErrInvalidRequest, "compute path to end state", err)
	}
	if len(toEnd) > 0 {
		cmd := newCommand(d.clockTMSCommandID())
		if err := cmd.setOut([]byte{byte(len(toEnd)), tmsBitsToByte(toEnd)}); err != nil {
			return err
		}
		cmd.origin = req
		if err := d.batch.append(d, cmd); err != nil {
			return err
		}
	}
	d.follower.SetCurrent(d.follower.EndState())
	return nil
}

// translateLineReset drives TRST/SRST to the requested logical level.
// Asserting TRST resets the TAP itself, so the follower is resynced to
// Test-Logic-Reset in that case.
func (d *Driver) translateLineReset(req *Request) error {
	low, high := EncodeSetSignals(req.lineResetTRST, req.lineResetSRST)
	cmd := newCommand(cmdSetSignals)
	if err := cmd.setOut([]byte{low, high}); err != nil {
		return err
	}
	cmd.origin = req
	if err := d.batch.append(d, cmd); err != nil {
		return err
	}
	if req.lineResetTRST {
		d.follower.SetCurrent(tap.StateTestLogicReset)
	}
	return nil
}

// translateSleep asks the adapter to sleep us microseconds on its own
// clock; a host-side time.Sleep would be skewed by queueing latency.
func (d *Driver) translateSleep(req *Request) error {
	cmd := newCommand(cmdSleepUS)
	lo := byte(req.sleepUS & 0xff)
	hi := byte(req.sleepUS >> 8)
	if err := cmd.setOut([]byte{lo, hi}); err != nil {
		return err
	}
	cmd.origin = req
	return d.batch.append(d, cmd)
}

// translatePathMove is a deliberate no-op: pathmove is out of scope, so a
// request using it is accepted but produces no wire traffic.
func (d *Driver) translatePathMove(req *Request) error {
	log.Warn("pathmove request ignored: unsupported by this driver")
	return nil
}

func (d *Driver) translateGetSignals(req *Request) error {
	cmd := newCommand(cmdGetSignals)
	if err := cmd.setOut(nil); err != nil {
		return err
	}
	if err := cmd.setIn(make([]byte, 2)); err != nil {
		return err
	}
	cmd.ownsInbound = true
	cmd.needsPostprocess = true
	cmd.origin = req
	return d.batch.append(d, cmd)
}
