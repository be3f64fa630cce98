package ulink

import (
	"github.com/boljen/go-bitmap"

	"github.com/openulink/goulink/pkg/tap"
)

// tmsBitsToByte packs a TMS bit sequence (length <= 7, guaranteed by
// pkg/tap) LSB-first into a single byte, the wire encoding used by every
// scan header and clock-tms command.
func tmsBitsToByte(bits []bool) byte {
	bm := bitmap.New(8)
	for i, on := range bits {
		bm.Set(i, on)
	}
	return bm[0]
}

func (d *Driver) shiftFamily(ir bool) (shift, pause tap.State) {
	if ir {
		return tap.StateShiftIR, tap.StatePauseIR
	}
	return tap.StateShiftDR, tap.StatePauseDR
}

func (d *Driver) scanCommandID(typ ScanType) commandID {
	switch typ {
	case ScanIn:
		if d.slowMode {
			return cmdSlowScanIn
		}
		return cmdScanIn
	case ScanOut:
		if d.slowMode {
			return cmdSlowScanOut
		}
		return cmdScanOut
	default:
		if d.slowMode {
			return cmdSlowScanIO
		}
		return cmdScanIO
	}
}

// translateScan implements the split-scan algorithm: it walks the TDI
// buffer in chunks of up to maxScanChunkBytes, entering the shift state on
// the first chunk, pausing and resuming between chunks, and exiting to the
// requested end state on the last.
func (d *Driver) translateScan(req *Request) error {
	p := &req.scan
	shiftState, pauseState := d.shiftFamily(p.ir)

	bytesLen := (p.bits + 7) / 8
	bitsLastByte := ((p.bits - 1) % 8) + 1

	if err := d.follower.SetEndState(p.endState); err != nil {
		return wrapErr(ErrInvalidRequest, "set scan end state", err)
	}

	firstBits, err := d.follower.PathTo(shiftState)
	if err != nil {
		return wrapErr(ErrInvalidRequest, "compute enter-shift path", err)
	}
	lastBits, err := tap.PathTMSBits(shiftState, d.follower.EndState())
	if err != nil {
		return wrapErr(ErrInvalidRequest, "compute exit-to-end path", err)
	}
	pauseBits, err := tap.PathTMSBits(shiftState, pauseState)
	if err != nil {
		return wrapErr(ErrInvalidRequest, "compute shift-to-pause path", err)
	}
	resumeBits, err := tap.PathTMSBits(pauseState, shiftState)
	if err != nil {
		return wrapErr(ErrInvalidRequest, "compute pause-to-shift path", err)
	}

	needsResult := p.typ == ScanIn || p.typ == ScanIO
	if needsResult {
		p.result = make([]byte, bytesLen)
	}

	offset := 0
	for offset < bytesLen {
		remaining := bytesLen - offset
		chunkLen := remaining
		final := true
		if remaining > maxScanChunkBytes {
			chunkLen = maxScanChunkBytes
			final = false
		}

		startTMS := resumeBits
		if offset == 0 {
			startTMS = firstBits
		}

		endTMS := pauseBits
		chunkBitsLastByte := 8
		if final {
			endTMS = lastBits
			chunkBitsLastByte = bitsLastByte
		}

		cmd := newCommand(d.scanCommandID(p.typ))
		header := []byte{
			byte(chunkLen),
			byte(chunkBitsLastByte),
			byte(len(startTMS)<<4 | len(endTMS)),
			tmsBitsToByte(startTMS),
			tmsBitsToByte(endTMS),
		}

		var out []byte
		if p.typ == ScanOut || p.typ == ScanIO {
			out = make([]byte, 0, len(header)+chunkLen)
			out = append(out, header...)
			out = append(out, p.tdi[offset:offset+chunkLen]...)
		} else {
			out = header
		}
		if err := cmd.setOut(out); err != nil {
			return err
		}

		if needsResult {
			if err := cmd.setIn(p.result[offset : offset+chunkLen]); err != nil {
				return err
			}
			cmd.ownsInbound = final
		}
		cmd.needsPostprocess = final && needsResult
		cmd.origin = req

		if err := d.batch.append(d, cmd); err != nil {
			return err
		}

		offset += chunkLen
	}

	d.follower.SetCurrent(d.follower.EndState())
	return nil
}
