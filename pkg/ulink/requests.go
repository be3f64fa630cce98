package ulink

import (
	"github.com/openulink/goulink/pkg/tap"
)

// RequestKind identifies the abstract JTAG operation a Request carries.
type RequestKind int

const (
	KindScan RequestKind = iota
	KindTLRReset
	KindRunTest
	KindLineReset
	KindSleep
	KindPathMove

	// kindGetSignals is produced only by the driver's own init sequence; it
	// is not constructible by callers of ExecuteQueue.
	kindGetSignals
)

// ScanType selects which direction(s) of a scan carry meaningful data.
type ScanType int

const (
	ScanIn ScanType = iota
	ScanOut
	ScanIO
)

type scanParams struct {
	typ      ScanType
	ir       bool
	bits     int
	tdi      []byte
	tdo      []byte
	result   []byte // shared inbound arena for a (possibly split) scan
	endState tap.State
}

// Request is an abstract JTAG operation produced by the higher-level JTAG
// engine and consumed by Driver.ExecuteQueue. Use the constructors below;
// the zero Request is not valid.
type Request struct {
	kind RequestKind

	scan scanParams

	runTestCycles uint16
	endState      tap.State

	lineResetTRST bool
	lineResetSRST bool

	sleepUS uint16

	pathMove []tap.State

	signalsOut *SignalState
}

// ScanRequest builds a scan request. bits must be positive. tdi must carry
// at least ceil(bits/8) bytes when typ is ScanOut or ScanIO. tdo, when
// non-nil, must be at least ceil(bits/8) bytes long and receives the
// captured TDO bits once ExecuteQueue returns, for ScanIn and ScanIO; it is
// ignored for ScanOut. end must be a stable TAP state.
func ScanRequest(typ ScanType, ir bool, bits int, tdi, tdo []byte, end tap.State) (Request, error) {
	if bits <= 0 {
		return Request{}, newErrf(ErrInvalidRequest, "scan bit length must be positive, got %d", bits)
	}
	if !tap.IsStable(end) {
		return Request{}, newErrf(ErrInvalidRequest, "scan end state %v is not stable", end)
	}
	need := (bits + 7) / 8
	if (typ == ScanOut || typ == ScanIO) && len(tdi) < need {
		return Request{}, newErrf(ErrInvalidRequest, "tdi buffer has %d bytes, need %d", len(tdi), need)
	}
	if (typ == ScanIn || typ == ScanIO) && tdo != nil && len(tdo) < need {
		return Request{}, newErrf(ErrInvalidRequest, "tdo buffer has %d bytes, need %d", len(tdo), need)
	}
	return Request{
		kind: KindScan,
		scan: scanParams{
			typ:      typ,
			ir:       ir,
			bits:     bits,
			tdi:      tdi,
			tdo:      tdo,
			endState: end,
		},
	}, nil
}

// TLRResetRequest builds a request that clocks the TAP through five TMS=1
// cycles into Test-Logic-Reset.
func TLRResetRequest() Request {
	return Request{kind: KindTLRReset}
}

// RunTestRequest builds a request that idles the TAP, clocks it cycles
// times, and (if end differs from Idle) moves on to end. end must be a
// stable state.
func RunTestRequest(cycles uint16, end tap.State) (Request, error) {
	if !tap.IsStable(end) {
		return Request{}, newErrf(ErrInvalidRequest, "runtest end state %v is not stable", end)
	}
	return Request{kind: KindRunTest, runTestCycles: cycles, endState: end}, nil
}

// LineResetRequest builds a request that drives TRST and SRST to the given
// logical assert state. Asserting TRST also marks the TAP follower's
// current state as Reset.
func LineResetRequest(trst, srst bool) Request {
	return Request{kind: KindLineReset, lineResetTRST: trst, lineResetSRST: srst}
}

// SleepRequest builds a request that asks the adapter itself to sleep for
// us microseconds. There is no host-side delay: command-queue latency would
// make one incorrect.
func SleepRequest(us uint16) Request {
	return Request{kind: KindSleep, sleepUS: us}
}

// PathMoveRequest builds a request that would walk the TAP through an
// arbitrary sequence of neighbouring states. Not implemented: it emits no
// wire commands and returns success, matching the Non-goal that pathmove is
// unsupported.
func PathMoveRequest(path []tap.State) Request {
	return Request{kind: KindPathMove, pathMove: path}
}

func getSignalsRequest(out *SignalState) Request {
	return Request{kind: kindGetSignals, signalsOut: out}
}
