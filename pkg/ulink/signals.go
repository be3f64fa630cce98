package ulink

import "fmt"

// Signal bits as carried on the wire (set-signals / get-signals). TRST and
// RESET are written here in their logical (asserted = 1) form; the adapter
// hardware inverts them physically, which only matters when presenting
// get-signals results to a human.
const (
	SignalTDI   byte = 1 << 0
	SignalTDO   byte = 1 << 1
	SignalTMS   byte = 1 << 2
	SignalTCK   byte = 1 << 3
	SignalTRST  byte = 1 << 4
	SignalRESET byte = 1 << 5
	SignalBRKIN byte = 1 << 6
	SignalOCDSE byte = 1 << 7

	invertedSignals = SignalTRST | SignalRESET
)

// SignalState holds the two bytes returned by a get-signals command.
type SignalState struct {
	Input  byte
	Output byte
}

// EncodeSetSignals builds the (low, high) mask pair for a set-signals
// command that asserts TRST and/or SRST (RESET) according to the logical
// (non-inverted) sense the caller requests.
func EncodeSetSignals(trst, srst bool) (low, high byte) {
	if trst {
		high |= SignalTRST
	} else {
		low |= SignalTRST
	}
	if srst {
		high |= SignalRESET
	} else {
		low |= SignalRESET
	}
	return low, high
}

// DisplayString renders the signal state for a human operator, inverting
// TRST and RESET back to their physical sense.
func (s SignalState) DisplayString() string {
	displayed := func(b byte) byte { return b ^ invertedSignals }
	return fmt.Sprintf(
		"input=0x%02x output=0x%02x (TDI=%v TDO=%v TMS=%v TCK=%v TRST=%v RESET=%v BRKIN=%v OCDSE=%v)",
		s.Input, s.Output,
		bit(s.Input, SignalTDI), bit(s.Input, SignalTDO), bit(s.Input, SignalTMS), bit(s.Input, SignalTCK),
		bit(displayed(s.Output), SignalTRST), bit(displayed(s.Output), SignalRESET),
		bit(s.Input, SignalBRKIN), bit(s.Input, SignalOCDSE),
	)
}

func bit(b, mask byte) bool {
	return b&mask != 0
}
