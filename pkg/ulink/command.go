package ulink

// maxPacketBytes is the hard ceiling on bytes carried by a single bulk
// transfer in either direction: the adapter firmware parses exactly one
// 64-byte bulk packet at a time per direction.
const maxPacketBytes = 64

// maxScanChunkBytes is the largest TDI chunk a single scan-* command may
// carry: 64 minus the id byte minus the 5-byte scan header.
const maxScanChunkBytes = maxPacketBytes - 1 - 5

type commandID byte

const (
	cmdScanIn commandID = iota + 1
	cmdSlowScanIn
	cmdScanOut
	cmdSlowScanOut
	cmdScanIO
	cmdSlowScanIO
	cmdClockTMS
	cmdSlowClockTMS
	cmdClockTCK
	cmdSleepUS
	cmdSleepMS
	cmdGetSignals
	cmdSetSignals
	cmdConfigureTCKFreq
	cmdSetLEDs
	cmdTest
)

// wireCommand is a single adapter command with its outbound and inbound
// payload areas. Constructing a command's outbound or inbound payload twice
// is a programmer bug and is rejected with a protocol error rather than
// silently overwritten.
type wireCommand struct {
	id commandID

	payloadOut []byte
	payloadIn  []byte

	ownsInbound      bool
	needsPostprocess bool

	origin *Request

	outSet bool
	inSet  bool
}

func newCommand(id commandID) *wireCommand {
	return &wireCommand{id: id}
}

// setOut assigns the outbound payload (0..63 bytes, excluding the id byte).
func (c *wireCommand) setOut(payload []byte) error {
	if c.outSet {
		return newErrf(ErrProtocol, "duplicate outbound payload allocation for command 0x%02x", c.id)
	}
	if len(payload) > maxPacketBytes-1 {
		return newErrf(ErrInvalidRequest, "outbound payload of %d bytes exceeds %d-byte limit", len(payload), maxPacketBytes-1)
	}
	c.payloadOut = payload
	c.outSet = true
	return nil
}

// setIn assigns the inbound payload view (0..64 bytes). ownsInbound marks
// whether clear() should release the backing buffer; callers set it after
// setIn for commands that are the sole or final owner of a shared buffer.
func (c *wireCommand) setIn(view []byte) error {
	if c.inSet {
		return newErrf(ErrProtocol, "duplicate inbound payload allocation for command 0x%02x", c.id)
	}
	if len(view) > maxPacketBytes {
		return newErrf(ErrInvalidRequest, "inbound payload of %d bytes exceeds %d-byte limit", len(view), maxPacketBytes)
	}
	c.payloadIn = view
	c.inSet = true
	return nil
}

func (c *wireCommand) outboundLen() int {
	return 1 + len(c.payloadOut)
}

func (c *wireCommand) inboundLen() int {
	return len(c.payloadIn)
}
