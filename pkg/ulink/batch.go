package ulink

// wireSink executes an assembled batch of wire commands over the transport
// and then distributes captured bits back to the requests that produced
// them. The Driver is the only production implementation; tests supply a
// fake to exercise the batch builder without a USB device.
type wireSink interface {
	execute(cmds []*wireCommand) error
	postProcess(cmds []*wireCommand) error
}

// batch is an ordered, append-only sequence of wire commands bound for one
// USB round-trip. It tracks running outbound/inbound byte counts and
// auto-flushes before an append would exceed the 64-byte ceiling in either
// direction.
type batch struct {
	cmds    []*wireCommand
	outUsed int
	inUsed  int
}

func newBatch() *batch {
	return &batch{}
}

// append adds cmd to the batch, flushing first if doing so would overrun
// the outbound or inbound packet budget.
func (b *batch) append(sink wireSink, cmd *wireCommand) error {
	outNeed := cmd.outboundLen()
	inNeed := cmd.inboundLen()

	if b.outUsed+outNeed > maxPacketBytes || b.inUsed+inNeed > maxPacketBytes {
		if err := b.flush(sink); err != nil {
			return err
		}
	}

	b.cmds = append(b.cmds, cmd)
	b.outUsed += outNeed
	b.inUsed += inNeed
	return nil
}

// flush executes and post-processes the pending commands, then clears the
// batch regardless of outcome. A no-op on an empty batch.
func (b *batch) flush(sink wireSink) error {
	if len(b.cmds) == 0 {
		return nil
	}
	cmds := b.cmds

	if err := sink.execute(cmds); err != nil {
		b.clear()
		return err
	}
	if err := sink.postProcess(cmds); err != nil {
		b.clear()
		return err
	}
	b.clear()
	return nil
}

// clear releases the batch's outbound payloads unconditionally; inbound
// buffers are released only by the command flagged as their owner (the
// standalone command or the final chunk of a split scan). Go's garbage
// collector reclaims both once unreferenced, so clearing here just drops
// the batch's own references.
func (b *batch) clear() {
	b.cmds = nil
	b.outUsed = 0
	b.inUsed = 0
}

func (b *batch) empty() bool {
	return len(b.cmds) == 0
}
