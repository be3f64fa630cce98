package ulink

import (
	"reflect"
	"testing"

	"github.com/openulink/goulink/pkg/tap"
)

func newTestDriver() *Driver {
	return &Driver{
		batch:    newBatch(),
		follower: tap.NewFollower(),
	}
}

func TestTranslateScanSingleChunk(t *testing.T) {
	d := newTestDriver()
	d.follower.SetCurrent(tap.StateRunTestIdle)

	tdi := []byte{0xAB, 0xCD}
	tdo := make([]byte, 2)
	req, err := ScanRequest(ScanIO, false, 16, tdi, tdo, tap.StateRunTestIdle)
	if err != nil {
		t.Fatal(err)
	}

	if err := d.translateScan(&req); err != nil {
		t.Fatal(err)
	}
	if len(d.batch.cmds) != 1 {
		t.Fatalf("expected exactly one wire command, got %d", len(d.batch.cmds))
	}
	cmd := d.batch.cmds[0]
	if cmd.id != cmdScanIO {
		t.Errorf("command id = %v, want cmdScanIO", cmd.id)
	}

	wantStart, _ := tap.PathTMSBits(tap.StateRunTestIdle, tap.StateShiftDR)
	wantEnd, _ := tap.PathTMSBits(tap.StateShiftDR, tap.StateRunTestIdle)
	wantHeader := []byte{
		2, 8,
		byte(len(wantStart)<<4 | len(wantEnd)),
		tmsBitsToByte(wantStart),
		tmsBitsToByte(wantEnd),
	}
	gotHeader := cmd.payloadOut[:5]
	if !reflect.DeepEqual(gotHeader, wantHeader) {
		t.Errorf("header = %v, want %v", gotHeader, wantHeader)
	}
	if !reflect.DeepEqual(cmd.payloadOut[5:], tdi) {
		t.Errorf("tdi payload = %v, want %v", cmd.payloadOut[5:], tdi)
	}
	if !cmd.ownsInbound || !cmd.needsPostprocess {
		t.Errorf("single chunk must own the inbound buffer and request post-processing")
	}
	if d.follower.Current() != tap.StateRunTestIdle {
		t.Errorf("follower current = %v, want Idle", d.follower.Current())
	}
}

func TestTranslateScanSplitsOversizedTransfer(t *testing.T) {
	d := newTestDriver()
	d.follower.SetCurrent(tap.StateRunTestIdle)

	// A scan-in chunk carries only its 5-byte header outbound, so both
	// chunks (58 + 6 inbound bytes) fit one batch. A scan-out or scan-io
	// chunk of 58 TDI bytes fills the 64-byte packet and would force a
	// flush before the second chunk.
	req, err := ScanRequest(ScanIn, false, 512, nil, nil, tap.StateRunTestIdle)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.translateScan(&req); err != nil {
		t.Fatal(err)
	}
	if len(d.batch.cmds) != 2 {
		t.Fatalf("expected two chunks for a 512-bit scan, got %d", len(d.batch.cmds))
	}

	first, second := d.batch.cmds[0], d.batch.cmds[1]
	if first.payloadOut[0] != 58 {
		t.Errorf("first chunk byte count = %d, want 58", first.payloadOut[0])
	}
	if second.payloadOut[0] != 6 {
		t.Errorf("second chunk byte count = %d, want 6", second.payloadOut[0])
	}
	if first.ownsInbound || first.needsPostprocess {
		t.Errorf("intermediate chunk must not own the inbound buffer or request post-processing")
	}
	if !second.ownsInbound {
		t.Errorf("final chunk must own the inbound buffer")
	}
	if len(first.payloadIn) != 58 || &first.payloadIn[0] != &req.scan.result[0] {
		t.Errorf("first chunk inbound view should cover result[0:58]")
	}
	if len(second.payloadIn) != 6 || &second.payloadIn[0] != &req.scan.result[58] {
		t.Errorf("second chunk inbound view should cover result[58:64]")
	}
}

func TestTranslateScanInAllocatesResultBuffer(t *testing.T) {
	d := newTestDriver()
	d.follower.SetCurrent(tap.StateRunTestIdle)

	req, err := ScanRequest(ScanIn, true, 8, nil, nil, tap.StatePauseIR)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.translateScan(&req); err != nil {
		t.Fatal(err)
	}
	if len(req.scan.result) != 1 {
		t.Fatalf("result buffer len = %d, want 1", len(req.scan.result))
	}
	cmd := d.batch.cmds[0]
	if cmd.id != cmdScanIn {
		t.Errorf("command id = %v, want cmdScanIn", cmd.id)
	}
	if len(cmd.payloadOut) != 5 {
		t.Errorf("scan-in payload should be header-only, got %d bytes", len(cmd.payloadOut))
	}
}

func TestTmsBitsToByte(t *testing.T) {
	got := tmsBitsToByte([]bool{true, false, true})
	if got != 0b101 {
		t.Errorf("tmsBitsToByte = %08b, want %08b", got, 0b101)
	}
}
