package ulink

import "testing"

func TestCommandSetOutRejectsDuplicate(t *testing.T) {
	cmd := newCommand(cmdTest)
	if err := cmd.setOut([]byte{0xAA}); err != nil {
		t.Fatalf("first setOut: %v", err)
	}
	err := cmd.setOut([]byte{0xAA})
	if !Is(err, ErrProtocol) {
		t.Fatalf("expected ErrProtocol on duplicate setOut, got %v", err)
	}
}

func TestCommandSetOutRejectsOversizedPayload(t *testing.T) {
	cmd := newCommand(cmdScanOut)
	big := make([]byte, maxPacketBytes)
	if err := cmd.setOut(big); !Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestCommandSetInRejectsDuplicate(t *testing.T) {
	cmd := newCommand(cmdGetSignals)
	buf := make([]byte, 2)
	if err := cmd.setIn(buf); err != nil {
		t.Fatalf("first setIn: %v", err)
	}
	if err := cmd.setIn(buf); !Is(err, ErrProtocol) {
		t.Fatalf("expected ErrProtocol on duplicate setIn, got %v", err)
	}
}

func TestCommandLengths(t *testing.T) {
	cmd := newCommand(cmdScanIO)
	if err := cmd.setOut([]byte{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	if err := cmd.setIn(make([]byte, 5)); err != nil {
		t.Fatal(err)
	}
	if got := cmd.outboundLen(); got != 4 {
		t.Errorf("outboundLen() = %d, want 4", got)
	}
	if got := cmd.inboundLen(); got != 5 {
		t.Errorf("inboundLen() = %d, want 5", got)
	}
}
