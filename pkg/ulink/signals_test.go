package ulink

import (
	"strings"
	"testing"
)

func TestEncodeSetSignals(t *testing.T) {
	cases := []struct {
		trst, srst bool
		low, high  byte
	}{
		{false, false, SignalTRST | SignalRESET, 0},
		{true, false, SignalRESET, SignalTRST},
		{false, true, SignalTRST, SignalRESET},
		{true, true, 0, SignalTRST | SignalRESET},
	}
	for _, c := range cases {
		low, high := EncodeSetSignals(c.trst, c.srst)
		if low != c.low || high != c.high {
			t.Errorf("EncodeSetSignals(%v,%v) = (%#x,%#x), want (%#x,%#x)", c.trst, c.srst, low, high, c.low, c.high)
		}
	}
}

func TestDisplayStringInvertsTRSTAndRESET(t *testing.T) {
	s := SignalState{Input: 0, Output: 0} // neither line set in wire form -> both shown set after inversion
	out := s.DisplayString()
	if out == "" {
		t.Fatal("expected non-empty display string")
	}
	if !strings.Contains(out, "TRST=true RESET=true") {
		t.Errorf("display string %q should show TRST and RESET inverted", out)
	}
}
