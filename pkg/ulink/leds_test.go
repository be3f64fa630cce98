package ulink

import "testing"

func TestLEDApplyOffWinsOverOn(t *testing.T) {
	s := LEDState{COM: true, RUN: true}
	next := s.Apply(LEDCOMOn | LEDCOMOff)
	if next.COM {
		t.Errorf("COM should be off when both on and off bits are set")
	}
	if !next.RUN {
		t.Errorf("RUN should be unaffected")
	}
}

func TestLEDApplyIndependentChannels(t *testing.T) {
	s := LEDState{}
	next := s.Apply(LEDCOMOn | LEDRUNOff)
	if !next.COM || next.RUN {
		t.Errorf("got %+v, want COM=true RUN=false", next)
	}
}

func TestEncodeLEDsRoundTrips(t *testing.T) {
	s := LEDState{COM: true, RUN: false}
	bitfield := encodeLEDs(s)
	next := LEDState{}.Apply(bitfield)
	if next != s {
		t.Errorf("round trip got %+v, want %+v", next, s)
	}
}
