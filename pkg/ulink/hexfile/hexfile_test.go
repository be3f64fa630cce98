package hexfile

import (
	"strings"
	"testing"
)

// checksum computes the Intel HEX checksum byte for a record's non-colon,
// non-checksum bytes, for building valid test fixtures.
func checksum(bytes []byte) byte {
	var sum byte
	for _, b := range bytes {
		sum += b
	}
	return byte(0x100 - int(sum))
}

func record(byteCount byte, addr uint16, rtype byte, data []byte) string {
	body := []byte{byteCount, byte(addr >> 8), byte(addr), rtype}
	body = append(body, data...)
	sum := checksum(body)
	hexBody := ""
	for _, b := range body {
		hexBody += byteToHex(b)
	}
	return ":" + hexBody + byteToHex(sum)
}

func byteToHex(b byte) string {
	const digits = "0123456789ABCDEF"
	return string([]byte{digits[b>>4], digits[b&0xf]})
}

func TestParseSingleSectionMergesAdjacentRecords(t *testing.T) {
	lines := []string{
		record(2, 0x0000, recData, []byte{0xDE, 0xAD}),
		record(2, 0x0002, recData, []byte{0xBE, 0xEF}),
		record(0, 0x0000, recEndOfFile, nil),
	}
	sections, err := Parse(strings.NewReader(strings.Join(lines, "\n")))
	if err != nil {
		t.Fatal(err)
	}
	if len(sections) != 1 {
		t.Fatalf("expected one merged section, got %d", len(sections))
	}
	if sections[0].Address != 0 {
		t.Errorf("section address = %#x, want 0", sections[0].Address)
	}
	want := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	if string(sections[0].Data) != string(want) {
		t.Errorf("section data = % x, want % x", sections[0].Data, want)
	}
}

func TestParseExtendedLinearAddressStartsNewSection(t *testing.T) {
	lines := []string{
		record(1, 0x0000, recData, []byte{0x01}),
		record(2, 0x0000, recExtendedLinearAddr, []byte{0x00, 0x01}),
		record(1, 0x0000, recData, []byte{0x02}),
		record(0, 0x0000, recEndOfFile, nil),
	}
	sections, err := Parse(strings.NewReader(strings.Join(lines, "\n")))
	if err != nil {
		t.Fatal(err)
	}
	if len(sections) != 2 {
		t.Fatalf("expected two sections across the address jump, got %d", len(sections))
	}
	if sections[1].Address != 0x00010000 {
		t.Errorf("second section address = %#x, want 0x00010000", sections[1].Address)
	}
}

func TestParseRejectsBadChecksum(t *testing.T) {
	bad := ":02000000DEAD00" // wrong trailing checksum byte
	if _, err := Parse(strings.NewReader(bad)); err == nil {
		t.Fatal("expected checksum error")
	}
}

func TestParseRequiresEndOfFileRecord(t *testing.T) {
	lines := []string{record(1, 0x0000, recData, []byte{0x01})}
	if _, err := Parse(strings.NewReader(strings.Join(lines, "\n"))); err == nil {
		t.Fatal("expected missing end-of-file error")
	}
}
