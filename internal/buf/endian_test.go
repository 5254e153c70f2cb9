package buf

import "testing"

func TestEndianHelpers(t *testing.T) {
	data := []byte{0x01, 0x23, 0x45, 0x67, 0x89, 0xab, 0xcd, 0xef}

	if got := U16LE(data); got != 0x2301 {
		t.Fatalf("U16LE = 0x%x, want 0x2301", got)
	}
	if got := U32LE(data); got != 0x67452301 {
		t.Fatalf("U32LE = 0x%x, want 0x67452301", got)
	}
	if got := U32LE(data[4:]); got != 0xefcdab89 {
		t.Fatalf("U32LE tail = 0x%x, want 0xefcdab89", got)
	}

	short := []byte{0xAA}
	if U16LE(short) != 0 || U32LE(short) != 0 {
		t.Fatalf("short reads should return 0")
	}

	out := make([]byte, 4)
	PutU32LE(out, 0xdeadbeef)
	if U32LE(out) != 0xdeadbeef {
		t.Fatalf("PutU32LE round trip failed: %x", out)
	}
	PutU16LE(out, 0x1234)
	if out[0] != 0x34 || out[1] != 0x12 {
		t.Fatalf("PutU16LE wrote %x", out[:2])
	}
}
