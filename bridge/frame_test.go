package bridge

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/tinygo-org/neopio/neopixel"
)

func TestCRC16(t *testing.T) {
	testCases := []struct {
		data     []byte
		expected uint16
	}{
		{data: []byte{}, expected: 0xFFFF},
		{data: []byte("123456789"), expected: 0x6F91},
		{data: []byte("NP"), expected: 0x7E4B},
	}
	for i, tc := range testCases {
		if got := CRC16(tc.data); got != tc.expected {
			t.Errorf("case %d: got %#04x, expected %#04x", i, got, tc.expected)
		}
	}
}

func TestAppendFrame(t *testing.T) {
	f := Frame{Bits: 24, Words: []neopixel.Word{0x00ff0000, 0x12345678}}
	got, err := AppendFrame(nil, f)
	if err != nil {
		t.Fatal(err)
	}
	// The low byte of a 24 bit word is not sent.
	expected := []byte{'N', 'P', 24, 0, 2, 0x00, 0xff, 0x00, 0x12, 0x34, 0x56, 0x63, 0x39}
	if !bytes.Equal(got, expected) {
		t.Errorf("got % x\nexpected % x", got, expected)
	}
	got, err = AppendFrame([]byte{1}, Frame{Bits: 32})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte{1, 'N', 'P', 32, 0, 0, 0x46, 0x3f}) {
		t.Errorf("got % x", got)
	}

	if _, err := AppendFrame(nil, Frame{Bits: 16}); err != errBadBits {
		t.Errorf("got %v", err)
	}
	if _, err := AppendFrame(nil, Frame{Bits: 24, Words: make([]neopixel.Word, MaxWords+1)}); err != errTooLong {
		t.Errorf("got %v", err)
	}
}

func TestEncodeDecode(t *testing.T) {
	frames := []Frame{
		{Bits: 24, Words: neopixel.GRB.Encode([]neopixel.Color{{R: 255}, {G: 1, B: 2}})},
		{Bits: 32, Words: neopixel.GRBW.Encode([]neopixel.Color{{R: 1, G: 2, B: 3, W: 4}})},
		{Bits: 24, Words: []neopixel.Word{}},
	}
	var buf bytes.Buffer
	buf.WriteString("junk N")
	enc := NewEncoder(&buf)
	for _, f := range frames {
		if err := enc.Encode(f); err != nil {
			t.Fatal(err)
		}
	}
	dec := NewDecoder(&buf)
	for i, want := range frames {
		got, err := dec.Decode()
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if got.Bits != want.Bits || len(got.Words) != len(want.Words) {
			t.Fatalf("frame %d: got %+v, expected %+v", i, got, want)
		}
		for j := range want.Words {
			if got.Words[j] != want.Words[j] {
				t.Errorf("frame %d word %d: got %#08x, expected %#08x", i, j, got.Words[j], want.Words[j])
			}
		}
	}
	if dec.Skipped() != 6 {
		t.Errorf("skipped %d bytes, expected 6", dec.Skipped())
	}
	if _, err := dec.Decode(); err != io.EOF {
		t.Errorf("got %v, expected EOF", err)
	}
}

func TestDecodeErrors(t *testing.T) {
	good, _ := AppendFrame(nil, Frame{Bits: 24, Words: []neopixel.Word{0x00ff0000}})
	bad := append([]byte(nil), good...)
	bad[6] ^= 1

	// A corrupted frame is reported and the next one still decodes.
	dec := NewDecoder(bytes.NewReader(append(bad, good...)))
	if _, err := dec.Decode(); !errors.Is(err, errChecksum) {
		t.Errorf("got %v", err)
	}
	f, err := dec.Decode()
	if err != nil || len(f.Words) != 1 || f.Words[0] != 0x00ff0000 {
		t.Errorf("got %+v, %v", f, err)
	}

	dec = NewDecoder(bytes.NewReader(good[:7]))
	if _, err := dec.Decode(); err != io.ErrUnexpectedEOF {
		t.Errorf("truncated: got %v", err)
	}
	dec = NewDecoder(bytes.NewReader([]byte{'N', 'P', 8, 0, 0}))
	if _, err := dec.Decode(); err != errBadBits {
		t.Errorf("bad bits: got %v", err)
	}
	dec = NewDecoder(bytes.NewReader([]byte{'N', 'P', 24, 0xff, 0xff}))
	if _, err := dec.Decode(); err != errTooLong {
		t.Errorf("too long: got %v", err)
	}
	dec = NewDecoder(bytes.NewReader([]byte("xyz")))
	if _, err := dec.Decode(); err != io.ErrUnexpectedEOF {
		t.Errorf("garbage: got %v", err)
	}
}
