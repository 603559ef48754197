//go:build !tinygo

package bridge

import (
	"bytes"
	"testing"

	"github.com/tinygo-org/neopio/neopixel"
)

type bufPort struct {
	bytes.Buffer
	flushes int
	closed  bool
}

func (p *bufPort) Flush() error { p.flushes++; return nil }

func (p *bufPort) Close() error { p.closed = true; return nil }

func TestLinkSkipsUnchanged(t *testing.T) {
	port := &bufPort{}
	l := NewLink(port)
	f := Frame{Bits: 24, Words: []neopixel.Word{0x00ff0000, 0}}
	for i, expected := range []bool{true, false, false} {
		sent, err := l.Send(f)
		if err != nil {
			t.Fatal(err)
		}
		if sent != expected {
			t.Errorf("send %d: got %v, expected %v", i, sent, expected)
		}
	}
	f2 := Frame{Bits: 24, Words: []neopixel.Word{0x00fe0000, 0}}
	if sent, _ := l.Send(f2); !sent {
		t.Error("changed frame not sent")
	}
	l.Invalidate()
	if sent, _ := l.Send(f2); !sent {
		t.Error("frame not resent after Invalidate")
	}
	st := l.Stats()
	if st.Sent != 3 || st.Skipped != 2 || port.flushes != 3 {
		t.Errorf("stats %+v, flushes %d", st, port.flushes)
	}

	// The port loops back what was written.
	for i := 0; i < 3; i++ {
		got, err := l.Receive()
		if err != nil {
			t.Fatal(err)
		}
		if len(got.Words) != 2 {
			t.Errorf("frame %d: %+v", i, got)
		}
	}
	if l.Stats().Received != 3 {
		t.Errorf("received %d", l.Stats().Received)
	}
	if _, err := l.Send(Frame{Bits: 7}); err == nil {
		t.Error("expected error for bad frame")
	}
	l.Close()
	if !port.closed {
		t.Error("port not closed")
	}
}
