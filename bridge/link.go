//go:build !tinygo

package bridge

import (
	"bytes"
	"fmt"

	"github.com/cnf/structhash"
)

// LinkStats counts frames moved by a Link.
type LinkStats struct {
	Sent     int
	Skipped  int
	Received int
}

// Link sends and receives frames over a Port. Frames identical to the last
// one sent are not repeated. A Link is not safe for concurrent use.
type Link struct {
	port  Port
	enc   *Encoder
	dec   *Decoder
	last  []byte
	stats LinkStats
}

func NewLink(p Port) *Link {
	return &Link{port: p, enc: NewEncoder(p), dec: NewDecoder(p)}
}

// Send writes f unless it matches the previous frame. It reports whether
// the frame was written.
func (l *Link) Send(f Frame) (bool, error) {
	hash := structhash.Md5(f, 1)
	if bytes.Equal(hash, l.last) {
		l.stats.Skipped++
		return false, nil
	}
	if err := l.enc.Encode(f); err != nil {
		l.last = nil
		return false, fmt.Errorf("bridge: send %d words: %w", len(f.Words), err)
	}
	if err := l.port.Flush(); err != nil {
		return true, fmt.Errorf("bridge: flush: %w", err)
	}
	l.last = hash
	l.stats.Sent++
	return true, nil
}

// Invalidate makes the next Send write its frame even if unchanged.
func (l *Link) Invalidate() { l.last = nil }

// Receive reads the next frame from the port.
func (l *Link) Receive() (Frame, error) {
	f, err := l.dec.Decode()
	if err != nil {
		return Frame{}, err
	}
	l.stats.Received++
	return f, nil
}

func (l *Link) Stats() LinkStats { return l.stats }

func (l *Link) Close() error { return l.port.Close() }
