package piosim

import (
	"strconv"
	"strings"
)

// Span is a run of cycles during which the traced pin held one level.
type Span struct {
	High  bool
	Ticks uint64
}

// Trace is a run-length record of a pin, one entry per level change.
type Trace struct {
	Spans []Span
}

func (t *Trace) add(high bool, ticks uint64) {
	if n := len(t.Spans); n > 0 && t.Spans[n-1].High == high {
		t.Spans[n-1].Ticks += ticks
		return
	}
	t.Spans = append(t.Spans, Span{High: high, Ticks: ticks})
}

// Ticks returns the total number of cycles recorded.
func (t Trace) Ticks() (n uint64) {
	for _, s := range t.Spans {
		n += s.Ticks
	}
	return n
}

// HighTicks returns the number of cycles the pin was high.
func (t Trace) HighTicks() (n uint64) {
	for _, s := range t.Spans {
		if s.High {
			n += s.Ticks
		}
	}
	return n
}

// String renders the trace as e.g. "L4 H6 L4".
func (t Trace) String() string {
	var b strings.Builder
	for i, s := range t.Spans {
		if i > 0 {
			b.WriteByte(' ')
		}
		if s.High {
			b.WriteByte('H')
		} else {
			b.WriteByte('L')
		}
		b.WriteString(strconv.FormatUint(s.Ticks, 10))
	}
	return b.String()
}
