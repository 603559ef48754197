package neopixel

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/tinygo-org/neopio/rp2-pio/piosim"
)

// State is the phase of the LED program.
type State uint8

const (
	// BitLoop is shifting the next bit or stalled waiting for a word.
	BitLoop State = iota
	// EmitOne is sending the pulse of a one bit.
	EmitOne
	// EmitZero is sending the pulse of a zero bit.
	EmitZero
)

func (s State) String() string {
	switch s {
	case BitLoop:
		return "bit_loop"
	case EmitOne:
		return "emit_one"
	case EmitZero:
		return "emit_zero"
	}
	return "unknown"
}

// Line is an LED line emulated on the host: a FIFO feeding the LED program
// running on a cycle exact state machine. The producer pushes words from its
// own goroutine while Advance or Run moves the state machine forward.
type Line struct {
	fifo   *FIFO
	timing Timing
	layout Layout

	mu      sync.Mutex
	m       *piosim.Machine
	pulled  uint64
	started bool
	idle    chan struct{} // closed when the line next goes idle
	carry   time.Duration
}

// NewLine configures an emulated line. depth is the FIFO depth, zero selects DepthJoined.
func NewLine(t Timing, l Layout, depth int) (*Line, error) {
	if !l.IsValid() {
		return nil, &ConfigurationError{Param: "layout", Reason: "zero layout"}
	}
	if depth == 0 {
		depth = DepthJoined
	}
	if depth != DepthJoined && depth != DepthSplit {
		return nil, &ConfigurationError{Param: "depth", Reason: "must be 4 or 8"}
	}
	if err := t.Cycles.validate(); err != nil {
		return nil, err
	}
	line := &Line{fifo: NewFIFO(depth), timing: t, layout: l}
	m, err := piosim.New(piosim.Config{
		Program:       Program(t.Cycles),
		AutoPull:      true,
		PullThreshold: l.Bits(),
	}, lineSource{line})
	if err != nil {
		return nil, &ConfigurationError{Param: "program", Err: err}
	}
	line.m = m
	return line, nil
}

type lineSource struct{ l *Line }

func (s lineSource) TryPop() (uint32, bool) {
	w, ok := s.l.fifo.TryPop()
	if ok {
		s.l.pulled++
	}
	return w, ok
}

// Push implements Queue.
func (l *Line) Push(ctx context.Context, w Word) error { return l.fifo.Push(ctx, w) }

// Len implements Queue.
func (l *Line) Len() int { return l.fifo.Len() }

// Cap implements Queue.
func (l *Line) Cap() int { return l.fifo.Cap() }

// Timing returns the line timing.
func (l *Line) Timing() Timing { return l.timing }

// Layout returns the line layout.
func (l *Line) Layout() Layout { return l.layout }

// Reset drops queued words, restarts the program and clears the waveform.
func (l *Line) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fifo.Reset()
	l.m.Restart()
	l.m.TakeTrace()
	l.carry = 0
	l.started = false
	l.notifyIdle()
}

// Advance runs the state machine for ticks cycles.
func (l *Line) Advance(ticks uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if ticks > 0 {
		l.started = true
	}
	l.m.Run(ticks)
	l.notifyIdle()
}

// AdvanceFor runs the state machine for the number of whole cycles in d.
// The remainder carries over to the next call.
func (l *Line) AdvanceFor(d time.Duration) {
	tick := l.timing.TickPeriod()
	if tick <= 0 {
		return
	}
	l.mu.Lock()
	total := l.carry + d
	n := total / tick
	l.carry = total - n*tick
	l.mu.Unlock()
	l.Advance(uint64(n))
}

// Run advances the line by the time elapsed between consecutive ticks until
// ctx is done. A time.Ticker channel runs the line in real time.
func (l *Line) Run(ctx context.Context, ticks <-chan time.Time) error {
	var last time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticks:
			if !last.IsZero() && now.After(last) {
				l.AdvanceFor(now.Sub(last))
			}
			last = now
		}
	}
}

// Follow runs the line only while it has work. Queued words are shifted
// out one word time per step, faster than real time, and the line parks
// while idle. When words arrive after a pause, the pause is replayed as
// low time before the first of them is pulled, so gaps between frames keep
// their wall clock length.
func (l *Line) Follow(ctx context.Context) error {
	step := uint64(l.layout.Bits()) * uint64(l.timing.Cycles.PerBit())
	src := lineSource{l}
	for {
		l.mu.Lock()
		idle := l.idleLocked()
		l.mu.Unlock()
		if !idle {
			l.Advance(step)
			runtime.Gosched()
			continue
		}
		since := time.Now()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.fifo.Readable():
		}
		l.mu.Lock()
		l.m.SetSource(nil)
		l.mu.Unlock()
		l.AdvanceFor(time.Since(since))
		l.mu.Lock()
		l.m.SetSource(src)
		l.mu.Unlock()
	}
}

// idleLocked reports whether every pushed word has been shifted out.
func (l *Line) idleLocked() bool {
	return l.fifo.Len() == 0 && (!l.started || l.m.Stalled())
}

func (l *Line) notifyIdle() {
	if l.idle != nil && l.idleLocked() {
		close(l.idle)
		l.idle = nil
	}
}

// Drain implements Drainer. It waits until the FIFO is empty and the last
// bit has been sent, which requires the line to be advanced concurrently.
func (l *Line) Drain(ctx context.Context) error {
	l.mu.Lock()
	if l.idleLocked() {
		l.mu.Unlock()
		return nil
	}
	if l.idle == nil {
		l.idle = make(chan struct{})
	}
	idle := l.idle
	l.mu.Unlock()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State reports the program phase of the last cycle.
func (l *Line) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch l.m.Current() {
	case addrBranch:
		if l.m.X() != 0 {
			return EmitOne
		}
		return EmitZero
	case addrDoOne:
		return EmitOne
	case addrDoZero:
		return EmitZero
	}
	return BitLoop
}

// Level returns the current data pin level.
func (l *Line) Level() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.m.Pin(0)
}

// Ticks returns the number of cycles run since the line was created.
func (l *Line) Ticks() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.m.Ticks()
}

// Pulled returns the number of words the state machine has taken from the FIFO.
func (l *Line) Pulled() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pulled
}

// Waveform returns the data pin trace recorded since the last TakeWaveform or Reset.
func (l *Line) Waveform() piosim.Trace {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.m.Trace()
}

// TakeWaveform returns the recorded trace and starts a new one.
func (l *Line) TakeWaveform() piosim.Trace {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.m.TakeTrace()
}
