package neopixel

import (
	"context"
	"sync/atomic"
)

// TX FIFO depths of a PIO state machine.
const (
	DepthJoined = 8 // TX and RX FIFOs joined
	DepthSplit  = 4
)

// Queue is the producer end of a bounded word FIFO feeding an LED line.
// Push blocks while the queue is full; it never drops or overwrites words.
type Queue interface {
	// Push appends w, suspending until there is room or ctx is done.
	Push(ctx context.Context, w Word) error
	// Len returns the number of words waiting to be shifted out.
	Len() int
	// Cap returns the fixed capacity.
	Cap() int
	// Reset discards queued words and returns the line to idle. Queue
	// contents after an abandoned push are undefined until Reset is called.
	Reset()
}

// Drainer is implemented by queues that can report when every pushed word
// has been shifted out.
type Drainer interface {
	Drain(ctx context.Context) error
}

// FIFO is a single-producer single-consumer bounded word queue. Push and
// TryPop may run on different goroutines without further locking.
type FIFO struct {
	buf  []Word
	mask uint32
	rd   atomic.Uint32 // consumer index (monotonic)
	wr   atomic.Uint32 // producer index (monotonic)

	readable chan struct{} // empty -> non-empty edge
	writable chan struct{} // full -> non-full edge
}

// NewFIFO returns an empty FIFO holding up to depth words. depth must be a power of two.
func NewFIFO(depth int) *FIFO {
	if depth < 1 || depth&(depth-1) != 0 {
		panic("neopixel: fifo depth must be a power of two")
	}
	return &FIFO{
		buf:      make([]Word, depth),
		mask:     uint32(depth - 1),
		readable: make(chan struct{}, 1),
		writable: make(chan struct{}, 1),
	}
}

func (f *FIFO) size() uint32 { return uint32(len(f.buf)) }

// Cap returns the capacity given to NewFIFO.
func (f *FIFO) Cap() int { return len(f.buf) }

// Len returns the number of queued words.
func (f *FIFO) Len() int {
	rd := f.rd.Load()
	wr := f.wr.Load()
	return int(wr - rd)
}

// TryPush appends w if there is room.
func (f *FIFO) TryPush(w Word) bool {
	rd := f.rd.Load()
	wr := f.wr.Load()
	before := wr - rd
	if before >= f.size() {
		return false
	}
	f.buf[wr&f.mask] = w
	f.wr.Store(wr + 1) // release

	if before == 0 {
		select {
		case f.readable <- struct{}{}:
		default:
		}
	}
	return true
}

// Push appends w, waiting for the consumer while the FIFO is full.
func (f *FIFO) Push(ctx context.Context, w Word) error {
	for !f.TryPush(w) {
		select {
		case <-f.writable:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// TryPop removes the oldest word. It is the consumer end.
func (f *FIFO) TryPop() (uint32, bool) {
	rd := f.rd.Load()
	wr := f.wr.Load() // acquire
	if wr == rd {
		return 0, false
	}
	w := f.buf[rd&f.mask]
	f.rd.Store(rd + 1) // release

	if wr-rd == f.size() {
		select {
		case f.writable <- struct{}{}:
		default:
		}
	}
	return uint32(w), true
}

// Reset drops all queued words. It must not race with TryPop.
func (f *FIFO) Reset() {
	f.rd.Store(f.wr.Load())
	select {
	case f.writable <- struct{}{}:
	default:
	}
}

// Readable signals after the FIFO went from empty to non-empty.
func (f *FIFO) Readable() <-chan struct{} { return f.readable }
