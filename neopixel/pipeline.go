package neopixel

import "context"

// Stats counts what a Writer has done since creation.
type Stats struct {
	Words   uint64 // words accepted by the queue
	Writes  uint64 // completed Write calls
	Flushes uint64
	Resets  uint64
}

// Writer streams words into a Queue in order. It is the single producer
// of its queue.
type Writer struct {
	q     Queue
	stats Stats
}

// NewWriter returns a Writer producing into q.
func NewWriter(q Queue) *Writer {
	return &Writer{q: q}
}

// Queue returns the queue written to.
func (w *Writer) Queue() Queue { return w.q }

// Write pushes words one at a time, suspending whenever the queue is full.
// It returns once the last word is queued, not when it has been sent. On
// cancellation n words were queued and the queue must be Reset before reuse.
func (w *Writer) Write(ctx context.Context, words []Word) (n int, err error) {
	for _, word := range words {
		if err = w.q.Push(ctx, word); err != nil {
			return n, err
		}
		n++
		w.stats.Words++
	}
	w.stats.Writes++
	return n, nil
}

// Flush waits until every queued word has been sent. Queues that cannot
// report completion return immediately.
func (w *Writer) Flush(ctx context.Context) error {
	w.stats.Flushes++
	if d, ok := w.q.(Drainer); ok {
		return d.Drain(ctx)
	}
	return nil
}

// Reset discards queued words and idles the line.
func (w *Writer) Reset() {
	w.stats.Resets++
	w.q.Reset()
}

// Stats returns the counters.
func (w *Writer) Stats() Stats { return w.stats }
