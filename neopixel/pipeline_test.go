package neopixel

import (
	"context"
	"errors"
	"testing"
)

func TestWriterCanceled(t *testing.T) {
	f := NewFIFO(DepthSplit)
	w := NewWriter(f)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// Room for four words: the fifth push observes the cancellation.
	n, err := w.Write(ctx, make([]Word, 6))
	if n != 4 || !errors.Is(err, context.Canceled) {
		t.Errorf("n=%d err=%v", n, err)
	}
	if st := w.Stats(); st.Words != 4 || st.Writes != 0 {
		t.Errorf("stats %+v", st)
	}
	w.Reset()
	if f.Len() != 0 || w.Stats().Resets != 1 {
		t.Errorf("len %d stats %+v", f.Len(), w.Stats())
	}
}

func TestWriterFlushWithoutDrainer(t *testing.T) {
	w := NewWriter(NewFIFO(DepthJoined))
	if _, err := w.Write(context.Background(), []Word{1, 2}); err != nil {
		t.Fatal(err)
	}
	if err := w.Flush(context.Background()); err != nil {
		t.Fatal(err)
	}
	if w.Queue().Len() != 2 {
		t.Errorf("len %d", w.Queue().Len())
	}
}
