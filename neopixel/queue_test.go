package neopixel

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestFIFOOrder(t *testing.T) {
	f := NewFIFO(DepthJoined)
	ctx := context.Background()
	for round := 0; round < 3; round++ {
		for i := 0; i < f.Cap(); i++ {
			if err := f.Push(ctx, Word(round*100+i)); err != nil {
				t.Fatal(err)
			}
		}
		if f.Len() != f.Cap() {
			t.Fatalf("len %d", f.Len())
		}
		for i := 0; i < f.Cap(); i++ {
			w, ok := f.TryPop()
			if !ok || w != uint32(round*100+i) {
				t.Fatalf("round %d pop %d: got %d ok=%v", round, i, w, ok)
			}
		}
	}
	if _, ok := f.TryPop(); ok {
		t.Error("pop from empty FIFO")
	}
}

func TestFIFOBackpressure(t *testing.T) {
	f := NewFIFO(DepthJoined)
	ctx := context.Background()
	for i := 0; i < f.Cap(); i++ {
		if !f.TryPush(Word(i)) {
			t.Fatalf("push %d refused", i)
		}
	}
	if f.TryPush(99) {
		t.Fatal("push into full FIFO accepted")
	}

	pushed := make(chan int, 2)
	go func() {
		for i := 0; i < 2; i++ {
			if err := f.Push(ctx, Word(100+i)); err != nil {
				return
			}
			pushed <- i
		}
	}()

	select {
	case <-pushed:
		t.Fatal("producer not suspended on full FIFO")
	case <-time.After(50 * time.Millisecond):
	}

	if w, _ := f.TryPop(); w != 0 {
		t.Fatalf("got %d", w)
	}
	select {
	case i := <-pushed:
		if i != 0 {
			t.Fatalf("got push %d", i)
		}
	case <-time.After(time.Second):
		t.Fatal("producer not resumed after one pop")
	}
	// Exactly one slot was freed, the second push waits again.
	select {
	case <-pushed:
		t.Fatal("second push went through without a pop")
	case <-time.After(50 * time.Millisecond):
	}
	if f.Len() != f.Cap() {
		t.Errorf("len %d", f.Len())
	}
	f.TryPop()
	select {
	case <-pushed:
	case <-time.After(time.Second):
		t.Fatal("second push not resumed")
	}

	// Order survives the suspension.
	var got []uint32
	for {
		w, ok := f.TryPop()
		if !ok {
			break
		}
		got = append(got, w)
	}
	want := []uint32{2, 3, 4, 5, 6, 7, 100, 101}
	for i := range want {
		if i >= len(got) || got[i] != want[i] {
			t.Fatalf("order got!=expected: %v != %v", got, want)
		}
	}
}

func TestFIFOPushCanceled(t *testing.T) {
	f := NewFIFO(DepthSplit)
	for i := 0; i < f.Cap(); i++ {
		f.TryPush(Word(i))
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := f.Push(ctx, 1); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
	f.Reset()
	if f.Len() != 0 {
		t.Errorf("len after reset %d", f.Len())
	}
	if err := f.Push(context.Background(), 7); err != nil {
		t.Fatal(err)
	}
	if w, _ := f.TryPop(); w != 7 {
		t.Errorf("got %d", w)
	}
}

func TestFIFODepth(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for depth 3")
		}
	}()
	NewFIFO(3)
}
