// Command neosim plays an animation on an emulated LED line and reports
// the timing the PIO program produces.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/go-stack/stack"
	logxi "github.com/mgutz/logxi/v1"

	"github.com/tinygo-org/neopio/animation"
	"github.com/tinygo-org/neopio/bridge"
	"github.com/tinygo-org/neopio/neopixel"
)

var logger = logxi.New("neosim")

// tracedError carries the call stack where an error was first seen.
type tracedError struct {
	err   error
	stack stack.CallStack
}

func (e *tracedError) Error() string { return e.err.Error() }

func (e *tracedError) Unwrap() error { return e.err }

func traced(err error) error {
	if err == nil {
		return nil
	}
	var te *tracedError
	if errors.As(err, &te) {
		return err
	}
	return &tracedError{err: err, stack: stack.Trace().TrimBelow(stack.Caller(1)).TrimRuntime()}
}

func main() {
	sc, err := parseArgs(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if sc.Verbose {
		logger.SetLevel(logxi.LevelDebug)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, sc, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		args := []interface{}{"err", err.Error()}
		var te *tracedError
		if errors.As(err, &te) {
			args = append(args, "stack", fmt.Sprintf("%v", te.stack))
		}
		logger.Error("neosim failed", args...)
		os.Exit(1)
	}
}

// frameHook shows frames on a strip and inspects each one once it is latched.
type frameHook struct {
	*neopixel.Strip
	after func() error
}

func (h *frameHook) ShowSync(ctx context.Context) error {
	if err := h.Strip.ShowSync(ctx); err != nil {
		return err
	}
	return h.after()
}

func run(ctx context.Context, sc Scene, w io.Writer) error {
	timing, err := sc.timing()
	if err != nil {
		return traced(err)
	}
	layout, err := neopixel.ParseLayout(sc.Layout)
	if err != nil {
		return traced(err)
	}
	src, err := sc.source()
	if err != nil {
		return traced(err)
	}
	writeTiming(w, timing, layout)

	line, err := neopixel.NewLine(timing, layout, sc.Depth)
	if err != nil {
		return traced(err)
	}
	strip := neopixel.NewStrip(line, layout, timing, sc.LEDs)
	strip.SetBrightness(sc.Brightness)
	strip.SetGamma(sc.Gamma)

	var link *bridge.Link
	if sc.Serial != "" {
		port, err := bridge.Open(bridge.DefaultConfig(sc.Serial))
		if err != nil {
			return traced(err)
		}
		link = bridge.NewLink(port)
		defer link.Close()
		logger.Info("mirroring frames", "port", sc.Serial)
	}

	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	go line.Follow(runCtx)

	var stats pulseStats
	frame := 0
	hook := &frameHook{Strip: strip, after: func() error {
		tr := line.TakeWaveform()
		stats.measure(tr, timing)
		sent := strip.Frame()
		d, err := neopixel.DecodeWaveform(tr, timing, layout.Bits())
		if err != nil {
			return traced(fmt.Errorf("frame %d: %w", frame, err))
		}
		if len(d.Words) != len(sent) {
			return traced(fmt.Errorf("frame %d: decoded %d words, sent %d", frame, len(d.Words), len(sent)))
		}
		for i := range sent {
			if d.Words[i] != sent[i] {
				return traced(fmt.Errorf("frame %d word %d: decoded %#08x, sent %#08x", frame, i, d.Words[i], sent[i]))
			}
		}
		logger.Debug("frame", "n", frame, "words", len(sent), "stretched", d.Stretched, "ticks", tr.Ticks())
		if link != nil {
			if _, err := link.Send(bridge.Frame{Bits: layout.Bits(), Words: sent}); err != nil {
				return traced(err)
			}
		}
		frame++
		return nil
	}}

	n, err := animation.Play(ctx, hook, src, sc.Period, sc.Frames)
	st := strip.Writer().Stats()
	fmt.Fprintf(w, "played     %d frames, %d words in %d writes, %d pulled by the program\n", n, st.Words, st.Writes, line.Pulled())
	writeMeasured(w, &stats, timing)
	if link != nil {
		ls := link.Stats()
		fmt.Fprintf(w, "bridge     %d frames sent, %d unchanged skipped\n", ls.Sent, ls.Skipped)
	}
	return traced(err)
}
