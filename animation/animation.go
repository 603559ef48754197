// Package animation renders LED frames and plays them on a strip.
package animation

import (
	"context"
	"time"

	"github.com/tinygo-org/neopio/neopixel"
)

// Source renders animation frames.
type Source interface {
	// Render writes frame n into dst, one color per LED.
	Render(n int, dst []neopixel.Color)
}

// SourceFunc adapts a function to a Source.
type SourceFunc func(n int, dst []neopixel.Color)

func (f SourceFunc) Render(n int, dst []neopixel.Color) { f(n, dst) }

// Target is where frames are shown. *neopixel.Strip implements it.
type Target interface {
	Pixels() []neopixel.Color
	ShowSync(ctx context.Context) error
}

// Play renders frames of src into t and shows each one, waiting period
// between frames. frames <= 0 plays until ctx is done. Play returns the
// number of frames shown.
func Play(ctx context.Context, t Target, src Source, period time.Duration, frames int) (int, error) {
	for n := 0; frames <= 0 || n < frames; n++ {
		src.Render(n, t.Pixels())
		if err := t.ShowSync(ctx); err != nil {
			return n, err
		}
		if frames > 0 && n == frames-1 {
			return n + 1, nil
		}
		if err := neopixel.Sleep(ctx, period); err != nil {
			return n + 1, err
		}
	}
	return frames, nil
}
