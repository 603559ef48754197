package neopixel

import (
	"context"
	"image/color"
	"math"
	"time"

	"tinygo.org/x/drivers"

	"github.com/tinygo-org/neopio/internal/mathx"
)

var _ drivers.Displayer = (*Strip)(nil)

// gamma28 maps linear intensity to LED PWM duty with a 2.8 gamma curve.
var gamma28 = func() (t [256]uint8) {
	for i := range t {
		t[i] = uint8(math.Pow(float64(i)/255, 2.8)*255 + 0.5)
	}
	return t
}()

// Strip is a frame buffer for one LED line. Pixels are set individually and
// sent together by Show.
type Strip struct {
	w      *Writer
	layout Layout
	reset  time.Duration

	pixels     []Color
	words      []Word
	brightness uint16 // 0..256
	gamma      bool
}

// NewStrip returns a strip of n pixels sent through q with the channel
// order of layout. t supplies the latch time used by ShowSync.
func NewStrip(q Queue, layout Layout, t Timing, n int) *Strip {
	return &Strip{
		w:          NewWriter(q),
		layout:     layout,
		reset:      t.Protocol.Reset,
		pixels:     make([]Color, n),
		words:      make([]Word, 0, n),
		brightness: 256,
	}
}

// Writer returns the strip's producer.
func (s *Strip) Writer() *Writer { return s.w }

// Len returns the number of pixels.
func (s *Strip) Len() int { return len(s.pixels) }

// Size implements drivers.Displayer. The strip is one pixel high.
func (s *Strip) Size() (x, y int16) { return int16(len(s.pixels)), 1 }

// SetPixel implements drivers.Displayer.
func (s *Strip) SetPixel(x, y int16, c color.RGBA) {
	if y != 0 || x < 0 || int(x) >= len(s.pixels) {
		return
	}
	s.pixels[x] = Color{R: c.R, G: c.G, B: c.B}
}

// Display implements drivers.Displayer.
func (s *Strip) Display() error { return s.Show(context.Background()) }

// Set sets pixel i. Out of range indices are ignored.
func (s *Strip) Set(i int, c Color) {
	if i >= 0 && i < len(s.pixels) {
		s.pixels[i] = c
	}
}

// Get returns pixel i.
func (s *Strip) Get(i int) Color { return s.pixels[i] }

// Fill sets every pixel to c.
func (s *Strip) Fill(c Color) {
	for i := range s.pixels {
		s.pixels[i] = c
	}
}

// Pixels returns the frame buffer. Changes are sent by the next Show.
func (s *Strip) Pixels() []Color { return s.pixels }

// SetBrightness scales every channel on output, b is clamped to [0, 1].
func (s *Strip) SetBrightness(b float64) {
	s.brightness = uint16(mathx.Clamp(b, 0, 1)*256 + 0.5)
}

// Brightness returns the output scale.
func (s *Strip) Brightness() float64 { return float64(s.brightness) / 256 }

// SetGamma enables gamma correction on output.
func (s *Strip) SetGamma(on bool) { s.gamma = on }

func (s *Strip) scale(v uint8) uint8 {
	v = uint8((uint16(v) * s.brightness) >> 8)
	if s.gamma {
		v = gamma28[v]
	}
	return v
}

// Frame returns the words Show sends for the current pixels.
func (s *Strip) Frame() []Word {
	s.words = s.words[:0]
	for _, c := range s.pixels {
		if s.brightness != 256 || s.gamma {
			c = Color{R: s.scale(c.R), G: s.scale(c.G), B: s.scale(c.B), W: s.scale(c.W)}
		}
		s.words = append(s.words, s.layout.Pack(c))
	}
	return s.words
}

// Show queues the frame and returns once the last word is queued.
func (s *Strip) Show(ctx context.Context) error {
	if s.w.Queue() == nil {
		return errNoLine
	}
	_, err := s.w.Write(ctx, s.Frame())
	return err
}

// ShowSync queues the frame, waits for it to be sent and holds the line
// low for the latch time so the next frame starts a new refresh.
func (s *Strip) ShowSync(ctx context.Context) error {
	if err := s.Show(ctx); err != nil {
		return err
	}
	if err := s.w.Flush(ctx); err != nil {
		return err
	}
	return Sleep(ctx, s.reset)
}
