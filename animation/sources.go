package animation

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/tinygo-org/neopio/internal/mathx"
	"github.com/tinygo-org/neopio/neopixel"
)

// Rainbow spreads the hue wheel over the strip and rotates it every frame.
type Rainbow struct {
	// Step is the hue rotation per frame in degrees.
	Step float64
	// Spread is the hue distance between neighbouring LEDs in degrees.
	Spread float64
	// Saturation and Value are clamped to [0, 1].
	Saturation, Value float64
}

func (r Rainbow) Render(n int, dst []neopixel.Color) {
	s := mathx.Clamp(r.Saturation, 0, 1)
	v := mathx.Clamp(r.Value, 0, 1)
	for i := range dst {
		hue := math.Mod(float64(n)*r.Step+float64(i)*r.Spread, 360)
		if hue < 0 {
			hue += 360
		}
		dst[i] = fromColorful(colorful.Hsv(hue, s, v))
	}
}

// Gradient blends two colors in Lab space along the strip. A non-zero
// Scroll moves the gradient by that many LEDs per frame.
type Gradient struct {
	From, To colorful.Color
	Scroll   int
}

// NewGradient parses two "#rrggbb" colors.
func NewGradient(from, to string) (*Gradient, error) {
	c1, err := colorful.Hex(from)
	if err != nil {
		return nil, &neopixel.ConfigurationError{Param: "from", Reason: "bad hex color", Err: err}
	}
	c2, err := colorful.Hex(to)
	if err != nil {
		return nil, &neopixel.ConfigurationError{Param: "to", Reason: "bad hex color", Err: err}
	}
	return &Gradient{From: c1, To: c2}, nil
}

func (g *Gradient) Render(n int, dst []neopixel.Color) {
	k := len(dst)
	for i := range dst {
		var t float64
		if k > 1 {
			pos := mathx.Wrap(i+n*g.Scroll, k)
			t = float64(pos) / float64(k-1)
		}
		dst[i] = fromColorful(g.From.BlendLab(g.To, t).Clamped())
	}
}

// Rainbow12 is a twelve step color wheel.
var Rainbow12 = []neopixel.Color{
	{R: 255, G: 0, B: 0},     // red
	{R: 255, G: 127, B: 0},   // orange
	{R: 255, G: 255, B: 0},   // yellow
	{R: 127, G: 255, B: 0},   // chartreuse
	{R: 0, G: 255, B: 0},     // green
	{R: 0, G: 255, B: 127},   // spring green
	{R: 0, G: 255, B: 255},   // cyan
	{R: 0, G: 127, B: 255},   // azure
	{R: 0, G: 0, B: 255},     // blue
	{R: 127, G: 0, B: 255},   // violet
	{R: 255, G: 0, B: 255},   // magenta
	{R: 255, G: 0, B: 127},   // rose
}

// Palette repeats a fixed color table along the strip, advancing Step
// entries per frame.
type Palette struct {
	Colors []neopixel.Color
	Step   int
}

func (p Palette) Render(n int, dst []neopixel.Color) {
	if len(p.Colors) == 0 {
		return
	}
	for i := range dst {
		dst[i] = p.Colors[mathx.Wrap(i+n*p.Step, len(p.Colors))]
	}
}

// Chase runs blocks of Width lit LEDs separated by Gap background LEDs
// along the strip, one LED per frame.
type Chase struct {
	Color, Background neopixel.Color
	Width, Gap        int
}

func (c Chase) Render(n int, dst []neopixel.Color) {
	period := c.Width + c.Gap
	for i := range dst {
		if period > 0 && mathx.Wrap(i-n, period) < c.Width {
			dst[i] = c.Color
		} else {
			dst[i] = c.Background
		}
	}
}

func fromColorful(c colorful.Color) neopixel.Color {
	r, g, b := c.RGB255()
	return neopixel.Color{R: r, G: g, B: b}
}
