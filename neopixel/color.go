package neopixel

import (
	"image/color"
	"math/bits"
	"strings"
)

// Color is an LED color. W is only transmitted by four channel layouts.
type Color struct {
	R, G, B, W uint8
}

// FromColor converts any color.Color to an LED color, dropping alpha.
func FromColor(c color.Color) Color {
	if rgba, ok := c.(color.RGBA); ok {
		return Color{R: rgba.R, G: rgba.G, B: rgba.B}
	}
	r, g, b, _ := c.RGBA()
	return Color{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8)}
}

// RGBA implements color.Color. White is not represented.
func (c Color) RGBA() (r, g, b, a uint32) {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff}.RGBA()
}

// Channel identifies one LED channel.
type Channel uint8

const (
	Red Channel = iota
	Green
	Blue
	White
)

func (c Color) channel(ch Channel) uint8 {
	switch ch {
	case Red:
		return c.R
	case Green:
		return c.G
	case Blue:
		return c.B
	}
	return c.W
}

func (c *Color) setChannel(ch Channel, v uint8) {
	switch ch {
	case Red:
		c.R = v
	case Green:
		c.G = v
	case Blue:
		c.B = v
	default:
		c.W = v
	}
}

// BitOrder is the order bits of each channel byte go out on the wire.
type BitOrder uint8

const (
	MSBFirst BitOrder = iota
	LSBFirst
)

// Word is a packed color, left aligned so the first bit on the wire is bit 31.
type Word uint32

// Layout is the channel and bit order a protocol transmits colors in.
// The zero Layout is not valid, use one of the predefined layouts or ParseLayout.
type Layout struct {
	order [4]Channel
	n     uint8
	bits  BitOrder
}

// Predefined layouts.
var (
	GRB  = mustLayout("GRB") // WS2812, WS2812B, SK6812 RGB
	RGB  = mustLayout("RGB") // WS2811 on most strips
	BRG  = mustLayout("BRG")
	RBG  = mustLayout("RBG")
	GBR  = mustLayout("GBR")
	BGR  = mustLayout("BGR")
	GRBW = mustLayout("GRBW") // SK6812 RGBW
	RGBW = mustLayout("RGBW")
)

func mustLayout(s string) Layout {
	l, err := ParseLayout(s)
	if err != nil {
		panic(err)
	}
	return l
}

// ParseLayout parses a channel order such as "GRB" or "grbw". R, G and B
// must each appear once, W at most once.
func ParseLayout(s string) (Layout, error) {
	var l Layout
	var seen [4]bool
	if len(s) != 3 && len(s) != 4 {
		return Layout{}, &ConfigurationError{Param: "layout", Reason: "want 3 or 4 channels, got " + s}
	}
	for i, r := range strings.ToUpper(s) {
		var ch Channel
		switch r {
		case 'R':
			ch = Red
		case 'G':
			ch = Green
		case 'B':
			ch = Blue
		case 'W':
			ch = White
		default:
			return Layout{}, &ConfigurationError{Param: "layout", Reason: "unknown channel " + string(r)}
		}
		if seen[ch] {
			return Layout{}, &ConfigurationError{Param: "layout", Reason: "duplicate channel " + string(r)}
		}
		seen[ch] = true
		l.order[i] = ch
		l.n++
	}
	if !seen[Red] || !seen[Green] || !seen[Blue] {
		return Layout{}, &ConfigurationError{Param: "layout", Reason: "missing color channel in " + s}
	}
	return l, nil
}

// WithBitOrder returns the layout transmitting each channel in order o.
func (l Layout) WithBitOrder(o BitOrder) Layout {
	l.bits = o
	return l
}

// BitOrder returns the per-channel bit order.
func (l Layout) BitOrder() BitOrder { return l.bits }

// Channels returns the number of channels per color, 3 or 4.
func (l Layout) Channels() int { return int(l.n) }

// Bits returns the number of bits sent per color. It is the autopull threshold
// of the state machine.
func (l Layout) Bits() uint8 { return 8 * l.n }

// IsValid reports whether l was built by ParseLayout.
func (l Layout) IsValid() bool { return l.n == 3 || l.n == 4 }

// Pack returns the word for c. Unused low bits are zero.
func (l Layout) Pack(c Color) Word {
	var w uint32
	for i := uint8(0); i < l.n; i++ {
		v := c.channel(l.order[i])
		if l.bits == LSBFirst {
			v = bits.Reverse8(v)
		}
		w |= uint32(v) << (24 - 8*i)
	}
	return Word(w)
}

// Unpack is the inverse of Pack. Channels the layout lacks are zero.
func (l Layout) Unpack(w Word) Color {
	var c Color
	for i := uint8(0); i < l.n; i++ {
		v := uint8(w >> (24 - 8*i))
		if l.bits == LSBFirst {
			v = bits.Reverse8(v)
		}
		c.setChannel(l.order[i], v)
	}
	return c
}

// Encode packs colors in order, one word per color.
func (l Layout) Encode(colors []Color) []Word {
	if len(colors) == 0 {
		return nil
	}
	words := make([]Word, len(colors))
	for i, c := range colors {
		words[i] = l.Pack(c)
	}
	return words
}

// EncodeInto is Encode reusing dst's storage.
func (l Layout) EncodeInto(dst []Word, colors []Color) []Word {
	dst = dst[:0]
	for _, c := range colors {
		dst = append(dst, l.Pack(c))
	}
	return dst
}

func (l Layout) String() string {
	const names = "RGBW"
	var b [4]byte
	for i := uint8(0); i < l.n; i++ {
		b[i] = names[l.order[i]]
	}
	s := string(b[:l.n])
	if l.bits == LSBFirst {
		s += "/lsb"
	}
	return s
}
