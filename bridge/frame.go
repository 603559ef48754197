// Package bridge moves LED frames over a byte stream such as a USB serial
// port, so a host can drive a line attached to a microcontroller.
//
// A frame on the wire is
//
//	'N' 'P' bits count[2] words[count*bits/8] crc[2]
//
// with multi-byte fields big endian. Each word is sent as its bits/8 most
// significant bytes. The CRC covers everything before it.
package bridge

import (
	"bufio"
	"errors"
	"io"

	"github.com/tinygo-org/neopio/neopixel"
)

// MaxWords is the largest number of words in one frame.
const MaxWords = 4096

const (
	magic0    = 'N'
	magic1    = 'P'
	headerLen = 5
	crcLen    = 2
)

var (
	errBadBits  = errors.New("bridge: word width must be 24 or 32 bits")
	errTooLong  = errors.New("bridge: frame too long")
	errChecksum = errors.New("bridge: checksum mismatch")
)

// Frame is one refresh of a line.
type Frame struct {
	// Bits is the number of significant bits per word, 24 or 32.
	Bits  uint8
	Words []neopixel.Word
}

func (f Frame) validate() error {
	if f.Bits != 24 && f.Bits != 32 {
		return errBadBits
	}
	if len(f.Words) > MaxWords {
		return errTooLong
	}
	return nil
}

// AppendFrame appends the wire form of f to dst.
func AppendFrame(dst []byte, f Frame) ([]byte, error) {
	if err := f.validate(); err != nil {
		return dst, err
	}
	start := len(dst)
	n := len(f.Words)
	dst = append(dst, magic0, magic1, f.Bits, byte(n>>8), byte(n))
	nb := int(f.Bits / 8)
	for _, w := range f.Words {
		for i := 0; i < nb; i++ {
			dst = append(dst, byte(w>>(24-8*i)))
		}
	}
	crc := CRC16(dst[start:])
	return append(dst, byte(crc>>8), byte(crc)), nil
}

// Encoder writes frames to a stream.
type Encoder struct {
	w   io.Writer
	buf []byte
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode writes f with a single call to the underlying writer.
func (e *Encoder) Encode(f Frame) error {
	buf, err := AppendFrame(e.buf[:0], f)
	if err != nil {
		return err
	}
	e.buf = buf
	_, err = e.w.Write(buf)
	return err
}

// Decoder reads frames from a stream. Bytes before a frame header are
// skipped, so a decoder can join a stream at any point.
type Decoder struct {
	r       *bufio.Reader
	buf     []byte
	skipped int
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Skipped returns the number of bytes discarded while searching for headers.
func (d *Decoder) Skipped() int { return d.skipped }

// Decode reads the next frame. A frame with a bad checksum is consumed and
// reported, the following frame can still be decoded.
func (d *Decoder) Decode() (Frame, error) {
	if err := d.sync(); err != nil {
		return Frame{}, err
	}
	hdr := d.grow(headerLen)
	hdr[0], hdr[1] = magic0, magic1
	if _, err := io.ReadFull(d.r, hdr[2:]); err != nil {
		return Frame{}, unexpected(err)
	}
	f := Frame{Bits: hdr[2]}
	n := int(hdr[3])<<8 | int(hdr[4])
	if f.Bits != 24 && f.Bits != 32 {
		return Frame{}, errBadBits
	}
	if n > MaxWords {
		return Frame{}, errTooLong
	}
	nb := int(f.Bits / 8)
	total := headerLen + n*nb + crcLen
	buf := d.grow(total)
	if _, err := io.ReadFull(d.r, buf[headerLen:]); err != nil {
		return Frame{}, unexpected(err)
	}
	body := buf[:total-crcLen]
	sum := uint16(buf[total-2])<<8 | uint16(buf[total-1])
	if CRC16(body) != sum {
		return Frame{}, errChecksum
	}
	f.Words = make([]neopixel.Word, n)
	p := body[headerLen:]
	for i := range f.Words {
		var w neopixel.Word
		for j := 0; j < nb; j++ {
			w |= neopixel.Word(p[j]) << (24 - 8*j)
		}
		f.Words[i] = w
		p = p[nb:]
	}
	return f, nil
}

// sync consumes bytes up to and including the next "NP".
func (d *Decoder) sync() error {
	var prev byte
	read := 0
	for {
		b, err := d.r.ReadByte()
		if err != nil {
			d.skipped += read
			if read > 0 {
				return unexpected(err)
			}
			return err
		}
		read++
		if prev == magic0 && b == magic1 {
			d.skipped += read - 2
			return nil
		}
		prev = b
	}
}

// grow returns d.buf resized to n bytes, keeping the first bytes.
func (d *Decoder) grow(n int) []byte {
	if cap(d.buf) < n {
		buf := make([]byte, n)
		copy(buf, d.buf)
		d.buf = buf
	}
	d.buf = d.buf[:n]
	return d.buf
}

func unexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
